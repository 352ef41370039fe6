package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func initDir(t *testing.T) string {
	t.Helper()
	baseDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(baseDir, ".svp"), 0755); err != nil {
		t.Fatalf("mkdir .svp: %v", err)
	}
	return baseDir
}

func TestGetOrCreateRequiresInit(t *testing.T) {
	_, err := GetOrCreate(t.TempDir())
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "svp init") {
		t.Fatalf("expected error to mention svp init, got: %v", err)
	}
}

func TestGetOrCreateReusesSession(t *testing.T) {
	baseDir := initDir(t)

	s1, err := GetOrCreate(baseDir)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if !strings.HasPrefix(s1.ID, "ses_") || len(s1.ID) != 10 {
		t.Fatalf("unexpected session ID %q", s1.ID)
	}
	if !s1.IsNew {
		t.Fatalf("expected IsNew=true on first create")
	}

	s2, err := GetOrCreate(baseDir)
	if err != nil {
		t.Fatalf("GetOrCreate (second): %v", err)
	}
	if s2.IsNew {
		t.Fatalf("expected IsNew=false when reusing existing session")
	}
	if s1.ID != s2.ID {
		t.Fatalf("expected same session ID, got %q vs %q", s1.ID, s2.ID)
	}
	if !s2.StartedAt.Equal(s1.StartedAt) {
		t.Fatalf("StartedAt = %v, want %v", s2.StartedAt, s1.StartedAt)
	}
}

func TestStartReplacesSession(t *testing.T) {
	baseDir := initDir(t)

	s1, err := GetOrCreate(baseDir)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	s2, err := Start(baseDir, "alice")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s1.ID == s2.ID {
		t.Fatalf("expected a new session ID")
	}

	got, err := Get(baseDir)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != s2.ID || got.Username != "alice" {
		t.Fatalf("Get = %+v", got)
	}
}

func TestEnd(t *testing.T) {
	baseDir := initDir(t)
	if _, err := GetOrCreate(baseDir); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if err := End(baseDir); err != nil {
		t.Fatalf("End: %v", err)
	}
	if _, err := Get(baseDir); err == nil {
		t.Fatal("expected error after End")
	}
	if err := End(baseDir); err != nil {
		t.Fatalf("second End: %v", err)
	}
}

func TestGetInvalidFile(t *testing.T) {
	baseDir := initDir(t)
	if err := os.WriteFile(filepath.Join(baseDir, sessionFile), []byte("only-one-line"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Get(baseDir); err == nil {
		t.Fatal("expected error for invalid session file")
	}
	// GetOrCreate recovers by starting a new session
	sess, err := GetOrCreate(baseDir)
	if err != nil || !sess.IsNew {
		t.Fatalf("GetOrCreate = %+v, %v", sess, err)
	}
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTracker(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	tr := NewTracker(15*time.Minute, 2*time.Minute, clock.now)

	steps := []struct {
		advance time.Duration
		touch   bool
		want    State
	}{
		{0, false, Active},
		{12 * time.Minute, false, Active},
		{time.Minute, false, Warning},
		{0, true, Active},
		{13*time.Minute + 30*time.Second, false, Warning},
		{90 * time.Second, false, Expired},
		{0, true, Expired},
	}
	for i, s := range steps {
		clock.advance(s.advance)
		if s.touch {
			tr.Touch()
		}
		if got := tr.Check(); got != s.want {
			t.Fatalf("step %d: state = %v, want %v", i, got, s.want)
		}
	}
	if tr.Remaining() != 0 {
		t.Errorf("Remaining = %v, want 0", tr.Remaining())
	}

	tr.Continue()
	if tr.Check() != Active || tr.Remaining() != 15*time.Minute {
		t.Errorf("after Continue: %v, %v", tr.Check(), tr.Remaining())
	}
}

func TestNewTrackerDefaults(t *testing.T) {
	tests := []struct {
		timeout, warning         time.Duration
		wantTimeout, wantWarning time.Duration
	}{
		{0, 0, DefaultTimeout, DefaultWarning},
		{10 * time.Minute, 0, 10 * time.Minute, DefaultWarning},
		{time.Minute, 5 * time.Minute, time.Minute, 30 * time.Second},
	}
	for _, tt := range tests {
		tr := NewTracker(tt.timeout, tt.warning, nil)
		if tr.Timeout() != tt.wantTimeout || tr.WarningWindow() != tt.wantWarning {
			t.Errorf("NewTracker(%v, %v) = %v/%v", tt.timeout, tt.warning, tr.Timeout(), tr.WarningWindow())
		}
	}
}

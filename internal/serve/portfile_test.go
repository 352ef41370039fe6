package serve

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

// deadPID is outside typical PID ranges
const deadPID = 1<<30 + 7

func TestGenerateInstanceID(t *testing.T) {
	id, err := GenerateInstanceID()
	if err != nil {
		t.Fatalf("GenerateInstanceID() error: %v", err)
	}
	if !strings.HasPrefix(id, "srv_") || len(id) != 10 {
		t.Errorf("unexpected id %q", id)
	}
	id2, _ := GenerateInstanceID()
	if id == id2 {
		t.Errorf("expected unique IDs, got %q twice", id)
	}
}

func TestWriteReadDeletePortFile(t *testing.T) {
	baseDir := t.TempDir()
	now := time.Now().Truncate(time.Second).UTC()
	info := &PortInfo{Port: 54321, PID: deadPID, StartedAt: now, InstanceID: "srv_abc123"}

	if err := WritePortFile(baseDir, info); err != nil {
		t.Fatalf("WritePortFile() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(baseDir, ".svp", portLockFileName)); err != nil {
		t.Errorf("lock file not created: %v", err)
	}

	got, err := ReadPortFile(baseDir)
	if err != nil {
		t.Fatalf("ReadPortFile() error: %v", err)
	}
	if got.Port != info.Port || got.PID != info.PID || got.InstanceID != info.InstanceID || !got.StartedAt.Equal(now) {
		t.Errorf("ReadPortFile() = %+v, want %+v", got, info)
	}
	if got.URL() != "http://localhost:54321" {
		t.Errorf("URL() = %q", got.URL())
	}

	// another instance id leaves the file alone
	if err := DeletePortFile(baseDir, "srv_other"); err != nil {
		t.Fatalf("DeletePortFile(other) error: %v", err)
	}
	if _, err := ReadPortFile(baseDir); err != nil {
		t.Fatalf("port file removed by foreign instance: %v", err)
	}

	if err := DeletePortFile(baseDir, "srv_abc123"); err != nil {
		t.Fatalf("DeletePortFile() error: %v", err)
	}
	if _, err := ReadPortFile(baseDir); err == nil {
		t.Fatal("expected error after delete")
	}
	if err := DeletePortFile(baseDir, ""); err != nil {
		t.Errorf("DeletePortFile() on missing file: %v", err)
	}
}

func TestReadPortFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"invalid json", "{nope", "parse port file"},
		{"missing port", `{"pid": 1, "instance_id": "srv_x"}`, "port"},
		{"missing pid", `{"port": 1, "instance_id": "srv_x"}`, "pid"},
		{"missing instance", `{"port": 1, "pid": 1}`, "instance_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			baseDir := t.TempDir()
			if err := os.MkdirAll(filepath.Join(baseDir, ".svp"), 0755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(portFilePath(baseDir), []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := ReadPortFile(baseDir)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func healthyServer(t *testing.T) int {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(ts.Close)
	u, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatal(err)
	}
	return port
}

func TestWritePortFileRejectsLiveServer(t *testing.T) {
	baseDir := t.TempDir()
	port := healthyServer(t)
	live := &PortInfo{Port: port, PID: os.Getpid(), StartedAt: time.Now(), InstanceID: "srv_live01"}
	if err := WritePortFile(baseDir, live); err != nil {
		t.Fatalf("WritePortFile() error: %v", err)
	}

	err := WritePortFile(baseDir, &PortInfo{Port: 1, PID: os.Getpid(), StartedAt: time.Now(), InstanceID: "srv_next01"})
	if err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("err = %v, want already running", err)
	}

	got, err := Discover(baseDir)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if got.InstanceID != "srv_live01" {
		t.Errorf("Discover() = %+v", got)
	}
}

func TestWritePortFileReplacesStale(t *testing.T) {
	baseDir := t.TempDir()
	stale := &PortInfo{Port: 1, PID: deadPID, StartedAt: time.Now(), InstanceID: "srv_old001"}
	if err := WritePortFile(baseDir, stale); err != nil {
		t.Fatal(err)
	}
	if _, err := Discover(baseDir); !errors.Is(err, ErrNoServer) {
		t.Errorf("Discover() err = %v, want ErrNoServer", err)
	}

	fresh := &PortInfo{Port: 2, PID: deadPID, StartedAt: time.Now(), InstanceID: "srv_new001"}
	if err := WritePortFile(baseDir, fresh); err != nil {
		t.Fatalf("WritePortFile() over stale: %v", err)
	}
	got, _ := ReadPortFile(baseDir)
	if got.InstanceID != "srv_new001" {
		t.Errorf("InstanceID = %q", got.InstanceID)
	}
}

func TestDiscoverMissing(t *testing.T) {
	if _, err := Discover(t.TempDir()); !errors.Is(err, ErrNoServer) {
		t.Errorf("err = %v, want ErrNoServer", err)
	}
}

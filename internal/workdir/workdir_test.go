package workdir

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveBaseDir(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, dir string) string
	}{
		{
			name: "project dir present",
			setup: func(t *testing.T, dir string) string {
				if err := os.Mkdir(filepath.Join(dir, ".svp"), 0755); err != nil {
					t.Fatal(err)
				}
				return dir
			},
		},
		{
			name: "relative root file",
			setup: func(t *testing.T, dir string) string {
				main := filepath.Join(dir, "main")
				if err := os.MkdirAll(filepath.Join(main, ".svp"), 0755); err != nil {
					t.Fatal(err)
				}
				if err := os.WriteFile(filepath.Join(dir, ".svp-root"), []byte("main\n"), 0644); err != nil {
					t.Fatal(err)
				}
				return main
			},
		},
		{
			name: "absolute root file",
			setup: func(t *testing.T, dir string) string {
				other := t.TempDir()
				if err := os.WriteFile(filepath.Join(dir, ".svp-root"), []byte(other), 0644); err != nil {
					t.Fatal(err)
				}
				return other
			},
		},
		{
			name: "empty root file is ignored",
			setup: func(t *testing.T, dir string) string {
				if err := os.WriteFile(filepath.Join(dir, ".svp-root"), []byte("  \n"), 0644); err != nil {
					t.Fatal(err)
				}
				if err := os.Mkdir(filepath.Join(dir, ".svp"), 0755); err != nil {
					t.Fatal(err)
				}
				return dir
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			want := filepath.Clean(tt.setup(t, dir))
			if got := ResolveBaseDir(dir); got != want {
				t.Errorf("ResolveBaseDir = %q, want %q", got, want)
			}
		})
	}
}

func TestResolveBaseDirEmpty(t *testing.T) {
	if got := ResolveBaseDir(""); got != "" {
		t.Errorf("ResolveBaseDir(\"\") = %q", got)
	}
}

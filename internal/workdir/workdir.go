// Package workdir resolves the svp project root directory, supporting git
// worktree redirection via .svp-root files.
package workdir

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/marcus/svp/internal/config"
)

const rootFile = ".svp-root"

// ResolveBaseDir resolves the project root with conservative heuristics:
//  1. Honor .svp-root in the current directory.
//  2. Use the current directory if it already has a .svp directory.
//  3. If inside git, check the git root for .svp-root or .svp.
//
// If no svp markers are found, it returns the original baseDir unchanged.
func ResolveBaseDir(baseDir string) string {
	if baseDir == "" {
		return baseDir
	}
	baseDir = filepath.Clean(baseDir)

	if resolved, ok := readRootFile(baseDir); ok {
		return resolved
	}
	if hasProjectDir(baseDir) {
		return baseDir
	}

	gitRoot, err := gitTopLevel(baseDir)
	if err != nil || gitRoot == "" {
		return baseDir
	}
	gitRoot = filepath.Clean(gitRoot)

	if resolved, ok := readRootFile(gitRoot); ok {
		return resolved
	}
	if hasProjectDir(gitRoot) {
		return gitRoot
	}

	return baseDir
}

func readRootFile(dir string) (string, bool) {
	content, err := os.ReadFile(filepath.Join(dir, rootFile))
	if err != nil {
		return "", false
	}

	resolved := strings.TrimSpace(string(content))
	if resolved == "" {
		return "", false
	}
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(dir, resolved)
	}

	return filepath.Clean(resolved), true
}

func hasProjectDir(dir string) bool {
	fi, err := os.Stat(filepath.Join(dir, config.Dir))
	return err == nil && fi.IsDir()
}

func gitTopLevel(dir string) (string, error) {
	out, err := exec.Command("git", "-C", dir, "rev-parse", "--show-toplevel").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

package serve

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const (
	portFileName     = "serve-port"
	portLockFileName = "serve-port.lock"
	stateDir         = ".svp"
	instancePrefix   = "srv_"
	healthTimeout    = 2 * time.Second
	lockTimeout      = 5 * time.Second
)

// ErrNoServer is returned by Discover when no live server is registered.
var ErrNoServer = errors.New("no running svp serve instance")

// PortInfo is written to .svp/serve-port while a server is running.
type PortInfo struct {
	Port       int       `json:"port"`
	PID        int       `json:"pid"`
	StartedAt  time.Time `json:"started_at"`
	InstanceID string    `json:"instance_id"`
}

// URL returns the local base URL of the server.
func (p *PortInfo) URL() string {
	return fmt.Sprintf("http://localhost:%d", p.Port)
}

// GenerateInstanceID returns "srv_" followed by 6 random hex characters.
func GenerateInstanceID() (string, error) {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate instance id: %w", err)
	}
	return instancePrefix + hex.EncodeToString(b), nil
}

func portFilePath(baseDir string) string {
	return filepath.Join(baseDir, stateDir, portFileName)
}

// withPortLock runs fn while holding the exclusive port file lock.
func withPortLock(baseDir string, fn func() error) error {
	if err := os.MkdirAll(filepath.Join(baseDir, stateDir), 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	lockFile, err := os.OpenFile(filepath.Join(baseDir, stateDir, portLockFileName), os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return fmt.Errorf("open port lock file: %w", err)
	}
	defer lockFile.Close()

	if err := acquireFileLockTimeout(lockFile, lockTimeout); err != nil {
		return fmt.Errorf("acquire port lock: %w", err)
	}
	defer releaseFileLock(lockFile)
	return fn()
}

// WritePortFile registers info as the running server. It fails when a live
// server is already registered; stale registrations are replaced.
func WritePortFile(baseDir string, info *PortInfo) error {
	return withPortLock(baseDir, func() error {
		if existing, err := ReadPortFile(baseDir); err == nil && !IsPortFileStale(existing) {
			return fmt.Errorf("svp serve already running on port %d (pid %d)", existing.Port, existing.PID)
		}
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal port info: %w", err)
		}
		if err := os.WriteFile(portFilePath(baseDir), data, 0644); err != nil {
			return fmt.Errorf("write port file: %w", err)
		}
		return nil
	})
}

// ReadPortFile reads and validates .svp/serve-port.
func ReadPortFile(baseDir string) (*PortInfo, error) {
	data, err := os.ReadFile(portFilePath(baseDir))
	if err != nil {
		return nil, fmt.Errorf("read port file: %w", err)
	}

	var info PortInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse port file: %w", err)
	}
	switch {
	case info.Port == 0:
		return nil, fmt.Errorf("port file missing required field: port")
	case info.PID == 0:
		return nil, fmt.Errorf("port file missing required field: pid")
	case info.InstanceID == "":
		return nil, fmt.Errorf("port file missing required field: instance_id")
	}
	return &info, nil
}

// DeletePortFile removes the port file if it still belongs to instanceID.
// An empty instanceID removes it unconditionally.
func DeletePortFile(baseDir, instanceID string) error {
	return withPortLock(baseDir, func() error {
		if instanceID != "" {
			if existing, err := ReadPortFile(baseDir); err == nil && existing.InstanceID != instanceID {
				return nil
			}
		}
		if err := os.Remove(portFilePath(baseDir)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove port file: %w", err)
		}
		return nil
	})
}

// IsServerHealthy reports whether GET /health on localhost:port answers 200
// within the health timeout.
func IsServerHealthy(port int) bool {
	client := &http.Client{Timeout: healthTimeout}
	resp, err := client.Get(fmt.Sprintf("http://localhost:%d/health", port))
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// IsPortFileStale reports whether the registered process is gone or no
// longer answers health checks.
func IsPortFileStale(info *PortInfo) bool {
	if !isProcessAlive(info.PID) {
		return true
	}
	return !IsServerHealthy(info.Port)
}

// Discover returns the registered live server for baseDir.
func Discover(baseDir string) (*PortInfo, error) {
	info, err := ReadPortFile(baseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoServer
		}
		return nil, err
	}
	if IsPortFileStale(info) {
		return nil, ErrNoServer
	}
	return info, nil
}

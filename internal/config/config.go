package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/marcus/svp/internal/models"
)

const configFile = ".svp/config.json"

// Dir is the per-project state directory
const Dir = ".svp"

// Load reads the config from disk
func Load(baseDir string) (*models.Config, error) {
	configPath := filepath.Join(baseDir, configFile)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &models.Config{}, nil
		}
		return nil, err
	}

	var cfg models.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the config to disk
func Save(baseDir string, cfg *models.Config) error {
	configPath := filepath.Join(baseDir, configFile)

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// update loads the config, applies fn and saves it
func update(baseDir string, fn func(*models.Config)) error {
	cfg, err := Load(baseDir)
	if err != nil {
		return err
	}
	fn(cfg)
	return Save(baseDir, cfg)
}

// SetUsername sets the user recorded on plan access
func SetUsername(baseDir, username string) error {
	return update(baseDir, func(c *models.Config) { c.Username = strings.TrimSpace(username) })
}

// GetUsername returns the configured username, falling back to $USER
func GetUsername(baseDir string) (string, error) {
	cfg, err := Load(baseDir)
	if err != nil {
		return "", err
	}
	if cfg.Username != "" {
		return cfg.Username, nil
	}
	return os.Getenv("USER"), nil
}

// SetActiveSearch records the saved search applied to the plan list
func SetActiveSearch(baseDir, searchID string) error {
	return update(baseDir, func(c *models.Config) { c.ActiveSearchID = searchID })
}

// ClearActiveSearch drops the applied saved search
func ClearActiveSearch(baseDir string) error {
	return SetActiveSearch(baseDir, "")
}

// SetServer stores the REST server the monitor reads from
func SetServer(baseDir, url, token string) error {
	return update(baseDir, func(c *models.Config) {
		c.ServerURL = strings.TrimRight(strings.TrimSpace(url), "/")
		c.Token = token
	})
}

// SetDefaultPageSize stores the initial page size of the plan list
func SetDefaultPageSize(baseDir string, n int) error {
	return update(baseDir, func(c *models.Config) { c.DefaultPageSize = n })
}

// SetViewOnly toggles read-only mode
func SetViewOnly(baseDir string, viewOnly bool) error {
	return update(baseDir, func(c *models.Config) { c.ViewOnly = viewOnly })
}

// SetSessionTimeout stores the inactivity timeout and warning, in minutes.
// Zero restores the default.
func SetSessionTimeout(baseDir string, timeout, warning int) error {
	return update(baseDir, func(c *models.Config) {
		c.SessionTimeoutMinutes = timeout
		c.SessionWarningMinutes = warning
	})
}

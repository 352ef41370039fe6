package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/marcus/svp/internal/models"
)

const gridConfigKey = "svp_config"

// getAppConfig decodes the JSON document stored under key into v. It
// reports false when no document exists.
func (db *DB) getAppConfig(key string, v any) (bool, error) {
	var raw string
	err := db.conn.QueryRow(`SELECT value FROM app_config WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (db *DB) setAppConfig(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = db.conn.Exec(`INSERT INTO app_config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, string(data))
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// GetGridConfig returns the stored plan list layout. A missing document
// yields an empty config, never an error.
func (db *DB) GetGridConfig() (*models.GridConfig, error) {
	var cfg models.GridConfig
	if _, err := db.getAppConfig(gridConfigKey, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveGridConfig replaces the stored plan list layout
func (db *DB) SaveGridConfig(cfg *models.GridConfig) error {
	return db.setAppConfig(gridConfigKey, cfg)
}

// Option types of the initiate form
const (
	OptionBureau   = "bureau"
	OptionDivision = "division"
	OptionProgram  = "program"
	OptionTeam     = "team"
)

// InitiateOptions returns the initiate form choices. Years are the current
// and next year.
func (db *DB) InitiateOptions() (*models.InitiateOptions, error) {
	year := db.now().Year()
	opts := &models.InitiateOptions{
		Bureaus:       []string{},
		Divisions:     []string{},
		Programs:      []string{},
		Teams:         []string{},
		FiscalYears:   []int{year, year + 1},
		CalendarYears: []int{year, year + 1},
	}

	rows, err := db.conn.Query(`SELECT option_type, value FROM initiate_options ORDER BY option_type, sort_order`)
	if err != nil {
		return nil, fmt.Errorf("list initiate options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var typ, value string
		if err := rows.Scan(&typ, &value); err != nil {
			return nil, fmt.Errorf("scan initiate option: %w", err)
		}
		switch typ {
		case OptionBureau:
			opts.Bureaus = append(opts.Bureaus, value)
		case OptionDivision:
			opts.Divisions = append(opts.Divisions, value)
		case OptionProgram:
			opts.Programs = append(opts.Programs, value)
		case OptionTeam:
			opts.Teams = append(opts.Teams, value)
		}
	}
	return opts, rows.Err()
}

// AddInitiateOption appends a choice of the given type
func (db *DB) AddInitiateOption(typ, value string) error {
	_, err := db.conn.Exec(`INSERT INTO initiate_options (option_type, value, sort_order)
		VALUES (?, ?, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM initiate_options WHERE option_type = ?))
		ON CONFLICT(option_type, value) DO NOTHING`, typ, value, typ)
	if err != nil {
		return fmt.Errorf("add initiate option: %w", err)
	}
	return nil
}

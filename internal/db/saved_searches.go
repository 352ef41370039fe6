package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/marcus/svp/internal/models"
)

// ListSavedSearches returns saved searches ordered by name
func (db *DB) ListSavedSearches() ([]models.SavedSearch, error) {
	rows, err := db.conn.Query(`SELECT id, name, search_values, created_at FROM saved_searches ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("list saved searches: %w", err)
	}
	defer rows.Close()

	out := []models.SavedSearch{}
	for rows.Next() {
		s, err := scanSavedSearch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanSavedSearch(s rowScanner) (models.SavedSearch, error) {
	var out models.SavedSearch
	var values, createdAt string
	if err := s.Scan(&out.ID, &out.Name, &values, &createdAt); err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(values), &out.Values); err != nil {
		return out, fmt.Errorf("decode saved search %s: %w", out.ID, err)
	}
	out.CreatedAt = parseTimestamp(createdAt)
	return out, nil
}

// GetSavedSearch returns a saved search by id or, failing that, by name
func (db *DB) GetSavedSearch(idOrName string) (*models.SavedSearch, error) {
	row := db.conn.QueryRow(`SELECT id, name, search_values, created_at FROM saved_searches
		WHERE id = ? OR name = ? COLLATE NOCASE ORDER BY id = ? DESC LIMIT 1`, idOrName, idOrName, idOrName)
	s, err := scanSavedSearch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get saved search: %w", err)
	}
	return &s, nil
}

// SaveSearch stores values under name, replacing an existing search with
// the same name but keeping its id.
func (db *DB) SaveSearch(name string, values models.SearchValues) (*models.SavedSearch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("save search: name is required")
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encode search values: %w", err)
	}

	id := uuid.NewString()
	if existing, err := db.GetSavedSearch(name); err == nil && strings.EqualFold(existing.Name, name) {
		id = existing.ID
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	_, err = db.conn.Exec(`INSERT INTO saved_searches (id, name, search_values, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, search_values = excluded.search_values`,
		id, name, string(data), db.timestamp())
	if err != nil {
		return nil, fmt.Errorf("save search: %w", err)
	}
	return db.GetSavedSearch(id)
}

// DeleteSavedSearch removes a saved search by id
func (db *DB) DeleteSavedSearch(id string) error {
	res, err := db.conn.Exec(`DELETE FROM saved_searches WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete saved search: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

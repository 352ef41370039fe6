package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/marcus/svp/internal/grid"
	"github.com/marcus/svp/internal/models"
	"gopkg.in/yaml.v3"
)

const gridFile = ".svp/grid.yaml"

// GridOverrides replace parts of the server grid config. Nil fields keep
// the server value.
type GridOverrides struct {
	Columns            []grid.Column `yaml:"columns,omitempty"`
	CenterAlignColumns []int         `yaml:"center_align_columns,omitempty"`
	RowActions         []grid.Action `yaml:"row_actions,omitempty"`
	PageSizes          []int         `yaml:"page_sizes,omitempty"`
}

// GridPath returns the overrides file path under baseDir
func GridPath(baseDir string) string {
	return filepath.Join(baseDir, gridFile)
}

// LoadGridOverrides reads .svp/grid.yaml. A missing file yields nil.
func LoadGridOverrides(baseDir string) (*GridOverrides, error) {
	data, err := os.ReadFile(GridPath(baseDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var o GridOverrides
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil {
		if errors.Is(err, io.EOF) {
			return &GridOverrides{}, nil
		}
		return nil, fmt.Errorf("parse %s: %w", gridFile, err)
	}
	if err := o.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", gridFile, err)
	}
	return &o, nil
}

// Validate rejects duplicate column keys, duplicate action ids and
// non-positive page sizes
func (o *GridOverrides) Validate() error {
	seen := map[string]bool{}
	for _, c := range o.Columns {
		if c.Key == "" {
			return fmt.Errorf("column without key")
		}
		if seen[c.Key] {
			return fmt.Errorf("duplicate column key %q", c.Key)
		}
		seen[c.Key] = true
	}
	ids := map[string]bool{}
	for _, a := range o.RowActions {
		if a.ID == "" {
			return fmt.Errorf("row action without id")
		}
		if ids[a.ID] {
			return fmt.Errorf("duplicate row action %q", a.ID)
		}
		ids[a.ID] = true
	}
	for _, n := range o.PageSizes {
		if n <= 0 {
			return fmt.Errorf("invalid page size %d", n)
		}
	}
	return nil
}

// Apply returns a copy of cfg with the overrides applied
func (o *GridOverrides) Apply(cfg *models.GridConfig) *models.GridConfig {
	out := *cfg
	if o == nil {
		return &out
	}
	if o.Columns != nil {
		out.Columns = o.Columns
	}
	if o.CenterAlignColumns != nil {
		out.CenterAlignColumns = o.CenterAlignColumns
	}
	if o.RowActions != nil {
		out.RowActions = o.RowActions
	}
	return &out
}

// SaveGridOverrides writes the layout of cfg to .svp/grid.yaml so it can be
// edited locally
func SaveGridOverrides(baseDir string, cfg *models.GridConfig, pageSizes []int) error {
	o := GridOverrides{
		Columns:            cfg.Columns,
		CenterAlignColumns: cfg.CenterAlignColumns,
		RowActions:         cfg.RowActions,
		PageSizes:          pageSizes,
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(o); err != nil {
		return fmt.Errorf("encode grid overrides: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}

	path := GridPath(baseDir)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

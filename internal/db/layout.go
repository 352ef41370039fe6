package db

import (
	"database/sql"
	"fmt"

	"github.com/marcus/svp/internal/models"
)

// Menu returns the sidebar groups with their children
func (db *DB) Menu() ([]models.MenuItem, error) {
	rows, err := db.conn.Query(`SELECT id, label, expanded FROM menu_items ORDER BY sort_order`)
	if err != nil {
		return nil, fmt.Errorf("list menu: %w", err)
	}
	items := []models.MenuItem{}
	index := map[string]int{}
	for rows.Next() {
		var it models.MenuItem
		var expanded int
		if err := rows.Scan(&it.ID, &it.Label, &expanded); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		it.Expanded = expanded != 0
		it.Children = []models.MenuChild{}
		index[it.ID] = len(items)
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	children, err := db.conn.Query(`SELECT menu_item_id, child_id, label, href, is_header
		FROM menu_item_children ORDER BY menu_item_id, sort_order`)
	if err != nil {
		return nil, fmt.Errorf("list menu children: %w", err)
	}
	defer children.Close()
	for children.Next() {
		var parent string
		var c models.MenuChild
		var header int
		if err := children.Scan(&parent, &c.ID, &c.Label, &c.Href, &header); err != nil {
			return nil, fmt.Errorf("scan menu child: %w", err)
		}
		c.Header = header != 0
		if i, ok := index[parent]; ok {
			items[i].Children = append(items[i].Children, c)
		}
	}
	return items, children.Err()
}

// SaveMenu replaces the sidebar menu
func (db *DB) SaveMenu(items []models.MenuItem) error {
	return db.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM menu_item_children`); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM menu_items`); err != nil {
			return err
		}
		for i, it := range items {
			if _, err := tx.Exec(`INSERT INTO menu_items (id, label, expanded, sort_order) VALUES (?, ?, ?, ?)`,
				it.ID, it.Label, boolInt(it.Expanded), i); err != nil {
				return fmt.Errorf("insert menu item %s: %w", it.ID, err)
			}
			for j, c := range it.Children {
				if _, err := tx.Exec(`INSERT INTO menu_item_children (menu_item_id, child_id, label, href, is_header, sort_order)
					VALUES (?, ?, ?, ?, ?, ?)`, it.ID, c.ID, c.Label, c.Href, boolInt(c.Header), j); err != nil {
					return fmt.Errorf("insert menu child %s: %w", c.ID, err)
				}
			}
		}
		return nil
	})
}

// HeaderNav returns the header navigation links
func (db *DB) HeaderNav() ([]models.NavItem, error) {
	rows, err := db.conn.Query(`SELECT id, label, href FROM nav_items ORDER BY sort_order`)
	if err != nil {
		return nil, fmt.Errorf("list header nav: %w", err)
	}
	defer rows.Close()

	items := []models.NavItem{}
	for rows.Next() {
		var n models.NavItem
		if err := rows.Scan(&n.ID, &n.Label, &n.Href); err != nil {
			return nil, fmt.Errorf("scan nav item: %w", err)
		}
		items = append(items, n)
	}
	return items, rows.Err()
}

// SaveHeaderNav replaces the header navigation links
func (db *DB) SaveHeaderNav(items []models.NavItem) error {
	return db.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM nav_items`); err != nil {
			return err
		}
		for i, n := range items {
			if _, err := tx.Exec(`INSERT INTO nav_items (id, label, href, sort_order) VALUES (?, ?, ?, ?)`,
				n.ID, n.Label, n.Href, i); err != nil {
				return fmt.Errorf("insert nav item %s: %w", n.ID, err)
			}
		}
		return nil
	})
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

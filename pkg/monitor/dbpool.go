package monitor

import (
	"path/filepath"
	"sync"

	"github.com/marcus/svp/internal/db"
)

// dbPool shares one connection per project between the monitor and its
// file watcher. SQLite runs with a single connection, so opening a second
// handle to the same file would only contend for the lock.
var dbPool = struct {
	mu    sync.RWMutex
	conns map[string]*pooledDB
}{conns: make(map[string]*pooledDB)}

type pooledDB struct {
	db   *db.DB
	refs int
}

// resolveBaseDir returns the absolute, symlink-free form of baseDir so
// that different spellings of one project share a connection.
func resolveBaseDir(baseDir string) string {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return baseDir
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// getSharedDB returns the pooled database for baseDir, opening it on first
// use. Every call must be paired with releaseSharedDB.
func getSharedDB(baseDir string) (*db.DB, error) {
	key := resolveBaseDir(baseDir)

	dbPool.mu.Lock()
	defer dbPool.mu.Unlock()

	if entry, ok := dbPool.conns[key]; ok {
		entry.refs++
		return entry.db, nil
	}

	database, err := db.Open(key)
	if err != nil {
		return nil, err
	}
	dbPool.conns[key] = &pooledDB{db: database, refs: 1}
	return database, nil
}

// releaseSharedDB drops one reference and closes the connection when the
// last one goes away.
func releaseSharedDB(baseDir string) error {
	key := resolveBaseDir(baseDir)

	dbPool.mu.Lock()
	defer dbPool.mu.Unlock()

	entry, ok := dbPool.conns[key]
	if !ok {
		return nil
	}
	entry.refs--
	if entry.refs > 0 {
		return nil
	}
	delete(dbPool.conns, key)
	return entry.db.Close()
}

// clearDBPool closes every pooled connection
func clearDBPool() {
	dbPool.mu.Lock()
	defer dbPool.mu.Unlock()
	for key, entry := range dbPool.conns {
		entry.db.Close()
		delete(dbPool.conns, key)
	}
}

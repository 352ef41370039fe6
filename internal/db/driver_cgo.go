//go:build cgo_sqlite

package db

import _ "github.com/mattn/go-sqlite3"

// driverName is the database/sql driver used to open the database
const driverName = "sqlite3"

//go:build !cgo_sqlite

package db

import _ "modernc.org/sqlite"

// driverName is the database/sql driver used to open the database
const driverName = "sqlite"

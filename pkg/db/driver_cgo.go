//go:build cgo

package db

import (
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// driverName is the database/sql driver used when cgo is available.
const driverName = "sqlite3"

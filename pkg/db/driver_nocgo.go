//go:build !cgo

package db

import (
	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// driverName is the database/sql driver used for CGO_ENABLED=0 builds.
const driverName = "sqlite"

package store

import (
	"database/sql"
)

// DriverName returns the SQL driver name in use: "sqlite" for the pure Go
// build, "sqlite3" for the cgo_sqlite build.
func DriverName() string {
	return driverName
}

// IsCGO returns true if the CGO implementation is being used.
func IsCGO() bool {
	return driverType == "cgo"
}

// DriverInfo describes the SQLite driver compiled into the binary.
type DriverInfo struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetDriverInfo returns information about the current SQLite configuration.
func GetDriverInfo() DriverInfo {
	return DriverInfo{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}

// openDB opens a SQLite database using the compiled-in driver.
var openDB = func(dataSourceName string) (*sql.DB, error) {
	return sql.Open(driverName, dataSourceName)
}

package db

import (
	"log"

	moderncSqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"

	_ "modernc.org/sqlite"
)

// Open connects to the sqlite database through the pure-Go driver so the
// binary builds without cgo.
func Open(path string) *gorm.DB {
	d, err := gorm.Open(moderncSqlite.New(moderncSqlite.Config{
		DSN:        path,
		DriverName: "sqlite",
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	d.Exec("PRAGMA foreign_keys = ON;")
	return d
}

package database

import (
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Connect initializes the database connection. A non-empty postgres URL
// takes precedence; otherwise path is opened as a SQLite file.
func Connect(path, postgresURL string) error {
	var err error
	if postgresURL != "" {
		DB, err = gorm.Open(postgres.Open(postgresURL), &gorm.Config{})
		return err
	}
	DB, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return err
	}
	// SQLite ignores ON DELETE CASCADE / SET NULL unless this is on
	return DB.Exec("PRAGMA foreign_keys = ON").Error
}

// GetDB returns the database instance.
func GetDB() *gorm.DB {
	return DB
}

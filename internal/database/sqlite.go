package database

import (
	"database/sql"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// DefaultStoragePath returns the on-device location of the client's
// local database, falling back to the working directory when no user
// config dir is available.
func DefaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "emicollect.db"
	}
	return filepath.Join(dir, "emicollect", "client.db")
}

// InitDB opens the local sqlite database that backs persisted client
// state (the stored bearer token).
func InitDB() (*sql.DB, error) {
	viper.SetDefault("storage.path", DefaultStoragePath())
	path := viper.GetString("storage.path")

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	log.Printf("Local storage opened at %s", path)
	return db, nil
}

// InitDatabase opens local storage with error handling
func InitDatabase() *sql.DB {
	db, err := InitDB()
	if err != nil {
		log.Fatalf("Failed to open local storage: %v", err)
	}
	return db
}

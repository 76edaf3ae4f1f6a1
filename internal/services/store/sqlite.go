package store

import (
	"fmt"

	"github.com/solara-ai/inference-router/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// sqliteDialector builds the dialector for a file-backed SQLite store, the
// zero-setup option used by the examples and local development.
func sqliteDialector(config models.DatabaseConfig) (gorm.Dialector, string, error) {
	if config.FilePath == "" {
		return nil, "", fmt.Errorf("sqlite requires database.file_path")
	}
	return sqlite.Open(config.FilePath), "sqlite3", nil
}

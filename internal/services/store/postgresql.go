package store

import (
	"fmt"

	"github.com/solara-ai/inference-router/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// postgresDialector builds the dialector from either a full DSN or the
// discrete host/port/credential fields. SSL defaults to disabled so local
// setups work without certificates.
func postgresDialector(config models.DatabaseConfig) (gorm.Dialector, string, error) {
	dsn := config.DSN
	if dsn == "" {
		ssl := config.SSLMode
		if ssl == "" {
			ssl = "disable"
		}
		dsn = fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			config.Host, config.Port, config.Username, config.Password,
			config.Database, ssl,
		)
	}
	return postgres.Open(dsn), "postgres", nil
}

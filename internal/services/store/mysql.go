package store

import (
	"fmt"

	"github.com/solara-ai/inference-router/internal/models"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// mysqlDialector builds the dialector from either a full DSN or the discrete
// connection fields. parseTime is forced on so gorm scans the timestamp
// columns on alert and request log rows into time.Time.
func mysqlDialector(config models.DatabaseConfig) (gorm.Dialector, string, error) {
	dsn := config.DSN
	if dsn == "" {
		dsn = fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?parseTime=true",
			config.Username, config.Password, config.Host, config.Port,
			config.Database,
		)
	}
	return mysql.Open(dsn), "mysql", nil
}

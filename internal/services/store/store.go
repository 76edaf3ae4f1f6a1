// Package store provides the gorm-backed persistence layer used for alert
// records and request provenance logs. Persistence is optional: when no
// database is configured the router and alert engine run with in-memory
// collaborators.
package store

import (
	"fmt"

	"github.com/solara-ai/inference-router/internal/models"
	"gorm.io/gorm"
)

type DB struct {
	*gorm.DB
	config     models.DatabaseConfig
	driverName string
}

// New opens a database connection for the configured driver. The driver
// files only build dialectors; the open, pool, and reachability check are
// shared here.
func New(config models.DatabaseConfig) (*DB, error) {
	dialector, driverName, err := dialectorFor(config)
	if err != nil {
		return nil, err
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driverName, err)
	}

	db := &DB{
		DB:         gormDB,
		config:     config,
		driverName: driverName,
	}
	db.setConnectionPool()

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%s database unreachable: %w", driverName, err)
	}
	return db, nil
}

func dialectorFor(config models.DatabaseConfig) (gorm.Dialector, string, error) {
	switch config.Type {
	case models.PostgreSQL:
		return postgresDialector(config)
	case models.MySQL:
		return mysqlDialector(config)
	case models.SQLite:
		return sqliteDialector(config)
	default:
		return nil, "", fmt.Errorf("unsupported database type: %s", config.Type)
	}
}

// Migrate creates or updates the alert and request log tables
func (db *DB) Migrate() error {
	return db.DB.AutoMigrate(&models.AlertRecord{}, &models.RequestLog{})
}

func (db *DB) Close() error {
	if db.DB == nil {
		return nil
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (db *DB) Ping() error {
	if db.DB == nil {
		return fmt.Errorf("database not connected")
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (db *DB) DriverName() string {
	return db.driverName
}

func (db *DB) setConnectionPool() {
	if db.DB == nil {
		return
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		return
	}

	if db.config.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(db.config.MaxOpenConns)
	}
	if db.config.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(db.config.MaxIdleConns)
	}
}

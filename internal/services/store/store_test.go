package store

import (
	"testing"

	"github.com/solara-ai/inference-router/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialectorForSelectsDriver(t *testing.T) {
	tests := []struct {
		name       string
		config     models.DatabaseConfig
		driverName string
	}{
		{
			name:       "sqlite",
			config:     models.DatabaseConfig{Type: models.SQLite, FilePath: "alerts.db"},
			driverName: "sqlite3",
		},
		{
			name: "postgres",
			config: models.DatabaseConfig{
				Type: models.PostgreSQL,
				Host: "localhost", Port: 5432,
				Username: "router", Password: "secret", Database: "alerts",
			},
			driverName: "postgres",
		},
		{
			name:       "mysql from dsn",
			config:     models.DatabaseConfig{Type: models.MySQL, DSN: "router:secret@tcp(localhost:3306)/alerts?parseTime=true"},
			driverName: "mysql",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialector, driverName, err := dialectorFor(tt.config)
			require.NoError(t, err)
			require.NotNil(t, dialector)
			assert.Equal(t, tt.driverName, driverName)
		})
	}
}

func TestDialectorForRejectsBadConfig(t *testing.T) {
	_, _, err := dialectorFor(models.DatabaseConfig{Type: models.SQLite})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file_path")

	_, _, err = dialectorFor(models.DatabaseConfig{Type: models.DatabaseType("oracle")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

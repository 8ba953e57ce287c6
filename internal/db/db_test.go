package db

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shinyyama/barter-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestBuildDSN(t *testing.T) {
	base := config.Config{DBUser: "u", DBPassword: "p", DBName: "barter", DBPort: "3306"}
	tests := []struct {
		name     string
		host     string
		instance string
		want     string
	}{
		{"plain host", "db.local", "", "u:p@tcp(db.local:3306)/barter?charset=utf8mb4&parseTime=True&loc=Local"},
		{"tcp wrapped", "tcp(10.0.0.1:3307)", "", "u:p@tcp(10.0.0.1:3307)/barter?charset=utf8mb4&parseTime=True&loc=Local"},
		{"unix wrapped", "unix(/var/run/mysqld.sock)", "", "u:p@unix(/var/run/mysqld.sock)/barter?charset=utf8mb4&parseTime=True&loc=Local"},
		{"socket path", "/cloudsql/proj:region:inst", "", "u:p@unix(/cloudsql/proj:region:inst)/barter?charset=utf8mb4&parseTime=True&loc=Local"},
		{"instance wins", "db.local", "proj:region:inst", "u:p@unix(/cloudsql/proj:region:inst)/barter?charset=utf8mb4&parseTime=True&loc=Local"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			cfg.DBHost = tt.host
			cfg.InstanceConnectionName = tt.instance
			assert.Equal(t, tt.want, BuildDSN(&cfg))
		})
	}
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect(&config.Config{DBDriver: "oracle"})
	require.Error(t, err)
}

func TestConnectRequiresMySQLSettings(t *testing.T) {
	_, err := Connect(&config.Config{DBDriver: "mysql"})
	require.Error(t, err)
}

func TestMigrateSQLite(t *testing.T) {
	gdb, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, Migrate(gdb))
	for _, table := range []string{"users", "categories", "listings", "messages"} {
		assert.True(t, gdb.Migrator().HasTable(table), table)
	}
}

func TestGormLoggerSkipsRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	l := newGormLogger(&buf)
	sql := func() (string, int64) { return "SELECT * FROM users WHERE email = 'x'", 0 }

	l.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	l.Trace(context.Background(), time.Now(), sql, errors.New("connection reset"))
	assert.Contains(t, buf.String(), "connection reset")
}

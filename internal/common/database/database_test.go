// Package database 数据库模块单元测试
package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dumeirei/tutor-finance-backend/internal/common/config"
	"github.com/dumeirei/tutor-finance-backend/internal/models"
)

// ==================== Init 测试 ====================

func TestInit_SqliteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tutor.db")
	conn, err := Init(&config.DatabaseConfig{
		Driver:          "sqlite",
		Path:            path,
		MaxIdleConns:    1,
		MaxOpenConns:    1,
		ConnMaxLifetime: 60,
	})
	require.NoError(t, err)
	require.NotNil(t, conn)
	t.Cleanup(func() { _ = Close() })

	assert.Equal(t, conn, GetDB())
	assert.NoError(t, Ping(context.Background()))

	require.NoError(t, AutoMigrate(conn))
	for _, m := range models.AllModels() {
		assert.True(t, conn.Migrator().HasTable(m))
	}
}

func TestInit_UnsupportedDriver(t *testing.T) {
	_, err := Init(&config.DatabaseConfig{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

// ==================== getLogLevel 测试 ====================

func TestGetLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, getLogLevel(true))
	assert.Equal(t, logger.Silent, getLogLevel(false))
}

// ==================== 作用域测试 ====================

type scopeItem struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

func setupScopeDB(t *testing.T) *gorm.DB {
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&scopeItem{}))
	return conn
}

func TestPaginate(t *testing.T) {
	conn := setupScopeDB(t)
	for i := 1; i <= 50; i++ {
		conn.Create(&scopeItem{ID: int64(i), Name: "Item"})
	}

	tests := []struct {
		name         string
		page         int
		pageSize     int
		expectedLen  int
		expectedFrom int64
	}{
		{"第一页", 1, 10, 10, 1},
		{"第二页", 2, 10, 10, 11},
		{"超出范围", 6, 10, 0, 0},
		{"页码为零取第一页", 0, 10, 10, 1},
		{"每页为零取默认", 1, 0, 10, 1},
		{"每页上限100", 1, 200, 50, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var results []scopeItem
			conn.Scopes(OrderByIDAsc, Paginate(tt.page, tt.pageSize)).Find(&results)
			assert.Len(t, results, tt.expectedLen)
			if tt.expectedLen > 0 {
				assert.Equal(t, tt.expectedFrom, results[0].ID)
			}
		})
	}
}

func TestCreatedBetween_HalfOpen(t *testing.T) {
	conn := setupScopeDB(t)
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(2026, 4, 1, 0, 0, 0, 0, time.Local)

	conn.Create(&scopeItem{ID: 1, CreatedAt: start})
	conn.Create(&scopeItem{ID: 2, CreatedAt: start.Add(15 * 24 * time.Hour)})
	conn.Create(&scopeItem{ID: 3, CreatedAt: end})
	conn.Create(&scopeItem{ID: 4, CreatedAt: start.Add(-time.Second)})

	var results []scopeItem
	require.NoError(t, conn.Scopes(CreatedBetween("created_at", start, end), OrderByIDAsc).Find(&results).Error)
	require.Len(t, results, 2)
	assert.Equal(t, int64(1), results[0].ID)
	assert.Equal(t, int64(2), results[1].ID)
}

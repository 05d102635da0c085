// Package db opens the SQLite conversation store and keeps its schema
// current. Foreign-key enforcement is switched on for every connection so
// deleting a conversation cascades to its messages.
package db

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/agentpanel/agentpanel/internal/conversation"
	"github.com/agentpanel/agentpanel/internal/logger"
)

// Open ensures the containing directory exists, opens the database file and
// idempotently applies the schema. The schema version is recorded exactly
// once, on first initialization.
func Open(path string, log *logger.Logger) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	gdb, err := OpenDSN(dsn)
	if err != nil {
		return nil, err
	}
	log.Info("database initialized", "path", path)
	return gdb, nil
}

// OpenDSN opens a database by raw DSN and applies the schema. Used directly
// by tests with in-memory databases.
func OpenDSN(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := migrate(gdb); err != nil {
		return nil, err
	}
	return gdb, nil
}

func migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&conversation.Conversation{},
		&conversation.Message{},
		&conversation.MessageEmbedding{},
		&conversation.SchemaInfo{},
	); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	var n int64
	if err := gdb.Model(&conversation.SchemaInfo{}).Count(&n).Error; err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if n == 0 {
		if err := gdb.Create(&conversation.SchemaInfo{Version: conversation.SchemaVersion}).Error; err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	}
	return nil
}

// SchemaVersion reports the highest recorded schema version, 0 when none has
// been written yet.
func SchemaVersion(gdb *gorm.DB) (int, error) {
	var v *int
	if err := gdb.Model(&conversation.SchemaInfo{}).Select("MAX(version)").Scan(&v).Error; err != nil {
		return 0, err
	}
	if v == nil {
		return 0, nil
	}
	return *v, nil
}

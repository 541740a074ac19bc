package testutil

import (
	"os"
	"sync"
	"testing"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	appdb "github.com/yungbote/tilegen-backend/internal/data/db"
	"github.com/yungbote/tilegen-backend/internal/platform/logger"
)

var (
	dbOnce sync.Once
	db     *gorm.DB
	dbErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns a migrated database shared by the package's tests. It uses
// TEST_POSTGRES_DSN when set and an in-memory sqlite database otherwise.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dbOnce.Do(func() {
		cfg := &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		}
		var dialector gorm.Dialector
		if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
			dialector = postgres.Open(dsn)
		} else {
			dialector = sqlite.Open("file::memory:?cache=shared")
		}

		var err error
		db, err = gorm.Open(dialector, cfg)
		if err != nil {
			dbErr = err
			return
		}
		if db.Dialector.Name() == "sqlite" {
			// one connection keeps the in-memory database alive and serializes tests
			sqlDB, err := db.DB()
			if err != nil {
				dbErr = err
				return
			}
			sqlDB.SetMaxOpenConns(1)
		}

		if err := appdb.AutoMigrateAll(db); err != nil {
			dbErr = err
			return
		}
		dbErr = appdb.EnsureIndexes(db)
	})

	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}
	return db
}

func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

// Package database holds the gorm connection pool and the facade layer
// used to persist and query pipeline runs.
package database

import (
	"sync"
	"time"

	"github.com/oceanlens/enginewatch/pkg/database/model"
	"github.com/oceanlens/enginewatch/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

var (
	defaultDB *gorm.DB
	connLock  = &sync.RWMutex{}
)

// InitDefault opens the postgres connection, migrates the run tables and
// installs the pool as the process-wide default.
func InitDefault(dsn string) (*gorm.DB, error) {
	connLock.Lock()
	defer connLock.Unlock()
	if defaultDB != nil {
		return defaultDB, nil
	}
	if dsn == "" {
		return nil, errors.NewError().
			WithCode(errors.CodeLackOfConfig).
			WithMessage("postgres dsn is empty")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
		Logger: logger.Discard,
	})
	if err != nil {
		return nil, errors.NewError().
			WithCode(errors.CodeDatabaseError).
			WithMessage("failed to open database").
			WithError(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.NewError().
			WithCode(errors.CodeDatabaseError).
			WithMessage("failed to access connection pool").
			WithError(err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&model.Run{}, &model.RunParam{}, &model.RunMetric{}); err != nil {
		return nil, errors.NewError().
			WithCode(errors.CodeDatabaseError).
			WithMessage("failed to migrate run tables").
			WithError(err)
	}
	defaultDB = db
	return db, nil
}

// GetDefaultDB returns the default pool, nil before InitDefault.
func GetDefaultDB() *gorm.DB {
	connLock.RLock()
	defer connLock.RUnlock()
	return defaultDB
}

// SetDefaultDB overrides the default pool. Test hook.
func SetDefaultDB(db *gorm.DB) {
	connLock.Lock()
	defer connLock.Unlock()
	defaultDB = db
}

package database

import (
	"gorm.io/gorm"
)

// BaseFacade is the base structure for all facades, providing DB access
type BaseFacade struct {
	db *gorm.DB // nil means the process-wide default pool
}

func (f *BaseFacade) getDB() *gorm.DB {
	if f.db != nil {
		return f.db
	}
	return GetDefaultDB()
}

// WithDB returns a facade bound to a specific pool. Test hook.
func (f *RunFacade) WithDB(db *gorm.DB) RunFacadeInterface {
	return &RunFacade{BaseFacade: BaseFacade{db: db}}
}

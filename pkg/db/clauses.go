package db

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LockForUpdate applies a row lock on dialects that support it. The sqlite
// dev driver has no FOR UPDATE; its writes serialize on the database lock.
func LockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

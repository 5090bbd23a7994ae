// Package engine implements the reputation and badge progression logic:
// the per-answer vote state machine, the community reputation ledger, tag and
// global reputation aggregation, badge tier resolution and the monotonic
// progress tracker, plus the notification triggers that fire alongside them.
//
// The engine never creates answers, votes or memberships on its own; it owns
// the consistency between a vote transition and everything derived from it.
package engine

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Engine runs all reputation and badge mutations against an injected DB
// handle so tests can substitute their own.
type Engine struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Engine {
	return &Engine{db: db}
}

// lockForUpdate applies a row lock on dialects that support it. SQLite has no
// FOR UPDATE; it serializes writers on its own.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

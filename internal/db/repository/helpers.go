// Package repository provides SQL-backed persistence for policies, groups,
// and audit records over the SQLite policy store.
package repository

import (
	"errors"

	"github.com/mattn/go-sqlite3"

	"trinogate/internal/domain"
)

// mapDBError converts driver-level errors into domain errors.
func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return domain.ErrConflict("already exists: %v", err)
		case sqlite3.ErrConstraintForeignKey:
			return domain.ErrValidation("invalid reference: %v", err)
		}
	}
	return err
}

// Package store persists the client's accounts, input notes and
// transactions in a single SQLite file. One SQLiteStore owns one
// connection to that file for its whole lifetime; it assumes a single
// writer and callers serialize their access to it.
package store

import (
	"database/sql"
	"errors"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	veil "github.com/veilledger/veilclient/pkg"
	"github.com/veilledger/veilclient/pkg/ledger"
)

// interface guard ensures SQLiteStore implements veil.Store
var _ veil.Store = (*SQLiteStore)(nil)

type SQLiteStore struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// NewSQLiteStore opens (creating if needed) the store file and brings its
// schema up to date. A failed migration leaves the store unopened.
func NewSQLiteStore(fileName string, log *zap.SugaredLogger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", fileName)
	if err != nil {
		return nil, dbErr(err, "opening database")
	}
	// One connection, exclusively owned, for the store's lifetime.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, dbErr(err, "configuring connection")
	}
	if err := migrateToLatest(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, log: log}, nil
}

// Close releases the backing file. Defer this until shutdown.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// withTx runs fn inside one SQL transaction. Any error from fn rolls the
// whole unit back; nothing fn wrote becomes visible to subsequent reads.
func (s *SQLiteStore) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return dbErr(err, "begin transaction")
	}
	if err := fn(tx); err != nil {
		// Rollback error is unreachable state; the fn error is the cause.
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return dbErr(err, "commit transaction")
	}
	return nil
}

// dbErr classifies a database error so callers can tell programming bugs
// (QueryError, not retryable) from engine faults (DatabaseError, possibly
// transient) and key conflicts (AlreadyExists).
func dbErr(err error, where string) error {
	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) {
		switch sqErr.Code {
		case sqlite3.ErrConstraint:
			return veil.WrapErr(veil.AlreadyExists, err, "SQLiteStore: %s", where)
		case sqlite3.ErrError, sqlite3.ErrMisuse, sqlite3.ErrRange, sqlite3.ErrSchema:
			return veil.WrapErr(veil.QueryError, err, "SQLiteStore: %s", where)
		default:
			return veil.WrapErr(veil.DatabaseError, err, "SQLiteStore: %s", where)
		}
	}
	return veil.WrapErr(veil.DatabaseError, err, "SQLiteStore: %s", where)
}

// domainErr classifies a ledger-library rejection, keeping the originating
// diagnostic wrapped.
func domainErr(err error, where string) error {
	code := veil.AccountErr
	switch {
	case errors.Is(err, ledger.ErrHashMismatch):
		code = veil.AccountHashMismatch
	case errors.Is(err, ledger.ErrVaultUnderflow), errors.Is(err, ledger.ErrVaultOverflow):
		code = veil.VaultError
	case errors.Is(err, ledger.ErrBadMerklePath):
		code = veil.MerkleError
	}
	return veil.WrapErr(code, err, "SQLiteStore: %s", where)
}

// decodeErr classifies a failure to decode persisted bytes or text.
func decodeErr(err error, where string) error {
	code := veil.BadBinaryData
	switch {
	case errors.Is(err, ledger.ErrBadDigest), errors.Is(err, ledger.ErrBadAccountID):
		code = veil.BadHexData
	case errors.Is(err, ledger.ErrBadMerklePath):
		code = veil.MerkleError
	}
	return veil.WrapErr(code, err, "SQLiteStore: %s", where)
}

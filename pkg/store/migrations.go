package store

import (
	"database/sql"
	"time"

	veil "github.com/veilledger/veilclient/pkg"
)

// A migration is one forward-only schema step. Steps are applied in
// version order, each inside its own transaction, so a failure never
// leaves a step half-applied. There are no down-migrations.
type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{1, "base schema", schemaV1},
}

const schemaV1 = `
CREATE TABLE accounts (
	id INTEGER NOT NULL PRIMARY KEY,
	code_root TEXT NOT NULL,
	storage_root TEXT NOT NULL,
	vault_root TEXT NOT NULL,
	nonce INTEGER NOT NULL
);

CREATE TABLE account_code (
	root TEXT NOT NULL PRIMARY KEY,
	program BLOB NOT NULL
);

CREATE TABLE account_storage (
	root TEXT NOT NULL PRIMARY KEY,
	slots BLOB NOT NULL
);

CREATE TABLE account_vaults (
	root TEXT NOT NULL PRIMARY KEY,
	assets BLOB NOT NULL
);

CREATE TABLE input_notes (
	note_id TEXT NOT NULL PRIMARY KEY,
	nullifier TEXT NOT NULL,
	script BLOB NOT NULL,
	vault BLOB NOT NULL,
	inputs BLOB NOT NULL,
	serial_num TEXT NOT NULL,
	sender_id INTEGER NOT NULL,
	tag INTEGER NOT NULL,
	inclusion_proof BLOB,
	recipients TEXT NOT NULL,
	status TEXT NOT NULL CHECK (status IN ('pending', 'committed', 'consumed')),
	commit_height INTEGER NOT NULL
);
CREATE INDEX input_notes_nullifier_i ON input_notes (nullifier);

CREATE TABLE transaction_scripts (
	script_hash TEXT NOT NULL PRIMARY KEY,
	program BLOB NOT NULL
);

CREATE TABLE transactions (
	id TEXT NOT NULL PRIMARY KEY,
	account_id INTEGER NOT NULL,
	init_account_state TEXT NOT NULL,
	final_account_state TEXT NOT NULL,
	input_notes TEXT NOT NULL,
	output_notes BLOB NOT NULL,
	script_hash TEXT,
	script_inputs TEXT,
	block_num INTEGER NOT NULL,
	commit_height INTEGER,
	FOREIGN KEY (script_hash) REFERENCES transaction_scripts (script_hash)
);

CREATE TABLE block_headers (
	block_num INTEGER NOT NULL PRIMARY KEY,
	header BLOB NOT NULL,
	chain_root TEXT NOT NULL
);

CREATE TABLE chain_nodes (
	node_index INTEGER NOT NULL PRIMARY KEY,
	node TEXT NOT NULL
);

CREATE TABLE state_sync (
	block_num INTEGER NOT NULL
);
INSERT INTO state_sync (block_num) VALUES (0);

CREATE TABLE tags (
	tag INTEGER NOT NULL UNIQUE
);
`

// migrateToLatest brings the schema up to date. Safe to invoke on every
// open: an already-current schema is a no-op.
func migrateToLatest(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS migrations (
		version INTEGER NOT NULL PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`)
	if err != nil {
		return dbErr(err, "creating migrations table")
	}

	var current int
	err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM migrations`).Scan(&current)
	if err != nil {
		return dbErr(err, "reading schema version")
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return err
		}
	}
	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return dbErr(err, "begin migration")
	}
	if _, err := tx.Exec(m.sql); err != nil {
		_ = tx.Rollback()
		return veil.WrapErr(veil.DatabaseError, err,
			"SQLiteStore: applying migration %d (%s)", m.version, m.name)
	}
	_, err = tx.Exec(`INSERT INTO migrations (version, applied_at) VALUES (?, ?)`,
		m.version, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		_ = tx.Rollback()
		return dbErr(err, "recording migration")
	}
	if err := tx.Commit(); err != nil {
		return dbErr(err, "commit migration")
	}
	return nil
}

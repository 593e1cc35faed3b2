package store

import (
	"database/sql"

	veil "github.com/veilledger/veilclient/pkg"
	"github.com/veilledger/veilclient/pkg/ledger"
)

// GetSyncHeight returns the last block number applied by sync.
func (s *SQLiteStore) GetSyncHeight() (uint32, error) {
	var height int64
	if err := s.db.QueryRow(`SELECT block_num FROM state_sync`).Scan(&height); err != nil {
		return 0, dbErr(err, "GetSyncHeight: scanning row")
	}
	return uint32(height), nil
}

// GetNoteTags returns the tags this client monitors.
func (s *SQLiteStore) GetNoteTags() ([]uint64, error) {
	rows, err := s.db.Query(`SELECT tag FROM tags ORDER BY tag`)
	if err != nil {
		return nil, dbErr(err, "GetNoteTags: querying tags")
	}
	defer rows.Close()

	var tags []uint64
	for rows.Next() {
		var tag int64
		if err := rows.Scan(&tag); err != nil {
			return nil, dbErr(err, "GetNoteTags: scanning row")
		}
		tags = append(tags, uint64(tag))
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "GetNoteTags: reading rows")
	}
	return tags, nil
}

// AddNoteTag starts monitoring a tag. A tag already tracked is a conflict,
// surfaced, never silently resolved.
func (s *SQLiteStore) AddNoteTag(tag uint64) error {
	return s.withTx(func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRow(`SELECT EXISTS (SELECT 1 FROM tags WHERE tag = ?)`, int64(tag)).Scan(&exists)
		if err != nil {
			return dbErr(err, "AddNoteTag: checking tag")
		}
		if exists {
			return veil.NewErr(veil.TagAlreadyTracked, "note tag %d is already being tracked", tag)
		}
		if _, err := tx.Exec(`INSERT INTO tags (tag) VALUES (?)`, int64(tag)); err != nil {
			return dbErr(err, "AddNoteTag: executing insert")
		}
		return nil
	})
}

// ApplyStateSync applies one block's observed state in a single atomic
// unit: sync height, block header and chain nodes, note commitments and
// consumptions, and commit marks for the transactions whose output notes
// were observed. The coupling matters: a transaction must never be marked
// committed while its notes remain pending, or vice versa.
func (s *SQLiteStore) ApplyStateSync(update *veil.StateSyncUpdate) error {
	// Single-writer discipline: nothing can commit between this read and
	// the write transaction below.
	candidates, err := s.GetTransactions(veil.TransactionFilterUncommitted)
	if err != nil {
		return err
	}

	blockNum := update.BlockHeader.BlockNum
	committed := 0

	err = s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`UPDATE state_sync SET block_num = ?`, int64(blockNum)); err != nil {
			return dbErr(err, "ApplyStateSync: updating sync height")
		}
		if err := insertBlockHeaderTx(tx, &update.BlockHeader); err != nil {
			return err
		}
		if err := insertChainNodesTx(tx, update.ChainNodes); err != nil {
			return err
		}

		observedIDs := make([]ledger.Digest, 0, len(update.CommittedNotes))
		for _, note := range update.CommittedNotes {
			observedIDs = append(observedIDs, note.NoteID)
			if err := commitNoteTx(tx, &note); err != nil {
				return err
			}
		}

		for _, nullifier := range update.ConsumedNullifiers {
			_, err := tx.Exec(`UPDATE input_notes SET status = 'consumed' WHERE nullifier = ?`,
				nullifier.String())
			if err != nil {
				return dbErr(err, "ApplyStateSync: consuming note")
			}
		}

		committed, err = markTransactionsCommittedTx(tx, candidates, observedIDs, blockNum)
		return err
	})
	if err != nil {
		return err
	}

	s.log.Infow("applied state sync",
		"block", blockNum,
		"committed_notes", len(update.CommittedNotes),
		"consumed_notes", len(update.ConsumedNullifiers),
		"committed_transactions", committed)
	return nil
}

// commitNoteTx attaches the inclusion proof to a tracked note, flipping it
// to committed. A note discovered remotely (full content in the update) is
// inserted fresh with the proof already attached.
func commitNoteTx(tx *sql.Tx, note *veil.CommittedNote) error {
	proof := trimProofPath(note.Proof)
	res, err := tx.Exec(`UPDATE input_notes
		SET status = 'committed', inclusion_proof = ?, commit_height = ?
		WHERE note_id = ? AND status = 'pending'`,
		proof.EncodeBinary(), int64(note.Proof.BlockNum), note.NoteID.String())
	if err != nil {
		return dbErr(err, "ApplyStateSync: committing note")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dbErr(err, "ApplyStateSync: rows affected")
	}
	if n == 0 && note.Note != nil {
		record := veil.InputNoteRecord{Note: *note.Note, InclusionProof: note.Proof}
		return insertInputNoteTx(tx, &record)
	}
	return nil
}

package store

import (
	"database/sql"
	"encoding/json"
	"errors"

	veil "github.com/veilledger/veilclient/pkg"
	"github.com/veilledger/veilclient/pkg/ledger"
)

const insertNoteQuery = `INSERT INTO input_notes
	(note_id, nullifier, script, vault, inputs, serial_num, sender_id, tag, inclusion_proof, recipients, status, commit_height)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const selectNoteColumns = `SELECT script, inputs, vault, serial_num, sender_id, tag, inclusion_proof FROM input_notes`

// noteFilterToQuery maps every filter variant to its status predicate.
// The switch is exhaustive over the closed NoteFilter set; an unknown
// variant is a programming error, never an unfiltered query.
func noteFilterToQuery(filter veil.NoteFilter) (string, error) {
	switch filter {
	case veil.NoteFilterAll:
		return selectNoteColumns, nil
	case veil.NoteFilterPending:
		return selectNoteColumns + ` WHERE status = 'pending'`, nil
	case veil.NoteFilterCommitted:
		return selectNoteColumns + ` WHERE status = 'committed'`, nil
	case veil.NoteFilterConsumed:
		return selectNoteColumns + ` WHERE status = 'consumed'`, nil
	default:
		return "", veil.NewErr(veil.QueryError, "unknown note filter %q", filter)
	}
}

// GetInputNotes retrieves the input notes matching the filter.
func (s *SQLiteStore) GetInputNotes(filter veil.NoteFilter) ([]veil.InputNoteRecord, error) {
	query, err := noteFilterToQuery(filter)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, dbErr(err, "GetInputNotes: querying notes")
	}
	defer rows.Close()

	var records []veil.InputNoteRecord
	for rows.Next() {
		record, err := scanInputNote(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "GetInputNotes: reading rows")
	}
	return records, nil
}

// GetInputNoteByID retrieves the input note with the given id.
func (s *SQLiteStore) GetInputNoteByID(id ledger.Digest) (veil.InputNoteRecord, error) {
	row := s.db.QueryRow(selectNoteColumns+` WHERE note_id = ?`, id.String())
	record, err := scanInputNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return veil.InputNoteRecord{}, veil.NewErr(veil.NoteNotFound, "input note %s not found", id)
	}
	return record, err
}

// InsertInputNote persists one record in its own transaction.
func (s *SQLiteStore) InsertInputNote(record *veil.InputNoteRecord) error {
	return s.withTx(func(tx *sql.Tx) error {
		return insertInputNoteTx(tx, record)
	})
}

// GetUnspentNullifiers returns the nullifiers of every note whose
// persisted status is exactly 'committed': confirmed but not yet marked
// consumed. Pending notes are deliberately excluded.
func (s *SQLiteStore) GetUnspentNullifiers() ([]ledger.Digest, error) {
	rows, err := s.db.Query(`SELECT nullifier FROM input_notes WHERE status = 'committed'`)
	if err != nil {
		return nil, dbErr(err, "GetUnspentNullifiers: querying notes")
	}
	defer rows.Close()

	var nullifiers []ledger.Digest
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, dbErr(err, "GetUnspentNullifiers: scanning row")
		}
		nullifier, err := ledger.ParseDigest(raw)
		if err != nil {
			return nil, decodeErr(err, "GetUnspentNullifiers: parsing nullifier")
		}
		nullifiers = append(nullifiers, nullifier)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "GetUnspentNullifiers: reading rows")
	}
	return nullifiers, nil
}

// insertInputNoteTx persists one record inside a caller-supplied
// transaction.
func insertInputNoteTx(tx *sql.Tx, record *veil.InputNoteRecord) error {
	row, err := serializeInputNote(record)
	if err != nil {
		return err
	}
	_, err = tx.Exec(insertNoteQuery,
		row.noteID, row.nullifier, row.script, row.vault, row.inputs, row.serialNum,
		row.senderID, row.tag, row.inclusionProof, row.recipient, row.status, row.commitHeight)
	if err != nil {
		return dbErr(err, "insertInputNote: executing insert")
	}
	return nil
}

type inputNoteRow struct {
	noteID         string
	nullifier      string
	script         []byte
	vault          []byte
	inputs         []byte
	serialNum      string
	senderID       int64
	tag            int64
	inclusionProof []byte // nil when the note has no proof yet
	recipient      string
	status         string
	commitHeight   int64
}

// serializeInputNote converts a record into database column values.
func serializeInputNote(record *veil.InputNoteRecord) (inputNoteRow, error) {
	note := &record.Note
	serialNum, err := json.Marshal(note.SerialNum)
	if err != nil {
		return inputNoteRow{}, veil.WrapErr(veil.BadJSONData, err, "serializing note serial number")
	}
	row := inputNoteRow{
		noteID:    record.ID().String(),
		nullifier: record.Nullifier().String(),
		script:    note.Script.EncodeBinary(),
		vault:     note.Assets.EncodeBinary(),
		inputs:    note.Inputs.EncodeBinary(),
		serialNum: string(serialNum),
		senderID:  int64(note.Metadata.Sender),
		tag:       int64(note.Metadata.Tag),
		recipient: note.Recipient().String(),
		status:    string(veil.NoteStatusPending),
	}
	if record.InclusionProof != nil {
		row.inclusionProof = trimProofPath(record.InclusionProof).EncodeBinary()
		row.status = string(veil.NoteStatusCommitted)
		row.commitHeight = int64(record.InclusionProof.BlockNum)
	}
	return row, nil
}

// trimProofPath drops the first node of the authentication path before
// persisting. The node constructs paths keyed by the note's authentication
// hash rather than its id, which yields one extra leading node relative to
// what local verification expects. Re-validate this shim if the node's
// proof format ever changes: against a different format it would corrupt
// proofs silently.
func trimProofPath(proof *ledger.NoteInclusionProof) *ledger.NoteInclusionProof {
	trimmed := *proof
	if len(proof.Path) > 0 {
		trimmed.Path = append(ledger.MerklePath(nil), proof.Path[1:]...)
	}
	return &trimmed
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanInputNote reads the note columns and reassembles the record. Every
// decode failure surfaces as a classified error; corrupt on-disk bytes
// must never panic.
func scanInputNote(src scanner) (veil.InputNoteRecord, error) {
	var (
		script, inputs, vault []byte
		serialNum             string
		senderID, tag         int64
		proofBytes            []byte
	)
	if err := src.Scan(&script, &inputs, &vault, &serialNum, &senderID, &tag, &proofBytes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return veil.InputNoteRecord{}, err
		}
		return veil.InputNoteRecord{}, dbErr(err, "scanning note row")
	}
	return parseInputNote(script, inputs, vault, serialNum, senderID, tag, proofBytes)
}

func parseInputNote(script, inputs, vault []byte, serialNum string, senderID, tag int64, proofBytes []byte) (veil.InputNoteRecord, error) {
	noteScript, err := ledger.DecodeNoteScript(script)
	if err != nil {
		return veil.InputNoteRecord{}, decodeErr(err, "parsing note script")
	}
	noteInputs, err := ledger.DecodeNoteInputs(inputs)
	if err != nil {
		return veil.InputNoteRecord{}, decodeErr(err, "parsing note inputs")
	}
	noteAssets, err := ledger.DecodeNoteAssets(vault)
	if err != nil {
		return veil.InputNoteRecord{}, decodeErr(err, "parsing note assets")
	}
	var serial ledger.Digest
	if err := json.Unmarshal([]byte(serialNum), &serial); err != nil {
		return veil.InputNoteRecord{}, veil.WrapErr(veil.BadJSONData, err, "parsing note serial number")
	}
	record := veil.InputNoteRecord{
		Note: ledger.Note{
			Script:    noteScript,
			Inputs:    noteInputs,
			Assets:    noteAssets,
			SerialNum: serial,
			Metadata: ledger.NoteMetadata{
				Sender: ledger.AccountID(senderID),
				Tag:    uint64(tag),
			},
		},
	}
	if proofBytes != nil {
		proof, err := ledger.DecodeNoteInclusionProof(proofBytes)
		if err != nil {
			return veil.InputNoteRecord{}, decodeErr(err, "parsing inclusion proof")
		}
		record.InclusionProof = proof
	}
	return record, nil
}

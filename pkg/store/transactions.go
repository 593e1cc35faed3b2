package store

import (
	"database/sql"
	"encoding/json"

	veil "github.com/veilledger/veilclient/pkg"
	"github.com/veilledger/veilclient/pkg/ledger"
)

const insertTransactionQuery = `INSERT INTO transactions
	(id, account_id, init_account_state, final_account_state, input_notes, output_notes, script_hash, script_inputs, block_num, commit_height)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Scripts are deduplicated by content hash: a second transaction carrying
// an identical script must not create a second row.
const insertTransactionScriptQuery = `INSERT OR IGNORE INTO transaction_scripts
	(script_hash, program) VALUES (?, ?)`

const selectTransactionColumns = `SELECT
	tx.id, tx.account_id, tx.init_account_state, tx.final_account_state,
	tx.input_notes, tx.output_notes, tx.script_hash, script.program, tx.script_inputs,
	tx.block_num, tx.commit_height
	FROM transactions AS tx
	LEFT JOIN transaction_scripts AS script ON tx.script_hash = script.script_hash`

// transactionFilterToQuery is the exhaustive mapping for the closed
// TransactionFilter set.
func transactionFilterToQuery(filter veil.TransactionFilter) (string, error) {
	switch filter {
	case veil.TransactionFilterAll:
		return selectTransactionColumns, nil
	case veil.TransactionFilterUncommitted:
		return selectTransactionColumns + ` WHERE tx.commit_height IS NULL`, nil
	default:
		return "", veil.NewErr(veil.QueryError, "unknown transaction filter %q", filter)
	}
}

// GetTransactions retrieves the transactions matching the filter, each
// joined with its script row if one exists.
func (s *SQLiteStore) GetTransactions(filter veil.TransactionFilter) ([]veil.TransactionRecord, error) {
	query, err := transactionFilterToQuery(filter)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, dbErr(err, "GetTransactions: querying transactions")
	}
	defer rows.Close()

	var records []veil.TransactionRecord
	for rows.Next() {
		record, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "GetTransactions: reading rows")
	}
	return records, nil
}

// InsertTransactionData persists the effects of a locally executed
// transaction as a single all-or-nothing unit: the updated account state,
// the transaction record, its deduplicated script row, and every created
// note as a fresh pending record. If any step fails, none of it becomes
// visible to subsequent reads.
func (s *SQLiteStore) InsertTransactionData(result *ledger.TransactionResult) error {
	account, err := s.GetAccountByID(result.AccountID)
	if err != nil {
		return err
	}
	if !result.InitialAccountHash.IsZero() && account.Hash() != result.InitialAccountHash {
		return veil.NewErr(veil.AccountHashMismatch,
			"account %s: stored state %s does not match transaction initial state %s",
			result.AccountID, account.Hash(), result.InitialAccountHash)
	}
	if err := account.ApplyDelta(&result.Delta); err != nil {
		return domainErr(err, "InsertTransactionData: applying account delta")
	}

	createdNotes := make([]veil.InputNoteRecord, len(result.OutputNotes))
	for i, note := range result.OutputNotes {
		createdNotes[i] = veil.InputNoteRecord{Note: note}
	}

	s.log.Infow("inserting transaction",
		"id", result.ID.String(), "account", result.AccountID.String())

	return s.withTx(func(tx *sql.Tx) error {
		if err := insertTransactionTx(tx, result); err != nil {
			return err
		}
		if err := insertAccountStorageTx(tx, &account.Storage); err != nil {
			return err
		}
		if err := insertAccountVaultTx(tx, &account.Vault); err != nil {
			return err
		}
		if err := insertAccountRecordTx(tx, &account); err != nil {
			return err
		}
		for i := range createdNotes {
			if err := insertInputNoteTx(tx, &createdNotes[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// MarkTransactionsCommittedByNoteID marks every candidate whose output
// notes intersect noteIDs as committed at blockNum. Callers syncing a
// block must pair this with the matching note-status updates in one unit;
// ApplyStateSync does exactly that.
func (s *SQLiteStore) MarkTransactionsCommittedByNoteID(candidates []veil.TransactionRecord, noteIDs []ledger.Digest, blockNum uint32) (int, error) {
	var updated int
	err := s.withTx(func(tx *sql.Tx) error {
		var err error
		updated, err = markTransactionsCommittedTx(tx, candidates, noteIDs, blockNum)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.log.Infof("marked %d transactions as committed", updated)
	return updated, nil
}

func markTransactionsCommittedTx(tx *sql.Tx, candidates []veil.TransactionRecord, noteIDs []ledger.Digest, blockNum uint32) (int, error) {
	observed := make(map[ledger.Digest]struct{}, len(noteIDs))
	for _, id := range noteIDs {
		observed[id] = struct{}{}
	}

	updated := 0
	for i := range candidates {
		record := &candidates[i]
		if record.Committed() || !outputNotesIntersect(record.OutputNotes, observed) {
			continue
		}
		res, err := tx.Exec(`UPDATE transactions SET commit_height = ? WHERE id = ?`,
			blockNum, record.ID.String())
		if err != nil {
			return 0, dbErr(err, "markTransactionsCommitted: executing update")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, dbErr(err, "markTransactionsCommitted: rows affected")
		}
		updated += int(n)
	}
	return updated, nil
}

func outputNotesIntersect(notes ledger.OutputNotes, observed map[ledger.Digest]struct{}) bool {
	for i := range notes {
		if _, ok := observed[notes[i].ID()]; ok {
			return true
		}
	}
	return false
}

// insertTransactionTx writes the script row (idempotent) and the
// transaction record inside a caller-supplied transaction.
func insertTransactionTx(tx *sql.Tx, result *ledger.TransactionResult) error {
	row, err := serializeTransactionData(result)
	if err != nil {
		return err
	}
	if row.scriptHash != nil {
		if _, err := tx.Exec(insertTransactionScriptQuery, *row.scriptHash, row.scriptProgram); err != nil {
			return dbErr(err, "insertTransaction: inserting script")
		}
	}
	_, err = tx.Exec(insertTransactionQuery,
		row.id, row.accountID, row.initAccountState, row.finalAccountState,
		row.inputNotes, row.outputNotes, row.scriptHash, row.scriptInputs,
		row.blockNum, nil)
	if err != nil {
		return dbErr(err, "insertTransaction: executing insert")
	}
	return nil
}

type transactionRow struct {
	id                string
	accountID         int64
	initAccountState  string
	finalAccountState string
	inputNotes        string
	outputNotes       []byte
	scriptHash        *string
	scriptProgram     []byte
	scriptInputs      *string
	blockNum          int64
}

func serializeTransactionData(result *ledger.TransactionResult) (transactionRow, error) {
	nullifiers, err := json.Marshal(result.InputNullifiers)
	if err != nil {
		return transactionRow{}, veil.WrapErr(veil.BadJSONData, err, "serializing input nullifiers")
	}
	row := transactionRow{
		id:                result.ID.String(),
		accountID:         int64(result.AccountID),
		initAccountState:  result.InitialAccountHash.String(),
		finalAccountState: result.FinalAccountHash.String(),
		inputNotes:        string(nullifiers),
		outputNotes:       result.OutputNotes.EncodeBinary(),
		blockNum:          int64(result.BlockNum),
	}
	if result.Script != nil {
		scriptHash := result.Script.Hash().String()
		scriptInputs, err := json.Marshal(result.Script.Inputs)
		if err != nil {
			return transactionRow{}, veil.WrapErr(veil.BadJSONData, err, "serializing script inputs")
		}
		inputsText := string(scriptInputs)
		row.scriptHash = &scriptHash
		row.scriptProgram = result.Script.Program
		row.scriptInputs = &inputsText
	}
	return row, nil
}

func scanTransaction(src scanner) (veil.TransactionRecord, error) {
	var (
		id, initState, finalState string
		accountID                 int64
		inputNotes                string
		outputNotes               []byte
		scriptHash                sql.NullString
		scriptProgram             []byte
		scriptInputs              sql.NullString
		blockNum                  int64
		commitHeight              sql.NullInt64
	)
	err := src.Scan(&id, &accountID, &initState, &finalState, &inputNotes,
		&outputNotes, &scriptHash, &scriptProgram, &scriptInputs, &blockNum, &commitHeight)
	if err != nil {
		return veil.TransactionRecord{}, dbErr(err, "scanning transaction row")
	}
	return parseTransaction(id, accountID, initState, finalState, inputNotes,
		outputNotes, scriptHash, scriptProgram, scriptInputs, blockNum, commitHeight)
}

func parseTransaction(id string, accountID int64, initState, finalState, inputNotes string,
	outputNotes []byte, scriptHash sql.NullString, scriptProgram []byte,
	scriptInputs sql.NullString, blockNum int64, commitHeight sql.NullInt64) (veil.TransactionRecord, error) {

	txID, err := ledger.ParseDigest(id)
	if err != nil {
		return veil.TransactionRecord{}, decodeErr(err, "parsing transaction id")
	}
	initDigest, err := ledger.ParseDigest(initState)
	if err != nil {
		return veil.TransactionRecord{}, decodeErr(err, "parsing initial account state")
	}
	finalDigest, err := ledger.ParseDigest(finalState)
	if err != nil {
		return veil.TransactionRecord{}, decodeErr(err, "parsing final account state")
	}
	var nullifiers []ledger.Digest
	if err := json.Unmarshal([]byte(inputNotes), &nullifiers); err != nil {
		return veil.TransactionRecord{}, veil.WrapErr(veil.BadJSONData, err, "parsing input nullifiers")
	}
	outputs, err := ledger.DecodeOutputNotes(outputNotes)
	if err != nil {
		return veil.TransactionRecord{}, decodeErr(err, "parsing output notes")
	}

	record := veil.TransactionRecord{
		ID:                txID,
		AccountID:         ledger.AccountID(accountID),
		InitAccountState:  initDigest,
		FinalAccountState: finalDigest,
		InputNullifiers:   nullifiers,
		OutputNotes:       outputs,
		BlockNum:          uint32(blockNum),
	}

	if scriptHash.Valid {
		// The join guarantees a program row for a valid hash; a missing one
		// means the script table lost a row the transaction references.
		if scriptProgram == nil {
			return veil.TransactionRecord{}, veil.NewErr(veil.ScriptError,
				"transaction %s references script %s with no stored program", id, scriptHash.String)
		}
		if !scriptInputs.Valid {
			return veil.TransactionRecord{}, veil.NewErr(veil.ScriptError,
				"transaction %s has a script but no script inputs", id)
		}
		inputs := map[string][]uint64{}
		if err := json.Unmarshal([]byte(scriptInputs.String), &inputs); err != nil {
			return veil.TransactionRecord{}, veil.WrapErr(veil.BadJSONData, err, "parsing script inputs")
		}
		record.Script = &ledger.TransactionScript{
			Program: scriptProgram,
			Inputs:  inputs,
		}
	}

	if commitHeight.Valid {
		height := uint32(commitHeight.Int64)
		record.CommitHeight = &height
	}
	return record, nil
}

package veil

import (
	"github.com/veilledger/veilclient/pkg/ledger"
)

// TransactionFilter selects transaction records. Closed set; see NoteFilter.
type TransactionFilter string

const (
	TransactionFilterAll         TransactionFilter = "all"
	TransactionFilterUncommitted TransactionFilter = "uncommitted"
)

func ParseTransactionFilter(s string) (TransactionFilter, error) {
	switch f := TransactionFilter(s); f {
	case TransactionFilterAll, TransactionFilterUncommitted:
		return f, nil
	default:
		return "", NewErr(QueryError, "unknown transaction filter %q", s)
	}
}

// TransactionRecord is a locally executed transaction as the store tracks
// it. CommitHeight is nil exactly while the transaction is pending; it is
// set once sync observes the transaction's output notes in a confirmed
// block. Records are append-only: nothing deletes or prunes them.
type TransactionRecord struct {
	ID                ledger.Digest
	AccountID         ledger.AccountID
	InitAccountState  ledger.Digest
	FinalAccountState ledger.Digest
	InputNullifiers   []ledger.Digest
	OutputNotes       ledger.OutputNotes
	Script            *ledger.TransactionScript
	BlockNum          uint32
	CommitHeight      *uint32
}

func (r *TransactionRecord) Committed() bool {
	return r.CommitHeight != nil
}

func (r *TransactionRecord) StatusString() string {
	if r.CommitHeight != nil {
		return "committed"
	}
	return "pending"
}

// StateSyncUpdate is one block's worth of newly observed chain state, fed
// to the store by a sync pass. The store applies all of it in a single
// atomic unit so a transaction is never marked committed while its notes
// remain pending, or vice versa.
type StateSyncUpdate struct {
	BlockHeader        ledger.BlockHeader
	ChainNodes         []ledger.ChainNode
	CommittedNotes     []CommittedNote
	ConsumedNullifiers []ledger.Digest
}

package veil

import (
	"github.com/veilledger/veilclient/pkg/ledger"
)

// Store is the durable local state of the client: accounts, input notes,
// transactions and the chain data needed to verify them. A Store owns its
// backing file exclusively for its lifetime and assumes one writer at a
// time; callers needing concurrent note/sync/submit activity must
// serialize access to a single instance.
type Store interface {
	// GetInputNotes returns the input notes matching the filter.
	GetInputNotes(filter NoteFilter) ([]InputNoteRecord, error)
	// GetInputNoteByID returns the note with the given id, or a
	// NoteNotFound error.
	GetInputNoteByID(id ledger.Digest) (InputNoteRecord, error)
	// InsertInputNote persists one record in its own transaction.
	InsertInputNote(record *InputNoteRecord) error
	// GetUnspentNullifiers returns the nullifiers of every note whose
	// persisted status is exactly committed: confirmed but not yet marked
	// consumed.
	GetUnspentNullifiers() ([]ledger.Digest, error)

	// GetTransactions returns transaction records matching the filter,
	// each carrying its full script if one exists.
	GetTransactions(filter TransactionFilter) ([]TransactionRecord, error)
	// InsertTransactionData persists the effects of a locally executed
	// transaction — account update, transaction record, script row,
	// created notes — as a single all-or-nothing unit.
	InsertTransactionData(result *ledger.TransactionResult) error
	// MarkTransactionsCommittedByNoteID sets commit_height on every
	// candidate whose output notes intersect noteIDs. Returns the number
	// of transactions updated.
	MarkTransactionsCommittedByNoteID(candidates []TransactionRecord, noteIDs []ledger.Digest, blockNum uint32) (int, error)

	// GetAccountByID reconstructs the full account state (code, storage,
	// vault) for the given id.
	GetAccountByID(id ledger.AccountID) (ledger.Account, error)
	// GetAccountIDs lists every account tracked by this client.
	GetAccountIDs() ([]ledger.AccountID, error)
	// InsertAccount persists an account and its component states.
	InsertAccount(account *ledger.Account) error

	// GetBlockHeader returns the locally stored header for the block.
	GetBlockHeader(blockNum uint32) (ledger.BlockHeader, error)
	// InsertBlockHeader persists a confirmed block header.
	InsertBlockHeader(header *ledger.BlockHeader) error
	// GetChainNode returns the chain authentication node at the index.
	GetChainNode(index uint64) (ledger.ChainNode, error)

	// GetSyncHeight returns the last block number applied by sync.
	GetSyncHeight() (uint32, error)
	// GetNoteTags returns the tags this client monitors.
	GetNoteTags() ([]uint64, error)
	// AddNoteTag starts monitoring a tag; duplicates are a conflict error.
	AddNoteTag(tag uint64) error
	// ApplyStateSync applies one block's observed state in one atomic
	// unit: sync height, block header, chain nodes, note commitments and
	// consumptions, and transaction commit marks.
	ApplyStateSync(update *StateSyncUpdate) error

	// Close releases the backing file. The store is unusable afterwards.
	Close() error
}

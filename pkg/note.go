package veil

import (
	"github.com/veilledger/veilclient/pkg/ledger"
)

// NoteStatus is the persisted lifecycle state of an input note.
type NoteStatus string

const (
	NoteStatusPending   NoteStatus = "pending"   // created locally, not yet seen in a block
	NoteStatusCommitted NoteStatus = "committed" // inclusion proof attached
	NoteStatusConsumed  NoteStatus = "consumed"  // nullifier observed in a confirmed block
)

// NoteFilter selects input notes by status. The set is closed: the store
// maps each variant through one exhaustive predicate builder, so a new
// status cannot silently fall through to an unfiltered query.
type NoteFilter string

const (
	NoteFilterAll       NoteFilter = "all"
	NoteFilterPending   NoteFilter = "pending"
	NoteFilterCommitted NoteFilter = "committed"
	NoteFilterConsumed  NoteFilter = "consumed"
)

// ParseNoteFilter validates a user-supplied filter name.
func ParseNoteFilter(s string) (NoteFilter, error) {
	switch f := NoteFilter(s); f {
	case NoteFilterAll, NoteFilterPending, NoteFilterCommitted, NoteFilterConsumed:
		return f, nil
	default:
		return "", NewErr(QueryError, "unknown note filter %q", s)
	}
}

// InputNoteRecord is a note tracked by this client, plus the inclusion
// proof once the note has been observed in a confirmed block. The note
// content never changes after insertion; only the proof may be attached
// later.
type InputNoteRecord struct {
	Note           ledger.Note
	InclusionProof *ledger.NoteInclusionProof
}

func (r *InputNoteRecord) ID() ledger.Digest {
	return r.Note.ID()
}

func (r *InputNoteRecord) Nullifier() ledger.Digest {
	return r.Note.Nullifier()
}

// Status derives the state persisted at insertion time. Consumed is only
// ever set by sync (see SQLiteStore.ApplyStateSync), never derived here.
func (r *InputNoteRecord) Status() NoteStatus {
	if r.InclusionProof != nil {
		return NoteStatusCommitted
	}
	return NoteStatusPending
}

// CommittedNote pairs a note id with the inclusion proof a sync pass
// fetched for it. Note carries the full content when the note was
// discovered remotely (by tag) rather than created locally; it is nil for
// notes the store already tracks.
type CommittedNote struct {
	NoteID ledger.Digest
	Proof  *ledger.NoteInclusionProof
	Note   *ledger.Note
}

package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	veil "github.com/veilledger/veilclient/pkg"
	"github.com/veilledger/veilclient/pkg/ledger"
)

func TestInputNoteRoundTripPending(t *testing.T) {
	s := openTestStore(t)

	record := veil.InputNoteRecord{Note: makeNote(1)}
	require.NoError(t, s.InsertInputNote(&record))

	got, err := s.GetInputNoteByID(record.ID())
	require.NoError(t, err)
	require.Equal(t, record.ID(), got.ID())
	require.Equal(t, record.Nullifier(), got.Nullifier())
	require.Equal(t, veil.NoteStatusPending, got.Status())
	require.Nil(t, got.InclusionProof)
	require.Equal(t, record.Note.Metadata, got.Note.Metadata)
}

func TestInputNoteProofPathTrimmed(t *testing.T) {
	s := openTestStore(t)

	proof := makeProof(9, 3)
	record := veil.InputNoteRecord{Note: makeNote(2), InclusionProof: proof}
	require.NoError(t, s.InsertInputNote(&record))

	got, err := s.GetInputNoteByID(record.ID())
	require.NoError(t, err)
	require.Equal(t, veil.NoteStatusCommitted, got.Status())
	require.NotNil(t, got.InclusionProof)
	// the stored path drops the leading node
	require.Equal(t, proof.Path[1:], got.InclusionProof.Path)
	require.Equal(t, proof.BlockNum, got.InclusionProof.BlockNum)

	// the caller's proof must not be modified
	require.Len(t, proof.Path, 3)
}

func TestInputNoteEmptyProofPath(t *testing.T) {
	s := openTestStore(t)

	record := veil.InputNoteRecord{Note: makeNote(3), InclusionProof: makeProof(9, 0)}
	require.NoError(t, s.InsertInputNote(&record))

	got, err := s.GetInputNoteByID(record.ID())
	require.NoError(t, err)
	require.NotNil(t, got.InclusionProof)
	require.Empty(t, got.InclusionProof.Path)
}

func TestInputNoteFilters(t *testing.T) {
	s := openTestStore(t)

	pending := veil.InputNoteRecord{Note: makeNote(1)}
	committed := veil.InputNoteRecord{Note: makeNote(2), InclusionProof: makeProof(5, 2)}
	require.NoError(t, s.InsertInputNote(&pending))
	require.NoError(t, s.InsertInputNote(&committed))

	all, err := s.GetInputNotes(veil.NoteFilterAll)
	require.NoError(t, err)
	require.Len(t, all, 2)

	got, err := s.GetInputNotes(veil.NoteFilterPending)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, pending.ID(), got[0].ID())

	got, err = s.GetInputNotes(veil.NoteFilterCommitted)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, committed.ID(), got[0].ID())

	got, err = s.GetInputNotes(veil.NoteFilterConsumed)
	require.NoError(t, err)
	require.Empty(t, got)

	// an unknown filter is an error, never an unfiltered query
	_, err = s.GetInputNotes(veil.NoteFilter("bogus"))
	require.True(t, veil.IsError(err, veil.QueryError))
}

func TestInputNoteNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetInputNoteByID(ledger.Digest{0xee})
	require.True(t, veil.IsError(err, veil.NoteNotFound))
	require.True(t, veil.IsNotFoundError(err))
}

func TestInputNoteDuplicateInsert(t *testing.T) {
	s := openTestStore(t)

	record := veil.InputNoteRecord{Note: makeNote(1)}
	require.NoError(t, s.InsertInputNote(&record))
	err := s.InsertInputNote(&record)
	require.True(t, veil.IsError(err, veil.AlreadyExists))
}

func TestUnspentNullifiersCommittedOnly(t *testing.T) {
	s := openTestStore(t)

	pending := veil.InputNoteRecord{Note: makeNote(1)}
	committed := veil.InputNoteRecord{Note: makeNote(2), InclusionProof: makeProof(5, 2)}
	consumed := veil.InputNoteRecord{Note: makeNote(3), InclusionProof: makeProof(5, 2)}
	require.NoError(t, s.InsertInputNote(&pending))
	require.NoError(t, s.InsertInputNote(&committed))
	require.NoError(t, s.InsertInputNote(&consumed))

	// flip the third note to consumed via a sync pass
	update := veil.StateSyncUpdate{
		BlockHeader:        ledger.BlockHeader{BlockNum: 6},
		ConsumedNullifiers: []ledger.Digest{consumed.Nullifier()},
	}
	require.NoError(t, s.ApplyStateSync(&update))

	nullifiers, err := s.GetUnspentNullifiers()
	require.NoError(t, err)
	require.Equal(t, []ledger.Digest{committed.Nullifier()}, nullifiers)
}

package sync

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	veil "github.com/veilledger/veilclient/pkg"
	"github.com/veilledger/veilclient/pkg/ledger"
	"github.com/veilledger/veilclient/pkg/node"
	"github.com/veilledger/veilclient/pkg/store"
)

func TestSyncOnceCatchesUp(t *testing.T) {
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.sqlite3"), zap.NewNop().Sugar())
	require.NoError(t, err)
	defer s.Close()

	remote := ledger.Note{
		Script:    ledger.NoteScript{Program: []byte{1}},
		SerialNum: ledger.Digest{9},
		Metadata:  ledger.NoteMetadata{Sender: 0x1, Tag: 3},
	}
	source := node.NewMock(
		veil.StateSyncUpdate{
			BlockHeader: ledger.BlockHeader{BlockNum: 1},
		},
		veil.StateSyncUpdate{
			BlockHeader: ledger.BlockHeader{BlockNum: 2},
			CommittedNotes: []veil.CommittedNote{
				{
					NoteID: remote.ID(),
					Proof:  &ledger.NoteInclusionProof{BlockNum: 2},
					Note:   &remote,
				},
			},
		},
	)

	var conf veil.Config
	follower := NewFollower(conf, source, s, zap.NewNop().Sugar())

	applied, err := follower.SyncOnce()
	require.NoError(t, err)
	require.Equal(t, 2, applied)

	height, err := s.GetSyncHeight()
	require.NoError(t, err)
	require.Equal(t, uint32(2), height)

	// the discovered note landed in the store
	got, err := s.GetInputNoteByID(remote.ID())
	require.NoError(t, err)
	require.Equal(t, veil.NoteStatusCommitted, got.Status())

	// a second pass finds nothing new
	applied, err = follower.SyncOnce()
	require.NoError(t, err)
	require.Zero(t, applied)
}

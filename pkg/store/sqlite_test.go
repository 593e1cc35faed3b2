package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	veil "github.com/veilledger/veilclient/pkg"
	"github.com/veilledger/veilclient/pkg/ledger"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.sqlite3"), zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func makeNote(serial byte) ledger.Note {
	return ledger.Note{
		Script:    ledger.NoteScript{Program: []byte{0x01, 0x02, 0x03}},
		Inputs:    ledger.NoteInputs{10, 20},
		Assets:    ledger.NoteAssets{{FaucetID: 0x42, Amount: 100}},
		SerialNum: ledger.Digest{serial},
		Metadata:  ledger.NoteMetadata{Sender: 0xabc, Tag: 7},
	}
}

func makeProof(blockNum uint32, depth int) *ledger.NoteInclusionProof {
	p := &ledger.NoteInclusionProof{
		BlockNum:  blockNum,
		SubHash:   ledger.Digest{1},
		NoteRoot:  ledger.Digest{2},
		NodeIndex: 3,
	}
	for i := 0; i < depth; i++ {
		p.Path = append(p.Path, ledger.Digest{byte(i + 1)})
	}
	return p
}

func makeAccount(id ledger.AccountID) ledger.Account {
	return ledger.Account{
		ID:    id,
		Nonce: 1,
		Code:  ledger.AccountCode{Program: []byte{0xaa, 0xbb}},
		Storage: ledger.AccountStorage{
			Slots: [][]byte{{0x01}, {0x02, 0x03}},
		},
		Vault: ledger.AssetVault{
			Assets: []ledger.Asset{{FaucetID: 0x42, Amount: 1000}},
		},
	}
}

func TestReopenStoreKeepsData(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "test.sqlite3")
	log := zap.NewNop().Sugar()

	s, err := NewSQLiteStore(dbFile, log)
	require.NoError(t, err)
	note := veil.InputNoteRecord{Note: makeNote(1)}
	require.NoError(t, s.InsertInputNote(&note))
	require.NoError(t, s.Close())

	// re-opening runs the migrations again; all steps must be no-ops
	s, err = NewSQLiteStore(dbFile, log)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetInputNoteByID(note.ID())
	require.NoError(t, err)
	require.Equal(t, note.ID(), got.ID())

	var version int
	require.NoError(t, s.db.QueryRow(`SELECT MAX(version) FROM migrations`).Scan(&version))
	require.Equal(t, len(migrations), version)
}

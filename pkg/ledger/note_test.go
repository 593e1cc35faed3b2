package ledger

import (
	"errors"
	"testing"
)

func testNote(serial byte) Note {
	return Note{
		Script:    NoteScript{Program: []byte{0x01, 0x02, 0x03}},
		Inputs:    NoteInputs{7, 8, 9},
		Assets:    NoteAssets{{FaucetID: 0x42, Amount: 100}},
		SerialNum: Digest{serial},
		Metadata:  NoteMetadata{Sender: 0xabcd, Tag: 3},
	}
}

func TestNoteIdentityDeterministic(t *testing.T) {
	a, b := testNote(1), testNote(1)
	if a.ID() != b.ID() {
		t.Errorf("same note produced different ids")
	}
	if a.Nullifier() != b.Nullifier() {
		t.Errorf("same note produced different nullifiers")
	}
}

func TestNoteIdentityDistinct(t *testing.T) {
	a, b := testNote(1), testNote(2)
	if a.ID() == b.ID() {
		t.Errorf("different serials produced the same id")
	}
	if a.Nullifier() == b.Nullifier() {
		t.Errorf("different serials produced the same nullifier")
	}
	// id and nullifier must not collide even over the same preimage fields
	if a.ID() == a.Nullifier() {
		t.Errorf("note id equals its nullifier")
	}
}

func TestNoteRoundTrip(t *testing.T) {
	n := testNote(5)
	decoded, err := DecodeNote(n.EncodeBinary())
	if err != nil {
		t.Fatal(err)
	}
	if decoded.ID() != n.ID() {
		t.Errorf("note id changed across round trip")
	}
	if decoded.Metadata != n.Metadata {
		t.Errorf("metadata changed across round trip: %+v", decoded.Metadata)
	}
}

func TestNoteDecodeCorrupt(t *testing.T) {
	n := testNote(5)
	enc := n.EncodeBinary()
	for _, cut := range []int{1, 10, len(enc) - 1} {
		if _, err := DecodeNote(enc[:cut]); err == nil {
			t.Errorf("truncation at %d decoded without error", cut)
		}
	}
	if _, err := DecodeNote(append(enc, 0)); !errors.Is(err, ErrTrailing) {
		t.Errorf("expected ErrTrailing for padded note")
	}
}

func TestInclusionProofRoundTrip(t *testing.T) {
	p := &NoteInclusionProof{
		BlockNum:  42,
		SubHash:   Digest{1},
		NoteRoot:  Digest{2},
		NodeIndex: 7,
		Path:      MerklePath{{3}, {4}, {5}},
	}
	decoded, err := DecodeNoteInclusionProof(p.EncodeBinary())
	if err != nil {
		t.Fatal(err)
	}
	if decoded.BlockNum != 42 || decoded.NodeIndex != 7 || len(decoded.Path) != 3 {
		t.Errorf("proof changed across round trip: %+v", decoded)
	}
}

func TestInclusionProofDepthBound(t *testing.T) {
	e := NewEncoder()
	e.U32(1)
	e.Bytes32([32]byte{})
	e.Bytes32([32]byte{})
	e.U64(0)
	e.U32(maxPathDepth + 1)
	if _, err := DecodeNoteInclusionProof(e.Bytes()); !errors.Is(err, ErrBadMerklePath) {
		t.Errorf("expected ErrBadMerklePath, got %v", err)
	}
}

func TestBlockHeaderRoundTrip(t *testing.T) {
	h := BlockHeader{
		BlockNum:  9,
		PrevHash:  Digest{1},
		ChainRoot: Digest{2},
		NoteRoot:  Digest{3},
		Timestamp: 1700000000,
	}
	decoded, err := DecodeBlockHeader(h.EncodeBinary())
	if err != nil {
		t.Fatal(err)
	}
	if decoded != h {
		t.Errorf("header changed across round trip: %+v", decoded)
	}
}

func TestOutputNotesRoundTrip(t *testing.T) {
	on := OutputNotes{testNote(1), testNote(2)}
	decoded, err := DecodeOutputNotes(on.EncodeBinary())
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded) != 2 || decoded[0].ID() != on[0].ID() || decoded[1].ID() != on[1].ID() {
		t.Errorf("output notes changed across round trip")
	}

	var empty OutputNotes
	decoded, err = DecodeOutputNotes(empty.EncodeBinary())
	if err != nil || len(decoded) != 0 {
		t.Errorf("empty set round trip: %v, %d notes", err, len(decoded))
	}
}

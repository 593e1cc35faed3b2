package ledger

import "fmt"

// NoteScript is the program that must run for a note to be consumed.
type NoteScript struct {
	Program []byte
}

func (s *NoteScript) Root() Digest {
	return hash("note-script", s.Program)
}

func (s *NoteScript) EncodeBinary() []byte {
	e := NewEncoder()
	e.VarBytes(s.Program)
	return e.Bytes()
}

func DecodeNoteScript(b []byte) (NoteScript, error) {
	d := NewDecoder(b)
	s := NoteScript{Program: d.VarBytes()}
	return s, d.Finish()
}

// NoteInputs are the field elements passed to the note script.
type NoteInputs []uint64

func (in NoteInputs) Commitment() Digest {
	e := NewEncoder()
	for _, v := range in {
		e.U64(v)
	}
	return hash("note-inputs", e.Bytes())
}

func (in NoteInputs) EncodeBinary() []byte {
	e := NewEncoder()
	e.U32(uint32(len(in)))
	for _, v := range in {
		e.U64(v)
	}
	return e.Bytes()
}

func DecodeNoteInputs(b []byte) (NoteInputs, error) {
	d := NewDecoder(b)
	n := d.U32()
	if n > maxFieldLen {
		return nil, fmt.Errorf("%w: %d note inputs", ErrOversize, n)
	}
	var in NoteInputs
	for i := uint32(0); i < n && d.Err() == nil; i++ {
		in = append(in, d.U64())
	}
	return in, d.Finish()
}

// NoteAssets is the list of assets the note transfers.
type NoteAssets []Asset

func (as NoteAssets) Commitment() Digest {
	e := NewEncoder()
	for _, a := range as {
		e.U64(uint64(a.FaucetID))
		e.U64(a.Amount)
	}
	return hash("note-assets", e.Bytes())
}

func (as NoteAssets) EncodeBinary() []byte {
	e := NewEncoder()
	e.U32(uint32(len(as)))
	for _, a := range as {
		e.U64(uint64(a.FaucetID))
		e.U64(a.Amount)
	}
	return e.Bytes()
}

func DecodeNoteAssets(b []byte) (NoteAssets, error) {
	d := NewDecoder(b)
	n := d.U32()
	if n > maxFieldLen {
		return nil, fmt.Errorf("%w: %d note assets", ErrOversize, n)
	}
	var as NoteAssets
	for i := uint32(0); i < n && d.Err() == nil; i++ {
		as = append(as, Asset{FaucetID: AccountID(d.U64()), Amount: d.U64()})
	}
	return as, d.Finish()
}

// NoteMetadata carries the note's sender and routing tag.
type NoteMetadata struct {
	Sender AccountID
	Tag    uint64
}

// Note is an immutable transferable object on the ledger. Its identity and
// nullifier are content-derived; no field changes after creation.
type Note struct {
	Script    NoteScript
	Inputs    NoteInputs
	Assets    NoteAssets
	SerialNum Digest
	Metadata  NoteMetadata
}

// Recipient commits to everything needed to consume the note except its
// assets: serial number, script and inputs.
func (n *Note) Recipient() Digest {
	return hash("note-recipient", n.SerialNum[:], n.Script.Root().bytes(), n.Inputs.Commitment().bytes())
}

// ID is the note's globally unique content-derived identity.
func (n *Note) ID() Digest {
	return hash("note-id", n.Recipient().bytes(), n.Assets.Commitment().bytes())
}

// Nullifier is the digest published when the note is spent. It commits to
// the serial number so it cannot be linked to the note id without it.
func (n *Note) Nullifier() Digest {
	return hash("note-nullifier",
		n.SerialNum[:], n.Script.Root().bytes(), n.Inputs.Commitment().bytes(), n.Assets.Commitment().bytes())
}

// EncodeBinary produces the note's canonical full encoding, used for the
// output-note sets persisted with transactions.
func (n *Note) EncodeBinary() []byte {
	e := NewEncoder()
	e.VarBytes(n.Script.Program)
	e.U32(uint32(len(n.Inputs)))
	for _, v := range n.Inputs {
		e.U64(v)
	}
	e.U32(uint32(len(n.Assets)))
	for _, a := range n.Assets {
		e.U64(uint64(a.FaucetID))
		e.U64(a.Amount)
	}
	e.Bytes32(n.SerialNum)
	e.U64(uint64(n.Metadata.Sender))
	e.U64(n.Metadata.Tag)
	return e.Bytes()
}

func DecodeNote(b []byte) (Note, error) {
	d := NewDecoder(b)
	n, err := decodeNoteBody(d)
	if err != nil {
		return Note{}, err
	}
	return n, d.Finish()
}

func decodeNoteBody(d *Decoder) (Note, error) {
	var n Note
	n.Script.Program = d.VarBytes()
	numInputs := d.U32()
	if numInputs > maxFieldLen {
		return n, fmt.Errorf("%w: %d note inputs", ErrOversize, numInputs)
	}
	for i := uint32(0); i < numInputs && d.Err() == nil; i++ {
		n.Inputs = append(n.Inputs, d.U64())
	}
	numAssets := d.U32()
	if numAssets > maxFieldLen {
		return n, fmt.Errorf("%w: %d note assets", ErrOversize, numAssets)
	}
	for i := uint32(0); i < numAssets && d.Err() == nil; i++ {
		n.Assets = append(n.Assets, Asset{FaucetID: AccountID(d.U64()), Amount: d.U64()})
	}
	n.SerialNum = d.Bytes32()
	n.Metadata.Sender = AccountID(d.U64())
	n.Metadata.Tag = d.U64()
	return n, d.Err()
}

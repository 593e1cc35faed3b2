package ledger

import "fmt"

// TransactionScript is an optional program executed as part of a
// transaction. Scripts are identified (and deduplicated in storage) by the
// content hash of their program. Inputs map a commitment digest, in its
// text form, to the field elements it unlocks.
type TransactionScript struct {
	Program []byte
	Inputs  map[string][]uint64
}

func (s *TransactionScript) Hash() Digest {
	return hash("tx-script", s.Program)
}

// OutputNotes is the ordered set of notes a transaction created.
type OutputNotes []Note

func (on OutputNotes) EncodeBinary() []byte {
	e := NewEncoder()
	e.U32(uint32(len(on)))
	for i := range on {
		e.VarBytes(on[i].EncodeBinary())
	}
	return e.Bytes()
}

func DecodeOutputNotes(b []byte) (OutputNotes, error) {
	d := NewDecoder(b)
	n := d.U32()
	if n > maxFieldLen {
		return nil, fmt.Errorf("%w: %d output notes", ErrOversize, n)
	}
	var on OutputNotes
	for i := uint32(0); i < n; i++ {
		raw := d.VarBytes()
		if d.Err() != nil {
			return nil, d.Err()
		}
		note, err := DecodeNote(raw)
		if err != nil {
			return nil, err
		}
		on = append(on, note)
	}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return on, nil
}

// TransactionResult is what a locally executed (and proven) transaction
// hands to the store: identity, state transition endpoints, the notes it
// consumed and created, and the delta to apply to the account. The store
// persists all of it in one atomic unit.
type TransactionResult struct {
	ID                 Digest
	AccountID          AccountID
	InitialAccountHash Digest
	FinalAccountHash   Digest
	InputNullifiers    []Digest
	OutputNotes        OutputNotes
	Script             *TransactionScript
	Delta              AccountDelta
	BlockNum           uint32
}

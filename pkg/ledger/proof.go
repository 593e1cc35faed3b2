package ledger

import (
	"errors"
	"fmt"
)

var ErrBadMerklePath = errors.New("ledger: malformed merkle path")

// MerklePath is an ordered merkle authentication path, leaf to root.
type MerklePath []Digest

// maxPathDepth bounds a decoded path; deeper paths cannot occur in any
// tree the ledger builds.
const maxPathDepth = 64

// NoteInclusionProof proves a note is included in a confirmed block.
type NoteInclusionProof struct {
	BlockNum  uint32
	SubHash   Digest
	NoteRoot  Digest
	NodeIndex uint64
	Path      MerklePath
}

func (p *NoteInclusionProof) EncodeBinary() []byte {
	e := NewEncoder()
	e.U32(p.BlockNum)
	e.Bytes32(p.SubHash)
	e.Bytes32(p.NoteRoot)
	e.U64(p.NodeIndex)
	e.U32(uint32(len(p.Path)))
	for _, node := range p.Path {
		e.Bytes32(node)
	}
	return e.Bytes()
}

func DecodeNoteInclusionProof(b []byte) (*NoteInclusionProof, error) {
	d := NewDecoder(b)
	p := &NoteInclusionProof{
		BlockNum:  d.U32(),
		SubHash:   d.Bytes32(),
		NoteRoot:  d.Bytes32(),
		NodeIndex: d.U64(),
	}
	depth := d.U32()
	if depth > maxPathDepth {
		return nil, fmt.Errorf("%w: depth %d", ErrBadMerklePath, depth)
	}
	for i := uint32(0); i < depth && d.Err() == nil; i++ {
		p.Path = append(p.Path, d.Bytes32())
	}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return p, nil
}

// BlockHeader is the confirmed-block summary the client tracks locally.
type BlockHeader struct {
	BlockNum  uint32
	PrevHash  Digest
	ChainRoot Digest
	NoteRoot  Digest
	Timestamp uint64
}

func (h *BlockHeader) EncodeBinary() []byte {
	e := NewEncoder()
	e.U32(h.BlockNum)
	e.Bytes32(h.PrevHash)
	e.Bytes32(h.ChainRoot)
	e.Bytes32(h.NoteRoot)
	e.U64(h.Timestamp)
	return e.Bytes()
}

func DecodeBlockHeader(b []byte) (BlockHeader, error) {
	d := NewDecoder(b)
	h := BlockHeader{
		BlockNum:  d.U32(),
		PrevHash:  d.Bytes32(),
		ChainRoot: d.Bytes32(),
		NoteRoot:  d.Bytes32(),
		Timestamp: d.U64(),
	}
	return h, d.Finish()
}

// ChainNode is one node of the chain's authentication structure, addressed
// by its in-order index.
type ChainNode struct {
	Index uint64
	Node  Digest
}

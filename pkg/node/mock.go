// Package node holds implementations of veil.NodeSource. The RPC-backed
// source that talks to a real node lives outside this module; the mock
// here serves tests and local demo runs.
package node

import (
	veil "github.com/veilledger/veilclient/pkg"
)

// interface guard ensures Mock implements veil.NodeSource
var _ veil.NodeSource = (*Mock)(nil)

// Mock replays a scripted sequence of state updates in block order.
type Mock struct {
	Updates []veil.StateSyncUpdate
}

func NewMock(updates ...veil.StateSyncUpdate) *Mock {
	return &Mock{Updates: updates}
}

func (m *Mock) ChainHeight() (uint32, error) {
	if len(m.Updates) == 0 {
		return 0, nil
	}
	return m.Updates[len(m.Updates)-1].BlockHeader.BlockNum, nil
}

// SyncState returns the first scripted update past fromBlock. Tags are
// ignored: the script is assumed to contain only relevant notes.
func (m *Mock) SyncState(fromBlock uint32, tags []uint64) (*veil.StateSyncUpdate, error) {
	for i := range m.Updates {
		if m.Updates[i].BlockHeader.BlockNum > fromBlock {
			return &m.Updates[i], nil
		}
	}
	return nil, nil
}

package veil

// NodeSource is the client's view of the remote node for sync purposes.
//
// The wire client that implements it against the real node RPC lives
// outside this module; tests and the demo mode use the in-memory
// implementation in pkg/node.
type NodeSource interface {
	// ChainHeight returns the remote chain tip.
	ChainHeight() (uint32, error)
	// SyncState returns the first state update after fromBlock relevant
	// to the given note tags, or nil when the client is up to date.
	SyncState(fromBlock uint32, tags []uint64) (*StateSyncUpdate, error)
}

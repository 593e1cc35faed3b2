package store

import (
	"database/sql"
	"errors"

	veil "github.com/veilledger/veilclient/pkg"
	"github.com/veilledger/veilclient/pkg/ledger"
)

// InsertBlockHeader persists a confirmed block header. Re-inserting the
// same block number replaces the row; headers for a confirmed height are
// immutable upstream.
func (s *SQLiteStore) InsertBlockHeader(header *ledger.BlockHeader) error {
	return s.withTx(func(tx *sql.Tx) error {
		return insertBlockHeaderTx(tx, header)
	})
}

// GetBlockHeader returns the locally stored header for the block.
func (s *SQLiteStore) GetBlockHeader(blockNum uint32) (ledger.BlockHeader, error) {
	var raw []byte
	err := s.db.QueryRow(
		`SELECT header FROM block_headers WHERE block_num = ?`, int64(blockNum)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.BlockHeader{}, veil.NewErr(veil.BlockHeaderNotFound,
			"block header for block %d not found", blockNum)
	}
	if err != nil {
		return ledger.BlockHeader{}, dbErr(err, "GetBlockHeader: scanning row")
	}
	header, err := ledger.DecodeBlockHeader(raw)
	if err != nil {
		return ledger.BlockHeader{}, decodeErr(err, "GetBlockHeader: parsing header")
	}
	return header, nil
}

// GetChainNode returns the chain authentication node at the given index.
func (s *SQLiteStore) GetChainNode(index uint64) (ledger.ChainNode, error) {
	var raw string
	err := s.db.QueryRow(
		`SELECT node FROM chain_nodes WHERE node_index = ?`, int64(index)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.ChainNode{}, veil.NewErr(veil.ChainNodeNotFound,
			"chain node at index %d not found", index)
	}
	if err != nil {
		return ledger.ChainNode{}, dbErr(err, "GetChainNode: scanning row")
	}
	node, err := ledger.ParseDigest(raw)
	if err != nil {
		return ledger.ChainNode{}, decodeErr(err, "GetChainNode: parsing node")
	}
	return ledger.ChainNode{Index: index, Node: node}, nil
}

func insertBlockHeaderTx(tx *sql.Tx, header *ledger.BlockHeader) error {
	_, err := tx.Exec(`INSERT OR REPLACE INTO block_headers (block_num, header, chain_root)
		VALUES (?, ?, ?)`,
		int64(header.BlockNum), header.EncodeBinary(), header.ChainRoot.String())
	if err != nil {
		return dbErr(err, "insertBlockHeader: executing insert")
	}
	return nil
}

func insertChainNodesTx(tx *sql.Tx, nodes []ledger.ChainNode) error {
	for _, node := range nodes {
		_, err := tx.Exec(`INSERT OR REPLACE INTO chain_nodes (node_index, node) VALUES (?, ?)`,
			int64(node.Index), node.Node.String())
		if err != nil {
			return dbErr(err, "insertChainNodes: executing insert")
		}
	}
	return nil
}

package main

import (
	"fmt"
	"strconv"

	"github.com/tjstebbing/conductor"

	veil "github.com/veilledger/veilclient/pkg"
	"github.com/veilledger/veilclient/pkg/ledger"
	"github.com/veilledger/veilclient/pkg/logging"
	"github.com/veilledger/veilclient/pkg/node"
	"github.com/veilledger/veilclient/pkg/store"
	vsync "github.com/veilledger/veilclient/pkg/sync"
)

/*
	These commands operate directly on the local store file. They open
	the store, do one thing, and close it — the store owns its file
	exclusively, so don't run them against a live follower process.
*/

func openStore(conf veil.Config) (veil.Store, error) {
	log := logging.NewLogger("store", logging.ParseLevel(conf.Logging.Level), conf.Logging.File)
	return store.NewSQLiteStore(conf.Store.DBFile, log)
}

func ListNotes(conf veil.Config, filterArg string) error {
	filter, err := veil.ParseNoteFilter(filterArg)
	if err != nil {
		return err
	}
	s, err := openStore(conf)
	if err != nil {
		return err
	}
	defer s.Close()

	notes, err := s.GetInputNotes(filter)
	if err != nil {
		return err
	}
	for _, n := range notes {
		status := n.Status()
		where := ""
		if n.InclusionProof != nil {
			where = fmt.Sprintf(" block=%d", n.InclusionProof.BlockNum)
		}
		fmt.Printf("%s  %-9s sender=%s tag=%d assets=%d%s\n",
			n.ID(), status, n.Note.Metadata.Sender, n.Note.Metadata.Tag, len(n.Note.Assets), where)
	}
	fmt.Printf("%d note(s)\n", len(notes))
	return nil
}

func ShowNote(conf veil.Config, idArg string) error {
	id, err := ledger.ParseDigest(idArg)
	if err != nil {
		return err
	}
	s, err := openStore(conf)
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.GetInputNoteByID(id)
	if err != nil {
		return err
	}
	fmt.Printf("id:        %s\n", n.ID())
	fmt.Printf("nullifier: %s\n", n.Nullifier())
	fmt.Printf("status:    %s\n", n.Status())
	fmt.Printf("sender:    %s\n", n.Note.Metadata.Sender)
	fmt.Printf("tag:       %d\n", n.Note.Metadata.Tag)
	fmt.Printf("script:    %s\n", n.Note.Script.Root())
	for _, a := range n.Note.Assets {
		fmt.Printf("asset:     faucet=%s amount=%d\n", a.FaucetID, a.Amount)
	}
	if p := n.InclusionProof; p != nil {
		fmt.Printf("proof:     block=%d index=%d depth=%d\n", p.BlockNum, p.NodeIndex, len(p.Path))
	}
	return nil
}

func ListTransactions(conf veil.Config, filterArg string) error {
	filter, err := veil.ParseTransactionFilter(filterArg)
	if err != nil {
		return err
	}
	s, err := openStore(conf)
	if err != nil {
		return err
	}
	defer s.Close()

	txns, err := s.GetTransactions(filter)
	if err != nil {
		return err
	}
	for _, t := range txns {
		commit := ""
		if t.CommitHeight != nil {
			commit = fmt.Sprintf(" commit=%d", *t.CommitHeight)
		}
		fmt.Printf("%s  %-9s account=%s block=%d notes=%d%s\n",
			t.ID, t.StatusString(), t.AccountID, t.BlockNum, len(t.OutputNotes), commit)
	}
	fmt.Printf("%d transaction(s)\n", len(txns))
	return nil
}

func ListAccounts(conf veil.Config) error {
	s, err := openStore(conf)
	if err != nil {
		return err
	}
	defer s.Close()

	ids, err := s.GetAccountIDs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Println(id)
	}
	fmt.Printf("%d account(s)\n", len(ids))
	return nil
}

func ShowAccount(conf veil.Config, idArg string) error {
	id, err := ledger.ParseAccountID(idArg)
	if err != nil {
		return err
	}
	s, err := openStore(conf)
	if err != nil {
		return err
	}
	defer s.Close()

	acct, err := s.GetAccountByID(id)
	if err != nil {
		return err
	}
	fmt.Printf("id:      %s\n", acct.ID)
	fmt.Printf("nonce:   %d\n", acct.Nonce)
	fmt.Printf("hash:    %s\n", acct.Hash())
	fmt.Printf("code:    %s\n", acct.Code.Root())
	fmt.Printf("storage: %s (%d slots)\n", acct.Storage.Root(), len(acct.Storage.Slots))
	fmt.Printf("vault:   %s\n", acct.Vault.Root())
	for _, a := range acct.Vault.Assets {
		fmt.Printf("asset:   faucet=%s amount=%d\n", a.FaucetID, a.Amount)
	}
	return nil
}

func ListTags(conf veil.Config) error {
	s, err := openStore(conf)
	if err != nil {
		return err
	}
	defer s.Close()

	tags, err := s.GetNoteTags()
	if err != nil {
		return err
	}
	for _, t := range tags {
		fmt.Println(t)
	}
	fmt.Printf("%d tag(s)\n", len(tags))
	return nil
}

func AddTag(conf veil.Config, tagArg string) error {
	tag, err := strconv.ParseUint(tagArg, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid tag %q: %v", tagArg, err)
	}
	s, err := openStore(conf)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.AddNoteTag(tag); err != nil {
		return err
	}
	fmt.Printf("now monitoring tag %d\n", tag)
	return nil
}

// Sync catches the store up with the node once, or runs the follower
// under a conductor until interrupted when follow is set.
func Sync(conf veil.Config, follow bool) error {
	log := logging.NewLogger("sync", logging.ParseLevel(conf.Logging.Level), conf.Logging.File)
	s, err := openStore(conf)
	if err != nil {
		return err
	}
	defer s.Close()

	source, err := newNodeSource(conf)
	if err != nil {
		return err
	}
	follower := vsync.NewFollower(conf, source, s, log)

	if !follow {
		applied, err := follower.SyncOnce()
		if err != nil {
			return err
		}
		height, err := s.GetSyncHeight()
		if err != nil {
			return err
		}
		fmt.Printf("applied %d update(s), sync height %d\n", applied, height)
		return nil
	}

	c := conductor.New(
		conductor.HookSignals(),
		conductor.Noisy(),
	)
	c.Service("Sync Follower", follower)
	<-c.Start()
	return nil
}

// newNodeSource builds the veil.NodeSource named by the config. Only
// the in-memory mock ships with this module; the RPC wire client is a
// separate component and registers its own host scheme.
func newNodeSource(conf veil.Config) (veil.NodeSource, error) {
	if conf.Node.Host == "mock" {
		return node.NewMock(), nil
	}
	return nil, fmt.Errorf("no node source available for %s", conf.NodeEndpoint())
}

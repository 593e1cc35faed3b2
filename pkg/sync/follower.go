package sync

import (
	"context"
	"time"

	"github.com/tjstebbing/conductor"
	"go.uber.org/zap"

	veil "github.com/veilledger/veilclient/pkg"
)

// interface guard ensures Follower implements conductor.Service
var _ conductor.Service = (*Follower)(nil)

/*
 * Follower polls a node source and folds each state update into the
 * local store. It only ever walks forwards: the store records the
 * highest block applied, and every poll asks the node for the first
 * relevant update past that height.
 *
 * Runs as a conductor service (Run matches the conductor contract).
 */
type Follower struct {
	source veil.NodeSource
	store  veil.Store
	log    *zap.SugaredLogger
	poll   time.Duration
}

func NewFollower(conf veil.Config, source veil.NodeSource, store veil.Store, log *zap.SugaredLogger) *Follower {
	poll := time.Duration(conf.Node.PollSeconds) * time.Second
	if poll <= 0 {
		poll = 10 * time.Second
	}
	return &Follower{
		source: source,
		store:  store,
		log:    log,
		poll:   poll,
	}
}

func (f *Follower) Run(started, stopped chan bool, stop chan context.Context) error {
	go func() {
		started <- true
		ticker := time.NewTicker(f.poll)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				stopped <- true
				return
			case <-ticker.C:
				applied, err := f.SyncOnce()
				if err != nil {
					f.log.Warnf("sync failed: %v", err)
					continue
				}
				if applied > 0 {
					height, _ := f.store.GetSyncHeight()
					f.log.Infow("sync caught up", "updates", applied, "height", height)
				}
			}
		}
	}()
	return nil
}

// SyncOnce catches the store up to the node's current state, applying
// updates one block at a time until the node has nothing newer.
// Returns the number of updates applied.
func (f *Follower) SyncOnce() (int, error) {
	applied := 0
	for {
		height, err := f.store.GetSyncHeight()
		if err != nil {
			return applied, err
		}
		tags, err := f.store.GetNoteTags()
		if err != nil {
			return applied, err
		}
		update, err := f.source.SyncState(height, tags)
		if err != nil {
			return applied, err
		}
		if update == nil {
			return applied, nil
		}
		if err := f.store.ApplyStateSync(update); err != nil {
			return applied, err
		}
		applied++
	}
}

package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	veil "github.com/veilledger/veilclient/pkg"
	"github.com/veilledger/veilclient/pkg/ledger"
)

func TestAccountRoundTrip(t *testing.T) {
	s := openTestStore(t)

	account := makeAccount(0x11)
	require.NoError(t, s.InsertAccount(&account))

	got, err := s.GetAccountByID(account.ID)
	require.NoError(t, err)
	require.Equal(t, account.Hash(), got.Hash())
	require.Equal(t, account.Nonce, got.Nonce)
	require.Equal(t, account.Vault.Assets, got.Vault.Assets)

	ids, err := s.GetAccountIDs()
	require.NoError(t, err)
	require.Equal(t, []ledger.AccountID{0x11}, ids)
}

func TestAccountNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetAccountByID(0x99)
	require.True(t, veil.IsError(err, veil.AccountNotFound))
	require.True(t, veil.IsNotFoundError(err))
}

func TestAccountUpsertKeepsLatestState(t *testing.T) {
	s := openTestStore(t)

	account := makeAccount(0x11)
	require.NoError(t, s.InsertAccount(&account))

	// re-inserting with advanced state replaces the account row; the
	// content-addressed component rows just gain new entries
	account.Nonce = 2
	require.NoError(t, account.Vault.Add(ledger.Asset{FaucetID: 0x43, Amount: 5}))
	require.NoError(t, s.InsertAccount(&account))

	got, err := s.GetAccountByID(account.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(2), got.Nonce)
	require.Len(t, got.Vault.Assets, 2)

	ids, err := s.GetAccountIDs()
	require.NoError(t, err)
	require.Len(t, ids, 1)
}

package ledger

import (
	"errors"
	"math"
	"testing"
)

func testAccount() Account {
	return Account{
		ID:    0x1122334455667788,
		Nonce: 1,
		Code:  AccountCode{Program: []byte{0x60, 0x01, 0x60, 0x02}},
		Storage: AccountStorage{
			Slots: [][]byte{{0xaa}, {0xbb, 0xcc}},
		},
		Vault: AssetVault{
			Assets: []Asset{{FaucetID: 0x10, Amount: 500}},
		},
	}
}

func TestParseAccountID(t *testing.T) {
	id := AccountID(0x1122334455667788)
	parsed, err := ParseAccountID(id.String())
	if err != nil {
		t.Fatalf("ParseAccountID: %v", err)
	}
	if parsed != id {
		t.Errorf("round trip mismatch: %s != %s", parsed, id)
	}
	if _, err := ParseAccountID("1122"); !errors.Is(err, ErrBadAccountID) {
		t.Errorf("expected ErrBadAccountID, got %v", err)
	}
}

func TestVaultAddRemove(t *testing.T) {
	v := AssetVault{}
	if err := v.Add(Asset{FaucetID: 2, Amount: 10}); err != nil {
		t.Fatal(err)
	}
	if err := v.Add(Asset{FaucetID: 1, Amount: 5}); err != nil {
		t.Fatal(err)
	}
	if err := v.Add(Asset{FaucetID: 2, Amount: 3}); err != nil {
		t.Fatal(err)
	}
	// merged and sorted by faucet
	if len(v.Assets) != 2 || v.Assets[0].FaucetID != 1 || v.Assets[1].Amount != 13 {
		t.Errorf("unexpected vault contents: %+v", v.Assets)
	}
	if err := v.Remove(Asset{FaucetID: 1, Amount: 5}); err != nil {
		t.Fatal(err)
	}
	// zero balances drop out
	if len(v.Assets) != 1 {
		t.Errorf("zero balance not removed: %+v", v.Assets)
	}
}

func TestVaultUnderflow(t *testing.T) {
	v := AssetVault{Assets: []Asset{{FaucetID: 1, Amount: 4}}}
	if err := v.Remove(Asset{FaucetID: 1, Amount: 5}); !errors.Is(err, ErrVaultUnderflow) {
		t.Errorf("expected ErrVaultUnderflow, got %v", err)
	}
	if err := v.Remove(Asset{FaucetID: 9, Amount: 1}); !errors.Is(err, ErrVaultUnderflow) {
		t.Errorf("expected ErrVaultUnderflow for missing faucet, got %v", err)
	}
}

func TestVaultOverflow(t *testing.T) {
	v := AssetVault{Assets: []Asset{{FaucetID: 1, Amount: math.MaxUint64}}}
	if err := v.Add(Asset{FaucetID: 1, Amount: 1}); !errors.Is(err, ErrVaultOverflow) {
		t.Errorf("expected ErrVaultOverflow, got %v", err)
	}
}

func TestApplyDelta(t *testing.T) {
	acct := testAccount()
	delta := AccountDelta{
		Nonce:        2,
		AddedAssets:  []Asset{{FaucetID: 0x20, Amount: 7}},
		StorageSlots: map[int][]byte{0: {0xdd}},
	}
	// compute the expected final hash by applying to a copy first
	probe := testAccount()
	if err := probe.ApplyDelta(&AccountDelta{Nonce: 2, AddedAssets: delta.AddedAssets, StorageSlots: delta.StorageSlots}); err != nil {
		t.Fatal(err)
	}
	delta.FinalHash = probe.Hash()

	if err := acct.ApplyDelta(&delta); err != nil {
		t.Fatal(err)
	}
	if acct.Nonce != 2 {
		t.Errorf("nonce not advanced: %d", acct.Nonce)
	}
	if string(acct.Storage.Slots[0]) != "\xdd" {
		t.Errorf("slot 0 not updated: %x", acct.Storage.Slots[0])
	}
	if len(acct.Vault.Assets) != 2 {
		t.Errorf("asset not added: %+v", acct.Vault.Assets)
	}
	if acct.Hash() != delta.FinalHash {
		t.Errorf("final hash mismatch")
	}
}

func TestApplyDeltaRejectsStaleNonce(t *testing.T) {
	acct := testAccount()
	err := acct.ApplyDelta(&AccountDelta{Nonce: 1})
	if !errors.Is(err, ErrNonceRegression) {
		t.Errorf("expected ErrNonceRegression, got %v", err)
	}
}

func TestApplyDeltaRejectsBadSlot(t *testing.T) {
	acct := testAccount()
	err := acct.ApplyDelta(&AccountDelta{Nonce: 2, StorageSlots: map[int][]byte{5: {1}}})
	if !errors.Is(err, ErrSlotOutOfRange) {
		t.Errorf("expected ErrSlotOutOfRange, got %v", err)
	}
}

func TestApplyDeltaRejectsHashMismatch(t *testing.T) {
	acct := testAccount()
	before := acct.Hash()
	err := acct.ApplyDelta(&AccountDelta{Nonce: 2, FinalHash: Digest{0xff}})
	if !errors.Is(err, ErrHashMismatch) {
		t.Errorf("expected ErrHashMismatch, got %v", err)
	}
	// account must be untouched after a failed delta
	if acct.Hash() != before {
		t.Errorf("account modified by failed delta")
	}
}

func TestAccountComponentRoundTrips(t *testing.T) {
	acct := testAccount()

	code, err := DecodeAccountCode(acct.Code.EncodeBinary())
	if err != nil {
		t.Fatal(err)
	}
	if code.Root() != acct.Code.Root() {
		t.Errorf("code root changed across round trip")
	}

	storage, err := DecodeAccountStorage(acct.Storage.EncodeBinary())
	if err != nil {
		t.Fatal(err)
	}
	if storage.Root() != acct.Storage.Root() {
		t.Errorf("storage root changed across round trip")
	}

	vault, err := DecodeAssetVault(acct.Vault.EncodeBinary())
	if err != nil {
		t.Fatal(err)
	}
	if vault.Root() != acct.Vault.Root() {
		t.Errorf("vault root changed across round trip")
	}
}

func TestAccountComponentDecodeCorrupt(t *testing.T) {
	acct := testAccount()
	enc := acct.Storage.EncodeBinary()
	if _, err := DecodeAccountStorage(enc[:len(enc)-1]); err == nil {
		t.Errorf("truncated storage decoded without error")
	}
	if _, err := DecodeAssetVault([]byte{0xff, 0xff, 0xff, 0xff}); err == nil {
		t.Errorf("vault with absurd count decoded without error")
	}
}

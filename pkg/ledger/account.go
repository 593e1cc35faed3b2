package ledger

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// AccountID identifies an account. It is a single field element on the
// ledger, carried here as a uint64 and rendered as 0x-prefixed hex.
type AccountID uint64

var ErrBadAccountID = errors.New("ledger: malformed account id")

func (id AccountID) String() string {
	return fmt.Sprintf("0x%016x", uint64(id))
}

func ParseAccountID(s string) (AccountID, error) {
	if !strings.HasPrefix(s, "0x") {
		return 0, fmt.Errorf("%w: missing 0x prefix in %q", ErrBadAccountID, s)
	}
	v, err := strconv.ParseUint(s[2:], 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadAccountID, err)
	}
	return AccountID(v), nil
}

// Asset is a quantity of a fungible asset issued by a faucet account.
// Amounts are integral ledger units; fractional amounts do not exist.
type Asset struct {
	FaucetID AccountID
	Amount   uint64
}

// Account errors surfaced by delta application and vault arithmetic.
var (
	ErrVaultUnderflow  = errors.New("ledger: vault does not hold enough of the asset")
	ErrVaultOverflow   = errors.New("ledger: asset amount overflows vault balance")
	ErrNonceRegression = errors.New("ledger: delta does not advance the account nonce")
	ErrSlotOutOfRange  = errors.New("ledger: storage slot index out of range")
	ErrHashMismatch    = errors.New("ledger: applied delta does not produce the expected account hash")
)

// AccountCode is the account's immutable program.
type AccountCode struct {
	Program []byte
}

func (c *AccountCode) Root() Digest {
	return hash("acct-code", c.Program)
}

func (c *AccountCode) EncodeBinary() []byte {
	e := NewEncoder()
	e.VarBytes(c.Program)
	return e.Bytes()
}

func DecodeAccountCode(b []byte) (AccountCode, error) {
	d := NewDecoder(b)
	c := AccountCode{Program: d.VarBytes()}
	return c, d.Finish()
}

// AccountStorage is the account's slot-indexed data store.
type AccountStorage struct {
	Slots [][]byte
}

func (s *AccountStorage) Root() Digest {
	e := NewEncoder()
	e.U32(uint32(len(s.Slots)))
	for _, slot := range s.Slots {
		e.VarBytes(slot)
	}
	return hash("acct-storage", e.Bytes())
}

func (s *AccountStorage) EncodeBinary() []byte {
	e := NewEncoder()
	e.U32(uint32(len(s.Slots)))
	for _, slot := range s.Slots {
		e.VarBytes(slot)
	}
	return e.Bytes()
}

func DecodeAccountStorage(b []byte) (AccountStorage, error) {
	d := NewDecoder(b)
	n := d.U32()
	if n > maxFieldLen {
		return AccountStorage{}, fmt.Errorf("%w: %d storage slots", ErrOversize, n)
	}
	s := AccountStorage{}
	for i := uint32(0); i < n && d.Err() == nil; i++ {
		s.Slots = append(s.Slots, d.VarBytes())
	}
	return s, d.Finish()
}

// AssetVault holds the account's asset balances, at most one entry per
// faucet, kept sorted by faucet id so the root is canonical.
type AssetVault struct {
	Assets []Asset
}

func (v *AssetVault) normalize() {
	sort.Slice(v.Assets, func(i, j int) bool {
		return v.Assets[i].FaucetID < v.Assets[j].FaucetID
	})
}

func (v *AssetVault) Root() Digest {
	v.normalize()
	e := NewEncoder()
	for _, a := range v.Assets {
		e.U64(uint64(a.FaucetID))
		e.U64(a.Amount)
	}
	return hash("acct-vault", e.Bytes())
}

// Add credits the asset to the vault, merging with an existing balance.
func (v *AssetVault) Add(a Asset) error {
	for i := range v.Assets {
		if v.Assets[i].FaucetID == a.FaucetID {
			if v.Assets[i].Amount+a.Amount < v.Assets[i].Amount {
				return fmt.Errorf("%w: faucet %s", ErrVaultOverflow, a.FaucetID)
			}
			v.Assets[i].Amount += a.Amount
			return nil
		}
	}
	v.Assets = append(v.Assets, a)
	v.normalize()
	return nil
}

// Remove debits the asset from the vault.
func (v *AssetVault) Remove(a Asset) error {
	for i := range v.Assets {
		if v.Assets[i].FaucetID == a.FaucetID {
			if v.Assets[i].Amount < a.Amount {
				return fmt.Errorf("%w: faucet %s has %d, need %d",
					ErrVaultUnderflow, a.FaucetID, v.Assets[i].Amount, a.Amount)
			}
			v.Assets[i].Amount -= a.Amount
			if v.Assets[i].Amount == 0 {
				v.Assets = append(v.Assets[:i], v.Assets[i+1:]...)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: faucet %s not in vault", ErrVaultUnderflow, a.FaucetID)
}

func (v *AssetVault) EncodeBinary() []byte {
	v.normalize()
	e := NewEncoder()
	e.U32(uint32(len(v.Assets)))
	for _, a := range v.Assets {
		e.U64(uint64(a.FaucetID))
		e.U64(a.Amount)
	}
	return e.Bytes()
}

func DecodeAssetVault(b []byte) (AssetVault, error) {
	d := NewDecoder(b)
	n := d.U32()
	if n > maxFieldLen {
		return AssetVault{}, fmt.Errorf("%w: %d vault assets", ErrOversize, n)
	}
	v := AssetVault{}
	for i := uint32(0); i < n && d.Err() == nil; i++ {
		v.Assets = append(v.Assets, Asset{
			FaucetID: AccountID(d.U64()),
			Amount:   d.U64(),
		})
	}
	return v, d.Finish()
}

// Account is the full local view of an account's state: code, storage,
// vault and nonce. Hash commits to all of them.
type Account struct {
	ID      AccountID
	Nonce   uint64
	Code    AccountCode
	Storage AccountStorage
	Vault   AssetVault
}

func (a *Account) Hash() Digest {
	e := NewEncoder()
	e.U64(uint64(a.ID))
	e.U64(a.Nonce)
	e.Bytes32(a.Code.Root())
	e.Bytes32(a.Storage.Root())
	e.Bytes32(a.Vault.Root())
	return hash("acct-state", e.Bytes())
}

// AccountDelta is the set of state changes a transaction applies to an
// account. FinalHash is the state hash the executor computed; ApplyDelta
// refuses the delta when the applied state does not reproduce it.
type AccountDelta struct {
	Nonce         uint64
	AddedAssets   []Asset
	RemovedAssets []Asset
	StorageSlots  map[int][]byte
	FinalHash     Digest
}

// ApplyDelta mutates the account in place. On any error the account is
// left unmodified.
func (a *Account) ApplyDelta(delta *AccountDelta) error {
	if delta.Nonce <= a.Nonce {
		return fmt.Errorf("%w: have %d, delta carries %d", ErrNonceRegression, a.Nonce, delta.Nonce)
	}
	next := a.clone()
	next.Nonce = delta.Nonce
	for idx, val := range delta.StorageSlots {
		if idx < 0 || idx >= len(next.Storage.Slots) {
			return fmt.Errorf("%w: slot %d of %d", ErrSlotOutOfRange, idx, len(next.Storage.Slots))
		}
		next.Storage.Slots[idx] = append([]byte(nil), val...)
	}
	for _, asset := range delta.RemovedAssets {
		if err := next.Vault.Remove(asset); err != nil {
			return err
		}
	}
	for _, asset := range delta.AddedAssets {
		if err := next.Vault.Add(asset); err != nil {
			return err
		}
	}
	if !delta.FinalHash.IsZero() && next.Hash() != delta.FinalHash {
		return fmt.Errorf("%w: got %s, want %s", ErrHashMismatch, next.Hash(), delta.FinalHash)
	}
	*a = next
	return nil
}

func (a *Account) clone() Account {
	next := Account{ID: a.ID, Nonce: a.Nonce}
	next.Code.Program = append([]byte(nil), a.Code.Program...)
	for _, slot := range a.Storage.Slots {
		next.Storage.Slots = append(next.Storage.Slots, append([]byte(nil), slot...))
	}
	next.Vault.Assets = append([]Asset(nil), a.Vault.Assets...)
	return next
}

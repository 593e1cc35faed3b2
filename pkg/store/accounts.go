package store

import (
	"database/sql"
	"errors"

	veil "github.com/veilledger/veilclient/pkg"
	"github.com/veilledger/veilclient/pkg/ledger"
)

// Account component states (code, storage, vault) are content-addressed by
// their root digest, so re-inserting an unchanged component is a no-op.

// InsertAccount persists an account and all its component states in one
// atomic unit.
func (s *SQLiteStore) InsertAccount(account *ledger.Account) error {
	return s.withTx(func(tx *sql.Tx) error {
		if err := insertAccountCodeTx(tx, &account.Code); err != nil {
			return err
		}
		if err := insertAccountStorageTx(tx, &account.Storage); err != nil {
			return err
		}
		if err := insertAccountVaultTx(tx, &account.Vault); err != nil {
			return err
		}
		return insertAccountRecordTx(tx, account)
	})
}

// GetAccountByID reconstructs the full account state for the given id.
// The store persists whatever component roots the caller supplied; it does
// not re-derive or enforce them here.
func (s *SQLiteStore) GetAccountByID(id ledger.AccountID) (ledger.Account, error) {
	row := s.db.QueryRow(
		`SELECT code_root, storage_root, vault_root, nonce FROM accounts WHERE id = ?`, int64(id))

	var codeRoot, storageRoot, vaultRoot string
	var nonce int64
	err := row.Scan(&codeRoot, &storageRoot, &vaultRoot, &nonce)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Account{}, veil.NewErr(veil.AccountNotFound, "account %s not found", id)
	}
	if err != nil {
		return ledger.Account{}, dbErr(err, "GetAccountByID: scanning account row")
	}

	code, err := s.getAccountCode(codeRoot)
	if err != nil {
		return ledger.Account{}, err
	}
	storage, err := s.getAccountStorage(storageRoot)
	if err != nil {
		return ledger.Account{}, err
	}
	vault, err := s.getAccountVault(vaultRoot)
	if err != nil {
		return ledger.Account{}, err
	}

	return ledger.Account{
		ID:      id,
		Nonce:   uint64(nonce),
		Code:    code,
		Storage: storage,
		Vault:   vault,
	}, nil
}

// GetAccountIDs lists every account tracked by this client.
func (s *SQLiteStore) GetAccountIDs() ([]ledger.AccountID, error) {
	rows, err := s.db.Query(`SELECT id FROM accounts ORDER BY id`)
	if err != nil {
		return nil, dbErr(err, "GetAccountIDs: querying accounts")
	}
	defer rows.Close()

	var ids []ledger.AccountID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, dbErr(err, "GetAccountIDs: scanning row")
		}
		ids = append(ids, ledger.AccountID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr(err, "GetAccountIDs: reading rows")
	}
	return ids, nil
}

func (s *SQLiteStore) getAccountCode(root string) (ledger.AccountCode, error) {
	var program []byte
	err := s.db.QueryRow(`SELECT program FROM account_code WHERE root = ?`, root).Scan(&program)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.AccountCode{}, veil.NewErr(veil.AccountCodeNotFound,
			"account code with root %s not found", root)
	}
	if err != nil {
		return ledger.AccountCode{}, dbErr(err, "getAccountCode: scanning row")
	}
	code, err := ledger.DecodeAccountCode(program)
	if err != nil {
		return ledger.AccountCode{}, decodeErr(err, "getAccountCode: parsing code")
	}
	return code, nil
}

func (s *SQLiteStore) getAccountStorage(root string) (ledger.AccountStorage, error) {
	var slots []byte
	err := s.db.QueryRow(`SELECT slots FROM account_storage WHERE root = ?`, root).Scan(&slots)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.AccountStorage{}, veil.NewErr(veil.AccountStorageNotFound,
			"account storage with root %s not found", root)
	}
	if err != nil {
		return ledger.AccountStorage{}, dbErr(err, "getAccountStorage: scanning row")
	}
	storage, err := ledger.DecodeAccountStorage(slots)
	if err != nil {
		return ledger.AccountStorage{}, decodeErr(err, "getAccountStorage: parsing slots")
	}
	return storage, nil
}

func (s *SQLiteStore) getAccountVault(root string) (ledger.AssetVault, error) {
	var assets []byte
	err := s.db.QueryRow(`SELECT assets FROM account_vaults WHERE root = ?`, root).Scan(&assets)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.AssetVault{}, veil.NewErr(veil.VaultDataNotFound,
			"asset vault with root %s not found", root)
	}
	if err != nil {
		return ledger.AssetVault{}, dbErr(err, "getAccountVault: scanning row")
	}
	vault, err := ledger.DecodeAssetVault(assets)
	if err != nil {
		return ledger.AssetVault{}, decodeErr(err, "getAccountVault: parsing assets")
	}
	return vault, nil
}

func insertAccountCodeTx(tx *sql.Tx, code *ledger.AccountCode) error {
	_, err := tx.Exec(`INSERT OR IGNORE INTO account_code (root, program) VALUES (?, ?)`,
		code.Root().String(), code.EncodeBinary())
	if err != nil {
		return dbErr(err, "insertAccountCode: executing insert")
	}
	return nil
}

func insertAccountStorageTx(tx *sql.Tx, storage *ledger.AccountStorage) error {
	_, err := tx.Exec(`INSERT OR IGNORE INTO account_storage (root, slots) VALUES (?, ?)`,
		storage.Root().String(), storage.EncodeBinary())
	if err != nil {
		return dbErr(err, "insertAccountStorage: executing insert")
	}
	return nil
}

func insertAccountVaultTx(tx *sql.Tx, vault *ledger.AssetVault) error {
	_, err := tx.Exec(`INSERT OR IGNORE INTO account_vaults (root, assets) VALUES (?, ?)`,
		vault.Root().String(), vault.EncodeBinary())
	if err != nil {
		return dbErr(err, "insertAccountVault: executing insert")
	}
	return nil
}

// insertAccountRecordTx upserts the account row: the id keeps its latest
// state while component rows accumulate content-addressed.
func insertAccountRecordTx(tx *sql.Tx, account *ledger.Account) error {
	_, err := tx.Exec(`INSERT INTO accounts (id, code_root, storage_root, vault_root, nonce)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			code_root = excluded.code_root,
			storage_root = excluded.storage_root,
			vault_root = excluded.vault_root,
			nonce = excluded.nonce`,
		int64(account.ID), account.Code.Root().String(), account.Storage.Root().String(),
		account.Vault.Root().String(), int64(account.Nonce))
	if err != nil {
		return dbErr(err, "insertAccountRecord: executing upsert")
	}
	return nil
}

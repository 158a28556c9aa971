package ethprovider

import (
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// KeystoreSigner signs the vote transactions locally with the key in the
// keystore directory.
type KeystoreSigner struct {
	ks      *keystore.KeyStore
	account accounts.Account
}

// NewKeystoreSigner unlocks the account. If account is empty, the first
// account in the keystore is used.
func NewKeystoreSigner(dir string, account common.Address, password string) (*KeystoreSigner, error) {
	ks := keystore.NewKeyStore(filepath.Clean(dir), keystore.StandardScryptN, keystore.StandardScryptP)

	return newKeystoreSigner(ks, account, password)
}

func newKeystoreSigner(ks *keystore.KeyStore, account common.Address, password string) (*KeystoreSigner, error) {
	var acc accounts.Account

	switch {
	case account != (common.Address{}):
		i, err := ks.Find(accounts.Account{Address: account})
		if err != nil {
			return nil, errors.Wrapf(err, "account, %q not found in keystore", account.Hex())
		}

		acc = i
	case len(ks.Accounts()) < 1:
		return nil, errors.Errorf("empty keystore")
	default:
		acc = ks.Accounts()[0]
	}

	if err := ks.Unlock(acc, password); err != nil {
		return nil, errors.Wrapf(err, "failed to unlock account, %q", acc.Address.Hex())
	}

	return &KeystoreSigner{ks: ks, account: acc}, nil
}

// ReadPasswordFile reads the first line of the file.
func ReadPasswordFile(f string) (string, error) {
	b, err := os.ReadFile(filepath.Clean(f))
	if err != nil {
		return "", errors.Wrap(err, "failed to read password file")
	}

	return strings.TrimRight(strings.SplitN(string(b), "\n", 2)[0], "\r"), nil
}

func (ks *KeystoreSigner) Address() common.Address {
	return ks.account.Address
}

func (ks *KeystoreSigner) transactOpts(chainID *big.Int) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyStoreTransactorWithChainID(ks.ks, ks.account, chainID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to make transactor")
	}

	return opts, nil
}

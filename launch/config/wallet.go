package config

import (
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// Wallet is for the keystore mode. Without keystore, the node or the wallet
// behind the rpc url holds the accounts.
type Wallet struct {
	keystore     string
	account      common.Address
	passwordFile string
}

func (no Wallet) Keystore() string {
	return no.keystore
}

func (no *Wallet) SetKeystore(s string) error {
	no.keystore = filepath.Clean(s)

	return nil
}

func (no Wallet) Account() common.Address {
	return no.account
}

func (no *Wallet) SetAccount(s string) error {
	if !common.IsHexAddress(s) {
		return errors.Errorf("invalid account, %q", s)
	}

	no.account = common.HexToAddress(s)

	return nil
}

func (no Wallet) PasswordFile() string {
	return no.passwordFile
}

func (no *Wallet) SetPasswordFile(s string) error {
	no.passwordFile = filepath.Clean(s)

	return nil
}

func (no Wallet) IsKeystoreMode() bool {
	return len(no.keystore) > 0
}

func (no Wallet) IsValid([]byte) error {
	if !no.IsKeystoreMode() {
		if no.account != (common.Address{}) || len(no.passwordFile) > 0 {
			return errors.Errorf("account and password file need keystore")
		}

		return nil
	}

	if len(no.passwordFile) < 1 {
		return errors.Errorf("keystore needs password file")
	}

	return nil
}

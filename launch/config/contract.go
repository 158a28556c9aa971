package config

import (
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

var (
	DefaultContractAddress = common.HexToAddress("0x8eAEFd58fE0409212cEf256936A0FA2a3006a1fe")
	DefaultGasLimit        uint64 = 200000
	// MinGasLimit is the intrinsic gas of a transaction.
	MinGasLimit uint64 = 21000
)

type Contract struct {
	address  common.Address
	abiFile  string
	gasLimit uint64
}

func DefaultContract() *Contract {
	return &Contract{
		address:  DefaultContractAddress,
		gasLimit: DefaultGasLimit,
	}
}

func (no Contract) Address() common.Address {
	return no.address
}

func (no *Contract) SetAddress(s string) error {
	if !common.IsHexAddress(s) {
		return errors.Errorf("invalid contract address, %q", s)
	}

	no.address = common.HexToAddress(s)

	return nil
}

// ABIFile is empty when the built-in abi is used.
func (no Contract) ABIFile() string {
	return no.abiFile
}

func (no *Contract) SetABIFile(s string) error {
	f := filepath.Clean(s)

	switch fi, err := os.Stat(f); {
	case err != nil:
		return errors.Wrapf(err, "invalid abi file, %q", s)
	case fi.IsDir():
		return errors.Errorf("abi file is directory, %q", s)
	}

	no.abiFile = f

	return nil
}

func (no Contract) GasLimit() uint64 {
	return no.gasLimit
}

func (no *Contract) SetGasLimit(i uint64) error {
	if i < MinGasLimit {
		return errors.Errorf("too low gas limit, %d < %d", i, MinGasLimit)
	}

	no.gasLimit = i

	return nil
}

func (no Contract) IsValid([]byte) error {
	if no.address == (common.Address{}) {
		return errors.Errorf("empty contract address")
	}

	if no.gasLimit < MinGasLimit {
		return errors.Errorf("too low gas limit, %d", no.gasLimit)
	}

	return nil
}

package cmds

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"

	"github.com/spikeekips/votebox/launch/config"
	yamlconfig "github.com/spikeekips/votebox/launch/config/yaml"
)

var ConfigVars = kong.Vars{
	"rpc_url":  config.DefaultRPCURL.String(),
	"contract": config.DefaultContractAddress.Hex(),
	"timeout":  "1m",
}

type FileLoad []byte

func (v FileLoad) MarshalText() ([]byte, error) {
	return []byte(v), nil
}

func (v *FileLoad) UnmarshalText(b []byte) error {
	var body []byte
	if bytes.Equal(bytes.TrimSpace(b), []byte("-")) {
		c, err := LoadFromStdInput()
		if err != nil {
			return err
		}
		body = c
	} else if c, err := os.ReadFile(filepath.Clean(string(b))); err != nil {
		return err
	} else {
		body = c
	}

	if len(body) < 1 {
		return errors.Errorf("empty file")
	}

	*v = body

	return nil
}

func (v FileLoad) Bytes() []byte {
	return []byte(v)
}

func (v FileLoad) String() string {
	return string(v)
}

var stdin io.Reader = os.Stdin

func LoadFromStdInput() ([]byte, error) {
	b, err := io.ReadAll(stdin)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read stdin")
	}

	return bytes.TrimSpace(b), nil
}

// ConfigFlags override the values of config file.
type ConfigFlags struct {
	Config       FileLoad `name:"config" help:"yaml config file; '-' reads stdin"`
	RPCURL       string   `name:"rpc-url" help:"ledger rpc url (default: ${rpc_url})"`
	ChainID      uint64   `name:"chain-id" help:"target chain id"`
	Contract     string   `name:"contract" help:"voting contract address (default: ${contract})"`
	ABI          string   `name:"abi" help:"abi file of voting contract"`
	Keystore     string   `name:"keystore" help:"keystore directory; votes are signed locally"`
	Account      string   `name:"account" help:"account in keystore"`
	PasswordFile string   `name:"password-file" help:"file of keystore password"`
}

func (f ConfigFlags) Load() (*config.Config, error) {
	conf, err := yamlconfig.Load(f.Config.Bytes())
	if err != nil {
		return nil, err
	}

	setters := []struct {
		s   string
		set func(string) error
	}{
		{f.RPCURL, conf.Network().SetRPCURL},
		{f.Contract, conf.Contract().SetAddress},
		{f.ABI, conf.Contract().SetABIFile},
		{f.Keystore, conf.Wallet().SetKeystore},
		{f.Account, conf.Wallet().SetAccount},
		{f.PasswordFile, conf.Wallet().SetPasswordFile},
	}

	for i := range setters {
		if len(setters[i].s) < 1 {
			continue
		}

		if err := setters[i].set(setters[i].s); err != nil {
			return nil, err
		}
	}

	if f.ChainID > 0 {
		if err := conf.Network().SetChainID(f.ChainID); err != nil {
			return nil, err
		}
	}

	if err := conf.IsValid(nil); err != nil {
		return nil, err
	}

	return conf, nil
}

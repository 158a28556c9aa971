package config

import (
	"github.com/spikeekips/votebox/util/isvalid"
)

type Config struct {
	network  *Network
	contract *Contract
	wallet   *Wallet
	resolver *Resolver
	api      *API
}

// New returns the Config with the default values.
func New() *Config {
	return &Config{
		network:  DefaultNetwork(),
		contract: DefaultContract(),
		wallet:   &Wallet{},
		resolver: DefaultResolver(),
		api:      DefaultAPI(),
	}
}

func (no *Config) Network() *Network {
	return no.network
}

func (no *Config) Contract() *Contract {
	return no.contract
}

func (no *Config) Wallet() *Wallet {
	return no.wallet
}

func (no *Config) Resolver() *Resolver {
	return no.resolver
}

func (no *Config) API() *API {
	return no.api
}

func (no *Config) IsValid(b []byte) error {
	return isvalid.Check(b, false, no.network, no.contract, no.wallet, no.resolver, no.api)
}

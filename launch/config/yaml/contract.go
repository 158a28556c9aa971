package yamlconfig

import (
	"strings"

	"github.com/spikeekips/votebox/launch/config"
)

type Contract struct {
	Address  *string `yaml:"address,omitempty"`
	ABIFile  *string `yaml:"abi,omitempty"`
	GasLimit *uint64 `yaml:"gas-limit,omitempty"`
}

func (no Contract) Set(conf *config.Contract) error {
	if no.Address != nil {
		if err := conf.SetAddress(strings.TrimSpace(*no.Address)); err != nil {
			return err
		}
	}

	if no.ABIFile != nil {
		if err := conf.SetABIFile(strings.TrimSpace(*no.ABIFile)); err != nil {
			return err
		}
	}

	if no.GasLimit != nil {
		if err := conf.SetGasLimit(*no.GasLimit); err != nil {
			return err
		}
	}

	return nil
}

type Wallet struct {
	Keystore     *string `yaml:"keystore,omitempty"`
	Account      *string `yaml:"account,omitempty"`
	PasswordFile *string `yaml:"password-file,omitempty"`
}

func (no Wallet) Set(conf *config.Wallet) error {
	if no.Keystore != nil {
		if err := conf.SetKeystore(strings.TrimSpace(*no.Keystore)); err != nil {
			return err
		}
	}

	if no.Account != nil {
		if err := conf.SetAccount(strings.TrimSpace(*no.Account)); err != nil {
			return err
		}
	}

	if no.PasswordFile != nil {
		if err := conf.SetPasswordFile(strings.TrimSpace(*no.PasswordFile)); err != nil {
			return err
		}
	}

	return nil
}

type Resolver struct {
	FetchConcurrency *int64  `yaml:"fetch-concurrency,omitempty"`
	CodeCache        *string `yaml:"code-cache,omitempty"`
}

func (no Resolver) Set(conf *config.Resolver) error {
	if no.FetchConcurrency != nil {
		if err := conf.SetFetchConcurrency(*no.FetchConcurrency); err != nil {
			return err
		}
	}

	if no.CodeCache != nil {
		if err := conf.SetCodeCache(strings.TrimSpace(*no.CodeCache)); err != nil {
			return err
		}
	}

	return nil
}

type API struct {
	Bind           *string `yaml:"bind,omitempty"`
	VoteRate       *string `yaml:"vote-rate,omitempty"`
	RateLimitStore *string `yaml:"rate-limit-store,omitempty"`
}

func (no API) Set(conf *config.API) error {
	if no.Bind != nil {
		if err := conf.SetBind(strings.TrimSpace(*no.Bind)); err != nil {
			return err
		}
	}

	if no.VoteRate != nil {
		if err := conf.SetVoteRate(strings.TrimSpace(*no.VoteRate)); err != nil {
			return err
		}
	}

	if no.RateLimitStore != nil {
		if err := conf.SetRateLimitStore(strings.TrimSpace(*no.RateLimitStore)); err != nil {
			return err
		}
	}

	return nil
}

package yamlconfig

import (
	"strings"

	"github.com/spikeekips/votebox/launch/config"
	"github.com/spikeekips/votebox/ledger"
)

type Currency struct {
	Name     *string `yaml:"name,omitempty"`
	Symbol   *string `yaml:"symbol,omitempty"`
	Decimals *uint8  `yaml:"decimals,omitempty"`
}

type Network struct {
	RPCURL        *string   `yaml:"rpc-url,omitempty"`
	ChainID       *uint64   `yaml:"chain-id,omitempty"`
	ChainName     *string   `yaml:"chain-name,omitempty"`
	Currency      *Currency `yaml:"currency,omitempty"`
	RPCURLs       []string  `yaml:"rpc-urls,omitempty"`
	ExplorerURLs  []string  `yaml:"explorer-urls,omitempty"`
	WatchInterval *string   `yaml:"watch-interval,omitempty"`
}

func (no Network) Set(conf *config.Network) error {
	if no.RPCURL != nil {
		if err := conf.SetRPCURL(strings.TrimSpace(*no.RPCURL)); err != nil {
			return err
		}
	}

	if no.ChainID != nil {
		if err := conf.SetChainID(*no.ChainID); err != nil {
			return err
		}
	}

	if no.ChainName != nil {
		if err := conf.SetChainName(strings.TrimSpace(*no.ChainName)); err != nil {
			return err
		}
	}

	if no.Currency != nil {
		c := conf.Currency()
		if no.Currency.Name != nil {
			c.Name = *no.Currency.Name
		}

		if no.Currency.Symbol != nil {
			c.Symbol = *no.Currency.Symbol
		}

		if no.Currency.Decimals != nil {
			c.Decimals = *no.Currency.Decimals
		}

		if err := conf.SetCurrency(ledger.Currency{Name: c.Name, Symbol: c.Symbol, Decimals: c.Decimals}); err != nil {
			return err
		}
	}

	if no.RPCURLs != nil {
		if err := conf.SetRPCURLs(no.RPCURLs); err != nil {
			return err
		}
	}

	if no.ExplorerURLs != nil {
		if err := conf.SetExplorerURLs(no.ExplorerURLs); err != nil {
			return err
		}
	}

	if no.WatchInterval != nil {
		if err := conf.SetWatchInterval(*no.WatchInterval); err != nil {
			return err
		}
	}

	return nil
}

package config

import (
	"math/big"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/spikeekips/votebox/ledger"
)

var (
	DefaultRPCURL        = &url.URL{Scheme: "http", Host: "127.0.0.1:8545"}
	DefaultChainID       = big.NewInt(1337)
	DefaultCurrency      = ledger.Currency{Name: "Ethereum", Symbol: "ETH", Decimals: 18}
	DefaultWatchInterval = time.Second * 2
)

type Network struct {
	rpcURL        *url.URL
	chainID       *big.Int
	chainName     string
	currency      ledger.Currency
	rpcURLs       []string
	explorerURLs  []string
	watchInterval time.Duration
}

func DefaultNetwork() *Network {
	u := *DefaultRPCURL

	return &Network{
		rpcURL:        &u,
		chainID:       new(big.Int).Set(DefaultChainID),
		currency:      DefaultCurrency,
		watchInterval: DefaultWatchInterval,
	}
}

func (no Network) RPCURL() *url.URL {
	return no.rpcURL
}

// SetRPCURL accepts http, https, ws and wss url, or the path of ipc socket.
func (no *Network) SetRPCURL(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return errors.Wrapf(err, "invalid rpc url, %q", s)
	}

	switch u.Scheme {
	case "http", "https", "ws", "wss":
		if len(u.Host) < 1 {
			return errors.Errorf("empty host of rpc url, %q", s)
		}
	case "":
		if len(u.Path) < 1 {
			return errors.Errorf("empty ipc path, %q", s)
		}
	default:
		return errors.Errorf("unsupported scheme of rpc url, %q", s)
	}

	no.rpcURL = u

	return nil
}

func (no Network) ChainID() *big.Int {
	return no.chainID
}

func (no *Network) SetChainID(i uint64) error {
	if i < 1 {
		return errors.Errorf("empty chain id")
	}

	no.chainID = new(big.Int).SetUint64(i)

	return nil
}

// ChainName is the name from config; without it, the known name of chain id is
// used.
func (no Network) ChainName() string {
	if len(no.chainName) > 0 {
		return no.chainName
	}

	return ledger.NetworkName(no.chainID)
}

func (no *Network) SetChainName(s string) error {
	no.chainName = s

	return nil
}

func (no Network) Currency() ledger.Currency {
	return no.currency
}

func (no *Network) SetCurrency(c ledger.Currency) error {
	if len(c.Symbol) < 1 {
		return errors.Errorf("empty currency symbol")
	}

	no.currency = c

	return nil
}

// RPCURLs are registered to the wallet with the chain. If empty, the rpc url
// is used.
func (no Network) RPCURLs() []string {
	if len(no.rpcURLs) > 0 || no.rpcURL == nil {
		return no.rpcURLs
	}

	return []string{no.rpcURL.String()}
}

func (no *Network) SetRPCURLs(s []string) error {
	for i := range s {
		if _, err := url.Parse(s[i]); err != nil {
			return errors.Wrapf(err, "invalid rpc url, %q", s[i])
		}
	}

	no.rpcURLs = s

	return nil
}

func (no Network) ExplorerURLs() []string {
	return no.explorerURLs
}

func (no *Network) SetExplorerURLs(s []string) error {
	for i := range s {
		if _, err := url.Parse(s[i]); err != nil {
			return errors.Wrapf(err, "invalid explorer url, %q", s[i])
		}
	}

	no.explorerURLs = s

	return nil
}

func (no Network) WatchInterval() time.Duration {
	return no.watchInterval
}

func (no *Network) SetWatchInterval(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "invalid watch interval, %q", s)
	}

	if d <= 0 {
		return errors.Errorf("watch interval should be over zero, %q", s)
	}

	no.watchInterval = d

	return nil
}

func (no Network) ChainParams() ledger.ChainParams {
	return ledger.ChainParams{
		ChainID:      no.chainID,
		ChainName:    no.ChainName(),
		Currency:     no.currency,
		RPCURLs:      no.RPCURLs(),
		ExplorerURLs: no.explorerURLs,
	}
}

func (no Network) IsValid([]byte) error {
	switch {
	case no.rpcURL == nil:
		return errors.Errorf("empty rpc url")
	case no.chainID == nil || no.chainID.Sign() < 1:
		return errors.Errorf("empty chain id")
	case no.watchInterval <= 0:
		return errors.Errorf("empty watch interval")
	default:
		return nil
	}
}

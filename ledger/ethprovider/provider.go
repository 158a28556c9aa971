package ethprovider

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/spikeekips/votebox/ledger"
	"github.com/spikeekips/votebox/util"
	"github.com/spikeekips/votebox/util/logging"
)

var DefaultWatchInterval = time.Second * 2

type Options struct {
	// ABI of the voting contract; if empty, the built-in one is used.
	ABI *abi.ABI
	// Signer signs the vote locally. Without Signer, the vote is sent by
	// eth_sendTransaction and the node or the wallet behind it signs.
	Signer        *KeystoreSigner
	WatchInterval time.Duration
}

// Provider is the ledger.Provider over the go-ethereum json-rpc client.
type Provider struct {
	sync.RWMutex
	*logging.Logging
	client       *rpc.Client
	ec           *ethclient.Client
	abi          abi.ABI
	signer       *KeystoreSigner
	interval     time.Duration
	watcher      *util.ContextDaemon
	accountsFeed event.Feed
	chainFeed    event.Feed
	scope        event.SubscriptionScope
	lastChainID  *big.Int
	lastAccounts []common.Address
}

func Dial(ctx context.Context, url string, opts Options) (*Provider, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial, %q", url)
	}

	return NewProvider(client, opts), nil
}

func NewProvider(client *rpc.Client, opts Options) *Provider {
	a := VotingABI()
	if opts.ABI != nil {
		a = *opts.ABI
	}

	interval := opts.WatchInterval
	if interval <= 0 {
		interval = DefaultWatchInterval
	}

	p := &Provider{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "ethprovider")
		}),
		client:   client,
		ec:       ethclient.NewClient(client),
		abi:      a,
		signer:   opts.Signer,
		interval: interval,
	}

	p.watcher = util.NewContextDaemon("ethprovider-watcher", p.watch)

	return p
}

func (p *Provider) SetLogging(l *logging.Logging) *logging.Logging {
	_ = p.watcher.SetLogging(l)

	return p.Logging.SetLogging(l)
}

func (p *Provider) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := p.ec.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get chain id")
	}

	return id, nil
}

// RequestAccounts returns the signer account in keystore mode. Otherwise it
// asks eth_requestAccounts and falls back to eth_accounts when the node does
// not know the method.
func (p *Provider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if p.signer != nil {
		return []common.Address{p.signer.Address()}, nil
	}

	var accounts []common.Address

	err := p.client.CallContext(ctx, &accounts, "eth_requestAccounts")

	switch {
	case err == nil:
		return accounts, nil
	case !isMethodNotFound(err):
		return nil, walletError(err)
	}

	p.Log().Debug().Err(err).Msg("eth_requestAccounts not supported; use eth_accounts")

	return p.accounts(ctx)
}

func (p *Provider) accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := p.client.CallContext(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, walletError(err)
	}

	return accounts, nil
}

func (p *Provider) SubscribeAccountsChanged(ch chan<- []common.Address) event.Subscription {
	sub := p.scope.Track(p.accountsFeed.Subscribe(ch))

	p.startWatch()

	return sub
}

func (p *Provider) SubscribeChainChanged(ch chan<- *big.Int) event.Subscription {
	sub := p.scope.Track(p.chainFeed.Subscribe(ch))

	p.startWatch()

	return sub
}

func (p *Provider) CodeAt(ctx context.Context, address common.Address) ([]byte, error) {
	code, err := p.ec.CodeAt(ctx, address, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get code")
	}

	return code, nil
}

func (p *Provider) SwitchChain(ctx context.Context, chainID *big.Int) error {
	if p.signer != nil {
		return util.NotSupportedError.Errorf("switching chain in keystore mode")
	}

	return walletError(p.client.CallContext(ctx, nil, "wallet_switchEthereumChain", map[string]interface{}{
		"chainId": (*hexutil.Big)(chainID),
	}))
}

func (p *Provider) AddChain(ctx context.Context, params ledger.ChainParams) error {
	if p.signer != nil {
		return util.NotSupportedError.Errorf("adding chain in keystore mode")
	}

	return walletError(p.client.CallContext(ctx, nil, "wallet_addEthereumChain", addChainParams(params)))
}

func (p *Provider) Bind(address common.Address) (ledger.Contract, error) {
	if address == (common.Address{}) {
		return nil, errors.Errorf("empty contract address")
	}

	if len(p.abi.Methods) < 1 {
		return nil, errors.Errorf("empty contract abi")
	}

	return &Contract{
		provider: p,
		address:  address,
		bc:       bind.NewBoundContract(address, p.abi, p.ec, p.ec, p.ec),
	}, nil
}

// Close releases the subscriptions, stops the watcher and closes the client.
func (p *Provider) Close() error {
	p.scope.Close()

	if p.watcher.IsStarted() {
		_ = p.watcher.Stop()
	}

	p.client.Close()

	return nil
}

type nativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

type chainParams struct {
	ChainID           *hexutil.Big   `json:"chainId"`
	ChainName         string         `json:"chainName"`
	NativeCurrency    nativeCurrency `json:"nativeCurrency"`
	RPCURLs           []string       `json:"rpcUrls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls,omitempty"`
}

func addChainParams(params ledger.ChainParams) chainParams {
	return chainParams{
		ChainID:   (*hexutil.Big)(params.ChainID),
		ChainName: params.ChainName,
		NativeCurrency: nativeCurrency{
			Name:     params.Currency.Name,
			Symbol:   params.Currency.Symbol,
			Decimals: params.Currency.Decimals,
		},
		RPCURLs:           params.RPCURLs,
		BlockExplorerURLs: params.ExplorerURLs,
	}
}

package cmds

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/spikeekips/votebox/launch/config"
	"github.com/spikeekips/votebox/ledger/ethprovider"
	"github.com/spikeekips/votebox/util"
	"github.com/spikeekips/votebox/util/cache"
	"github.com/spikeekips/votebox/voting"
)

// ClientCommand loads the config and connects the voting client.
type ClientCommand struct {
	*BaseCommand
	ConfigFlags
	Timeout  time.Duration `name:"timeout" help:"timeout (default: ${timeout})" default:"${timeout}"`
	Retry    uint          `name:"retry" help:"retry connecting on network error"`
	conf     *config.Config
	provider *ethprovider.Provider
	client   *voting.Client
}

func NewClientCommand(name string) *ClientCommand {
	return &ClientCommand{BaseCommand: NewBaseCommand(name)}
}

func (cmd *ClientCommand) prepare(ctx context.Context) error {
	conf, err := cmd.ConfigFlags.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	cmd.conf = conf

	cmd.Log().Debug().
		Stringer("rpc_url", conf.Network().RPCURL()).
		Stringer("chain_id", conf.Network().ChainID()).
		Stringer("contract", conf.Contract().Address()).
		Bool("keystore", conf.Wallet().IsKeystoreMode()).
		Msg("config loaded")

	provider, err := DialProvider(ctx, conf)
	if err != nil {
		return err
	}

	_ = provider.SetLogging(cmd.Logging)
	cmd.provider = provider

	ca, err := cache.NewCacheFromURI(conf.Resolver().CodeCache().String())
	if err != nil {
		_ = provider.Close()

		return err
	}

	cmd.client = voting.NewClient(provider, voting.ClientConfig{
		Contract:         conf.Contract().Address(),
		Target:           conf.Network().ChainParams(),
		GasLimit:         conf.Contract().GasLimit(),
		FetchConcurrency: conf.Resolver().FetchConcurrency(),
		CodeCache:        ca,
	})
	_ = cmd.client.SetLogging(cmd.Logging)

	cmd.exithooks = append(cmd.exithooks, cmd.client.Close, cmd.provider.Close)

	return nil
}

// start connects the client. The connection error is returned as
// voting.ClassifiedError.
func (cmd *ClientCommand) start(ctx context.Context) error {
	if err := cmd.prepare(ctx); err != nil {
		return err
	}

	cctx, cancel := context.WithTimeout(ctx, cmd.Timeout)
	defer cancel()

	err := util.Retry(cctx, cmd.Retry+1, time.Second, func(i int) error {
		err := cmd.client.Start(cctx)
		if err == nil {
			return nil
		}

		ce := voting.Classify(err)
		if ce.Category != voting.CategoryNetworkError {
			return util.StopRetryingError.Wrap(ce)
		}

		cmd.Log().Debug().Err(err).Int("tried", i).Msg("failed to connect; retrying")

		return ce
	})

	var ce *voting.ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}

	return err
}

func DialProvider(ctx context.Context, conf *config.Config) (*ethprovider.Provider, error) {
	opts := ethprovider.Options{WatchInterval: conf.Network().WatchInterval()}

	if f := conf.Contract().ABIFile(); len(f) > 0 {
		a, err := ethprovider.LoadABI(f)
		if err != nil {
			return nil, err
		}

		opts.ABI = &a
	}

	if w := conf.Wallet(); w.IsKeystoreMode() {
		password, err := ethprovider.ReadPasswordFile(w.PasswordFile())
		if err != nil {
			return nil, err
		}

		signer, err := ethprovider.NewKeystoreSigner(w.Keystore(), w.Account(), password)
		if err != nil {
			return nil, err
		}

		opts.Signer = signer
	}

	return ethprovider.Dial(ctx, conf.Network().RPCURL().String(), opts)
}

package voting

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/spikeekips/votebox/ledger"
	"github.com/spikeekips/votebox/util"
	"github.com/spikeekips/votebox/util/logging"
)

// Negotiator connects to the wallet and builds the Session.
type Negotiator struct {
	*logging.Logging
	provider ledger.Provider
	contract common.Address
	target   ledger.ChainParams
}

func NewNegotiator(provider ledger.Provider, contract common.Address, target ledger.ChainParams) *Negotiator {
	return &Negotiator{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "voting-negotiator")
		}),
		provider: provider,
		contract: contract,
		target:   target,
	}
}

// Connect returns the new Session. The network is reported by onNetwork
// before the accounts are requested, so it is known even when the access is
// denied. The failure of contract binding is not fatal; the Session has no
// contract and a diagnostic instead.
func (ng *Negotiator) Connect(ctx context.Context, onNetwork func(Network)) (*Session, error) {
	if ng.provider == nil {
		return nil, NoWalletError
	}

	chainID, err := ng.provider.ChainID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get chain id")
	}

	network := newNetwork(chainID, ng.target.ChainID)
	if onNetwork != nil {
		onNetwork(network)
	}

	l := ng.Log().With().Str("network", network.Name).Logger()

	accounts, err := ng.provider.RequestAccounts(ctx)

	switch {
	case err != nil:
		return nil, AccountAccessDeniedError.Wrap(err)
	case len(accounts) < 1:
		return nil, AccountAccessDeniedError.Errorf("no accounts")
	}

	var diags []Diagnostic

	contract, err := ng.provider.Bind(ng.contract)
	if err != nil {
		l.Warn().Err(err).Str("contract", ng.contract.Hex()).Msg("failed to bind contract")

		contract = nil
		diags = append(diags, Classify(ContractBindingError.Wrap(err)).Diagnostic("contract"))
	}

	if network.Mismatch {
		diags = append(diags, Diagnostic{
			Source:   "network",
			Severity: SeverityWarning,
			Message: fmt.Sprintf("connected to %s; switch the network to %s",
				network.Name, ledger.NetworkName(network.Target)),
		})
	}

	session := newSession(accounts[0], network, contract, diags)
	session.watch = newSessionWatch(ng.provider)

	l.Info().
		Str("session", session.ID()).
		Str("account", util.ShortAddress(accounts[0].Hex())).
		Bool("mismatch", network.Mismatch).
		Msg("connected")

	return session, nil
}

// SwitchNetwork asks the wallet to move to the target chain and registers the
// chain when the wallet does not know it.
func (ng *Negotiator) SwitchNetwork(ctx context.Context) error {
	if ng.provider == nil {
		return NoWalletError
	}

	if ng.target.ChainID == nil {
		return errors.Errorf("empty target chain id")
	}

	err := ng.provider.SwitchChain(ctx, ng.target.ChainID)

	switch {
	case err == nil:
		return nil
	case !errors.Is(err, ledger.UnknownChainError):
		return errors.Wrap(err, "failed to switch chain")
	}

	ng.Log().Debug().Str("chain_id", ng.target.ChainID.String()).Msg("chain unknown to wallet; adding")

	if err := ng.provider.AddChain(ctx, ng.target); err != nil {
		return errors.Wrap(err, "failed to add chain")
	}

	return nil
}

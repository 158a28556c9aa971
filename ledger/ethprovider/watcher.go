package ethprovider

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/spikeekips/votebox/ledger"
)

func (p *Provider) startWatch() {
	p.Lock()
	defer p.Unlock()

	if p.watcher.IsStarted() {
		return
	}

	if err := p.watcher.Start(); err != nil {
		p.Log().Error().Err(err).Msg("failed to start watcher")
	}
}

// watch polls the chain id and the accounts; json-rpc has no notification for
// them.
func (p *Provider) watch(ctx context.Context) error {
	p.poll(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Provider) poll(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, p.interval)
	defer cancel()

	if chainID, err := p.ec.ChainID(pctx); err != nil {
		p.Log().Debug().Err(err).Msg("failed to poll chain id")
	} else if p.chainChanged(chainID) {
		p.Log().Debug().Str("chain_id", chainID.String()).Msg("chain changed")

		_ = p.chainFeed.Send(chainID)
	}

	if p.signer != nil {
		return
	}

	if accounts, err := p.accounts(pctx); err != nil {
		p.Log().Debug().Err(err).Msg("failed to poll accounts")
	} else if p.accountsChanged(accounts) {
		p.Log().Debug().Int("accounts", len(accounts)).Msg("accounts changed")

		_ = p.accountsFeed.Send(accounts)
	}
}

// chainChanged keeps the chain id; the first one is not a change.
func (p *Provider) chainChanged(chainID *big.Int) bool {
	p.Lock()
	defer p.Unlock()

	last := p.lastChainID
	p.lastChainID = chainID

	return last != nil && !ledger.SameChain(last, chainID)
}

func (p *Provider) accountsChanged(accounts []common.Address) bool {
	p.Lock()
	defer p.Unlock()

	last := p.lastAccounts
	p.lastAccounts = accounts

	if last == nil {
		return false
	}

	if len(last) != len(accounts) {
		return true
	}

	for i := range last {
		if last[i] != accounts[i] {
			return true
		}
	}

	return false
}

package voting

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/spikeekips/votebox/ledger"
	"github.com/spikeekips/votebox/util"
	"github.com/spikeekips/votebox/util/cache"
	"github.com/spikeekips/votebox/util/logging"
)

type ClientConfig struct {
	Contract         common.Address
	Target           ledger.ChainParams
	GasLimit         uint64
	FetchConcurrency int64
	CodeCache        cache.Cache
}

// State is the snapshot for the rendering layer.
type State struct {
	Connected   bool             `json:"connected"`
	SessionID   string           `json:"session_id,omitempty"`
	Account     string           `json:"account,omitempty"`
	Contract    common.Address   `json:"contract"`
	Network     Network          `json:"network"`
	Candidates  []Candidate      `json:"candidates"`
	Source      CandidateSource  `json:"candidate_source,omitempty"`
	TotalVotes  uint64           `json:"total_votes"`
	VoteStatus  VoteStatus       `json:"vote_status"`
	Pending     *PendingVote     `json:"pending,omitempty"`
	Error       *ClassifiedError `json:"error,omitempty"`
	Diagnostics []Diagnostic     `json:"diagnostics"`
}

// Client is the application state. The current Session is its root; on chain
// change the Session is torn down and built again.
type Client struct {
	sync.Mutex
	*logging.Logging
	config     ClientConfig
	provider   ledger.Provider
	negotiator *Negotiator
	resolver   *CandidateResolver
	oracle     *StatusOracle
	submitter  *VoteSubmitter
	session    *util.LockedItem[*Session]
	network    *util.LockedItem[Network]
	connErr    *util.LockedItem[*ClassifiedError]
	idle       *sessionWatch
	ctx        context.Context
	cancel     func()
	wg         sync.WaitGroup
	stopped    bool
}

func NewClient(provider ledger.Provider, config ClientConfig) *Client {
	resolver := NewCandidateResolver(provider, ResolverConfig{
		FetchConcurrency: config.FetchConcurrency,
		CodeCache:        config.CodeCache,
	})
	oracle := NewStatusOracle()

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "voting-client")
		}),
		config:     config,
		provider:   provider,
		negotiator: NewNegotiator(provider, config.Contract, config.Target),
		resolver:   resolver,
		oracle:     oracle,
		submitter:  NewVoteSubmitter(oracle, resolver, config.GasLimit),
		session:    util.NewLockedItem[*Session](nil),
		network:    util.NewLockedItem(Network{Target: config.Target.ChainID}),
		connErr:    util.NewLockedItem[*ClassifiedError](nil),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (c *Client) SetLogging(l *logging.Logging) *logging.Logging {
	_ = c.negotiator.SetLogging(l)
	_ = c.resolver.SetLogging(l)
	_ = c.oracle.SetLogging(l)
	_ = c.submitter.SetLogging(l)

	return c.Logging.SetLogging(l)
}

// Start connects and loads the candidates and the vote status. When the
// connection fails, the classified error is returned and the state shows the
// placeholder candidates; the next account or chain change connects again.
func (c *Client) Start(ctx context.Context) error {
	c.Lock()
	defer c.Unlock()

	if c.stopped {
		return errors.Errorf("client already closed")
	}

	if err := c.connect(ctx); err != nil {
		c.startIdleWatch()

		return err
	}

	return nil
}

// Close tears down the session and waits for the notification loop.
func (c *Client) Close() error {
	c.Lock()
	if c.stopped {
		c.Unlock()

		return nil
	}

	c.stopped = true
	c.cancel()
	c.submitter.Close()
	c.closeIdleWatch()

	if s := c.session.Value(); s != nil {
		s.supersede()
		s.Close()
	}
	c.Unlock()

	c.wg.Wait()

	return nil
}

func (c *Client) Session() *Session {
	return c.session.Value()
}

func (c *Client) State() State {
	st := State{
		Contract: c.config.Contract,
		Network:  c.network.Value(),
	}

	s := c.session.Value()
	if s == nil {
		st.Candidates = PlaceholderCandidates()
		st.Source = CandidateSourcePlaceholder
		st.Diagnostics = []Diagnostic{}

		if ce := c.connErr.Value(); ce != nil {
			st.Error = ce
			st.Diagnostics = append(st.Diagnostics, ce.Diagnostic("connection"))
		}

		return st
	}

	r := s.Resolution()

	st.Connected = s.HasAccount()
	st.SessionID = s.ID()
	st.Network = s.Network()
	st.Candidates = r.Candidates
	st.Source = r.Source
	st.TotalVotes = TotalVotes(r.Candidates)
	st.VoteStatus = s.VoteStatus()
	st.Diagnostics = s.Diagnostics()

	if s.HasAccount() {
		st.Account = s.Account().Hex()
	}

	if pv, ok := s.Pending(); ok {
		st.Pending = &pv
	}

	return st
}

func (c *Client) Vote(ctx context.Context, ordinal uint64) (VoteReceipt, error) {
	return c.submitter.Submit(ctx, c.session.Value(), ordinal)
}

func (c *Client) SubscribePendingVotes(ch chan<- PendingVote) event.Subscription {
	return c.submitter.SubscribePendingVotes(ch)
}

// Refresh loads the candidates and the vote status again. Without session, it
// tries to connect again.
func (c *Client) Refresh(ctx context.Context) error {
	s := c.session.Value()
	if s == nil {
		c.Lock()
		defer c.Unlock()

		if c.stopped {
			return errors.Errorf("client already closed")
		}

		if c.session.Value() != nil {
			return nil
		}

		if err := c.connect(ctx); err != nil {
			c.startIdleWatch()

			return err
		}

		return nil
	}

	c.load(ctx, s)

	return nil
}

func (c *Client) SwitchNetwork(ctx context.Context) error {
	if err := c.negotiator.SwitchNetwork(ctx); err != nil {
		return Classify(err)
	}

	return nil
}

// connect should be called under lock.
func (c *Client) connect(ctx context.Context) error {
	s, err := c.negotiator.Connect(ctx, func(n Network) {
		_ = c.network.Set(n)
	})
	if err != nil {
		ce := Classify(err)
		_ = c.connErr.Set(ce)

		c.Log().Error().Err(err).Str("category", string(ce.Category)).Msg("failed to connect")

		return ce
	}

	_ = c.connErr.Set(nil)
	c.closeIdleWatch()

	if s.Contract() != nil {
		c.load(ctx, s)
	}

	_ = c.session.Set(s)

	c.wg.Add(1)

	go c.watch(s.watch)

	return nil
}

func (c *Client) load(ctx context.Context, s *Session) {
	_ = s.setResolution(c.resolver.Resolve(ctx, s))
	_ = s.setVoteStatus(c.oracle.HasAccountVoted(ctx, s, s.Account()))
}

func (c *Client) watch(w *sessionWatch) {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-w.quit:
			return
		case accounts := <-w.accounts:
			if c.handleAccountsChanged(accounts) {
				return
			}
		case chainID := <-w.chains:
			if c.handleChainChanged(chainID) {
				return
			}
		}
	}
}

// startIdleWatch keeps listening the wallet notifications without session, so
// the next change connects again. It should be called under lock.
func (c *Client) startIdleWatch() {
	if c.stopped || c.provider == nil || c.idle != nil {
		return
	}

	c.idle = newSessionWatch(c.provider)

	c.wg.Add(1)

	go c.watch(c.idle)
}

func (c *Client) closeIdleWatch() {
	if c.idle == nil {
		return
	}

	c.idle.close()
	c.idle = nil
}

// reconnect is for the notifications without session. It should be called
// under lock.
func (c *Client) reconnect(reason string) bool {
	if err := c.connect(c.ctx); err != nil {
		c.Log().Debug().Err(err).Str("reason", reason).Msg("failed to connect again; keep waiting")

		c.startIdleWatch()

		return false
	}

	c.Log().Info().Str("reason", reason).Msg("connected again")

	return true
}

// handleAccountsChanged replaces the session for the new account. Candidates
// are kept and only the vote status is loaded again.
func (c *Client) handleAccountsChanged(accounts []common.Address) bool {
	c.Lock()
	defer c.Unlock()

	if c.stopped {
		return true
	}

	old := c.session.Value()
	if old == nil {
		return c.reconnect("accounts changed")
	}

	var account common.Address
	if len(accounts) > 0 {
		account = accounts[0]
	}

	if account == old.Account() {
		return false
	}

	s := old.derive(account)
	_ = s.setVoteStatus(c.oracle.HasAccountVoted(c.ctx, s, account))
	_ = c.session.Set(s)

	c.Log().Info().
		Str("old_session", old.ID()).
		Str("session", s.ID()).
		Str("account", util.ShortAddress(account.Hex())).
		Msg("account changed")

	return false
}

// handleChainChanged tears down the session and connects again; every binding
// of the old chain may be stale. When it fails to connect, the idle watch
// waits the next change.
func (c *Client) handleChainChanged(chainID *big.Int) bool {
	c.Lock()
	defer c.Unlock()

	if c.stopped {
		return true
	}

	old := c.session.Value()
	if old == nil {
		return c.reconnect("chain changed")
	}

	if ledger.SameChain(old.Network().ChainID, chainID) {
		return false
	}

	c.Log().Info().
		Str("session", old.ID()).
		Str("chain_id", chainID.String()).
		Msg("chain changed; session torn down")

	old.supersede()
	old.Close()

	_ = c.session.Set(nil)

	if err := c.connect(c.ctx); err != nil {
		c.Log().Error().Err(err).Msg("failed to connect after chain changed")

		c.startIdleWatch()
	}

	return true
}

package voting

import (
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"

	"github.com/spikeekips/votebox/ledger"
	"github.com/spikeekips/votebox/util"
)

// Network is the identity of the chain the provider is connected to.
type Network struct {
	ChainID  *big.Int `json:"chain_id"`
	Name     string   `json:"name"`
	Target   *big.Int `json:"target_chain_id"`
	Mismatch bool     `json:"mismatch"`
}

func newNetwork(chainID, target *big.Int) Network {
	return Network{
		ChainID:  chainID,
		Name:     ledger.NetworkName(chainID),
		Target:   target,
		Mismatch: target != nil && !ledger.SameChain(chainID, target),
	}
}

// Session binds an account, a chain and the contract handle. A Session is
// superseded when the account or the chain changes; a superseded session
// ignores every state update.
type Session struct {
	sync.Mutex
	id         string
	createdAt  time.Time
	account    common.Address
	network    Network
	contract   ledger.Contract
	connDiags  []Diagnostic
	candidates *util.LockedItem[Resolution]
	status     *util.LockedItem[VoteStatus]
	pending    *util.LockedItem[*voteAttempt]
	superseded atomic.Bool
	watch      *sessionWatch
}

func newSession(
	account common.Address,
	network Network,
	contract ledger.Contract,
	diags []Diagnostic,
) *Session {
	return &Session{
		id:         util.UUID().String(),
		createdAt:  time.Now(),
		account:    account,
		network:    network,
		contract:   contract,
		connDiags:  diags,
		candidates: util.NewLockedItem(Resolution{Candidates: []Candidate{}}),
		status:     util.NewLockedItem(defaultVoteStatus()),
		pending:    util.NewLockedItem[*voteAttempt](nil),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Account() common.Address {
	return s.account
}

func (s *Session) HasAccount() bool {
	return s.account != (common.Address{})
}

func (s *Session) Network() Network {
	return s.network
}

// Contract returns nil when the contract could not be bound.
func (s *Session) Contract() ledger.Contract {
	return s.contract
}

func (s *Session) Candidates() []Candidate {
	return copyCandidates(s.candidates.Value().Candidates)
}

func (s *Session) Resolution() Resolution {
	r := s.candidates.Value()
	r.Candidates = copyCandidates(r.Candidates)

	return r
}

func (s *Session) VoteStatus() VoteStatus {
	return s.status.Value()
}

// Pending returns the vote attempt in flight.
func (s *Session) Pending() (PendingVote, bool) {
	a := s.pending.Value()
	if a == nil {
		return PendingVote{}, false
	}

	return a.snapshot(), true
}

func (s *Session) Diagnostics() []Diagnostic {
	r := s.candidates.Value()

	ds := make([]Diagnostic, 0, len(s.connDiags)+len(r.Diagnostics)+1)
	ds = append(ds, s.connDiags...)
	ds = append(ds, r.Diagnostics...)

	if d, ok := s.status.Value().Diagnostic(); ok {
		ds = append(ds, d)
	}

	return ds
}

func (s *Session) IsSuperseded() bool {
	return s.superseded.Load()
}

func (s *Session) supersede() {
	s.superseded.Store(true)
}

func (s *Session) setResolution(r Resolution) bool {
	if s.IsSuperseded() {
		return false
	}

	r.Candidates = copyCandidates(r.Candidates)
	_ = s.candidates.Set(r)

	return true
}

// setVoteStatus never lets a voted status fall back to not voted.
func (s *Session) setVoteStatus(st VoteStatus) bool {
	if s.IsSuperseded() {
		return false
	}

	var updated bool
	_ = s.status.Update(func(old VoteStatus) (VoteStatus, bool) {
		if old.Voted && !st.Voted {
			return old, false
		}

		updated = true

		return st, true
	})

	return updated
}

// claim takes the in-flight slot for the attempt.
func (s *Session) claim(a *voteAttempt) bool {
	var claimed bool
	_ = s.pending.Update(func(old *voteAttempt) (*voteAttempt, bool) {
		if old != nil {
			return old, false
		}

		claimed = true

		return a, true
	})

	return claimed
}

func (s *Session) release(a *voteAttempt) {
	_ = s.pending.Update(func(old *voteAttempt) (*voteAttempt, bool) {
		return nil, old == a
	})
}

// derive creates the session for a new account on the same chain. The
// notification subscriptions and the candidates move to the new session.
func (s *Session) derive(account common.Address) *Session {
	s.Lock()
	defer s.Unlock()

	ns := newSession(account, s.network, s.contract, s.connDiags)
	_ = ns.candidates.Set(s.candidates.Value())
	ns.watch = s.watch

	s.watch = nil
	s.supersede()

	return ns
}

// Close releases the notification subscriptions.
func (s *Session) Close() {
	s.Lock()
	w := s.watch
	s.watch = nil
	s.Unlock()

	if w != nil {
		w.close()
	}
}

type sessionWatch struct {
	accounts chan []common.Address
	chains   chan *big.Int
	subs     []event.Subscription
	quit     chan struct{}
	once     sync.Once
}

func newSessionWatch(provider ledger.Provider) *sessionWatch {
	w := &sessionWatch{
		accounts: make(chan []common.Address, 4),
		chains:   make(chan *big.Int, 4),
		quit:     make(chan struct{}),
	}

	w.subs = []event.Subscription{
		provider.SubscribeAccountsChanged(w.accounts),
		provider.SubscribeChainChanged(w.chains),
	}

	return w
}

func (w *sessionWatch) close() {
	w.once.Do(func() {
		for i := range w.subs {
			w.subs[i].Unsubscribe()
		}

		close(w.quit)
	})
}

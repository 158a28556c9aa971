package voting

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"

	"github.com/spikeekips/votebox/ledger"
)

type testClient struct {
	suite.Suite
}

func (t *testClient) config() ClientConfig {
	return ClientConfig{
		Contract: testContractAddress,
		Target: ledger.ChainParams{
			ChainID:   big.NewInt(1337),
			ChainName: "Local Blockchain",
			Currency:  ledger.Currency{Name: "Ethereum", Symbol: "ETH", Decimals: 18},
			RPCURLs:   []string{"http://127.0.0.1:8545"},
		},
	}
}

func (t *testClient) classified(err error) *ClassifiedError {
	var ce *ClassifiedError
	t.True(errors.As(err, &ce))

	return ce
}

func (t *testClient) TestNoWallet() {
	c := NewClient(nil, t.config())
	defer c.Close()

	ce := t.classified(c.Start(context.Background()))
	t.Equal(CategoryNoWallet, ce.Category)

	st := c.State()
	t.False(st.Connected)
	t.Equal(PlaceholderCandidates(), st.Candidates)
	t.Equal(CategoryNoWallet, st.Error.Category)
	t.Equal(1, len(st.Diagnostics))

	_, err := c.Vote(context.Background(), 0)
	t.Equal(CategoryNotConnected, t.classified(err).Category)
}

func (t *testClient) TestAccessDenied() {
	fp := newFakeProvider(newFakeContract(record("Alice", 1)))
	fp.accountsErr = errors.New("user rejected the request")

	c := NewClient(fp, t.config())
	defer c.Close()

	ce := t.classified(c.Start(context.Background()))
	t.Equal(CategoryAccountAccessDenied, ce.Category)

	st := c.State()
	t.False(st.Connected)
	t.Equal(0, big.NewInt(1337).Cmp(st.Network.ChainID))
	t.Equal("Local Blockchain", st.Network.Name)
	t.Equal(0, fp.called("bind"))

	// NOTE access granted later
	fp.set(func(fp *fakeProvider) {
		fp.accountsErr = nil
	})

	t.NoError(c.Refresh(context.Background()))

	st = c.State()
	t.True(st.Connected)
	t.Equal(testAlice.Hex(), st.Account)
	t.Nil(st.Error)
}

func (t *testClient) TestEmptyAccounts() {
	fp := newFakeProvider(newFakeContract(record("Alice", 1)))
	fp.accounts = nil

	c := NewClient(fp, t.config())
	defer c.Close()

	t.Equal(CategoryAccountAccessDenied, t.classified(c.Start(context.Background())).Category)
}

func (t *testClient) TestBindingNotFatal() {
	fp := newFakeProvider(nil)
	fp.bindErr = errors.New("failed to parse abi")

	c := NewClient(fp, t.config())
	defer c.Close()

	t.NoError(c.Start(context.Background()))

	st := c.State()
	t.True(st.Connected)
	t.Empty(st.Candidates)
	t.False(st.VoteStatus.Voted)

	var found bool
	for i := range st.Diagnostics {
		if st.Diagnostics[i].Source == "contract" {
			found = true
			t.Equal(SeverityWarning, st.Diagnostics[i].Severity)
		}
	}
	t.True(found)

	_, err := c.Vote(context.Background(), 0)
	t.Equal(CategoryNotConnected, t.classified(err).Category)
}

func (t *testClient) TestLoad() {
	fc := newFakeContract(record("Alice", 3), record("Bob", 5))
	fc.voted[testAlice] = true

	c := NewClient(newFakeProvider(fc), t.config())
	defer c.Close()

	t.NoError(c.Start(context.Background()))

	st := c.State()
	t.True(st.Connected)
	t.False(st.Network.Mismatch)
	t.Equal(CandidateSourceBulk, st.Source)
	t.Equal(uint64(8), st.TotalVotes)
	t.True(st.VoteStatus.Voted)
	t.Empty(st.Diagnostics)
	t.Nil(st.Pending)
}

func (t *testClient) TestMismatch() {
	fp := newFakeProvider(newFakeContract(record("Alice", 3)))
	fp.chainID = big.NewInt(11155111)

	c := NewClient(fp, t.config())
	defer c.Close()

	t.NoError(c.Start(context.Background()))

	st := c.State()
	t.True(st.Network.Mismatch)
	t.Equal("Sepolia", st.Network.Name)

	var found bool
	for i := range st.Diagnostics {
		if st.Diagnostics[i].Source == "network" {
			found = true
		}
	}
	t.True(found)
}

func (t *testClient) TestAccountChanged() {
	fc := newFakeContract(record("Alice", 3), record("Bob", 5))
	fc.voted[testBob] = true

	fp := newFakeProvider(fc)

	c := NewClient(fp, t.config())
	defer c.Close()

	t.NoError(c.Start(context.Background()))

	old := c.Session()
	t.False(old.VoteStatus().Voted)
	getCandidates := fc.called("getCandidates")

	fp.accountsFeed.Send([]common.Address{testBob})

	t.Eventually(func() bool {
		return c.Session().Account() == testBob
	}, time.Second*3, time.Millisecond*10)

	s := c.Session()
	t.NotEqual(old.ID(), s.ID())
	t.True(old.IsSuperseded())
	t.True(s.VoteStatus().Voted)
	t.Equal(old.Candidates(), s.Candidates())
	t.Equal(getCandidates, fc.called("getCandidates"))

	// NOTE wallet locked
	fp.accountsFeed.Send([]common.Address{})

	t.Eventually(func() bool {
		return !c.State().Connected
	}, time.Second*3, time.Millisecond*10)

	_, err := c.Vote(context.Background(), 0)
	t.Equal(CategoryNotConnected, t.classified(err).Category)
}

func (t *testClient) TestChainChanged() {
	fc := newFakeContract(record("Alice", 3), record("Bob", 5))
	fp := newFakeProvider(fc)

	c := NewClient(fp, t.config())
	defer c.Close()

	t.NoError(c.Start(context.Background()))

	old := c.Session()

	nfc := newFakeContract(record("Charlie", 1))
	fp.set(func(fp *fakeProvider) {
		fp.chainID = big.NewInt(31337)
		fp.contract = nfc
	})

	fp.chainFeed.Send(big.NewInt(31337))

	t.Eventually(func() bool {
		s := c.Session()

		return s != nil && s.ID() != old.ID()
	}, time.Second*3, time.Millisecond*10)

	t.True(old.IsSuperseded())

	st := c.State()
	t.Equal("Hardhat", st.Network.Name)
	t.True(st.Network.Mismatch)
	t.Equal([]Candidate{{Ordinal: 0, Name: "Charlie", Votes: 1}}, st.Candidates)
	t.Equal(2, fp.called("bind"))
}

func (t *testClient) TestChainChangedWhileConfirming() {
	fc := newFakeContract(record("Alice", 3), record("Bob", 5))
	fc.gate = make(chan struct{})

	fp := newFakeProvider(fc)

	c := NewClient(fp, t.config())
	defer c.Close()

	t.NoError(c.Start(context.Background()))

	old := c.Session()

	ch := make(chan PendingVote, 10)
	sub := c.SubscribePendingVotes(ch)
	defer sub.Unsubscribe()

	done := make(chan VoteReceipt, 1)
	go func() {
		receipt, err := c.Vote(context.Background(), 1)
		t.NoError(err)

		done <- receipt
	}()

	t.Eventually(func() bool {
		pv, ok := old.Pending()

		return ok && pv.State == SubmissionAwaitingConfirmation
	}, time.Second*3, time.Millisecond*10)

	fp.set(func(fp *fakeProvider) {
		fp.chainID = big.NewInt(31337)
	})

	fp.chainFeed.Send(big.NewInt(31337))

	t.Eventually(func() bool {
		s := c.Session()

		return s != nil && s.ID() != old.ID()
	}, time.Second*3, time.Millisecond*10)

	t.True(old.IsSuperseded())

	close(fc.gate)

	select {
	case <-time.After(time.Second * 3):
		t.NoError(errors.Errorf("failed to wait receipt"))
	case receipt := <-done:
		t.True(receipt.Superseded)
		t.Equal(old.ID(), receipt.SessionID)
	}

	s := c.Session()
	t.False(s.VoteStatus().Voted)
	t.Equal(uint64(5), s.Candidates()[1].Votes)

	_, ok := s.Pending()
	t.False(ok)
}

func (t *testClient) TestReconnectAfterFailedChainChange() {
	fc := newFakeContract(record("Alice", 3), record("Bob", 5))
	fp := newFakeProvider(fc)

	c := NewClient(fp, t.config())
	defer c.Close()

	t.NoError(c.Start(context.Background()))

	old := c.Session()

	fp.set(func(fp *fakeProvider) {
		fp.chainID = big.NewInt(31337)
		fp.accountsErr = errors.New("user rejected the request")
	})

	fp.chainFeed.Send(big.NewInt(31337))

	t.Eventually(func() bool {
		st := c.State()

		return c.Session() == nil && st.Error != nil && st.Error.Category == CategoryAccountAccessDenied
	}, time.Second*3, time.Millisecond*10)

	t.True(old.IsSuperseded())

	// NOTE access granted on the new chain
	fp.set(func(fp *fakeProvider) {
		fp.accountsErr = nil
	})

	t.Eventually(func() bool {
		_ = fp.accountsFeed.Send([]common.Address{testAlice})

		return c.State().Connected
	}, time.Second*3, time.Millisecond*10)

	st := c.State()
	t.Nil(st.Error)
	t.Equal("Hardhat", st.Network.Name)
	t.NotEqual(old.ID(), st.SessionID)
}

func (t *testClient) TestReconnectAfterFailedStart() {
	fp := newFakeProvider(newFakeContract(record("Alice", 3)))
	fp.accountsErr = errors.New("user rejected the request")

	c := NewClient(fp, t.config())
	defer c.Close()

	t.Equal(CategoryAccountAccessDenied, t.classified(c.Start(context.Background())).Category)

	// NOTE still denied; keeps waiting
	t.Equal(1, fp.chainFeed.Send(big.NewInt(1337)))
	t.Never(func() bool {
		return c.State().Connected
	}, time.Millisecond*100, time.Millisecond*10)

	fp.set(func(fp *fakeProvider) {
		fp.accountsErr = nil
	})

	t.Eventually(func() bool {
		_ = fp.chainFeed.Send(big.NewInt(1337))

		return c.State().Connected
	}, time.Second*3, time.Millisecond*10)
}

func (t *testClient) TestSwitchNetwork() {
	fp := newFakeProvider(newFakeContract(record("Alice", 3)))
	fp.switchErr = ledger.UnknownChainError.Errorf("code=4902")

	c := NewClient(fp, t.config())
	defer c.Close()

	t.NoError(c.SwitchNetwork(context.Background()))

	fp.Lock()
	t.Equal(1, len(fp.switched))
	t.Equal(1, len(fp.added))
	t.Equal("Local Blockchain", fp.added[0].ChainName)
	fp.Unlock()

	fp.set(func(fp *fakeProvider) {
		fp.switchErr = errors.New("user rejected the request")
	})

	err := c.SwitchNetwork(context.Background())
	t.Equal(CategoryUserRejected, t.classified(err).Category)

	fp.Lock()
	t.Equal(1, len(fp.added))
	fp.Unlock()
}

func (t *testClient) TestCloseLeavesNoGoroutine() {
	defer goleak.VerifyNone(t.T(), goleak.IgnoreCurrent())

	fp := newFakeProvider(newFakeContract(record("Alice", 3)))

	c := NewClient(fp, t.config())
	t.NoError(c.Start(context.Background()))

	fp.accountsFeed.Send([]common.Address{testBob})

	t.Eventually(func() bool {
		return c.Session().Account() == testBob
	}, time.Second*3, time.Millisecond*10)

	t.NoError(c.Close())
	t.NoError(c.Close())

	t.Equal(0, fp.accountsFeed.Send([]common.Address{testAlice}))
	t.Equal(0, fp.chainFeed.Send(big.NewInt(1)))
}

func TestClient(t *testing.T) {
	suite.Run(t, new(testClient))
}

package voting

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/spikeekips/votebox/ledger"
)

var (
	testContractAddress = common.HexToAddress("0x8eAEFd58fE0409212cEf256936A0FA2a3006a1fe")
	testAlice           = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	testBob             = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

type fakeContract struct {
	sync.Mutex
	address          common.Address
	candidates       []ledger.CandidateRecord
	getCandidatesErr error
	count            *uint64
	countErr         error
	candidateErrs    map[uint64]error
	voted            map[common.Address]bool
	hasVotedErr      error
	votersErr        error
	events           map[common.Address]int
	eventsErr        error
	voteErr          error
	waitErr          error
	gate             chan struct{}
	receiptStatus    uint64
	gasLimits        []uint64
	txs              map[common.Hash][2]uint64
	calls            map[string]int
}

func newFakeContract(records ...ledger.CandidateRecord) *fakeContract {
	return &fakeContract{
		address:       testContractAddress,
		candidates:    records,
		candidateErrs: map[uint64]error{},
		voted:         map[common.Address]bool{},
		events:        map[common.Address]int{},
		receiptStatus: types.ReceiptStatusSuccessful,
		txs:           map[common.Hash][2]uint64{},
		calls:         map[string]int{},
	}
}

func record(name string, votes int64) ledger.CandidateRecord {
	return ledger.CandidateRecord{Name: name, VoteCount: big.NewInt(votes)}
}

func (fc *fakeContract) called(name string) int {
	fc.Lock()
	defer fc.Unlock()

	return fc.calls[name]
}

func (fc *fakeContract) set(f func(*fakeContract)) {
	fc.Lock()
	defer fc.Unlock()

	f(fc)
}

func (fc *fakeContract) call(name string) {
	fc.calls[name]++
}

func (fc *fakeContract) Address() common.Address {
	return fc.address
}

func (fc *fakeContract) GetCandidates(context.Context) ([]ledger.CandidateRecord, error) {
	fc.Lock()
	defer fc.Unlock()

	fc.call("getCandidates")

	if fc.getCandidatesErr != nil {
		return nil, fc.getCandidatesErr
	}

	rs := make([]ledger.CandidateRecord, len(fc.candidates))
	copy(rs, fc.candidates)

	return rs, nil
}

func (fc *fakeContract) GetCandidatesCount(context.Context) (uint64, error) {
	fc.Lock()
	defer fc.Unlock()

	fc.call("getCandidatesCount")

	switch {
	case fc.countErr != nil:
		return 0, fc.countErr
	case fc.count != nil:
		return *fc.count, nil
	default:
		return uint64(len(fc.candidates)), nil
	}
}

func (fc *fakeContract) Candidate(_ context.Context, i uint64) (ledger.CandidateRecord, error) {
	fc.Lock()
	defer fc.Unlock()

	fc.call("candidates")

	if err := fc.candidateErrs[i]; err != nil {
		return ledger.CandidateRecord{}, err
	}

	if i >= uint64(len(fc.candidates)) {
		return ledger.CandidateRecord{}, errors.Errorf("execution reverted: invalid candidate")
	}

	return fc.candidates[i], nil
}

func (fc *fakeContract) HasVoted(_ context.Context, a common.Address) (bool, error) {
	fc.Lock()
	defer fc.Unlock()

	fc.call("hasVoted")

	if fc.hasVotedErr != nil {
		return false, fc.hasVotedErr
	}

	return fc.voted[a], nil
}

func (fc *fakeContract) Voters(_ context.Context, a common.Address) (bool, error) {
	fc.Lock()
	defer fc.Unlock()

	fc.call("voters")

	if fc.votersErr != nil {
		return false, fc.votersErr
	}

	return fc.voted[a], nil
}

func (fc *fakeContract) VotedEvents(_ context.Context, a common.Address) (int, error) {
	fc.Lock()
	defer fc.Unlock()

	fc.call("events")

	if fc.eventsErr != nil {
		return 0, fc.eventsErr
	}

	return fc.events[a], nil
}

func (fc *fakeContract) Vote(_ context.Context, from common.Address, ordinal, gasLimit uint64) (*types.Transaction, error) {
	fc.Lock()
	defer fc.Unlock()

	fc.call("vote")
	fc.gasLimits = append(fc.gasLimits, gasLimit)

	if fc.voteErr != nil {
		return nil, fc.voteErr
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    uint64(fc.calls["vote"]),
		GasPrice: big.NewInt(1),
		Gas:      gasLimit,
		To:       &fc.address,
		Value:    big.NewInt(0),
		Data:     from.Bytes(),
	})

	fc.txs[tx.Hash()] = [2]uint64{ordinal, uint64(len(fc.txs))}

	return tx, nil
}

func (fc *fakeContract) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	fc.Lock()
	gate := fc.gate
	fc.Unlock()

	if gate != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-gate:
		}
	}

	fc.Lock()
	defer fc.Unlock()

	if fc.waitErr != nil {
		return nil, fc.waitErr
	}

	if fc.receiptStatus == types.ReceiptStatusSuccessful {
		from := common.BytesToAddress(tx.Data())
		ordinal := fc.txs[tx.Hash()][0]

		fc.voted[from] = true
		fc.events[from]++

		if ordinal < uint64(len(fc.candidates)) {
			r := fc.candidates[ordinal]
			votes := big.NewInt(0)
			if r.VoteCount != nil {
				votes.Set(r.VoteCount)
			}
			fc.candidates[ordinal] = ledger.CandidateRecord{Name: r.Name, VoteCount: votes.Add(votes, big.NewInt(1))}
		}
	}

	return &types.Receipt{
		Status:      fc.receiptStatus,
		TxHash:      tx.Hash(),
		BlockNumber: big.NewInt(1),
		GasUsed:     51000,
	}, nil
}

type fakeProvider struct {
	sync.Mutex
	chainID      *big.Int
	chainErr     error
	accounts     []common.Address
	accountsErr  error
	code         []byte
	codeErr      error
	contract     *fakeContract
	bindErr      error
	switchErr    error
	addErr       error
	switched     []*big.Int
	added        []ledger.ChainParams
	calls        map[string]int
	accountsFeed event.Feed
	chainFeed    event.Feed
}

func newFakeProvider(contract *fakeContract) *fakeProvider {
	return &fakeProvider{
		chainID:  big.NewInt(1337),
		accounts: []common.Address{testAlice},
		code:     []byte{0x60, 0x80},
		contract: contract,
		calls:    map[string]int{},
	}
}

func (fp *fakeProvider) called(name string) int {
	fp.Lock()
	defer fp.Unlock()

	return fp.calls[name]
}

func (fp *fakeProvider) set(f func(*fakeProvider)) {
	fp.Lock()
	defer fp.Unlock()

	f(fp)
}

func (fp *fakeProvider) ChainID(context.Context) (*big.Int, error) {
	fp.Lock()
	defer fp.Unlock()

	fp.calls["chainId"]++

	if fp.chainErr != nil {
		return nil, fp.chainErr
	}

	return new(big.Int).Set(fp.chainID), nil
}

func (fp *fakeProvider) RequestAccounts(context.Context) ([]common.Address, error) {
	fp.Lock()
	defer fp.Unlock()

	fp.calls["requestAccounts"]++

	if fp.accountsErr != nil {
		return nil, fp.accountsErr
	}

	return fp.accounts, nil
}

func (fp *fakeProvider) SubscribeAccountsChanged(ch chan<- []common.Address) event.Subscription {
	return fp.accountsFeed.Subscribe(ch)
}

func (fp *fakeProvider) SubscribeChainChanged(ch chan<- *big.Int) event.Subscription {
	return fp.chainFeed.Subscribe(ch)
}

func (fp *fakeProvider) CodeAt(context.Context, common.Address) ([]byte, error) {
	fp.Lock()
	defer fp.Unlock()

	fp.calls["codeAt"]++

	return fp.code, fp.codeErr
}

func (fp *fakeProvider) SwitchChain(_ context.Context, chainID *big.Int) error {
	fp.Lock()
	defer fp.Unlock()

	fp.switched = append(fp.switched, chainID)

	return fp.switchErr
}

func (fp *fakeProvider) AddChain(_ context.Context, params ledger.ChainParams) error {
	fp.Lock()
	defer fp.Unlock()

	fp.added = append(fp.added, params)

	return fp.addErr
}

func (fp *fakeProvider) Bind(common.Address) (ledger.Contract, error) {
	fp.Lock()
	defer fp.Unlock()

	fp.calls["bind"]++

	if fp.bindErr != nil {
		return nil, fp.bindErr
	}

	return fp.contract, nil
}

func newTestSession(contract ledger.Contract) *Session {
	return newSession(testAlice, newNetwork(big.NewInt(1337), big.NewInt(1337)), contract, nil)
}

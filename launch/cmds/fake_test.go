package cmds

import (
	"crypto/ecdsa"
	"math/big"
	"net/http/httptest"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"

	"github.com/spikeekips/votebox/launch/config"
	"github.com/spikeekips/votebox/ledger/ethprovider"
)

var testAlice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")

type testCandidate struct {
	Name      string
	VoteCount *big.Int
}

// fakeNode is the json-rpc node over http with the voting contract at the
// default address.
type fakeNode struct {
	sync.Mutex
	abi        abi.ABI
	key        *ecdsa.PrivateKey
	chainID    *big.Int
	accounts   []common.Address
	candidates []testCandidate
	voted      map[common.Address]bool
	txs        map[common.Hash]*types.Transaction
	unmined    int
	srv        *rpc.Server
	ts         *httptest.Server
}

func newFakeNode() *fakeNode {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}

	n := &fakeNode{
		abi:      ethprovider.VotingABI(),
		key:      key,
		chainID:  big.NewInt(1337),
		accounts: []common.Address{testAlice},
		candidates: []testCandidate{
			{Name: "Alice", VoteCount: big.NewInt(3)},
			{Name: "Bob", VoteCount: big.NewInt(5)},
		},
		voted: map[common.Address]bool{},
		txs:   map[common.Hash]*types.Transaction{},
	}

	n.srv = rpc.NewServer()
	if err := n.srv.RegisterName("eth", &fakeEthService{n: n}); err != nil {
		panic(err)
	}

	n.ts = httptest.NewServer(n.srv)

	return n
}

func (n *fakeNode) URL() string {
	return n.ts.URL
}

func (n *fakeNode) Close() {
	n.ts.Close()
	n.srv.Stop()
}

type fakeEthService struct {
	n *fakeNode
}

func (s *fakeEthService) ChainId() *hexutil.Big { //nolint:revive,stylecheck
	s.n.Lock()
	defer s.n.Unlock()

	return (*hexutil.Big)(new(big.Int).Set(s.n.chainID))
}

func (s *fakeEthService) RequestAccounts() []common.Address {
	return s.Accounts()
}

func (s *fakeEthService) Accounts() []common.Address {
	s.n.Lock()
	defer s.n.Unlock()

	return s.n.accounts
}

func (*fakeEthService) GetCode(address common.Address, _ string) hexutil.Bytes {
	if address == config.DefaultContractAddress {
		return hexutil.Bytes{0x60, 0x80, 0x60, 0x40}
	}

	return hexutil.Bytes{}
}

type callArgs struct {
	To    *common.Address `json:"to"`
	Data  *hexutil.Bytes  `json:"data"`
	Input *hexutil.Bytes  `json:"input"`
}

func (s *fakeEthService) Call(args callArgs, _ string) (hexutil.Bytes, error) {
	var data []byte

	switch {
	case args.Input != nil:
		data = *args.Input
	case args.Data != nil:
		data = *args.Data
	}

	if len(data) < 4 {
		return nil, errors.Errorf("execution reverted")
	}

	m, err := s.n.abi.MethodById(data[:4])
	if err != nil {
		return nil, errors.Errorf("execution reverted")
	}

	inputs, err := m.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}

	s.n.Lock()
	defer s.n.Unlock()

	switch m.Name {
	case "getCandidates":
		cs := make([]testCandidate, len(s.n.candidates))
		copy(cs, s.n.candidates)

		return m.Outputs.Pack(cs)
	case "hasVoted":
		return m.Outputs.Pack(s.n.voted[inputs[0].(common.Address)])
	default:
		return nil, errors.Errorf("execution reverted")
	}
}

type sendArgs struct {
	From common.Address  `json:"from"`
	To   *common.Address `json:"to"`
	Gas  hexutil.Uint64  `json:"gas"`
	Data hexutil.Bytes   `json:"data"`
}

func (s *fakeEthService) SendTransaction(args sendArgs) (common.Hash, error) {
	m, err := s.n.abi.MethodById(args.Data[:4])
	if err != nil {
		return common.Hash{}, err
	}

	inputs, err := m.Inputs.Unpack(args.Data[4:])
	if err != nil {
		return common.Hash{}, err
	}

	s.n.Lock()
	defer s.n.Unlock()

	if s.n.voted[args.From] {
		return common.Hash{}, errors.Errorf("execution reverted: already voted")
	}

	i := inputs[0].(*big.Int).Int64()
	if i >= int64(len(s.n.candidates)) {
		return common.Hash{}, errors.Errorf("execution reverted: invalid candidate")
	}

	tx, err := types.SignTx(types.NewTx(&types.LegacyTx{
		Nonce:    uint64(len(s.n.txs)),
		GasPrice: big.NewInt(1),
		Gas:      uint64(args.Gas),
		To:       args.To,
		Value:    big.NewInt(0),
		Data:     args.Data,
	}), types.NewEIP155Signer(s.n.chainID), s.n.key)
	if err != nil {
		return common.Hash{}, err
	}

	s.n.txs[tx.Hash()] = tx
	s.n.voted[args.From] = true
	s.n.candidates[i].VoteCount = new(big.Int).Add(s.n.candidates[i].VoteCount, big.NewInt(1))

	return tx.Hash(), nil
}

func (s *fakeEthService) GetTransactionByHash(h common.Hash) *types.Transaction {
	s.n.Lock()
	defer s.n.Unlock()

	return s.n.txs[h]
}

func (s *fakeEthService) GetTransactionReceipt(h common.Hash) *types.Receipt {
	s.n.Lock()
	defer s.n.Unlock()

	if _, found := s.n.txs[h]; !found {
		return nil
	}

	if s.n.unmined > 0 {
		s.n.unmined--

		return nil
	}

	return &types.Receipt{
		Status:            types.ReceiptStatusSuccessful,
		CumulativeGasUsed: 51000,
		Logs:              []*types.Log{},
		TxHash:            h,
		GasUsed:           51000,
		BlockHash:         common.HexToHash("0x01"),
		BlockNumber:       big.NewInt(9),
	}
}

package ethprovider

import (
	"crypto/ecdsa"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
)

var (
	testContractAddress = common.HexToAddress("0x8eAEFd58fE0409212cEf256936A0FA2a3006a1fe")
	testAlice           = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	testBob             = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

type codeError struct {
	code int
	msg  string
}

func (e codeError) Error() string {
	return e.msg
}

func (e codeError) ErrorCode() int {
	return e.code
}

type callHandler func(inputs []interface{}) ([]interface{}, error)

// fakeNode answers the json-rpc requests of the wallet and the node.
type fakeNode struct {
	sync.Mutex
	abi               abi.ABI
	key               *ecdsa.PrivateKey
	chainID           *big.Int
	accounts          []common.Address
	requestErr        error
	noRequestAccounts bool
	code              map[common.Address][]byte
	handlers          map[string]callHandler
	logs              []*types.Log
	sendErr           error
	sent              []sendArgs
	txs               map[common.Hash]*types.Transaction
	txLookupErrs      int
	txLookups         int
	receiptStatus     uint64
	switchErr         error
	switched          []*big.Int
	added             []chainParams
}

func newFakeNode(a abi.ABI) *fakeNode {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}

	return &fakeNode{
		abi:           a,
		key:           key,
		chainID:       big.NewInt(1337),
		accounts:      []common.Address{testAlice},
		code:          map[common.Address][]byte{testContractAddress: {0x60, 0x80, 0x60, 0x40}},
		handlers:      map[string]callHandler{},
		txs:           map[common.Hash]*types.Transaction{},
		receiptStatus: types.ReceiptStatusSuccessful,
	}
}

func (n *fakeNode) set(f func(*fakeNode)) {
	n.Lock()
	defer n.Unlock()

	f(n)
}

func (n *fakeNode) handle(method string, h callHandler) {
	n.set(func(n *fakeNode) {
		n.handlers[method] = h
	})
}

func (n *fakeNode) client() (*rpc.Client, func()) {
	srv := rpc.NewServer()
	if err := srv.RegisterName("eth", &fakeEthService{n: n}); err != nil {
		panic(err)
	}

	if err := srv.RegisterName("wallet", &fakeWalletService{n: n}); err != nil {
		panic(err)
	}

	client := rpc.DialInProc(srv)

	return client, func() {
		client.Close()
		srv.Stop()
	}
}

type fakeEthService struct {
	n *fakeNode
}

func (s *fakeEthService) ChainId() *hexutil.Big { //nolint:revive,stylecheck
	s.n.Lock()
	defer s.n.Unlock()

	return (*hexutil.Big)(new(big.Int).Set(s.n.chainID))
}

func (s *fakeEthService) RequestAccounts() ([]common.Address, error) {
	s.n.Lock()
	defer s.n.Unlock()

	switch {
	case s.n.noRequestAccounts:
		return nil, codeError{code: ErrorCodeMethodNotFound, msg: "the method eth_requestAccounts does not exist/is not available"}
	case s.n.requestErr != nil:
		return nil, s.n.requestErr
	default:
		return s.n.accounts, nil
	}
}

func (s *fakeEthService) Accounts() []common.Address {
	s.n.Lock()
	defer s.n.Unlock()

	if s.n.accounts == nil {
		return []common.Address{}
	}

	return s.n.accounts
}

func (s *fakeEthService) GetCode(address common.Address, _ string) hexutil.Bytes {
	s.n.Lock()
	defer s.n.Unlock()

	return s.n.code[address]
}

type callArgs struct {
	From  *common.Address `json:"from"`
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

	s.n.Lock()
	h, found := s.n.handlers[m.Name]
	s.n.Unlock()

	if !found {
		return nil, errors.Errorf("execution reverted")
	}

	inputs, err := m.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}

	outputs, err := h(inputs)
	if err != nil {
		return nil, err
	}

	return m.Outputs.Pack(outputs...)
}

type filterArgs struct {
	Address   []common.Address `json:"address"`
	Topics    [][]common.Hash  `json:"topics"`
	FromBlock string           `json:"fromBlock"`
	ToBlock   string           `json:"toBlock"`
}

func (s *fakeEthService) GetLogs(args filterArgs) ([]*types.Log, error) {
	s.n.Lock()
	defer s.n.Unlock()

	logs := []*types.Log{}

	for i := range s.n.logs {
		l := s.n.logs[i]

		if !matchAddress(args.Address, l.Address) || !matchTopics(args.Topics, l.Topics) {
			continue
		}

		logs = append(logs, l)
	}

	return logs, nil
}

func matchAddress(as []common.Address, a common.Address) bool {
	if len(as) < 1 {
		return true
	}

	for i := range as {
		if as[i] == a {
			return true
		}
	}

	return false
}

func matchTopics(filter [][]common.Hash, topics []common.Hash) bool {
	if len(filter) > len(topics) {
		return false
	}

	for i := range filter {
		if len(filter[i]) < 1 {
			continue
		}

		var found bool

		for j := range filter[i] {
			if filter[i][j] == topics[i] {
				found = true

				break
			}
		}

		if !found {
			return false
		}
	}

	return true
}

type sendArgs struct {
	From common.Address  `json:"from"`
	To   *common.Address `json:"to"`
	Gas  hexutil.Uint64  `json:"gas"`
	Data hexutil.Bytes   `json:"data"`
}

func (s *fakeEthService) SendTransaction(args sendArgs) (common.Hash, error) {
	s.n.Lock()
	defer s.n.Unlock()

	if s.n.sendErr != nil {
		return common.Hash{}, s.n.sendErr
	}

	s.n.sent = append(s.n.sent, args)

	tx, err := types.SignTx(types.NewTx(&types.LegacyTx{
		Nonce:    uint64(len(s.n.sent)),
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

	return tx.Hash(), nil
}

func (s *fakeEthService) GetTransactionByHash(h common.Hash) (*types.Transaction, error) {
	s.n.Lock()
	defer s.n.Unlock()

	s.n.txLookups++

	if s.n.txLookupErrs > 0 {
		s.n.txLookupErrs--

		return nil, errors.Errorf("transaction indexing is in progress")
	}

	return s.n.txs[h], nil
}

func (s *fakeEthService) GetTransactionReceipt(h common.Hash) *types.Receipt {
	s.n.Lock()
	defer s.n.Unlock()

	if _, found := s.n.txs[h]; !found {
		return nil
	}

	return &types.Receipt{
		Status:            s.n.receiptStatus,
		CumulativeGasUsed: 51000,
		Logs:              []*types.Log{},
		TxHash:            h,
		GasUsed:           51000,
		BlockHash:         common.HexToHash("0x01"),
		BlockNumber:       big.NewInt(7),
	}
}

type fakeWalletService struct {
	n *fakeNode
}

type switchArgs struct {
	ChainID *hexutil.Big `json:"chainId"`
}

func (s *fakeWalletService) SwitchEthereumChain(args switchArgs) error {
	s.n.Lock()
	defer s.n.Unlock()

	s.n.switched = append(s.n.switched, (*big.Int)(args.ChainID))

	return s.n.switchErr
}

func (s *fakeWalletService) AddEthereumChain(args chainParams) error {
	s.n.Lock()
	defer s.n.Unlock()

	s.n.added = append(s.n.added, args)

	return nil
}

func mustABI(s string) abi.ABI {
	a, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}

	return a
}

// altVotingABI is the voting contract with struct getters and without
// getCandidates, hasVoted and the Voted event.
const altVotingABI = `[
  {"type": "function", "name": "getCandidatesCount", "stateMutability": "view", "inputs": [],
   "outputs": [{"name": "", "type": "uint256"}]},
  {"type": "function", "name": "candidates", "stateMutability": "view",
   "inputs": [{"name": "", "type": "uint256"}],
   "outputs": [{"name": "id", "type": "uint256"}, {"name": "name", "type": "string"}, {"name": "voteCount", "type": "uint256"}]},
  {"type": "function", "name": "voters", "stateMutability": "view",
   "inputs": [{"name": "", "type": "address"}],
   "outputs": [{"name": "weight", "type": "uint256"}, {"name": "voted", "type": "bool"}, {"name": "vote", "type": "uint256"}]}
]`

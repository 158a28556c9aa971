package ledger

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"

	"github.com/spikeekips/votebox/util"
)

var (
	// UnknownChainError is returned by SwitchChain when the wallet does not know
	// the requested chain; the chain should be registered by AddChain.
	UnknownChainError        = util.NewError("unrecognized chain id")
	UserRejectedRequestError = util.NewError("user rejected the request")
	MethodNotFoundError      = util.NewError("contract method not found")
	// TransactionRevertedError is returned when the receipt of the mined
	// transaction has the failed status.
	TransactionRevertedError = util.NewError("vote transaction reverted")
)

const (
	// ErrorCodeUserRejected and ErrorCodeUnknownChain are the wallet error
	// codes of EIP-1193 and EIP-3326.
	ErrorCodeUserRejected = 4001
	ErrorCodeUnknownChain = 4902
)

// CandidateRecord is a candidate as the contract returns it. VoteCount is nil
// when the contract does not expose the count.
type CandidateRecord struct {
	Name      string
	VoteCount *big.Int
}

type Currency struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// ChainParams is used to register a chain to the wallet.
type ChainParams struct {
	ChainID      *big.Int
	ChainName    string
	Currency     Currency
	RPCURLs      []string
	ExplorerURLs []string
}

// Provider is the wallet or ledger endpoint.
type Provider interface {
	ChainID(context.Context) (*big.Int, error)
	RequestAccounts(context.Context) ([]common.Address, error)
	SubscribeAccountsChanged(chan<- []common.Address) event.Subscription
	SubscribeChainChanged(chan<- *big.Int) event.Subscription
	CodeAt(context.Context, common.Address) ([]byte, error)
	SwitchChain(context.Context, *big.Int) error
	AddChain(context.Context, ChainParams) error
	Bind(common.Address) (Contract, error)
}

// Contract is the method and event surface of the voting contract. Any method
// may be absent from the deployed contract.
type Contract interface {
	Address() common.Address
	GetCandidates(context.Context) ([]CandidateRecord, error)
	GetCandidatesCount(context.Context) (uint64, error)
	Candidate(context.Context, uint64) (CandidateRecord, error)
	HasVoted(context.Context, common.Address) (bool, error)
	Voters(context.Context, common.Address) (bool, error)
	// VotedEvents returns the number of Voted events emitted for the account.
	VotedEvents(context.Context, common.Address) (int, error)
	Vote(ctx context.Context, from common.Address, ordinal, gasLimit uint64) (*types.Transaction, error)
	WaitMined(context.Context, *types.Transaction) (*types.Receipt, error)
}

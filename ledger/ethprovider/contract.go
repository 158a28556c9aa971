package ethprovider

import (
	"context"
	"math/big"
	"reflect"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"

	"github.com/spikeekips/votebox/ledger"
	"github.com/spikeekips/votebox/util"
)

var SentTransactionInterval = time.Second

// Contract is the voting contract bound by the ABI. A method which is not in
// the ABI fails with ledger.MethodNotFoundError.
type Contract struct {
	provider *Provider
	address  common.Address
	bc       *bind.BoundContract
}

func (c *Contract) Address() common.Address {
	return c.address
}

func (c *Contract) GetCandidates(ctx context.Context) ([]ledger.CandidateRecord, error) {
	out, err := c.call(ctx, methodGetCandidates)
	if err != nil {
		return nil, err
	}

	if len(out) != 1 {
		return nil, errors.Errorf("unexpected outputs of %s; %d", methodGetCandidates, len(out))
	}

	v := reflect.ValueOf(out[0])
	if v.Kind() != reflect.Slice {
		return nil, errors.Errorf("unexpected output of %s; %T", methodGetCandidates, out[0])
	}

	records := make([]ledger.CandidateRecord, v.Len())

	for i := 0; i < v.Len(); i++ {
		r, err := candidateFromTuple(v.Index(i))
		if err != nil {
			return nil, errors.WithMessagef(err, "candidate %d", i)
		}

		records[i] = r
	}

	return records, nil
}

func (c *Contract) GetCandidatesCount(ctx context.Context) (uint64, error) {
	out, err := c.call(ctx, methodGetCandidatesCount)
	if err != nil {
		return 0, err
	}

	if len(out) < 1 {
		return 0, errors.Errorf("empty output of %s", methodGetCandidatesCount)
	}

	n, ok := out[0].(*big.Int)
	switch {
	case !ok:
		return 0, errors.Errorf("unexpected output of %s; %T", methodGetCandidatesCount, out[0])
	case n.Sign() < 0, !n.IsUint64():
		return 0, errors.Errorf("invalid count, %s", n)
	default:
		return n.Uint64(), nil
	}
}

// Candidate calls the public getter of the candidates array. The getter of a
// struct returns its fields as outputs; the name and the vote count are found
// by the output names, or by type.
func (c *Contract) Candidate(ctx context.Context, i uint64) (ledger.CandidateRecord, error) {
	out, err := c.call(ctx, methodCandidates, new(big.Int).SetUint64(i))
	if err != nil {
		return ledger.CandidateRecord{}, err
	}

	outputs := c.provider.abi.Methods[methodCandidates].Outputs

	if len(out) == 1 && outputs[0].Type.T == abi.TupleTy {
		return candidateFromTuple(reflect.ValueOf(out[0]))
	}

	var r ledger.CandidateRecord

	nameIndex, countIndex := -1, -1

	for j := range outputs {
		switch {
		case outputs[j].Name == "name":
			nameIndex = j
		case outputs[j].Name == "voteCount", outputs[j].Name == "votes":
			countIndex = j
		}
	}

	namedCount := countIndex >= 0

	for j := range out {
		switch out[j].(type) {
		case string:
			if nameIndex < 0 {
				nameIndex = j
			}
		case *big.Int:
			// NOTE the last integer; the first one is usually the id
			if !namedCount {
				countIndex = j
			}
		}
	}

	if nameIndex >= 0 {
		r.Name, _ = out[nameIndex].(string)
	}

	if countIndex >= 0 {
		r.VoteCount, _ = out[countIndex].(*big.Int)
	}

	return r, nil
}

func (c *Contract) HasVoted(ctx context.Context, account common.Address) (bool, error) {
	out, err := c.call(ctx, methodHasVoted, account)
	if err != nil {
		return false, err
	}

	if len(out) < 1 {
		return false, errors.Errorf("empty output of %s", methodHasVoted)
	}

	b, ok := out[0].(bool)
	if !ok {
		return false, errors.Errorf("unexpected output of %s; %T", methodHasVoted, out[0])
	}

	return b, nil
}

// Voters reads the voters mapping. The mapping value may be a bool, an
// integer or a struct; the struct is truthy by its "voted" field or its first
// bool field.
func (c *Contract) Voters(ctx context.Context, account common.Address) (bool, error) {
	out, err := c.call(ctx, methodVoters, account)
	if err != nil {
		return false, err
	}

	if len(out) < 1 {
		return false, errors.Errorf("empty output of %s", methodVoters)
	}

	outputs := c.provider.abi.Methods[methodVoters].Outputs

	if len(out) > 1 {
		for i := range outputs {
			if outputs[i].Name == "voted" {
				return truthy(reflect.ValueOf(out[i]))
			}
		}

		for i := range out {
			if b, ok := out[i].(bool); ok {
				return b, nil
			}
		}

		return false, errors.Errorf("no voted field in output of %s", methodVoters)
	}

	return truthy(reflect.ValueOf(out[0]))
}

// VotedEvents counts the Voted events of the account.
func (c *Contract) VotedEvents(ctx context.Context, account common.Address) (int, error) {
	ev, found := c.provider.abi.Events[eventVoted]
	if !found {
		return 0, ledger.MethodNotFoundError.Errorf("event %s", eventVoted)
	}

	if len(ev.Inputs) < 1 || !ev.Inputs[0].Indexed || ev.Inputs[0].Type.T != abi.AddressTy {
		return 0, errors.Errorf("voter of %s event is not indexed", eventVoted)
	}

	logs, err := c.provider.ec.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: big.NewInt(0),
		Addresses: []common.Address{c.address},
		Topics: [][]common.Hash{
			{ev.ID},
			{common.BytesToHash(account.Bytes())},
		},
	})
	if err != nil {
		return 0, errors.Wrapf(err, "failed to filter %s events", eventVoted)
	}

	var n int

	for i := range logs {
		if !logs[i].Removed {
			n++
		}
	}

	return n, nil
}

// Vote sends the vote transaction. In keystore mode the transaction is signed
// locally, otherwise it is sent by eth_sendTransaction.
func (c *Contract) Vote(
	ctx context.Context, from common.Address, ordinal, gasLimit uint64,
) (*types.Transaction, error) {
	if _, found := c.provider.abi.Methods[methodVote]; !found {
		return nil, ledger.MethodNotFoundError.Errorf("%s", methodVote)
	}

	index := new(big.Int).SetUint64(ordinal)

	if c.provider.signer != nil {
		return c.transact(ctx, index, gasLimit)
	}

	data, err := c.provider.abi.Pack(methodVote, index)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack vote")
	}

	var h common.Hash
	if err := c.provider.client.CallContext(ctx, &h, "eth_sendTransaction", map[string]interface{}{
		"from": from,
		"to":   c.address,
		"gas":  hexutil.Uint64(gasLimit),
		"data": hexutil.Bytes(data),
	}); err != nil {
		return nil, walletError(err)
	}

	c.provider.Log().Debug().
		Str("tx", h.Hex()).
		Str("from", util.ShortAddress(from.Hex())).
		Msg("vote transaction sent")

	return c.sentTransaction(ctx, h)
}

// sentTransaction waits until the node knows the sent transaction. The
// transaction is already broadcast, so the lookup failure is not the failure
// of vote.
func (c *Contract) sentTransaction(ctx context.Context, h common.Hash) (*types.Transaction, error) {
	ticker := time.NewTicker(SentTransactionInterval)
	defer ticker.Stop()

	for {
		tx, _, err := c.provider.ec.TransactionByHash(ctx, h)
		if err == nil {
			return tx, nil
		}

		c.provider.Log().Debug().Err(err).Str("tx", h.Hex()).Msg("sent transaction not found yet; retrying")

		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "failed to get sent transaction, %q", h.Hex())
		case <-ticker.C:
		}
	}
}

func (c *Contract) transact(ctx context.Context, index *big.Int, gasLimit uint64) (*types.Transaction, error) {
	chainID, err := c.provider.ChainID(ctx)
	if err != nil {
		return nil, err
	}

	opts, err := c.provider.signer.transactOpts(chainID)
	if err != nil {
		return nil, err
	}

	opts.Context = ctx
	opts.GasLimit = gasLimit

	tx, err := c.bc.Transact(opts, methodVote, index)
	if err != nil {
		return nil, walletError(err)
	}

	return tx, nil
}

// WaitMined waits until the transaction is included. The failed receipt is
// returned with ledger.TransactionRevertedError.
func (c *Contract) WaitMined(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	receipt, err := bind.WaitMined(ctx, c.provider.ec, tx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to wait transaction, %q", tx.Hash().Hex())
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return receipt, ledger.TransactionRevertedError.Errorf("tx=%s", tx.Hash().Hex())
	}

	return receipt, nil
}

func (c *Contract) call(ctx context.Context, method string, params ...interface{}) ([]interface{}, error) {
	if _, found := c.provider.abi.Methods[method]; !found {
		return nil, ledger.MethodNotFoundError.Errorf("%s", method)
	}

	var out []interface{}
	if err := c.bc.Call(&bind.CallOpts{Context: ctx}, &out, method, params...); err != nil {
		return nil, errors.Wrapf(err, "failed to call %s", method)
	}

	return out, nil
}

func candidateFromTuple(v reflect.Value) (ledger.CandidateRecord, error) {
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return ledger.CandidateRecord{}, errors.Errorf("not tuple, %v", v.Kind())
	}

	var r ledger.CandidateRecord

	if f := v.FieldByName("Name"); f.IsValid() && f.Kind() == reflect.String {
		r.Name = f.String()
	}

	for _, name := range []string{"VoteCount", "Votes"} {
		if f := v.FieldByName(name); f.IsValid() {
			if b, ok := f.Interface().(*big.Int); ok {
				r.VoteCount = b
			}

			break
		}
	}

	return r, nil
}

func truthy(v reflect.Value) (bool, error) {
	if v.Kind() == reflect.Ptr {
		if b, ok := v.Interface().(*big.Int); ok {
			return b != nil && b.Sign() != 0, nil
		}

		v = v.Elem()
	}

	if !v.IsValid() {
		return false, errors.Errorf("empty voters value")
	}

	switch v.Kind() { //nolint:exhaustive
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() != 0, nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() != 0, nil
	case reflect.Struct:
		if f := v.FieldByName("Voted"); f.IsValid() && f.Kind() == reflect.Bool {
			return f.Bool(), nil
		}

		for i := 0; i < v.NumField(); i++ {
			if v.Field(i).Kind() == reflect.Bool {
				return v.Field(i).Bool(), nil
			}
		}
	}

	return false, errors.Errorf("unexpected voters value, %v", v.Type())
}

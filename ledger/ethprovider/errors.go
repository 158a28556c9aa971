package ethprovider

import (
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"

	"github.com/spikeekips/votebox/ledger"
)

// ErrorCodeMethodNotFound is the json-rpc error code of unknown method.
const ErrorCodeMethodNotFound = -32601

func errorCode(err error) (int, bool) {
	var e rpc.Error
	if !errors.As(err, &e) {
		return 0, false
	}

	return e.ErrorCode(), true
}

// walletError maps the wallet error codes to the ledger errors.
func walletError(err error) error {
	if err == nil {
		return nil
	}

	switch code, _ := errorCode(err); code {
	case ledger.ErrorCodeUserRejected:
		return ledger.UserRejectedRequestError.Wrap(err)
	case ledger.ErrorCodeUnknownChain:
		return ledger.UnknownChainError.Wrap(err)
	default:
		return err
	}
}

func isMethodNotFound(err error) bool {
	code, ok := errorCode(err)

	return ok && code == ErrorCodeMethodNotFound
}

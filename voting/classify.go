package voting

import (
	"strings"

	"github.com/pkg/errors"
)

const unknownMessageLimit = 150

type classifyRule struct {
	patterns    []string
	category    Category
	severity    Severity
	message     string
	remediation string
}

// classifyRules is ordered; some messages match more than one rule and the
// first one wins.
var classifyRules = []classifyRule{
	{
		patterns:    []string{"user rejected"},
		category:    CategoryUserRejected,
		severity:    SeverityInfo,
		message:     "Transaction was rejected in your wallet",
		remediation: "You need to confirm the transaction in your wallet to vote.",
	},
	{
		patterns:    []string{"already voted", "has already voted"},
		category:    CategoryAlreadyVoted,
		severity:    SeverityWarning,
		message:     "You have already cast a vote in this election",
		remediation: "You can only vote once in this election.",
	},
	{
		patterns:    []string{"missing revert data"},
		category:    CategoryContractRejected,
		severity:    SeverityError,
		message:     "Transaction was rejected by the contract. You may have already voted or don't have permission to vote",
		remediation: "Check that this account is allowed to vote and has not voted yet.",
	},
	{
		patterns:    []string{"insufficient funds"},
		category:    CategoryInsufficientFunds,
		severity:    SeverityWarning,
		message:     "Your wallet doesn't have enough ETH to cover the transaction fee",
		remediation: "Please add funds to your wallet to cover the transaction fee.",
	},
	{
		patterns:    []string{"nonce"},
		category:    CategoryNonceMismatch,
		severity:    SeverityError,
		message:     "Transaction error: nonce mismatch",
		remediation: "Please refresh and try again.",
	},
	{
		patterns:    []string{"gas limit"},
		category:    CategoryGasEstimationFailed,
		severity:    SeverityError,
		message:     "Transaction failed: gas estimation failed. The contract may have rejected your request",
		remediation: "Please try again or contact support.",
	},
	{
		patterns:    []string{"network", "connection"},
		category:    CategoryNetworkError,
		severity:    SeverityError,
		message:     "Network error: please check your internet connection or try another network",
		remediation: "Check the RPC endpoint and the selected network.",
	},
}

var sentinelRules = []struct {
	err  error
	rule classifyRule
}{
	{err: NoWalletError, rule: classifyRule{
		category:    CategoryNoWallet,
		severity:    SeverityError,
		message:     "No wallet provider found",
		remediation: "Install a wallet or configure a ledger RPC endpoint.",
	}},
	{err: AccountAccessDeniedError, rule: classifyRule{
		category:    CategoryAccountAccessDenied,
		severity:    SeverityWarning,
		message:     "Access to your wallet accounts was denied",
		remediation: "Allow this application to access an account in your wallet.",
	}},
	{err: ContractBindingError, rule: classifyRule{
		category:    CategoryContractBinding,
		severity:    SeverityWarning,
		message:     "Failed to connect to voting contract. Make sure it's deployed correctly.",
		remediation: "Check the configured contract address and network.",
	}},
	{err: NotConnectedError, rule: classifyRule{
		category:    CategoryNotConnected,
		severity:    SeverityError,
		message:     "Wallet not connected properly",
		remediation: "Reconnect your wallet and try again.",
	}},
	{err: SubmissionInProgressError, rule: classifyRule{
		category:    CategorySubmissionInProgress,
		severity:    SeverityInfo,
		message:     "Your vote is already being processed",
		remediation: "Wait for the pending vote to be confirmed.",
	}},
	{err: AlreadyVotedError, rule: classifyRule{
		category:    CategoryAlreadyVoted,
		severity:    SeverityWarning,
		message:     "You have already cast a vote in this election",
		remediation: "You can only vote once in this election.",
	}},
}

// Classify maps a raw failure into a ClassifiedError. It never fails.
func Classify(err error) *ClassifiedError {
	if err == nil {
		return &ClassifiedError{
			Category:    CategoryUnknown,
			Message:     "Unknown error occurred",
			Remediation: "Please try again or contact support.",
			Severity:    SeverityError,
		}
	}

	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}

	for i := range sentinelRules {
		if errors.Is(err, sentinelRules[i].err) {
			return newClassifiedError(sentinelRules[i].rule, err)
		}
	}

	s := err.Error()

	for i := range classifyRules {
		rule := classifyRules[i]

		for j := range rule.patterns {
			if strings.Contains(s, rule.patterns[j]) {
				return newClassifiedError(rule, err)
			}
		}
	}

	return &ClassifiedError{
		Category:    CategoryUnknown,
		Message:     "Transaction failed: " + truncate(s, unknownMessageLimit),
		Remediation: "Please try again or contact support.",
		Severity:    SeverityError,
		err:         err,
	}
}

func newClassifiedError(rule classifyRule, err error) *ClassifiedError {
	return &ClassifiedError{
		Category:    rule.category,
		Message:     rule.message,
		Remediation: rule.remediation,
		Severity:    rule.severity,
		err:         err,
	}
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}

	return string(r[:limit]) + "..."
}

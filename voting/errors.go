package voting

import (
	"github.com/spikeekips/votebox/util"
)

var (
	NoWalletError             = util.NewError("no wallet provider found")
	AccountAccessDeniedError  = util.NewError("account access denied")
	ContractBindingError      = util.NewError("failed to bind voting contract")
	NotConnectedError         = util.NewError("wallet not connected")
	SubmissionInProgressError = util.NewError("vote submission in progress")
	AlreadyVotedError         = util.NewError("account has already voted")
	InvalidTransitionError    = util.NewError("invalid submission state transition")
)

type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

type Category string

const (
	CategoryNoWallet             Category = "NoWalletError"
	CategoryAccountAccessDenied  Category = "AccountAccessDenied"
	CategoryContractBinding      Category = "ContractBindingError"
	CategoryUserRejected         Category = "UserRejected"
	CategoryAlreadyVoted         Category = "AlreadyVoted"
	CategoryContractRejected     Category = "ContractRejected"
	CategoryInsufficientFunds    Category = "InsufficientFunds"
	CategoryNonceMismatch        Category = "NonceMismatch"
	CategoryGasEstimationFailed  Category = "GasEstimationFailed"
	CategoryNetworkError         Category = "NetworkError"
	CategoryNotConnected         Category = "NotConnected"
	CategorySubmissionInProgress Category = "SubmissionInProgress"
	CategoryUnknown              Category = "Unknown"
)

// ClassifiedError is the user facing form of a failure.
type ClassifiedError struct {
	Category    Category `json:"category"`
	Message     string   `json:"message"`
	Remediation string   `json:"remediation"`
	Severity    Severity `json:"severity"`
	err         error
}

func (ce *ClassifiedError) Error() string {
	return ce.Message
}

func (ce *ClassifiedError) Unwrap() error {
	return ce.err
}

func (ce *ClassifiedError) Diagnostic(source string) Diagnostic {
	return Diagnostic{
		Source:   source,
		Severity: ce.Severity,
		Message:  ce.Message,
	}
}

// Diagnostic is reported out of band by the read paths; it never stops them.
type Diagnostic struct {
	Source   string   `json:"source"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

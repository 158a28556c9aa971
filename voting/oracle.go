package voting

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/spikeekips/votebox/util"
	"github.com/spikeekips/votebox/util/logging"
)

type VoteStatusSource string

const (
	VoteStatusSourceNone      VoteStatusSource = ""
	VoteStatusSourceHasVoted  VoteStatusSource = "hasVoted"
	VoteStatusSourceVoters    VoteStatusSource = "voters"
	VoteStatusSourceEvents    VoteStatusSource = "events"
	VoteStatusSourceDefault   VoteStatusSource = "default"
	VoteStatusSourceRejection VoteStatusSource = "rejection"
	VoteStatusSourceSubmitted VoteStatusSource = "submitted"
)

type Confidence string

const (
	ConfidenceAuthoritative Confidence = "authoritative"
	ConfidenceInferred      Confidence = "inferred"
	ConfidenceUnknown       Confidence = "unknown"
)

// VoteStatus tells whether the session account has voted. Source and
// Confidence tell how the answer was found; Voted is interpreted the same way
// regardless of them.
type VoteStatus struct {
	Voted      bool             `json:"voted"`
	Source     VoteStatusSource `json:"source,omitempty"`
	Confidence Confidence       `json:"confidence,omitempty"`
}

func defaultVoteStatus() VoteStatus {
	return VoteStatus{}
}

// Diagnostic returns the diagnostic for the weaker tiers.
func (st VoteStatus) Diagnostic() (Diagnostic, bool) {
	switch st.Confidence {
	case ConfidenceInferred:
		return Diagnostic{
			Source:   "vote-status",
			Severity: SeverityInfo,
			Message:  "vote status was inferred from past Voted events",
		}, true
	case ConfidenceUnknown:
		return Diagnostic{
			Source:   "vote-status",
			Severity: SeverityWarning,
			Message:  "vote status could not be read from the contract; assuming not voted",
		}, true
	default:
		return Diagnostic{}, false
	}
}

// StatusOracle finds whether an account has voted. It never fails; when the
// contract can not answer, the account is assumed not to have voted and the
// contract stays the final judge.
type StatusOracle struct {
	*logging.Logging
}

func NewStatusOracle() *StatusOracle {
	return &StatusOracle{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "voting-oracle")
		}),
	}
}

func (so *StatusOracle) HasAccountVoted(ctx context.Context, session *Session, account common.Address) VoteStatus {
	if session == nil || account == (common.Address{}) {
		return defaultVoteStatus()
	}

	contract := session.Contract()
	if contract == nil {
		return VoteStatus{Source: VoteStatusSourceDefault, Confidence: ConfidenceUnknown}
	}

	l := so.Log().With().Str("account", util.ShortAddress(account.Hex())).Logger()

	// NOTE the first strategy which does not fail wins, whatever it answers.
	st, name, ok := tryStrategies(ctx, &l, []strategy[VoteStatus]{
		{
			name: string(VoteStatusSourceHasVoted),
			f: func(ctx context.Context) (VoteStatus, error) {
				voted, err := contract.HasVoted(ctx, account)

				return VoteStatus{
					Voted:      voted,
					Source:     VoteStatusSourceHasVoted,
					Confidence: ConfidenceAuthoritative,
				}, err
			},
		},
		{
			name: string(VoteStatusSourceVoters),
			f: func(ctx context.Context) (VoteStatus, error) {
				voted, err := contract.Voters(ctx, account)

				return VoteStatus{
					Voted:      voted,
					Source:     VoteStatusSourceVoters,
					Confidence: ConfidenceAuthoritative,
				}, err
			},
		},
		{
			name: string(VoteStatusSourceEvents),
			f: func(ctx context.Context) (VoteStatus, error) {
				n, err := contract.VotedEvents(ctx, account)

				return VoteStatus{
					Voted:      n > 0,
					Source:     VoteStatusSourceEvents,
					Confidence: ConfidenceInferred,
				}, err
			},
		},
	}, nil)
	if !ok {
		l.Warn().Msg("failed to read vote status; assume not voted")

		return VoteStatus{Source: VoteStatusSourceDefault, Confidence: ConfidenceUnknown}
	}

	l.Debug().Str("source", name).Bool("voted", st.Voted).Msg("vote status resolved")

	return st
}

package voting

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/spikeekips/votebox/ledger"
	"github.com/spikeekips/votebox/util"
	"github.com/spikeekips/votebox/util/logging"
)

// DefaultGasLimit is higher than the cost of a vote so the vote does not run
// out of gas.
var DefaultGasLimit uint64 = 200000

type VoteReceipt struct {
	AttemptID   string         `json:"attempt_id"`
	SessionID   string         `json:"session_id"`
	Ordinal     uint64         `json:"ordinal"`
	Account     common.Address `json:"account"`
	TxHash      common.Hash    `json:"tx_hash"`
	BlockNumber *big.Int       `json:"block_number"`
	GasUsed     uint64         `json:"gas_used"`
	// Superseded is true when the session was replaced before the vote was
	// confirmed; the new session state was not touched.
	Superseded bool `json:"superseded"`
}

type VoteSubmitter struct {
	*logging.Logging
	oracle   *StatusOracle
	resolver *CandidateResolver
	gasLimit uint64
	feed     event.Feed
	ctx      context.Context
	cancel   func()
}

func NewVoteSubmitter(oracle *StatusOracle, resolver *CandidateResolver, gasLimit uint64) *VoteSubmitter {
	if gasLimit < 1 {
		gasLimit = DefaultGasLimit
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &VoteSubmitter{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "voting-submitter")
		}),
		oracle:   oracle,
		resolver: resolver,
		gasLimit: gasLimit,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Close stops waiting the votes in flight.
func (vs *VoteSubmitter) Close() {
	vs.cancel()
}

// SubscribePendingVotes delivers every transition of the vote attempts. The
// channel should be buffered; a slow reader blocks the submission.
func (vs *VoteSubmitter) SubscribePendingVotes(ch chan<- PendingVote) event.Subscription {
	return vs.feed.Subscribe(ch)
}

// Submit sends one vote for the session account. Every failure is returned as
// *ClassifiedError.
//
// ctx bounds only the status check before sending. Once the vote is handed to
// the wallet, Submit waits the confirmation until the submitter is closed;
// the transaction may be already broadcast.
func (vs *VoteSubmitter) Submit(ctx context.Context, session *Session, ordinal uint64) (VoteReceipt, error) {
	if session == nil || session.Contract() == nil || !session.HasAccount() {
		return VoteReceipt{}, Classify(NotConnectedError)
	}

	a := newVoteAttempt(session, ordinal, &vs.feed)

	if !session.claim(a) {
		return VoteReceipt{}, Classify(SubmissionInProgressError.Errorf("ordinal=%d", ordinal))
	}

	defer session.release(a)

	l := vs.Log().With().
		Str("session", session.ID()).
		Str("attempt", a.pv.ID).
		Str("account", util.ShortAddress(session.Account().Hex())).
		Uint64("ordinal", ordinal).
		Logger()

	// NOTE the status is read again; the stored one may be stale.
	st := vs.oracle.HasAccountVoted(ctx, session, session.Account())
	_ = session.setVoteStatus(st)

	if st.Voted {
		l.Debug().Str("source", string(st.Source)).Msg("account has already voted; vote not sent")

		return VoteReceipt{}, Classify(AlreadyVotedError.Errorf("source=%s", st.Source))
	}

	sctx, cancel := vs.detach(ctx)
	defer cancel()

	receipt, err := vs.send(sctx, session, a, &l)
	if err != nil {
		return VoteReceipt{}, vs.fail(session, a, err, &l)
	}

	vr := VoteReceipt{
		AttemptID:   a.pv.ID,
		SessionID:   session.ID(),
		Ordinal:     ordinal,
		Account:     session.Account(),
		TxHash:      receipt.TxHash,
		BlockNumber: receipt.BlockNumber,
		GasUsed:     receipt.GasUsed,
	}

	if session.IsSuperseded() {
		vr.Superseded = true

		l.Info().Str("tx", receipt.TxHash.Hex()).Msg("vote confirmed after the session was replaced; result discarded")

		return vr, nil
	}

	_ = session.setVoteStatus(VoteStatus{
		Voted:      true,
		Source:     VoteStatusSourceSubmitted,
		Confidence: ConfidenceAuthoritative,
	})

	if vs.resolver != nil {
		_ = session.setResolution(vs.resolver.Resolve(sctx, session))
	}

	vr.Superseded = session.IsSuperseded()

	l.Info().Str("tx", receipt.TxHash.Hex()).Msg("vote confirmed")

	return vr, nil
}

// detach keeps the values of ctx, but it is canceled only by Close.
func (vs *VoteSubmitter) detach(ctx context.Context) (context.Context, func()) {
	dctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(vs.ctx, cancel)

	return dctx, func() {
		_ = stop()

		cancel()
	}
}

func (vs *VoteSubmitter) send(
	ctx context.Context, session *Session, a *voteAttempt, l *zerolog.Logger,
) (*types.Receipt, error) {
	if err := a.transit(SubmissionAwaitingSignature, nil); err != nil {
		return nil, err
	}

	l.Debug().Msg("sending vote")

	tx, err := session.Contract().Vote(ctx, session.Account(), a.pv.Ordinal, vs.gasLimit)
	if err != nil {
		return nil, err
	}

	h := tx.Hash()

	if err := a.transit(SubmissionAwaitingConfirmation, func(pv *PendingVote) {
		pv.TxHash = &h
	}); err != nil {
		return nil, err
	}

	l.Info().Str("tx", h.Hex()).Msg("vote sent; waiting confirmation")

	receipt, err := session.Contract().WaitMined(ctx, tx)

	switch {
	case err != nil:
		return nil, err
	case receipt == nil:
		return nil, errors.Errorf("empty receipt for %s", h.Hex())
	case receipt.Status != types.ReceiptStatusSuccessful:
		return nil, ledger.TransactionRevertedError.Errorf("tx=%s", h.Hex())
	}

	if err := a.transit(SubmissionConfirmed, nil); err != nil {
		return nil, err
	}

	return receipt, nil
}

// fail classifies the failure. A rejection for a prior vote proves the account
// voted, so the status is corrected.
func (vs *VoteSubmitter) fail(session *Session, a *voteAttempt, err error, l *zerolog.Logger) error {
	ce := Classify(err)

	if a.state().IsInFlight() {
		_ = a.transit(SubmissionFailed, func(pv *PendingVote) {
			pv.Error = ce
		})
	}

	l.Error().Err(err).Str("category", string(ce.Category)).Msg("failed to vote")

	if ce.Category == CategoryAlreadyVoted && !session.IsSuperseded() {
		_ = session.setVoteStatus(VoteStatus{
			Voted:      true,
			Source:     VoteStatusSourceRejection,
			Confidence: ConfidenceAuthoritative,
		})
	}

	return ce
}

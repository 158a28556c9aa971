package voting

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"

	"github.com/spikeekips/votebox/util"
)

type SubmissionState string

const (
	SubmissionIdle                 SubmissionState = "idle"
	SubmissionAwaitingSignature    SubmissionState = "awaiting-signature"
	SubmissionAwaitingConfirmation SubmissionState = "awaiting-confirmation"
	SubmissionConfirmed            SubmissionState = "confirmed"
	SubmissionFailed               SubmissionState = "failed"
)

var submissionTransitions = map[SubmissionState][]SubmissionState{
	SubmissionIdle:                 {SubmissionAwaitingSignature},
	SubmissionAwaitingSignature:    {SubmissionAwaitingConfirmation, SubmissionFailed},
	SubmissionAwaitingConfirmation: {SubmissionConfirmed, SubmissionFailed},
}

func (st SubmissionState) IsTerminal() bool {
	return st == SubmissionConfirmed || st == SubmissionFailed
}

func (st SubmissionState) IsInFlight() bool {
	return st == SubmissionAwaitingSignature || st == SubmissionAwaitingConfirmation
}

func (st SubmissionState) canMoveTo(to SubmissionState) bool {
	for _, i := range submissionTransitions[st] {
		if i == to {
			return true
		}
	}

	return false
}

// PendingVote is the snapshot of one vote attempt.
type PendingVote struct {
	ID        string           `json:"id"`
	SessionID string           `json:"session_id"`
	Ordinal   uint64           `json:"ordinal"`
	Account   common.Address   `json:"account"`
	State     SubmissionState  `json:"state"`
	TxHash    *common.Hash     `json:"tx_hash,omitempty"`
	Error     *ClassifiedError `json:"error,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// voteAttempt is never reused; a new vote always starts a new attempt.
type voteAttempt struct {
	sync.RWMutex
	pv   PendingVote
	feed *event.Feed
}

func newVoteAttempt(session *Session, ordinal uint64, feed *event.Feed) *voteAttempt {
	return &voteAttempt{
		pv: PendingVote{
			ID:        util.ULID().String(),
			SessionID: session.ID(),
			Ordinal:   ordinal,
			Account:   session.Account(),
			State:     SubmissionIdle,
			UpdatedAt: time.Now(),
		},
		feed: feed,
	}
}

func (a *voteAttempt) snapshot() PendingVote {
	a.RLock()
	defer a.RUnlock()

	return a.pv
}

func (a *voteAttempt) state() SubmissionState {
	a.RLock()
	defer a.RUnlock()

	return a.pv.State
}

func (a *voteAttempt) transit(to SubmissionState, f func(*PendingVote)) error {
	a.Lock()

	if !a.pv.State.canMoveTo(to) {
		from := a.pv.State
		a.Unlock()

		return InvalidTransitionError.Errorf("%s -> %s", from, to)
	}

	a.pv.State = to
	a.pv.UpdatedAt = time.Now()

	if f != nil {
		f(&a.pv)
	}

	pv := a.pv
	a.Unlock()

	if a.feed != nil {
		_ = a.feed.Send(pv)
	}

	return nil
}

package httpapi

import (
	"net/http"

	"github.com/spikeekips/votebox/voting"
)

type VoteRequest struct {
	Ordinal *uint64 `json:"ordinal"`
}

type CandidatesResponse struct {
	Candidates  []voting.Candidate     `json:"candidates"`
	Source      voting.CandidateSource `json:"source"`
	TotalVotes  uint64                 `json:"total_votes"`
	Diagnostics []voting.Diagnostic    `json:"diagnostics"`
}

type StatusResponse struct {
	Connected  bool                    `json:"connected"`
	Account    string                  `json:"account,omitempty"`
	Network    voting.Network          `json:"network"`
	VoteStatus voting.VoteStatus       `json:"vote_status"`
	Pending    *voting.PendingVote     `json:"pending,omitempty"`
	Error      *voting.ClassifiedError `json:"error,omitempty"`
}

var categoryStatusCodes = map[voting.Category]int{
	voting.CategoryNoWallet:             http.StatusServiceUnavailable,
	voting.CategoryAccountAccessDenied:  http.StatusForbidden,
	voting.CategoryContractBinding:      http.StatusServiceUnavailable,
	voting.CategoryUserRejected:         http.StatusForbidden,
	voting.CategoryAlreadyVoted:         http.StatusConflict,
	voting.CategoryContractRejected:     http.StatusUnprocessableEntity,
	voting.CategoryInsufficientFunds:    http.StatusPaymentRequired,
	voting.CategoryNonceMismatch:        http.StatusConflict,
	voting.CategoryGasEstimationFailed:  http.StatusUnprocessableEntity,
	voting.CategoryNetworkError:         http.StatusBadGateway,
	voting.CategoryNotConnected:         http.StatusPreconditionFailed,
	voting.CategorySubmissionInProgress: http.StatusConflict,
	voting.CategoryUnknown:              http.StatusInternalServerError,
}

// StatusCode maps the category of error to the http status code.
func StatusCode(ce *voting.ClassifiedError) int {
	if ce == nil {
		return http.StatusInternalServerError
	}

	if i, found := categoryStatusCodes[ce.Category]; found {
		return i
	}

	return http.StatusInternalServerError
}

func (sv *Server) writeClassifiedError(w http.ResponseWriter, err error) {
	ce := voting.Classify(err)

	sv.Log().Debug().Err(err).Str("category", string(ce.Category)).Msg("request failed")

	writeJSON(w, StatusCode(ce), ce)
}

func (sv *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, sv.client.State())
}

func (sv *Server) handleCandidates(w http.ResponseWriter, _ *http.Request) {
	st := sv.client.State()

	writeJSON(w, http.StatusOK, CandidatesResponse{
		Candidates:  st.Candidates,
		Source:      st.Source,
		TotalVotes:  st.TotalVotes,
		Diagnostics: st.Diagnostics,
	})
}

func (sv *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	st := sv.client.State()

	writeJSON(w, http.StatusOK, StatusResponse{
		Connected:  st.Connected,
		Account:    st.Account,
		Network:    st.Network,
		VoteStatus: st.VoteStatus,
		Pending:    st.Pending,
		Error:      st.Error,
	})
}

func (sv *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	var req VoteRequest
	if err := sv.readBody(w, r, &req); err != nil {
		sv.Log().Debug().Err(err).Msg("invalid vote request")

		HTTPError(w, http.StatusBadRequest)

		return
	}

	if req.Ordinal == nil {
		writeJSON(w, http.StatusBadRequest, problem{Message: "empty ordinal"})

		return
	}

	// NOTE the dropped request does not cancel the vote in flight.
	receipt, err := sv.client.Vote(r.Context(), *req.Ordinal)
	if err != nil {
		sv.writeClassifiedError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, receipt)
}

func (sv *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := sv.client.Refresh(r.Context()); err != nil {
		sv.writeClassifiedError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, sv.client.State())
}

// handleSwitchNetwork asks the wallet to switch; the session is rebuilt when
// the chain change is notified.
func (sv *Server) handleSwitchNetwork(w http.ResponseWriter, r *http.Request) {
	if err := sv.client.SwitchNetwork(r.Context()); err != nil {
		sv.writeClassifiedError(w, err)

		return
	}

	writeJSON(w, http.StatusAccepted, sv.client.State())
}

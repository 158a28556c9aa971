package voting

import (
	"math"
	"math/big"
)

// Candidate ordinal is assigned by resolution order. It is the index sent to
// the contract's vote method.
type Candidate struct {
	Ordinal uint64 `json:"ordinal"`
	Name    string `json:"name"`
	Votes   uint64 `json:"votes"`
}

type CandidateSource string

const (
	CandidateSourceNone        CandidateSource = ""
	CandidateSourceBulk        CandidateSource = "getCandidates"
	CandidateSourceCountFetch  CandidateSource = "candidates"
	CandidateSourcePlaceholder CandidateSource = "placeholder"
)

// Resolution is the result of CandidateResolver.Resolve.
type Resolution struct {
	Candidates  []Candidate     `json:"candidates"`
	Source      CandidateSource `json:"source"`
	Diagnostics []Diagnostic    `json:"diagnostics,omitempty"`
}

var placeholderNames = []string{"Alice", "Bob", "Charlie", "David", "Eve"}

// PlaceholderCandidates are shown when no live data could be loaded.
func PlaceholderCandidates() []Candidate {
	cs := make([]Candidate, len(placeholderNames))
	for i := range placeholderNames {
		cs[i] = Candidate{Ordinal: uint64(i), Name: placeholderNames[i]}
	}

	return cs
}

func TotalVotes(cs []Candidate) uint64 {
	var total uint64
	for i := range cs {
		total += cs[i].Votes
	}

	return total
}

func copyCandidates(cs []Candidate) []Candidate {
	if cs == nil {
		return nil
	}

	n := make([]Candidate, len(cs))
	copy(n, cs)

	return n
}

func votesFromBig(b *big.Int) uint64 {
	switch {
	case b == nil, b.Sign() < 0:
		return 0
	case !b.IsUint64():
		return math.MaxUint64
	default:
		return b.Uint64()
	}
}

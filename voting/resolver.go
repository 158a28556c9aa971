package voting

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/spikeekips/votebox/ledger"
	"github.com/spikeekips/votebox/util"
	"github.com/spikeekips/votebox/util/cache"
	"github.com/spikeekips/votebox/util/logging"
)

var (
	DefaultFetchConcurrency int64  = 4
	MaxFetchCandidates      uint64 = 256
)

type ResolverConfig struct {
	// FetchConcurrency limits the concurrent calls of count-then-fetch.
	FetchConcurrency int64
	// CodeCache keeps the result of the contract code probe.
	CodeCache cache.Cache
}

// CandidateResolver loads the candidate list. It never fails; it falls back to
// the placeholder candidates and reports why by diagnostics.
type CandidateResolver struct {
	*logging.Logging
	provider    ledger.Provider
	concurrency int64
	codeCache   cache.Cache
}

func NewCandidateResolver(provider ledger.Provider, config ResolverConfig) *CandidateResolver {
	concurrency := config.FetchConcurrency
	if concurrency < 1 {
		concurrency = DefaultFetchConcurrency
	}

	codeCache := config.CodeCache
	if codeCache == nil {
		codeCache = cache.Dummy{}
	}

	return &CandidateResolver{
		Logging: logging.NewLogging(func(c zerolog.Context) zerolog.Context {
			return c.Str("module", "voting-resolver")
		}),
		provider:    provider,
		concurrency: concurrency,
		codeCache:   codeCache,
	}
}

func (cr *CandidateResolver) Resolve(ctx context.Context, session *Session) Resolution {
	if session == nil || session.Contract() == nil {
		return Resolution{
			Candidates: []Candidate{},
			Diagnostics: []Diagnostic{{
				Source:   "candidates",
				Severity: SeverityWarning,
				Message:  "voting contract is not bound; no candidates to load",
			}},
		}
	}

	contract := session.Contract()

	cs, name, ok := tryStrategies(ctx, cr.Log(), []strategy[[]Candidate]{
		{name: string(CandidateSourceBulk), f: func(ctx context.Context) ([]Candidate, error) {
			return cr.bulk(ctx, contract)
		}},
		{name: string(CandidateSourceCountFetch), f: func(ctx context.Context) ([]Candidate, error) {
			return cr.countThenFetch(ctx, contract)
		}},
	}, func(cs []Candidate) bool {
		return len(cs) > 0
	})
	if ok {
		cr.Log().Debug().Str("source", name).Int("candidates", len(cs)).Msg("candidates resolved")

		return Resolution{Candidates: cs, Source: CandidateSource(name)}
	}

	diags := []Diagnostic{cr.probe(ctx, session)}
	diags = append(diags, Diagnostic{
		Source:   "candidates",
		Severity: SeverityWarning,
		Message:  "failed to load candidates from the blockchain; showing example candidates",
	})

	cr.Log().Warn().Interface("diagnostics", diags).Msg("failed to resolve candidates; use placeholder")

	return Resolution{
		Candidates:  PlaceholderCandidates(),
		Source:      CandidateSourcePlaceholder,
		Diagnostics: diags,
	}
}

func (*CandidateResolver) bulk(ctx context.Context, contract ledger.Contract) ([]Candidate, error) {
	records, err := contract.GetCandidates(ctx)
	if err != nil {
		return nil, err
	}

	cs := make([]Candidate, len(records))

	for i := range records {
		if len(records[i].Name) < 1 {
			return nil, errors.Errorf("malformed candidate at %d; empty name", i)
		}

		cs[i] = Candidate{
			Ordinal: uint64(i),
			Name:    records[i].Name,
			Votes:   votesFromBig(records[i].VoteCount),
		}
	}

	return cs, nil
}

// countThenFetch skips the candidates which could not be fetched; the fetched
// ones keep their ordinal.
func (cr *CandidateResolver) countThenFetch(ctx context.Context, contract ledger.Contract) ([]Candidate, error) {
	count, err := contract.GetCandidatesCount(ctx)
	if err != nil {
		return nil, err
	}

	if count > MaxFetchCandidates {
		cr.Log().Warn().Uint64("count", count).Uint64("max", MaxFetchCandidates).
			Msg("too many candidates; fetch only the first ones")

		count = MaxFetchCandidates
	}

	var lock sync.Mutex
	cs := make([]Candidate, 0, count)

	sem := semaphore.NewWeighted(cr.concurrency)
	eg, ectx := errgroup.WithContext(ctx)

	for i := uint64(0); i < count; i++ {
		if err := sem.Acquire(ectx, 1); err != nil {
			break
		}

		eg.Go(func() error {
			defer sem.Release(1)

			r, err := contract.Candidate(ectx, i)
			if err != nil {
				cr.Log().Debug().Err(err).Uint64("ordinal", i).Msg("failed to fetch candidate; skipped")

				return nil
			}

			name := r.Name
			if len(name) < 1 {
				name = fmt.Sprintf("Candidate %d", i+1)
			}

			lock.Lock()
			cs = append(cs, Candidate{Ordinal: i, Name: name, Votes: votesFromBig(r.VoteCount)})
			lock.Unlock()

			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(cs, func(i, j int) bool {
		return cs[i].Ordinal < cs[j].Ordinal
	})

	return cs, nil
}

// probe checks whether any code is deployed at the contract address, so the
// diagnostic can tell a wrong address from an empty contract.
func (cr *CandidateResolver) probe(ctx context.Context, session *Session) Diagnostic {
	address := session.Contract().Address()
	key := fmt.Sprintf("%s/%s", session.Network().ChainID, address.Hex())

	var deployed bool

	switch i, err := cr.codeCache.Get(key); {
	case err == nil:
		deployed, _ = i.(bool)
	case cr.provider == nil:
		return Diagnostic{
			Source:   "contract-code",
			Severity: SeverityWarning,
			Message:  "no provider to check the contract code",
		}
	default:
		code, err := cr.provider.CodeAt(ctx, address)
		if err != nil {
			cr.Log().Debug().Err(err).Msg("failed to probe contract code")

			return Diagnostic{
				Source:   "contract-code",
				Severity: SeverityWarning,
				Message:  fmt.Sprintf("failed to check the contract code at %s: %v", address.Hex(), err),
			}
		}

		deployed = len(code) > 0

		_ = cr.codeCache.Set(key, deployed, 0)
	}

	if !deployed {
		return Diagnostic{
			Source:   "contract-code",
			Severity: SeverityError,
			Message: fmt.Sprintf("no contract deployed at %s on %s; check the contract address and the network",
				util.ShortAddress(address.Hex()), session.Network().Name),
		}
	}

	return Diagnostic{
		Source:   "contract-code",
		Severity: SeverityWarning,
		Message: fmt.Sprintf("contract at %s has no candidates or does not expose a known candidate method",
			util.ShortAddress(address.Hex())),
	}
}

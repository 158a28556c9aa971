package config

import (
	"net"
	"net/url"

	"github.com/pkg/errors"
	"github.com/ulule/limiter/v3"
)

var (
	DefaultAPIBind        = "127.0.0.1:54320"
	DefaultVoteRate       = "6-M"
	DefaultRateLimitStore = "memory://"
)

type API struct {
	bind           string
	voteRate       limiter.Rate
	voteRateString string
	rateLimitStore *url.URL
}

func DefaultAPI() *API {
	rate, _ := limiter.NewRateFromFormatted(DefaultVoteRate)
	u, _ := url.Parse(DefaultRateLimitStore)

	return &API{
		bind:           DefaultAPIBind,
		voteRate:       rate,
		voteRateString: DefaultVoteRate,
		rateLimitStore: u,
	}
}

func (no API) Bind() string {
	return no.bind
}

func (no *API) SetBind(s string) error {
	if _, _, err := net.SplitHostPort(s); err != nil {
		return errors.Wrapf(err, "invalid bind, %q", s)
	}

	no.bind = s

	return nil
}

// VoteRate limits the vote requests per client ip. The format is the one of
// ulule/limiter, like "6-M".
func (no API) VoteRate() limiter.Rate {
	return no.voteRate
}

func (no API) VoteRateString() string {
	return no.voteRateString
}

func (no *API) SetVoteRate(s string) error {
	rate, err := limiter.NewRateFromFormatted(s)
	if err != nil {
		return errors.Wrapf(err, "invalid vote rate, %q", s)
	}

	no.voteRate = rate
	no.voteRateString = s

	return nil
}

func (no API) RateLimitStore() *url.URL {
	return no.rateLimitStore
}

func (no *API) SetRateLimitStore(s string) error {
	u, err := url.Parse(s)
	if err != nil {
		return errors.Wrapf(err, "invalid rate limit store, %q", s)
	}

	switch u.Scheme {
	case "memory", "redis":
	default:
		return errors.Errorf("unsupported rate limit store, %q", s)
	}

	no.rateLimitStore = u

	return nil
}

func (no API) IsValid([]byte) error {
	if len(no.bind) < 1 {
		return errors.Errorf("empty bind")
	}

	if no.voteRate.Limit < 1 || no.voteRate.Period < 1 {
		return errors.Errorf("empty vote rate")
	}

	if no.rateLimitStore == nil {
		return errors.Errorf("empty rate limit store")
	}

	return nil
}

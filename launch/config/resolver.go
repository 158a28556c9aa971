package config

import (
	"net/url"

	"github.com/pkg/errors"

	"github.com/spikeekips/votebox/util/cache"
)

var (
	DefaultFetchConcurrency int64 = 4
	DefaultCodeCache              = "gcache://?type=lru&size=64&expire=30s"
)

type Resolver struct {
	fetchConcurrency int64
	codeCache        *url.URL
}

func DefaultResolver() *Resolver {
	u, _ := url.Parse(DefaultCodeCache)

	return &Resolver{
		fetchConcurrency: DefaultFetchConcurrency,
		codeCache:        u,
	}
}

func (no Resolver) FetchConcurrency() int64 {
	return no.fetchConcurrency
}

func (no *Resolver) SetFetchConcurrency(i int64) error {
	if i < 1 {
		return errors.Errorf("fetch concurrency should be over zero, %d", i)
	}

	no.fetchConcurrency = i

	return nil
}

func (no Resolver) CodeCache() *url.URL {
	return no.codeCache
}

func (no *Resolver) SetCodeCache(s string) error {
	if _, err := cache.NewCacheFromURI(s); err != nil {
		return err
	}

	u, err := url.Parse(s)
	if err != nil {
		return errors.Wrapf(err, "invalid code cache, %q", s)
	}

	no.codeCache = u

	return nil
}

func (no Resolver) IsValid([]byte) error {
	if no.fetchConcurrency < 1 {
		return errors.Errorf("empty fetch concurrency")
	}

	if no.codeCache == nil {
		return errors.Errorf("empty code cache")
	}

	return nil
}

package httpapi

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	libredis "github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limitermemory "github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

var (
	DefaultRateLimitCleanUpInterval = time.Hour
	DefaultRateLimitPrefix          = "votebox:limiter"
)

// RateLimitStoreFromURI supports "memory://" and "redis://". The "prefix"
// query sets the key prefix; "cleanup-interval" is for memory store, like
// "memory://?cleanup-interval=10m".
func RateLimitStoreFromURI(u *url.URL) (limiter.Store, error) {
	if u == nil {
		return nil, errors.Errorf("empty rate limit store uri")
	}

	prefix := DefaultRateLimitPrefix
	if i := u.Query().Get("prefix"); len(i) > 0 {
		prefix = i
	}

	switch u.Scheme {
	case "memory":
		i, err := newMemoryRateLimitStore(u, prefix)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create rate limit memory store")
		}

		return i, nil
	case "redis":
		i, err := newRedisRateLimitStore(u, prefix)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create rate limit redis store")
		}

		return i, nil
	default:
		return nil, errors.Errorf("unsupported rate limit store, %q", u.String())
	}
}

func newMemoryRateLimitStore(u *url.URL, prefix string) (limiter.Store, error) {
	cleanup := DefaultRateLimitCleanUpInterval
	if i := u.Query().Get("cleanup-interval"); len(i) > 0 {
		d, err := time.ParseDuration(i)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid cleanup interval, %q", i)
		}

		cleanup = d
	}

	return limitermemory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          prefix,
		CleanUpInterval: cleanup,
	}), nil
}

func newRedisRateLimitStore(u *url.URL, prefix string) (limiter.Store, error) {
	q := u.Query()
	q.Del("prefix")

	ru := *u
	ru.RawQuery = q.Encode()

	opts, err := libredis.ParseURL(ru.String())
	if err != nil {
		return nil, err
	}

	return limiterredis.NewStoreWithOptions(libredis.NewClient(opts), limiter.StoreOptions{
		Prefix: prefix,
	})
}

// RateLimitMiddleware limits the requests per client ip.
type RateLimitMiddleware struct {
	rate  limiter.Rate
	store limiter.Store
}

func NewRateLimitMiddleware(rate limiter.Rate, store limiter.Store) *RateLimitMiddleware {
	if store == nil {
		store = limitermemory.NewStoreWithOptions(limiter.StoreOptions{CleanUpInterval: DefaultRateLimitCleanUpInterval})
	}

	return &RateLimitMiddleware{rate: rate, store: store}
}

func (mw *RateLimitMiddleware) limit(w http.ResponseWriter, r *http.Request) bool {
	rate := mw.rate
	if rate.Limit < 0 { // NOTE nolimit
		w.Header().Add("X-RateLimit-Limit", "unlimited")

		return false
	} else if rate.Limit < 1 || rate.Period < 1 { // NOTE block all requests
		HTTPError(w, http.StatusTooManyRequests)

		return true
	}

	ip := limiter.GetIP(r, limiter.Options{TrustForwardHeader: true})

	rctx, err := mw.store.Get(r.Context(), ip.String(), rate)
	if err != nil {
		return false
	}

	w.Header().Add("X-RateLimit-Limit", strconv.FormatInt(rctx.Limit, 10))
	w.Header().Add("X-RateLimit-Remaining", strconv.FormatInt(rctx.Remaining, 10))
	w.Header().Add("X-RateLimit-Reset", strconv.FormatInt(rctx.Reset, 10))

	if rctx.Reached {
		stdlib.DefaultLimitReachedHandler(w, r)

		return true
	}

	return false
}

func (mw *RateLimitMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if mw.limit(w, r) {
			return
		}

		next.ServeHTTP(w, r)
	})
}

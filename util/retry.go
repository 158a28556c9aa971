package util

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var StopRetryingError = NewError("stop retrying")

// Retry calls callback until it succeeds, max tries are exhausted or the
// context is done. If max is 0, it retries forever.
func Retry(ctx context.Context, max uint, interval time.Duration, callback func(int) error) error {
	var err error
	var tried int

	for {
		if max > 0 && uint(tried) == max {
			break
		}

		if err = callback(tried); err == nil {
			return nil
		} else if errors.Is(err, StopRetryingError) {
			return err
		}

		tried++

		if interval < 1 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}

	return err
}

// ShortAddress formats long hex strings like 0x1234...abcd.
func ShortAddress(s string) string {
	if len(s) < 12 {
		return s
	}

	return s[:6] + "..." + s[len(s)-4:]
}

package util

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type testLockedItem struct {
	suite.Suite
}

func (t *testLockedItem) TestSetValue() {
	li := NewLockedItem(false)
	t.False(li.Value())

	_ = li.Set(true)
	t.True(li.Value())
}

func (t *testLockedItem) TestUpdate() {
	li := NewLockedItem(true)

	v := li.Update(func(old bool) (bool, bool) {
		if old {
			return false, false
		}

		return true, true
	})
	t.True(v)

	var wg sync.WaitGroup
	ci := NewLockedItem(0)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_ = ci.Update(func(old int) (int, bool) { return old + 1, true })
		}()
	}
	wg.Wait()

	t.Equal(10, ci.Value())
}

func TestLockedItem(t *testing.T) {
	suite.Run(t, new(testLockedItem))
}

type testRetry struct {
	suite.Suite
}

func (t *testRetry) TestSuccessAfterFailures() {
	var called int
	err := Retry(context.Background(), 3, time.Millisecond, func(i int) error {
		called++
		if i < 2 {
			return errors.New("not yet")
		}

		return nil
	})
	t.NoError(err)
	t.Equal(3, called)
}

func (t *testRetry) TestExhausted() {
	err := Retry(context.Background(), 2, 0, func(int) error {
		return errors.New("always")
	})
	t.Error(err)
	t.Contains(err.Error(), "always")
}

func (t *testRetry) TestStop() {
	var called int
	err := Retry(context.Background(), 0, 0, func(int) error {
		called++

		return StopRetryingError.Errorf("give up")
	})
	t.True(errors.Is(err, StopRetryingError))
	t.Equal(1, called)
}

func (t *testRetry) TestContextDone() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 0, time.Second, func(int) error {
		return errors.New("failed")
	})
	t.True(errors.Is(err, context.Canceled))
}

func (t *testRetry) TestShortAddress() {
	t.Equal("0x8eAE...a1fe", ShortAddress("0x8eAEFd58fE0409212cEf256936A0FA2a3006a1fe"))
	t.Equal("0x12", ShortAddress("0x12"))
}

func TestRetry(t *testing.T) {
	suite.Run(t, new(testRetry))
}

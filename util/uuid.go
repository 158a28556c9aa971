package util

import (
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid"
	uuid "github.com/satori/go.uuid"
)

var (
	ulidLock    sync.Mutex
	ulidEntropy io.Reader = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0) // nolint:gosec
)

func UUID() uuid.UUID {
	return uuid.Must(uuid.NewV4(), nil)
}

// ULID is sortable by the creation time; the ones created in the same
// millisecond are still ordered.
func ULID() ulid.ULID {
	ulidLock.Lock()
	defer ulidLock.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidEntropy)
}

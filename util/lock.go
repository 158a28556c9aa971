package util

import "sync"

// LockedItem guards a value which is only replaced as a whole.
type LockedItem[T any] struct {
	sync.RWMutex
	value T
}

func NewLockedItem[T any](defaultValue T) *LockedItem[T] {
	return &LockedItem[T]{value: defaultValue}
}

func (li *LockedItem[T]) Value() T {
	li.RLock()
	defer li.RUnlock()

	return li.value
}

func (li *LockedItem[T]) Set(value T) *LockedItem[T] {
	li.Lock()
	defer li.Unlock()

	li.value = value

	return li
}

// Update replaces the value with the result of f. If f returns false, the
// value is kept.
func (li *LockedItem[T]) Update(f func(T) (T, bool)) T {
	li.Lock()
	defer li.Unlock()

	if i, ok := f(li.value); ok {
		li.value = i
	}

	return li.value
}

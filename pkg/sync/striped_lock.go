package sync

import (
	"fmt"
	base "sync"
)

const (
	hashEntriesPerLock = 200
)

// StripedLock is a partitioned locking mechanism that consistently maps a key
// space to a set of locks. This provides concurrent data access while also
// limiting the total memory footprint.
type StripedLock struct {
	locks    []base.Mutex
	hashRing *ring[int]
}

// NewStripedLock returns a new StripedLock with a static number of stripes.
func NewStripedLock(stripes uint) *StripedLock {
	return NewStripedLockGroup(stripes, 1)[0]
}

// NewStripedLockGroup returns groupSize independent StripedLocks that share a
// single hash ring, for callers that lock several key spaces with the same
// parallelism. A key maps to the same stripe index in every lock of the group.
func NewStripedLockGroup(stripes, groupSize uint) []*StripedLock {
	if stripes == 0 {
		stripes = 1
	}

	ringEntries := make(map[string]int, stripes)
	for i := 0; i < int(stripes); i++ {
		ringEntries[fmt.Sprintf("lock%d", i)] = i
	}
	hashRing := newRing(ringEntries, hashEntriesPerLock)

	group := make([]*StripedLock, groupSize)
	for i := range group {
		group[i] = &StripedLock{
			locks:    make([]base.Mutex, stripes),
			hashRing: hashRing,
		}
	}
	return group
}

// Get gets the lock for a key
func (l *StripedLock) Get(key []byte) *base.Mutex {
	return &l.locks[l.stripe(key)]
}

// Lock acquires the lock for key and returns its release func
func (l *StripedLock) Lock(key []byte) func() {
	mu := l.Get(key)
	mu.Lock()
	return mu.Unlock
}

func (l *StripedLock) stripe(key []byte) int {
	return l.hashRing.shard(key)
}

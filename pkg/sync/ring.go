package sync

import (
	"encoding/binary"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// ring is a consistent hash ring over values of type T
type ring[T any] struct {
	points *treemap.Map

	// Cached, since treemap.Map.Min() is O(log n). Keys hashing past the
	// last point wrap around to it.
	first T
}

// newRing places replicas points on the ring for every named entry
func newRing[T any](entries map[string]T, replicas uint) *ring[T] {
	points := treemap.NewWith(utils.Int64Comparator)
	for name, value := range entries {
		nameHash, _ := murmur3.Sum128([]byte(name))

		var seed [12]byte
		binary.LittleEndian.PutUint64(seed[:8], nameHash)
		for i := uint(0); i < replicas; i++ {
			binary.LittleEndian.PutUint32(seed[8:], uint32(i))
			points.Put(hashKey(seed[:]), value)
		}
	}

	r := &ring[T]{points: points}
	if _, first := points.Min(); first != nil {
		r.first = first.(T)
	}
	return r
}

// shard consistently maps key to one of the ring's values
func (r *ring[T]) shard(key []byte) T {
	_, value := r.points.Ceiling(hashKey(key))
	if value == nil {
		return r.first
	}
	return value.(T)
}

func hashKey(key []byte) int64 {
	hash, _ := murmur3.Sum128(key)
	return int64(hash)
}

package cache

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	ErrKeyExists       = errors.New("key already exists in cache")
	ErrExceedsBudget   = errors.New("item weight exceeds cache budget")
	ErrNonPositiveCost = errors.New("item weight must be positive")
)

// Cache is a weighted LRU cache. Inserting beyond the budget evicts the least
// recently used entries until the total weight fits again.
type Cache[V any] interface {
	SetVerbose(verbose bool)
	GetWeight() int
	GetBudget() int
	Insert(key string, value V, weight int) error
	Retrieve(key string) (V, bool)
	Len() int
	Clear()
}

type cacheNode[V any] struct {
	next   *cacheNode[V]
	prev   *cacheNode[V]
	key    string
	value  V
	weight int
}

type cache[V any] struct {
	log *logrus.Entry

	mu      sync.Mutex
	head    *cacheNode[V] // most recently used
	tail    *cacheNode[V] // least recently used
	lookup  map[string]*cacheNode[V]
	weight  int
	budget  int
	verbose bool
}

// NewCache returns an empty cache that holds at most budget total weight
func NewCache[V any](name string, budget int) Cache[V] {
	return &cache[V]{
		log:    logrus.StandardLogger().WithFields(logrus.Fields{"type": "cache", "cache": name}),
		lookup: make(map[string]*cacheNode[V]),
		budget: budget,
	}
}

func (c *cache[V]) SetVerbose(verbose bool) {
	c.mu.Lock()
	c.verbose = verbose
	c.mu.Unlock()
}

func (c *cache[V]) GetWeight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.weight
}

func (c *cache[V]) GetBudget() int {
	return c.budget
}

func (c *cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lookup)
}

// Insert adds a new entry. Existing keys are never overwritten.
func (c *cache[V]) Insert(key string, value V, weight int) error {
	if weight <= 0 {
		return ErrNonPositiveCost
	}
	if weight > c.budget {
		return ErrExceedsBudget
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, found := c.lookup[key]; found {
		return ErrKeyExists
	}

	node := &cacheNode[V]{
		key:    key,
		value:  value,
		weight: weight,
	}
	c.pushFront(node)
	c.lookup[key] = node
	c.weight += weight

	for c.weight > c.budget && c.tail != nil {
		evicted := c.tail
		c.unlink(evicted)
		delete(c.lookup, evicted.key)
		c.weight -= evicted.weight

		if c.verbose {
			c.log.WithFields(logrus.Fields{
				"key":          evicted.key,
				"weight":       evicted.weight,
				"spare_weight": c.budget - c.weight,
			}).Debug("evicted cache entry")
		}
	}

	return nil
}

// Retrieve returns the entry for key and marks it as recently used
func (c *cache[V]) Retrieve(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, found := c.lookup[key]
	if !found {
		var zero V
		return zero, false
	}

	if node != c.head {
		c.unlink(node)
		c.pushFront(node)
	}

	return node.value, true
}

func (c *cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.head = nil
	c.tail = nil
	c.lookup = make(map[string]*cacheNode[V])
	c.weight = 0
}

func (c *cache[V]) pushFront(node *cacheNode[V]) {
	node.prev = nil
	node.next = c.head
	if c.head != nil {
		c.head.prev = node
	}
	c.head = node
	if c.tail == nil {
		c.tail = node
	}
}

func (c *cache[V]) unlink(node *cacheNode[V]) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		c.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		c.tail = node.prev
	}
	node.next = nil
	node.prev = nil
}

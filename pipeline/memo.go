package pipeline

import (
	"container/list"
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"

	"github.com/spektr-org/carbonlens/engine"
)

// CacheObserver receives memo lookups.
type CacheObserver interface {
	CacheHit()
	CacheMiss()
}

// DefaultMemoEntries bounds the memo when no capacity is configured.
const DefaultMemoEntries = 1024

// memo holds computed views until the record set is replaced. A key already
// names every input of its view, so entries never go stale; they are only
// evicted least recently used once capacity is reached.
type memo[T any] struct {
	mu    sync.Mutex
	cap   int
	order *list.List
	m     map[string]*list.Element
	obs   CacheObserver
}

type memoEntry[T any] struct {
	key string
	val T
}

func newMemo[T any](capacity int, obs CacheObserver) *memo[T] {
	if capacity <= 0 {
		capacity = DefaultMemoEntries
	}
	return &memo[T]{cap: capacity, order: list.New(), m: make(map[string]*list.Element), obs: obs}
}

func (c *memo[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	var v T
	el, ok := c.m[key]
	if ok {
		c.order.MoveToFront(el)
		v = el.Value.(*memoEntry[T]).val
	}
	c.mu.Unlock()
	if c.obs != nil {
		if ok {
			c.obs.CacheHit()
		} else {
			c.obs.CacheMiss()
		}
	}
	return v, ok
}

func (c *memo[T]) Set(key string, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.m[key]; ok {
		el.Value.(*memoEntry[T]).val = v
		c.order.MoveToFront(el)
		return
	}
	c.m[key] = c.order.PushFront(&memoEntry[T]{key: key, val: v})
	for c.order.Len() > c.cap {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.m, oldest.Value.(*memoEntry[T]).key)
	}
}

func (c *memo[T]) Reset() {
	c.mu.Lock()
	c.order.Init()
	c.m = make(map[string]*list.Element)
	c.mu.Unlock()
}

func (c *memo[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

// viewKey identifies one computed view. Facets ignore the selection so a
// selection change never invalidates them.
func viewKey(version uint64, view engine.ViewName, sel engine.Selection) string {
	if !view.DependsOnSelection() {
		return makeKey("view", strconv.FormatUint(version, 10), string(view))
	}
	return makeKey("view", strconv.FormatUint(version, 10), string(view), sel.Key())
}

func makeKey(parts ...string) string {
	joined := strings.Join(parts, "|")
	h := sha1.Sum([]byte(joined))
	return hex.EncodeToString(h[:])
}

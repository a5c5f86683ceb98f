package mathflow

import (
	"container/list"
	"crypto/rand"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/njchilds90/mathflow/codec"
)

// cacheKey is a keyed BLAKE3 digest of a deterministically encoded Request.
type cacheKey [32]byte

// cache is a bounded LRU of successful responses.
type cache struct {
	mu      sync.Mutex
	size    int
	ll      *list.List
	entries map[cacheKey]*list.Element

	hashKey [32]byte
}

type entry struct {
	key  cacheKey
	resp *Response
}

func newCache(size int) *cache {
	c := &cache{size: size, ll: list.New(), entries: make(map[cacheKey]*list.Element)}
	if _, err := rand.Read(c.hashKey[:]); err != nil {
		panic("mathflow: reading cache key: " + err.Error())
	}
	return c
}

func (c *cache) key(req *Request) (cacheKey, error) {
	var k cacheKey
	data, err := codec.Marshal(req)
	if err != nil {
		return k, err
	}
	h, err := blake3.NewKeyed(c.hashKey[:])
	if err != nil {
		return k, err
	}
	h.Write(data)
	h.Sum(k[:0])
	return k, nil
}

func (c *cache) get(k cacheKey) (*Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[k]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*entry).resp.clone(), true
}

func (c *cache) put(k cacheKey, resp *Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[k]; ok {
		c.ll.MoveToFront(el)
		el.Value.(*entry).resp = resp.clone()
		return
	}
	c.entries[k] = c.ll.PushFront(&entry{key: k, resp: resp.clone()})
	for c.ll.Len() > c.size {
		last := c.ll.Back()
		c.ll.Remove(last)
		delete(c.entries, last.Value.(*entry).key)
	}
}

func (c *cache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

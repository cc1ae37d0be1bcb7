package pagestore

import (
	"github.com/dgraph-io/ristretto/v2"
)

// CachedStore wraps any Store with a read-through page cache backed by
// github.com/dgraph-io/ristretto/v2.
//
// Only whole-page reads are cached: a Read of exactly one page-aligned
// page is served from (and populates) the cache; any multi-page,
// sub-page or unaligned request bypasses it. Every Write invalidates the page(s) it
// touches before falling through to the underlying Store, so a cache hit
// can never observe stale bytes.
type CachedStore struct {
	inner Store
	cache *ristretto.Cache[PageID, []byte]
}

// NewCachedStore wraps inner with a ristretto-backed page cache sized to
// hold roughly maxPages pages.
func NewCachedStore(inner Store, maxPages int64) (*CachedStore, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[PageID, []byte]{
		NumCounters: maxPages * 10,
		MaxCost:     maxPages * PageSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &CachedStore{inner: inner, cache: cache}, nil
}

func (c *CachedStore) Size() int64       { return c.inner.Size() }
func (c *CachedStore) PageCount() uint64 { return c.inner.PageCount() }

func (c *CachedStore) Grow(pages uint64) (uint64, error) {
	return c.inner.Grow(pages)
}

func (c *CachedStore) Read(offset int64, buf []byte) error {
	pid, ok := wholePage(offset, len(buf))
	if !ok {
		return c.inner.Read(offset, buf)
	}
	if cached, found := c.cache.Get(pid); found {
		copy(buf, cached)
		return nil
	}
	if err := c.inner.Read(offset, buf); err != nil {
		return err
	}
	page := append([]byte(nil), buf...)
	c.cache.Set(pid, page, PageSize)
	c.cache.Wait()
	return nil
}

func (c *CachedStore) Write(offset int64, buf []byte) error {
	if pid, ok := wholePage(offset, len(buf)); ok {
		c.cache.Del(pid)
	} else {
		// invalidate every page the write touches
		start := PageID(offset / PageSize)
		end := PageID((offset + int64(len(buf)) - 1) / PageSize)
		for p := start; p <= end; p++ {
			c.cache.Del(p)
		}
	}
	return c.inner.Write(offset, buf)
}

// Close releases the cache's background resources.
func (c *CachedStore) Close() { c.cache.Close() }

func wholePage(offset int64, n int) (PageID, bool) {
	if offset%PageSize != 0 || n != PageSize {
		return 0, false
	}
	return PageID(offset / PageSize), true
}

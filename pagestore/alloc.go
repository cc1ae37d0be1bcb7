package pagestore

// Allocator hands out fresh pages from a Store on demand. Page 0 and
// page 1 are reserved; callers needing the reserved pages address them
// directly by PageID without going through Allocator.
type Allocator struct {
	store Store
}

// NewAllocator wraps a Store, ensuring the two reserved pages (0 and 1)
// exist.
func NewAllocator(store Store) (*Allocator, error) {
	if store.PageCount() < 2 {
		if _, err := store.Grow(2 - store.PageCount()); err != nil {
			return nil, err
		}
	}
	return &Allocator{store: store}, nil
}

// NewPage grows the store by one page and returns its id.
func (a *Allocator) NewPage() (PageID, error) {
	prior, err := a.store.Grow(1)
	if err != nil {
		return 0, err
	}
	return PageID(prior), nil
}

// Store exposes the wrapped Store for direct page-0/page-1 access.
func (a *Allocator) Store() Store { return a.store }

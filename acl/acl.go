// Package acl implements the AclGate:
// the list of principals allowed to call into the database, persisted
// in page 1 as `u32 count` followed by `count` `{u8 len, len bytes}`
// entries.
//
// Grounded on registry.Registry's page-0 load/flush shape, reworked from
// a fingerprint table into a flat principal set.
package acl

import (
	"encoding/binary"

	"icdb/dberr"
	"icdb/pagestore"
)

const (
	aclPage    = pagestore.PageID(1)
	headerSize = 4 // u32 count
	maxNameLen = 255
)

// Gate owns page 1 of the store: the set of principals allowed to call
// the database.
type Gate struct {
	store      pagestore.Store
	principals map[string]struct{}
	order      []string // insertion order, for a stable acl_list()
}

// Load reads page 1 and returns a Gate. An all-zero page (freshly grown)
// is treated as an empty ACL.
func Load(store pagestore.Store) (*Gate, error) {
	buf := make([]byte, pagestore.PageSize)
	if err := store.Read(pagestore.PageOffset(aclPage), buf); err != nil {
		return nil, err
	}
	g := &Gate{store: store, principals: make(map[string]struct{})}
	count := binary.LittleEndian.Uint32(buf[0:4])
	off := headerSize
	for i := uint32(0); i < count; i++ {
		if off+1 > len(buf) {
			return nil, dberr.New(dberr.CorruptedStore, "acl page truncated reading entry %d length", i)
		}
		n := int(buf[off])
		off++
		if off+n > len(buf) {
			return nil, dberr.New(dberr.CorruptedStore, "acl page truncated reading entry %d body", i)
		}
		name := string(buf[off : off+n])
		off += n
		if _, dup := g.principals[name]; !dup {
			g.order = append(g.order, name)
		}
		g.principals[name] = struct{}{}
	}
	return g, nil
}

func (g *Gate) flush() error {
	buf := make([]byte, pagestore.PageSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(g.order)))
	off := headerSize
	for _, name := range g.order {
		if off+1+len(name) > len(buf) {
			return dberr.New(dberr.InsufficientSpace, "acl page full, cannot add principal %q", name)
		}
		buf[off] = byte(len(name))
		off++
		copy(buf[off:off+len(name)], name)
		off += len(name)
	}
	return g.store.Write(pagestore.PageOffset(aclPage), buf)
}

// Allowed reports whether principal may call the database.
func (g *Gate) Allowed(principal string) bool {
	_, ok := g.principals[principal]
	return ok
}

// Add grants principal access, persisting the updated ACL.
func (g *Gate) Add(principal string) error {
	if len(principal) == 0 || len(principal) > maxNameLen {
		return dberr.New(dberr.ValidationFailed, "principal length %d out of range [1,%d]", len(principal), maxNameLen)
	}
	if _, ok := g.principals[principal]; ok {
		return nil
	}
	g.principals[principal] = struct{}{}
	g.order = append(g.order, principal)
	if err := g.flush(); err != nil {
		delete(g.principals, principal)
		g.order = g.order[:len(g.order)-1]
		return err
	}
	return nil
}

// Remove revokes principal's access, persisting the updated ACL. Removing
// an absent principal is a no-op, not an error.
func (g *Gate) Remove(principal string) error {
	if _, ok := g.principals[principal]; !ok {
		return nil
	}
	delete(g.principals, principal)
	for i, name := range g.order {
		if name == principal {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return g.flush()
}

// List returns every allowed principal in the order it was first added.
func (g *Gate) List() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Check gates a call by principal, returning dberr.Unauthorized if the
// ACL is non-empty and principal isn't in it. An empty ACL allows every
// caller, matching a freshly initialized database with no declared
// principals yet.
func (g *Gate) Check(principal string) error {
	if len(g.order) == 0 {
		return nil
	}
	if !g.Allowed(principal) {
		return dberr.New(dberr.Unauthorized, "principal %q is not on the access list", principal)
	}
	return nil
}

package pagestore

import (
	"os"
	"sync"

	"icdb/dberr"
)

// Disk is a production Store binding over an *os.File, standing in for
// the host's persistent memory (ReadAt/WriteAt over a single backing
// file, tracked page count).
type Disk struct {
	mu   sync.RWMutex
	file *os.File
	size int64
}

// OpenDisk opens (creating if absent) a file-backed Store.
func OpenDisk(path string) (*Disk, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, dberr.Wrap(dberr.CorruptedStore, err, "open %s", path)
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, dberr.Wrap(dberr.CorruptedStore, err, "stat %s", path)
	}
	return &Disk{file: f, size: stat.Size()}, nil
}

func (d *Disk) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.file.Close()
}

func (d *Disk) Size() int64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.size
}

func (d *Disk) PageCount() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return uint64(d.size) / PageSize
}

func (d *Disk) Grow(pages uint64) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	prior := uint64(d.size) / PageSize
	newSize := d.size + int64(pages)*PageSize
	if err := d.file.Truncate(newSize); err != nil {
		return 0, dberr.Wrap(dberr.InsufficientSpace, err, "grow to %d bytes", newSize)
	}
	d.size = newSize
	return prior, nil
}

func (d *Disk) Read(offset int64, buf []byte) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := checkBounds(d.size, offset, len(buf)); err != nil {
		return err
	}
	if _, err := d.file.ReadAt(buf, offset); err != nil {
		return dberr.Wrap(dberr.CorruptedStore, err, "read at %d", offset)
	}
	return nil
}

func (d *Disk) Write(offset int64, buf []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := checkBounds(d.size, offset, len(buf)); err != nil {
		return err
	}
	if _, err := d.file.WriteAt(buf, offset); err != nil {
		return dberr.Wrap(dberr.CorruptedStore, err, "write at %d", offset)
	}
	return nil
}

// Package historical serves daily bars from a memory-mapped binary cache
// file, written once by the snapshot tool and read many times by the
// evaluation pipeline.
package historical

import (
	"fmt"
	"io"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/exp/mmap"

	"github.com/mvracar/augur/pkg/datasource"
)

const recordSize = int64(unsafe.Sizeof(BinaryBar{}))

// Cache is a memory-mapped file of fixed-size BinaryBar records, addressed
// by index. Safe for concurrent readers.
type Cache struct {
	path   string
	reader *mmap.ReaderAt
	pool   *sync.Pool
}

func NewCache(path string) *Cache {
	return &Cache{
		path: path,
		pool: &sync.Pool{
			New: func() interface{} {
				buffer := make([]byte, recordSize)
				return &buffer
			},
		},
	}
}

func (c *Cache) Open() error {
	var err error
	c.reader, err = mmap.Open(c.path)
	if err != nil {
		return fmt.Errorf("unable to open bar cache %q: %w", c.path, err)
	}
	return nil
}

func (c *Cache) Close() {
	_ = c.reader.Close()
}

// Read returns the record at index. Reads past the final record return
// datasource.ErrEOF.
func (c *Cache) Read(index int64) (BinaryBar, error) {
	buffer := c.pool.Get().(*[]byte)
	defer c.pool.Put(buffer)

	n, err := c.reader.ReadAt(*buffer, index*recordSize)
	if err != nil && err != io.EOF {
		return BinaryBar{}, fmt.Errorf("unable to read: %w", err)
	}
	if int64(n) < recordSize {
		return BinaryBar{}, datasource.ErrEOF
	}

	return *(*BinaryBar)(unsafe.Pointer(&(*buffer)[0])), nil // #nosec G103
}

// EntryCount derives the record count from the file size, which must be an
// exact multiple of the record size.
func (c *Cache) EntryCount() (int64, error) {
	fileInfo, err := os.Stat(c.path)
	if err != nil {
		return 0, fmt.Errorf("unable to stat bar cache %q: %w", c.path, err)
	}

	totalSize := fileInfo.Size()
	if totalSize%recordSize != 0 {
		return 0, fmt.Errorf("cache size %d is not a multiple of record size %d", totalSize, recordSize)
	}

	return totalSize / recordSize, nil
}

package shm

import (
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/Seintian/postoffice/internal/errors"
)

// Region is one process's mapping of the shared block. The Director
// creates it; every other process attaches to it. Exactly one Region
// exists per process.
type Region struct {
	block *Block
	data  []byte
	file  *os.File
	path  string
	owner bool
}

// Dir returns the directory backing shared blocks: /dev/shm when the
// system provides it, the temp directory otherwise.
func Dir() string {
	if info, err := os.Stat("/dev/shm"); err == nil && info.IsDir() {
		return "/dev/shm"
	}
	return os.TempDir()
}

// PathFor returns the backing file path for a named block
func PathFor(name string) string {
	return filepath.Join(Dir(), name+".shm")
}

// Create creates the named block, takes the exclusive single-instance
// lock, zeroes the layout, and maps it. The caller owns the block: Close
// releases the lock and removes the backing file.
func Create(name string) (*Region, error) {
	path := PathFor(name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, errors.NewSharedStateError("failed to create shared block", err).WithPath(path)
	}

	// One Director per block: the flock outlives any stale file left by
	// a crashed run, which gets zeroed below.
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		return nil, errors.NewSharedStateError("failed to lock shared block", errors.ErrLocked).WithPath(path)
	}

	if err := f.Truncate(int64(BlockSize)); err != nil {
		_ = f.Close()
		return nil, errors.NewSharedStateError("failed to size shared block", err).WithPath(path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, BlockSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, errors.NewSharedStateError("failed to map shared block", err).WithPath(path)
	}

	clear(data)

	return &Region{
		block: (*Block)(unsafe.Pointer(&data[0])),
		data:  data,
		file:  f,
		path:  path,
		owner: true,
	}, nil
}

// Attach maps an existing named block created by the Director
func Attach(name string) (*Region, error) {
	path := PathFor(name)

	f, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return nil, errors.NewSharedStateError("failed to open shared block", err).WithPath(path)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.NewSharedStateError("failed to stat shared block", err).WithPath(path)
	}
	if info.Size() != int64(BlockSize) {
		_ = f.Close()
		return nil, errors.NewSharedStateError("refusing to map shared block", errors.ErrBlockSize).WithPath(path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, BlockSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, errors.NewSharedStateError("failed to map shared block", err).WithPath(path)
	}

	return &Region{
		block: (*Block)(unsafe.Pointer(&data[0])),
		data:  data,
		file:  f,
		path:  path,
	}, nil
}

// Block returns the mapped layout
func (r *Region) Block() *Block {
	return r.block
}

// Path returns the backing file path
func (r *Region) Path() string {
	return r.path
}

// Close unmaps the block. The owning Region also releases the
// single-instance lock and removes the backing file.
func (r *Region) Close() error {
	if r.data == nil {
		return errors.ErrNotAttached
	}

	err := unix.Munmap(r.data)
	r.data = nil
	r.block = nil

	if r.owner {
		_ = unix.Flock(int(r.file.Fd()), unix.LOCK_UN)
	}
	cerr := r.file.Close()
	if r.owner {
		_ = os.Remove(r.path)
	}

	if err != nil {
		return errors.NewSharedStateError("failed to unmap shared block", err).WithPath(r.path)
	}
	return cerr
}

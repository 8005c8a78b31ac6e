package blobstore

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const (
	defaultFileMode os.FileMode = 0o600
	defaultDirMode  os.FileMode = 0o700
)

// shardLengths splits a hash into directory prefixes so that no single
// directory ends up with one entry per blob in the store, e.g. hash
// "abcdefghij..." is stored at .hash/ab/cd/abcdefghij....
var shardLengths = []int{2, 2}

// Filesystem is a Store backed by a local directory, laid out as
// <root>/.hash/<shard>/.../<hash>. The derivation of path from hash is
// pure and deterministic.
type Filesystem struct {
	root string
}

// NewFilesystem returns a Filesystem-backed Store rooted at dir. dir
// must already exist.
func NewFilesystem(dir string) (*Filesystem, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, errors.Wrap(err, "blobstore: cannot access root directory")
	}

	return &Filesystem{root: filepath.Join(dir, ".hash")}, nil
}

func (f *Filesystem) shardedPath(hash string) string {
	dir := f.root
	rest := hash

	for _, n := range shardLengths {
		if len(rest) < n {
			break
		}

		dir = filepath.Join(dir, rest[:n])
		rest = rest[n:]
	}

	return filepath.Join(dir, hash)
}

// Put implements Store.
func (f *Filesystem) Put(hash string, data []byte) error {
	path := f.shardedPath(hash)
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, defaultDirMode); err != nil {
		return errors.Wrap(err, "blobstore: creating shard directory")
	}

	tmp := filepath.Join(dir, fmt.Sprintf(".%s.tmp.%d", hash, rand.Int()))

	if err := os.WriteFile(tmp, data, defaultFileMode); err != nil {
		return errors.Wrap(err, "blobstore: writing temp file")
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "blobstore: finalizing blob")
	}

	return nil
}

// Get implements Store.
func (f *Filesystem) Get(hash string) ([]byte, error) {
	data, err := os.ReadFile(f.shardedPath(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}

		return nil, errors.Wrap(err, "blobstore: reading blob")
	}

	return data, nil
}

// Exists implements Store.
func (f *Filesystem) Exists(hash string) (bool, error) {
	_, err := os.Stat(f.shardedPath(hash))
	if err == nil {
		return true, nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, errors.Wrap(err, "blobstore: stat blob")
}

// Delete implements Store.
func (f *Filesystem) Delete(hash string) error {
	err := os.Remove(f.shardedPath(hash))
	if err == nil || os.IsNotExist(err) {
		return nil
	}

	return errors.Wrap(err, "blobstore: deleting blob")
}

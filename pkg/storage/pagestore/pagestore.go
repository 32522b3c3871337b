// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package pagestore stores fixed-size page images and volume sizes in Pebble.
//
// Each page image is prefixed with the LSA of the last record applied to it.
// Pages that were never written read back as zeroes with NullLSA.
package pagestore

import (
	"context"
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/cockroachdb/redoapply/pkg/redo/redobase"
	"github.com/cockroachdb/redoapply/pkg/util/envutil"
	"github.com/cockroachdb/redoapply/pkg/util/log"
	"github.com/cockroachdb/redoapply/pkg/util/syncutil"
)

// DefaultPageSize is the size of a page image, excluding its LSA header.
const DefaultPageSize = 256

const lsaHeaderLen = 8

const (
	pagePrefix   = 'p'
	volumePrefix = 'v'
)

// forceSync makes every store sync its writes regardless of Options.Sync.
var forceSync = envutil.EnvOrDefaultBool("COCKROACH_PAGESTORE_FORCE_SYNC", false)

// ErrPageOutOfRange is returned for pages beyond the end of their volume.
var ErrPageOutOfRange = errors.New("page beyond end of volume")

// Options configures a Store.
type Options struct {
	// Dir is the Pebble directory.
	Dir string
	// FS defaults to the local filesystem. Tests use vfs.NewMem().
	FS vfs.FS
	// PageSize defaults to DefaultPageSize.
	PageSize int
	// Sync makes every write durable before returning.
	Sync bool
}

// Store is a page store. It is safe for concurrent use; callers serialize
// access to any single page.
type Store struct {
	db        *pebble.DB
	pageSize  int
	writeOpts *pebble.WriteOptions

	mu struct {
		syncutil.RWMutex
		volumes map[redobase.VolumeID]int32
	}
}

// Open opens or creates a store.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Dir == "" {
		return nil, errors.New("pagestore: Options.Dir is required")
	}
	if opts.FS == nil {
		opts.FS = vfs.Default
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	db, err := pebble.Open(opts.Dir, &pebble.Options{
		FS:     opts.FS,
		Logger: pebbleLogger{ctx: ctx},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "opening page store in %s", opts.Dir)
	}
	s := &Store{db: db, pageSize: opts.PageSize, writeOpts: pebble.NoSync}
	if opts.Sync || forceSync {
		s.writeOpts = pebble.Sync
	}
	if err := s.loadVolumes(); err != nil {
		return nil, errors.CombineErrors(err, db.Close())
	}
	log.VEventf(ctx, 1, "opened page store in %s with %d volumes", opts.Dir, len(s.mu.volumes))
	return s, nil
}

func (s *Store) loadVolumes() error {
	s.mu.volumes = make(map[redobase.VolumeID]int32)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{volumePrefix},
		UpperBound: []byte{volumePrefix + 1},
	})
	if err != nil {
		return err
	}
	for iter.First(); iter.Valid(); iter.Next() {
		k, v := iter.Key(), iter.Value()
		if len(k) != 3 || len(v) != 4 {
			return errors.CombineErrors(
				errors.AssertionFailedf("malformed volume entry %x=%x", k, v), iter.Close())
		}
		vol := redobase.VolumeID(binary.BigEndian.Uint16(k[1:]))
		s.mu.volumes[vol] = int32(binary.BigEndian.Uint32(v))
	}
	return iter.Close()
}

// Close closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// PageSize returns the size of a page image.
func (s *Store) PageSize() int {
	return s.pageSize
}

func pageKey(key redobase.PageKey) []byte {
	var buf [7]byte
	buf[0] = pagePrefix
	binary.BigEndian.PutUint16(buf[1:], uint16(key.VolID))
	binary.BigEndian.PutUint32(buf[3:], uint32(key.PageID))
	return buf[:]
}

func volumeKey(vol redobase.VolumeID) []byte {
	var buf [3]byte
	buf[0] = volumePrefix
	binary.BigEndian.PutUint16(buf[1:], uint16(vol))
	return buf[:]
}

// VolumePages returns the number of allocated pages of vol.
func (s *Store) VolumePages(vol redobase.VolumeID) int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mu.volumes[vol]
}

func (s *Store) checkRange(key redobase.PageKey) error {
	if key.PageID < 0 {
		return errors.Wrapf(ErrPageOutOfRange, "page %s", key)
	}
	if pages := s.VolumePages(key.VolID); int32(key.PageID) >= pages {
		return errors.Wrapf(ErrPageOutOfRange, "page %s (volume has %d pages)", key, pages)
	}
	return nil
}

// ReadPage copies the image of key into buf, which is grown to PageSize if
// needed, and returns the LSA stamped on the page.
func (s *Store) ReadPage(key redobase.PageKey, buf []byte) (redobase.LSA, []byte, error) {
	if err := s.checkRange(key); err != nil {
		return 0, nil, err
	}
	if cap(buf) < s.pageSize {
		buf = make([]byte, s.pageSize)
	}
	buf = buf[:s.pageSize]

	val, closer, err := s.db.Get(pageKey(key))
	if errors.Is(err, pebble.ErrNotFound) {
		clear(buf)
		return redobase.NullLSA, buf, nil
	}
	if err != nil {
		return 0, nil, errors.Wrapf(err, "reading page %s", key)
	}
	defer closer.Close()
	if len(val) != lsaHeaderLen+s.pageSize {
		return 0, nil, errors.AssertionFailedf("page %s has %d bytes, expected %d",
			key, len(val), lsaHeaderLen+s.pageSize)
	}
	copy(buf, val[lsaHeaderLen:])
	return redobase.LSA(binary.BigEndian.Uint64(val)), buf, nil
}

// WritePage stores data as the image of key, stamped with lsa.
func (s *Store) WritePage(key redobase.PageKey, lsa redobase.LSA, data []byte) error {
	if err := s.checkRange(key); err != nil {
		return err
	}
	if len(data) != s.pageSize {
		return errors.AssertionFailedf("writing %d bytes to page %s of size %d", len(data), key, s.pageSize)
	}
	val := make([]byte, lsaHeaderLen+s.pageSize)
	binary.BigEndian.PutUint64(val, uint64(lsa))
	copy(val[lsaHeaderLen:], data)
	if err := s.db.Set(pageKey(key), val, s.writeOpts); err != nil {
		return errors.Wrapf(err, "writing page %s", key)
	}
	return nil
}

// ExtendVolume grows vol to pages pages. Shrinking is not allowed; extending
// to the current size is a no-op.
func (s *Store) ExtendVolume(vol redobase.VolumeID, pages int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.mu.volumes[vol]
	if pages < cur {
		return errors.Newf("cannot shrink volume %d from %d to %d pages", vol, cur, pages)
	}
	if pages == cur {
		return nil
	}
	var val [4]byte
	binary.BigEndian.PutUint32(val[:], uint32(pages))
	if err := s.db.Set(volumeKey(vol), val[:], s.writeOpts); err != nil {
		return errors.Wrapf(err, "extending volume %d", vol)
	}
	s.mu.volumes[vol] = pages
	return nil
}

// Fingerprint hashes every volume size and page image in key order. Two
// stores with equal contents have equal fingerprints.
func (s *Store) Fingerprint() (uint64, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0, err
	}
	h := xxhash.New()
	var lenBuf [binary.MaxVarintLen64]byte
	for iter.First(); iter.Valid(); iter.Next() {
		for _, b := range [][]byte{iter.Key(), iter.Value()} {
			n := binary.PutUvarint(lenBuf[:], uint64(len(b)))
			_, _ = h.Write(lenBuf[:n])
			_, _ = h.Write(b)
		}
	}
	return h.Sum64(), iter.Close()
}

// Flush makes all writes durable.
func (s *Store) Flush() error {
	return s.db.Flush()
}

// pebbleLogger routes Pebble's log output through the log package.
type pebbleLogger struct {
	ctx context.Context
}

func (l pebbleLogger) Infof(format string, args ...interface{}) {
	log.VEventf(l.ctx, 2, format, args...)
}

func (l pebbleLogger) Errorf(format string, args ...interface{}) {
	log.Errorf(l.ctx, format, args...)
}

func (l pebbleLogger) Fatalf(format string, args ...interface{}) {
	log.Fatalf(l.ctx, format, args...)
}

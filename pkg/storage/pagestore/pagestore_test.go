// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package pagestore

import (
	"bytes"
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/cockroachdb/redoapply/pkg/redo/redobase"
	"github.com/stretchr/testify/require"
)

func openMem(t *testing.T, fs vfs.FS) *Store {
	t.Helper()
	s, err := Open(context.Background(), Options{Dir: "pages", FS: fs, PageSize: 16})
	require.NoError(t, err)
	return s
}

func TestReadWritePage(t *testing.T) {
	s := openMem(t, vfs.NewMem())
	defer func() { require.NoError(t, s.Close()) }()

	key := redobase.MakePageKey(1, 3)
	_, _, err := s.ReadPage(key, nil)
	require.True(t, errors.Is(err, ErrPageOutOfRange))

	require.NoError(t, s.ExtendVolume(1, 4))
	require.Equal(t, int32(4), s.VolumePages(1))

	lsa, data, err := s.ReadPage(key, nil)
	require.NoError(t, err)
	require.True(t, lsa.IsNull())
	require.Equal(t, make([]byte, 16), data)

	img := bytes.Repeat([]byte{0xab}, 16)
	require.NoError(t, s.WritePage(key, 42, img))
	lsa, data, err = s.ReadPage(key, data)
	require.NoError(t, err)
	require.Equal(t, redobase.LSA(42), lsa)
	require.Equal(t, img, data)

	require.Error(t, s.WritePage(key, 43, img[:3]))
	err = s.WritePage(redobase.MakePageKey(1, 4), 44, img)
	require.True(t, errors.Is(err, ErrPageOutOfRange))
	require.ErrorContains(t, err, "volume has 4 pages")
	require.True(t, errors.Is(s.WritePage(redobase.VolumeHeaderKey(1), 44, img), ErrPageOutOfRange))
}

func TestExtendVolume(t *testing.T) {
	fs := vfs.NewMem()
	s := openMem(t, fs)
	require.NoError(t, s.ExtendVolume(2, 10))
	require.NoError(t, s.ExtendVolume(2, 10))
	require.ErrorContains(t, s.ExtendVolume(2, 5), "cannot shrink volume 2")
	require.NoError(t, s.ExtendVolume(3, 1))
	require.NoError(t, s.Close())

	// Volume sizes survive a reopen.
	s = openMem(t, fs)
	defer func() { require.NoError(t, s.Close()) }()
	require.Equal(t, int32(10), s.VolumePages(2))
	require.Equal(t, int32(1), s.VolumePages(3))
	require.Zero(t, s.VolumePages(4))
}

func TestFingerprint(t *testing.T) {
	populate := func(s *Store, order []redobase.PageID) {
		require.NoError(t, s.ExtendVolume(1, 8))
		for _, p := range order {
			require.NoError(t, s.WritePage(redobase.MakePageKey(1, p), redobase.LSA(p+1), bytes.Repeat([]byte{byte(p)}, 16)))
		}
	}
	a, b := openMem(t, vfs.NewMem()), openMem(t, vfs.NewMem())
	defer func() { require.NoError(t, a.Close()) }()
	defer func() { require.NoError(t, b.Close()) }()

	populate(a, []redobase.PageID{0, 1, 2, 7})
	populate(b, []redobase.PageID{7, 2, 0, 1})
	fa, err := a.Fingerprint()
	require.NoError(t, err)
	fb, err := b.Fingerprint()
	require.NoError(t, err)
	require.Equal(t, fa, fb)

	require.NoError(t, b.WritePage(redobase.MakePageKey(1, 2), 3, make([]byte, 16)))
	fb, err = b.Fingerprint()
	require.NoError(t, err)
	require.NotEqual(t, fa, fb)
	require.NoError(t, b.Flush())
}

func TestForceSync(t *testing.T) {
	s := openMem(t, vfs.NewMem())
	require.Equal(t, pebble.NoSync, s.writeOpts)
	require.NoError(t, s.Close())

	defer func(prev bool) { forceSync = prev }(forceSync)
	forceSync = true
	s = openMem(t, vfs.NewMem())
	require.Equal(t, pebble.Sync, s.writeOpts)
	require.NoError(t, s.Close())
}

func TestOpenRequiresDir(t *testing.T) {
	_, err := Open(context.Background(), Options{FS: vfs.NewMem()})
	require.ErrorContains(t, err, "Options.Dir is required")
}

// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package redojob

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/cockroachdb/redoapply/pkg/redo"
	"github.com/cockroachdb/redoapply/pkg/redo/redobase"
	"github.com/cockroachdb/redoapply/pkg/redo/redolog"
	"github.com/cockroachdb/redoapply/pkg/storage/pagestore"
	"github.com/stretchr/testify/require"
)

const testPageSize = 16

type testLog struct {
	buf     bytes.Buffer
	w       *redolog.Writer
	headers []redolog.Header
}

func newTestLog(t *testing.T) *testLog {
	l := &testLog{}
	var err error
	l.w, err = redolog.NewWriter(&l.buf)
	require.NoError(t, err)
	return l
}

func (l *testLog) write(t *testing.T, key redobase.PageKey, off uint16, data string) redobase.LSA {
	t.Helper()
	return l.append(t, &redolog.Record{
		Header: redolog.Header{Type: redolog.RecordPageRedo, Key: key},
		Offset: off,
		Data:   []byte(data),
	})
}

func (l *testLog) extend(t *testing.T, vol redobase.VolumeID, pages int32) redobase.LSA {
	t.Helper()
	return l.append(t, &redolog.Record{
		Header: redolog.Header{Type: redolog.RecordVolumeExtend, Key: redobase.VolumeHeaderKey(vol)},
		Pages:  pages,
	})
}

func (l *testLog) append(t *testing.T, rec *redolog.Record) redobase.LSA {
	lsa, err := l.w.Append(rec)
	require.NoError(t, err)
	h := rec.Header
	h.LSA = lsa
	l.headers = append(l.headers, h)
	return lsa
}

func openStore(t *testing.T) *pagestore.Store {
	t.Helper()
	s, err := pagestore.Open(context.Background(), pagestore.Options{
		Dir: "pages", FS: vfs.NewMem(), PageSize: testPageSize,
	})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

// applyAll executes the jobs of every logged record on one goroutine.
func applyAll(t *testing.T, f *Factory, headers []redolog.Header) error {
	t.Helper()
	local, err := f.NewTaskLocal(0)
	require.NoError(t, err)
	defer func() { require.NoError(t, local.Close()) }()
	for _, h := range headers {
		job, err := f.NewJob(h)
		require.NoError(t, err)
		if err := job.Execute(context.Background(), local); err != nil {
			return err
		}
	}
	return nil
}

func readPage(t *testing.T, s *pagestore.Store, key redobase.PageKey) (redobase.LSA, string) {
	t.Helper()
	lsa, data, err := s.ReadPage(key, nil)
	require.NoError(t, err)
	return lsa, string(data)
}

func TestNewJob(t *testing.T) {
	l := newTestLog(t)
	l.extend(t, 1, 4)
	l.write(t, redobase.MakePageKey(1, 2), 0, "x")
	f := NewFactory(openStore(t), bytes.NewReader(l.buf.Bytes()))

	ext, err := f.NewJob(l.headers[0])
	require.NoError(t, err)
	require.True(t, ext.IsBarrier())
	require.Equal(t, redobase.VolumeHeaderKey(1), ext.Key())
	require.Equal(t, l.headers[0].LSA, ext.Order())

	page, err := f.NewJob(l.headers[1])
	require.NoError(t, err)
	require.False(t, page.IsBarrier())
	require.Equal(t, redobase.MakePageKey(1, 2), page.Key())
	require.Equal(t, l.headers[1].LSA, page.Order())

	_, err = f.NewJob(redolog.Header{Type: 9})
	require.True(t, errors.Is(err, redolog.ErrCorruptRecord))
}

func TestApplyIsIdempotent(t *testing.T) {
	l := newTestLog(t)
	key := redobase.MakePageKey(1, 2)
	l.extend(t, 1, 4)
	l.write(t, key, 3, "abc")
	last := l.write(t, key, 0, "zz")
	l.extend(t, 1, 2)

	s := openStore(t)
	f := NewFactory(s, bytes.NewReader(l.buf.Bytes()))
	require.NoError(t, applyAll(t, f, l.headers))
	require.Equal(t, Stats{Applied: 3, Skipped: 1}, f.Stats())

	lsa, data := readPage(t, s, key)
	require.Equal(t, last, lsa)
	require.Equal(t, "zz\x00abc"+string(make([]byte, testPageSize-6)), data)
	require.Equal(t, int32(4), s.VolumePages(1))

	before, err := s.Fingerprint()
	require.NoError(t, err)
	require.NoError(t, applyAll(t, f, l.headers))
	require.Equal(t, Stats{Applied: 3, Skipped: 5}, f.Stats())
	after, err := s.Fingerprint()
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestApplyErrors(t *testing.T) {
	t.Run("out of range", func(t *testing.T) {
		l := newTestLog(t)
		l.extend(t, 1, 4)
		l.write(t, redobase.MakePageKey(1, 4), 0, "x")
		f := NewFactory(openStore(t), bytes.NewReader(l.buf.Bytes()))
		err := applyAll(t, f, l.headers)
		require.True(t, errors.Is(err, pagestore.ErrPageOutOfRange), "%+v", err)
	})

	t.Run("overflow", func(t *testing.T) {
		l := newTestLog(t)
		l.extend(t, 1, 1)
		l.write(t, redobase.MakePageKey(1, 0), testPageSize-2, "abc")
		f := NewFactory(openStore(t), bytes.NewReader(l.buf.Bytes()))
		err := applyAll(t, f, l.headers)
		require.True(t, errors.Is(err, ErrPageOverflow), "%+v", err)
	})

	t.Run("header mismatch", func(t *testing.T) {
		l := newTestLog(t)
		l.extend(t, 1, 4)
		l.write(t, redobase.MakePageKey(1, 1), 0, "x")
		h := l.headers[1]
		h.Key = redobase.MakePageKey(1, 3)
		f := NewFactory(openStore(t), bytes.NewReader(l.buf.Bytes()))
		err := applyAll(t, f, []redolog.Header{l.headers[0], h})
		require.True(t, errors.Is(err, redolog.ErrCorruptRecord), "%+v", err)
		require.ErrorContains(t, err, "found page-redo record for 1|1")
	})

	t.Run("foreign task state", func(t *testing.T) {
		l := newTestLog(t)
		l.extend(t, 1, 4)
		f := NewFactory(openStore(t), bytes.NewReader(l.buf.Bytes()))
		job, err := f.NewJob(l.headers[0])
		require.NoError(t, err)
		err = job.Execute(context.Background(), nil)
		require.True(t, errors.IsAssertionFailure(err))
	})
}

func TestParallelApply(t *testing.T) {
	l := newTestLog(t)
	const vols, pages = 3, 8
	for v := redobase.VolumeID(1); v <= vols; v++ {
		l.extend(t, v, pages/2)
	}
	for i := 0; i < 400; i++ {
		v := redobase.VolumeID(1 + i%vols)
		if i == 200 {
			for v := redobase.VolumeID(1); v <= vols; v++ {
				l.extend(t, v, pages)
			}
		}
		n := pages / 2
		if i >= 200 {
			n = pages
		}
		key := redobase.MakePageKey(v, redobase.PageID((i/vols)%n))
		l.write(t, key, uint16(i%(testPageSize-2)), string([]byte{byte(i), byte(i >> 8)}))
	}
	log := l.buf.Bytes()

	serial := openStore(t)
	require.NoError(t, applyAll(t, NewFactory(serial, bytes.NewReader(log)), l.headers))
	want, err := serial.Fingerprint()
	require.NoError(t, err)

	parallel := openStore(t)
	f := NewFactory(parallel, bytes.NewReader(log))
	p, err := redo.NewParallelRedo(context.Background(), redo.Config{
		Workers:      4,
		RetryBackoff: 10 * time.Microsecond,
		NewTaskLocal: f.NewTaskLocal,
	})
	require.NoError(t, err)
	for _, h := range l.headers {
		job, err := f.NewJob(h)
		require.NoError(t, err)
		require.NoError(t, p.Add(job))
	}
	p.SetAddingFinished()
	require.NoError(t, p.WaitForTerminationAndStop(context.Background()))

	got, err := parallel.Fingerprint()
	require.NoError(t, err)
	require.Equal(t, want, got)
	require.Equal(t, int64(len(l.headers)), f.Stats().Applied)
}

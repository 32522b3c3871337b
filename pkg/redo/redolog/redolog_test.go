// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package redolog

import (
	"bytes"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redoapply/pkg/redo/redobase"
	"github.com/stretchr/testify/require"
)

func writeTestLog(t *testing.T) ([]byte, []redobase.LSA, []Record) {
	t.Helper()
	recs := []Record{
		{Header: Header{Type: RecordVolumeExtend, Key: redobase.VolumeHeaderKey(1)}, Pages: 64},
		{Header: Header{Type: RecordPageRedo, Key: redobase.MakePageKey(1, 3)}, Offset: 12, Data: []byte("hello")},
		{Header: Header{Type: RecordPageRedo, Key: redobase.MakePageKey(1, 4)}, Offset: 0, Data: bytes.Repeat([]byte{7}, 200)},
		{Header: Header{Type: RecordPageRedo, Key: redobase.MakePageKey(1, 3)}, Offset: 100, Data: []byte{}},
	}
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)
	var lsas []redobase.LSA
	for i := range recs {
		lsa, err := w.Append(&recs[i])
		require.NoError(t, err)
		lsas = append(lsas, lsa)
	}
	require.Equal(t, int64(buf.Len()), w.Size())
	return buf.Bytes(), lsas, recs
}

func TestScannerAndCursor(t *testing.T) {
	data, lsas, recs := writeTestLog(t)
	require.Equal(t, redobase.LSA(len(Magic)), lsas[0])
	for i := 1; i < len(lsas); i++ {
		require.Less(t, lsas[i-1], lsas[i])
	}

	s := NewScanner(bytes.NewReader(data))
	var headers []Header
	for s.Next() {
		headers = append(headers, s.Header())
		if s.Header().Type == RecordVolumeExtend {
			require.Equal(t, int32(64), s.Pages())
		}
	}
	require.NoError(t, s.Err())
	require.Len(t, headers, len(recs))

	c := NewCursor(bytes.NewReader(data))
	var rec Record
	for i, h := range headers {
		require.Equal(t, lsas[i], h.LSA)
		require.Equal(t, recs[i].Type, h.Type)
		require.Equal(t, recs[i].Key, h.Key)

		require.NoError(t, c.ReadAt(h.LSA, &rec))
		require.Equal(t, h, rec.Header)
		require.Equal(t, recs[i].Offset, rec.Offset)
		require.Equal(t, recs[i].Pages, rec.Pages)
		if recs[i].Type == RecordPageRedo {
			require.Equal(t, string(recs[i].Data), string(rec.Data))
		}
	}
}

func TestCorruption(t *testing.T) {
	data, lsas, _ := writeTestLog(t)

	// Flip a byte inside the payload of the third record.
	corrupt := append([]byte(nil), data...)
	corrupt[lsas[2]+8] ^= 0xff

	s := NewScanner(bytes.NewReader(corrupt))
	n := 0
	for s.Next() {
		n++
	}
	require.Equal(t, 2, n)
	require.True(t, errors.Is(s.Err(), ErrCorruptRecord), "%v", s.Err())
	require.ErrorContains(t, s.Err(), "checksum mismatch")

	var rec Record
	c := NewCursor(bytes.NewReader(corrupt))
	require.NoError(t, c.ReadAt(lsas[1], &rec))
	require.True(t, errors.Is(c.ReadAt(lsas[2], &rec), ErrCorruptRecord))

	// Truncated log.
	truncated := data[:len(data)-1]
	s = NewScanner(bytes.NewReader(truncated))
	for s.Next() {
	}
	require.True(t, errors.Is(s.Err(), ErrCorruptRecord))
	c = NewCursor(bytes.NewReader(truncated))
	require.True(t, errors.Is(c.ReadAt(lsas[3], &rec), ErrCorruptRecord))

	// LSAs outside the log.
	require.True(t, errors.Is(c.ReadAt(redobase.NullLSA, &rec), ErrCorruptRecord))
	require.True(t, errors.Is(c.ReadAt(redobase.LSA(len(data)+10), &rec), ErrCorruptRecord))

	// Missing magic.
	s = NewScanner(bytes.NewReader([]byte("NOTALOG!")))
	require.False(t, s.Next())
	require.True(t, errors.Is(s.Err(), ErrCorruptRecord))
}

func TestEmptyLog(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewWriter(&buf)
	require.NoError(t, err)
	s := NewScanner(&buf)
	require.False(t, s.Next())
	require.NoError(t, s.Err())
}

func TestAppendValidates(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)

	_, err = w.Append(&Record{Header: Header{Type: RecordPageRedo, Key: redobase.VolumeHeaderKey(1)}})
	require.ErrorContains(t, err, "page redo record for volume header 1|hdr")
	_, err = w.Append(&Record{Header: Header{Type: RecordVolumeExtend, Key: redobase.MakePageKey(1, 1)}})
	require.ErrorContains(t, err, "volume extend record for page 1|1")
	_, err = w.Append(&Record{Header: Header{Type: 9, Key: redobase.MakePageKey(1, 1)}})
	require.ErrorContains(t, err, "unknown record type unknown(9)")
	_, err = w.Append(&Record{Header: Header{Type: RecordVolumeExtend, Key: redobase.VolumeHeaderKey(1)}, Pages: -1})
	require.Error(t, err)
	require.Equal(t, int64(len(Magic)), w.Size())
}

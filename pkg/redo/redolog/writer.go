// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package redolog

import (
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redoapply/pkg/redo/redobase"
	"github.com/golang/snappy"
)

// Writer appends records to a log.
type Writer struct {
	w       io.Writer
	off     int64
	payload []byte
	frame   []byte
}

// NewWriter writes the log magic to w and returns a Writer appending to it.
func NewWriter(w io.Writer) (*Writer, error) {
	n, err := io.WriteString(w, Magic)
	if err != nil {
		return nil, errors.Wrap(err, "writing redo log magic")
	}
	return &Writer{w: w, off: int64(n)}, nil
}

// Append writes rec and returns the LSA it was assigned. rec.LSA is ignored.
func (w *Writer) Append(rec *Record) (redobase.LSA, error) {
	if err := rec.validate(); err != nil {
		return 0, err
	}
	w.payload = encodeHeader(w.payload[:0], rec.Header)
	switch rec.Type {
	case RecordPageRedo:
		w.payload = binary.BigEndian.AppendUint16(w.payload, rec.Offset)
		w.payload = append(w.payload, snappy.Encode(nil, rec.Data)...)
	case RecordVolumeExtend:
		if rec.Pages < 0 {
			return 0, errors.Newf("volume extend to %d pages", rec.Pages)
		}
		w.payload = binary.BigEndian.AppendUint32(w.payload, uint32(rec.Pages))
	}
	if len(w.payload) > MaxPayloadLen {
		return 0, errors.Newf("record payload of %d bytes exceeds %d", len(w.payload), MaxPayloadLen)
	}

	w.frame = binary.AppendUvarint(w.frame[:0], uint64(len(w.payload)))
	w.frame = binary.LittleEndian.AppendUint32(w.frame, crc32.Checksum(w.payload, crcTable))
	w.frame = append(w.frame, w.payload...)
	lsa := redobase.LSA(w.off)
	n, err := w.w.Write(w.frame)
	w.off += int64(n)
	if err != nil {
		return 0, errors.Wrapf(err, "appending record at %s", lsa)
	}
	return lsa, nil
}

// Size returns the number of bytes written so far.
func (w *Writer) Size() int64 {
	return w.off
}

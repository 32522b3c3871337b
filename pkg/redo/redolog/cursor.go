// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package redolog

import (
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redoapply/pkg/redo/redobase"
	"github.com/golang/snappy"
)

// Cursor reads individual records by LSA. A Cursor reuses its buffers and
// must not be used concurrently; any number of cursors may share the
// underlying io.ReaderAt.
type Cursor struct {
	r       io.ReaderAt
	head    [maxFrameHeaderLen]byte
	payload []byte
	decoded []byte
}

// NewCursor returns a Cursor over the log in r.
func NewCursor(r io.ReaderAt) *Cursor {
	return &Cursor{r: r}
}

// ReadAt decodes the record at lsa into rec. rec.Data aliases the cursor's
// decompression buffer and is only valid until the next call.
func (c *Cursor) ReadAt(lsa redobase.LSA, rec *Record) error {
	if lsa < redobase.LSA(len(Magic)) {
		return errors.Wrapf(ErrCorruptRecord, "%s precedes the first record", lsa)
	}
	n, err := c.r.ReadAt(c.head[:], int64(lsa))
	if n == 0 && err != nil {
		if err == io.EOF {
			return errors.Wrapf(ErrCorruptRecord, "%s is beyond the end of the log", lsa)
		}
		return errors.Wrapf(err, "reading record at %s", lsa)
	}
	length, vn := binary.Uvarint(c.head[:n])
	if vn <= 0 || n < vn+4 {
		return errors.Wrapf(ErrCorruptRecord, "%s: bad frame header", lsa)
	}
	if length > MaxPayloadLen {
		return errors.Wrapf(ErrCorruptRecord, "%s: payload length %d", lsa, length)
	}
	sum := binary.LittleEndian.Uint32(c.head[vn:])

	if cap(c.payload) < int(length) {
		c.payload = make([]byte, length)
	}
	c.payload = c.payload[:length]
	if n, err := c.r.ReadAt(c.payload, int64(lsa)+int64(vn)+4); n < len(c.payload) {
		if err == nil || err == io.EOF {
			return errors.Wrapf(ErrCorruptRecord, "%s: truncated payload", lsa)
		}
		return errors.Wrapf(err, "reading record at %s", lsa)
	}
	if err := checkFrame(lsa, sum, c.payload); err != nil {
		return err
	}
	h, err := decodeHeader(lsa, c.payload)
	if err != nil {
		return err
	}

	*rec = Record{Header: h}
	body := c.payload[payloadHeaderLen:]
	switch h.Type {
	case RecordPageRedo:
		if len(body) < 2 {
			return errors.Wrapf(ErrCorruptRecord, "%s: page redo body", lsa)
		}
		rec.Offset = binary.BigEndian.Uint16(body)
		if rec.Data, err = c.decode(body[2:]); err != nil {
			return errors.Wrapf(errors.Mark(err, ErrCorruptRecord), "%s: decompressing", lsa)
		}
	case RecordVolumeExtend:
		if len(body) != 4 {
			return errors.Wrapf(ErrCorruptRecord, "%s: volume extend body", lsa)
		}
		rec.Pages = int32(binary.BigEndian.Uint32(body))
	}
	return nil
}

func (c *Cursor) decode(src []byte) ([]byte, error) {
	n, err := snappy.DecodedLen(src)
	if err != nil {
		return nil, err
	}
	if len(c.decoded) < n {
		c.decoded = make([]byte, n)
	}
	return snappy.Decode(c.decoded, src)
}

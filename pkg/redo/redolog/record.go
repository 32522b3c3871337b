// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package redolog implements the on-disk format of the redo log.
//
// A log starts with an 8 byte magic followed by frames. Each frame is a
// uvarint payload length, a little-endian CRC-32C of the payload, and the
// payload. The LSA of a record is the offset of its frame, so LSAs increase
// with log order and NullLSA is never assigned.
//
// Payload layout:
//
//	type     1 byte
//	volume   2 bytes, big-endian
//	page     4 bytes, big-endian
//	body     PageRedo: 2 byte offset, snappy-compressed data
//	         VolumeExtend: 4 byte page count
package redolog

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/cockroachdb/redoapply/pkg/redo/redobase"
)

// Magic opens every redo log.
const Magic = "REDOLOG1"

// MaxPayloadLen bounds a frame's payload; longer lengths are treated as
// corruption.
const MaxPayloadLen = 1 << 20

const (
	payloadHeaderLen  = 1 + 2 + 4
	maxFrameHeaderLen = binary.MaxVarintLen64 + 4
)

// ErrCorruptRecord is returned for frames that fail validation.
var ErrCorruptRecord = errors.New("corrupt redo log record")

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// RecordType identifies the operation a record redoes.
type RecordType uint8

const (
	// RecordPageRedo writes Data at Offset within a page.
	RecordPageRedo RecordType = 1
	// RecordVolumeExtend grows a volume to Pages pages. Its key is the
	// volume header key.
	RecordVolumeExtend RecordType = 2
)

// SafeFormat implements the redact.SafeFormatter interface.
func (t RecordType) SafeFormat(w redact.SafePrinter, _ rune) {
	switch t {
	case RecordPageRedo:
		w.SafeString("page-redo")
	case RecordVolumeExtend:
		w.SafeString("volume-extend")
	default:
		w.Printf("unknown(%d)", redact.SafeUint(t))
	}
}

func (t RecordType) String() string {
	return redact.StringWithoutMarkers(t)
}

// Header is the part of a record needed to schedule it.
type Header struct {
	LSA  redobase.LSA
	Type RecordType
	Key  redobase.PageKey
}

// Record is a decoded log record.
type Record struct {
	Header
	// Offset and Data describe a page write.
	Offset uint16
	Data   []byte
	// Pages is the new size of an extended volume.
	Pages int32
}

func (h Header) validate() error {
	switch h.Type {
	case RecordPageRedo:
		if h.Key.IsVolumeHeader() {
			return errors.Newf("page redo record for volume header %s", h.Key)
		}
	case RecordVolumeExtend:
		if !h.Key.IsVolumeHeader() {
			return errors.Newf("volume extend record for page %s", h.Key)
		}
	default:
		return errors.Newf("unknown record type %s", h.Type)
	}
	return nil
}

func encodeHeader(buf []byte, h Header) []byte {
	buf = append(buf, byte(h.Type))
	buf = binary.BigEndian.AppendUint16(buf, uint16(h.Key.VolID))
	return binary.BigEndian.AppendUint32(buf, uint32(h.Key.PageID))
}

func decodeHeader(lsa redobase.LSA, payload []byte) (Header, error) {
	if len(payload) < payloadHeaderLen {
		return Header{}, errors.Wrapf(ErrCorruptRecord, "%s: short payload (%d bytes)", lsa, len(payload))
	}
	h := Header{
		LSA:  lsa,
		Type: RecordType(payload[0]),
		Key: redobase.MakePageKey(
			redobase.VolumeID(binary.BigEndian.Uint16(payload[1:])),
			redobase.PageID(binary.BigEndian.Uint32(payload[3:])),
		),
	}
	if err := h.validate(); err != nil {
		return Header{}, errors.Mark(errors.Wrapf(err, "%s", lsa), ErrCorruptRecord)
	}
	return h, nil
}

// checkFrame verifies a frame's checksum.
func checkFrame(lsa redobase.LSA, sum uint32, payload []byte) error {
	if got := crc32.Checksum(payload, crcTable); got != sum {
		return errors.Wrapf(ErrCorruptRecord, "%s: checksum mismatch (%08x != %08x)",
			lsa, redact.SafeUint(got), redact.SafeUint(sum))
	}
	return nil
}

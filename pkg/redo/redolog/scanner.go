// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package redolog

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redoapply/pkg/redo/redobase"
)

// Scanner reads record headers in log order. Bodies are checksummed but not
// decoded.
//
//	s := redolog.NewScanner(r)
//	for s.Next() {
//		h := s.Header()
//		...
//	}
//	if err := s.Err(); err != nil {
//		...
//	}
type Scanner struct {
	r       *bufio.Reader
	off     int64
	header  Header
	pages   int32
	payload []byte
	err     error
	started bool
}

// NewScanner returns a Scanner reading the log in r from the beginning.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReaderSize(r, 64<<10)}
}

// Next advances to the next record. It returns false at the end of the log
// or on error.
func (s *Scanner) Next() bool {
	if s.err != nil {
		return false
	}
	if !s.started {
		s.started = true
		var magic [len(Magic)]byte
		if _, err := io.ReadFull(s.r, magic[:]); err != nil || string(magic[:]) != Magic {
			s.err = errors.Wrap(ErrCorruptRecord, "missing redo log magic")
			return false
		}
		s.off = int64(len(Magic))
	}

	lsa := redobase.LSA(s.off)
	length, err := binary.ReadUvarint(s.r)
	if err == io.EOF {
		return false
	}
	if err != nil {
		s.err = errors.Wrapf(ErrCorruptRecord, "%s: reading length: %v", lsa, err)
		return false
	}
	if length > MaxPayloadLen {
		s.err = errors.Wrapf(ErrCorruptRecord, "%s: payload length %d", lsa, length)
		return false
	}
	var sum [4]byte
	if _, err := io.ReadFull(s.r, sum[:]); err != nil {
		s.err = errors.Wrapf(ErrCorruptRecord, "%s: truncated frame", lsa)
		return false
	}
	if cap(s.payload) < int(length) {
		s.payload = make([]byte, length)
	}
	s.payload = s.payload[:length]
	if _, err := io.ReadFull(s.r, s.payload); err != nil {
		s.err = errors.Wrapf(ErrCorruptRecord, "%s: truncated payload", lsa)
		return false
	}
	if err := checkFrame(lsa, binary.LittleEndian.Uint32(sum[:]), s.payload); err != nil {
		s.err = err
		return false
	}
	s.header, err = decodeHeader(lsa, s.payload)
	if err != nil {
		s.err = err
		return false
	}
	s.pages = 0
	if s.header.Type == RecordVolumeExtend {
		if len(s.payload) != payloadHeaderLen+4 {
			s.err = errors.Wrapf(ErrCorruptRecord, "%s: volume extend body", lsa)
			return false
		}
		s.pages = int32(binary.BigEndian.Uint32(s.payload[payloadHeaderLen:]))
	}
	s.off += int64(uvarintLen(length)) + 4 + int64(length)
	return true
}

// Header returns the header of the current record.
func (s *Scanner) Header() Header {
	return s.header
}

// Pages returns the new volume size if the current record is a volume
// extension.
func (s *Scanner) Pages() int32 {
	return s.pages
}

// Err returns the error that stopped the scan, if any.
func (s *Scanner) Err() error {
	return s.err
}

func uvarintLen(v uint64) int {
	var buf [binary.MaxVarintLen64]byte
	return binary.PutUvarint(buf[:], v)
}

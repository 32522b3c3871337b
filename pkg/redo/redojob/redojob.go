// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package redojob turns redo log records into jobs for the redo engine.
//
// A job only carries the page key, LSA and barrier flag of its record. The
// worker executing it re-reads the record through its own log cursor and
// decompresses the body into its own buffers, so nothing but the page store
// is shared between workers.
package redojob

import (
	"context"
	"io"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redoapply/pkg/redo"
	"github.com/cockroachdb/redoapply/pkg/redo/redobase"
	"github.com/cockroachdb/redoapply/pkg/redo/redolog"
	"github.com/cockroachdb/redoapply/pkg/storage/pagestore"
	"github.com/cockroachdb/redoapply/pkg/util/log"
)

// ErrPageOverflow is returned for page writes extending past the page end.
var ErrPageOverflow = errors.New("write past end of page")

// Stats counts the records applied through a Factory's jobs.
type Stats struct {
	// Applied is the number of records whose effect was written.
	Applied int64
	// Skipped is the number of page records already reflected on the page.
	Skipped int64
}

// Factory creates jobs replaying a log against a page store.
type Factory struct {
	store *pagestore.Store
	log   io.ReaderAt

	applied atomic.Int64
	skipped atomic.Int64
}

// NewFactory returns a Factory for records of the log in r, applied to store.
func NewFactory(store *pagestore.Store, r io.ReaderAt) *Factory {
	return &Factory{store: store, log: r}
}

// Scratch is the per-worker state used by jobs: a log cursor, the record
// being applied (whose data aliases the cursor's decompression buffer) and a
// page buffer.
type Scratch struct {
	workerID int
	cursor   *redolog.Cursor
	rec      redolog.Record
	page     []byte
}

var _ redo.TaskLocal = (*Scratch)(nil)

// Close releases the buffers.
func (s *Scratch) Close() error {
	s.cursor, s.page = nil, nil
	s.rec = redolog.Record{}
	return nil
}

// NewTaskLocal creates the Scratch of a worker. It is meant to be used as
// redo.Config.NewTaskLocal.
func (f *Factory) NewTaskLocal(workerID int) (redo.TaskLocal, error) {
	return &Scratch{
		workerID: workerID,
		cursor:   redolog.NewCursor(f.log),
		page:     make([]byte, f.store.PageSize()),
	}, nil
}

// NewJob returns the job redoing the record described by h.
func (f *Factory) NewJob(h redolog.Header) (redo.Job, error) {
	switch h.Type {
	case redolog.RecordPageRedo:
		return &pageRedoJob{f: f, key: h.Key, lsa: h.LSA}, nil
	case redolog.RecordVolumeExtend:
		return &volumeExtendJob{f: f, key: h.Key, lsa: h.LSA}, nil
	default:
		return nil, errors.Wrapf(redolog.ErrCorruptRecord, "%s: no job for record type %s", h.LSA, h.Type)
	}
}

// Stats returns the records applied so far.
func (f *Factory) Stats() Stats {
	return Stats{Applied: f.applied.Load(), Skipped: f.skipped.Load()}
}

// read loads the record of a job through the worker's cursor and checks it
// against the job.
func (f *Factory) read(
	local redo.TaskLocal, key redobase.PageKey, lsa redobase.LSA, typ redolog.RecordType,
) (*Scratch, error) {
	s, ok := local.(*Scratch)
	if !ok {
		return nil, errors.AssertionFailedf("redo job run with task state %T", local)
	}
	if err := s.cursor.ReadAt(lsa, &s.rec); err != nil {
		return nil, err
	}
	if s.rec.Key != key || s.rec.Type != typ {
		return nil, errors.Wrapf(redolog.ErrCorruptRecord,
			"%s: expected %s record for %s, found %s record for %s", lsa, typ, key, s.rec.Type, s.rec.Key)
	}
	return s, nil
}

type pageRedoJob struct {
	f   *Factory
	key redobase.PageKey
	lsa redobase.LSA
}

func (j *pageRedoJob) Key() redobase.PageKey { return j.key }
func (j *pageRedoJob) Order() redobase.LSA   { return j.lsa }
func (j *pageRedoJob) IsBarrier() bool       { return false }

// Execute writes the record's data into the page unless the page already
// carries this record or a later one.
func (j *pageRedoJob) Execute(ctx context.Context, local redo.TaskLocal) error {
	s, err := j.f.read(local, j.key, j.lsa, redolog.RecordPageRedo)
	if err != nil {
		return err
	}
	pageLSA, page, err := j.f.store.ReadPage(j.key, s.page)
	if err != nil {
		return err
	}
	s.page = page
	if pageLSA >= j.lsa {
		j.f.skipped.Add(1)
		log.VEventf(ctx, 4, "skipping %s at %s: page is at %s", j.key, j.lsa, pageLSA)
		return nil
	}
	end := int(s.rec.Offset) + len(s.rec.Data)
	if end > len(page) {
		return errors.Wrapf(ErrPageOverflow, "%s: %d bytes at offset %d on a %d byte page",
			j.lsa, len(s.rec.Data), s.rec.Offset, len(page))
	}
	copy(page[s.rec.Offset:end], s.rec.Data)
	if err := j.f.store.WritePage(j.key, j.lsa, page); err != nil {
		return err
	}
	j.f.applied.Add(1)
	return nil
}

type volumeExtendJob struct {
	f   *Factory
	key redobase.PageKey
	lsa redobase.LSA
}

func (j *volumeExtendJob) Key() redobase.PageKey { return j.key }
func (j *volumeExtendJob) Order() redobase.LSA   { return j.lsa }

// IsBarrier is true: page jobs queued after the extension may target the new
// pages, and jobs queued before it must not observe the new size.
func (j *volumeExtendJob) IsBarrier() bool { return true }

// Execute grows the volume. Extensions to a size the volume already has are
// skipped, so replaying the log twice is harmless.
func (j *volumeExtendJob) Execute(ctx context.Context, local redo.TaskLocal) error {
	s, err := j.f.read(local, j.key, j.lsa, redolog.RecordVolumeExtend)
	if err != nil {
		return err
	}
	vol := j.key.VolID
	if cur := j.f.store.VolumePages(vol); cur >= s.rec.Pages {
		j.f.skipped.Add(1)
		return nil
	}
	if err := j.f.store.ExtendVolume(vol, s.rec.Pages); err != nil {
		return err
	}
	log.VEventf(ctx, 2, "extended volume %d to %d pages at %s", vol, s.rec.Pages, j.lsa)
	j.f.applied.Add(1)
	return nil
}

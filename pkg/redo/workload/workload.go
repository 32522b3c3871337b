// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package workload generates synthetic redo logs.
package workload

import (
	"math/rand"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redoapply/pkg/redo/redobase"
	"github.com/cockroachdb/redoapply/pkg/redo/redolog"
	"github.com/cockroachdb/redoapply/pkg/storage/pagestore"
)

// Config describes a generated log.
type Config struct {
	// Seed makes generation deterministic.
	Seed int64
	// Records is the total number of records, including the initial volume
	// extensions.
	Records int
	// Volumes is the number of volumes, numbered from 1.
	Volumes int
	// PagesPerVolume is the initial size of every volume.
	PagesPerVolume int32
	// BarrierEvery is the number of records between volume extensions. Zero
	// disables extensions after the initial ones.
	BarrierEvery int
	// MaxWriteBytes bounds the size of a page write.
	MaxWriteBytes int
	// PageSize is the page size of the store the log targets.
	PageSize int
}

// DefaultConfig is a mid-sized workload.
var DefaultConfig = Config{
	Seed:           1,
	Records:        65536,
	Volumes:        4,
	PagesPerVolume: 64,
	BarrierEvery:   1000,
	MaxWriteBytes:  32,
	PageSize:       pagestore.DefaultPageSize,
}

func (cfg *Config) validate() error {
	switch {
	case cfg.Volumes <= 0 || cfg.Volumes > 1<<15-1:
		return errors.Newf("invalid volume count %d", cfg.Volumes)
	case cfg.Records < cfg.Volumes:
		return errors.Newf("%d records cannot allocate %d volumes", cfg.Records, cfg.Volumes)
	case cfg.PagesPerVolume <= 0:
		return errors.Newf("invalid volume size %d", cfg.PagesPerVolume)
	case cfg.PageSize <= 0 || cfg.PageSize > 1<<16:
		return errors.Newf("invalid page size %d", cfg.PageSize)
	case cfg.MaxWriteBytes <= 0 || cfg.MaxWriteBytes > cfg.PageSize:
		return errors.Newf("write size %d out of range for %d byte pages", cfg.MaxWriteBytes, cfg.PageSize)
	case cfg.BarrierEvery < 0:
		return errors.Newf("invalid barrier interval %d", cfg.BarrierEvery)
	}
	return nil
}

// Summary describes a generated log.
type Summary struct {
	Records    int
	PageWrites int
	Extends    int
	// VolumePages is the final size of every volume, indexed by volume ID.
	VolumePages map[redobase.VolumeID]int32
	Bytes       int64
}

// Generate writes a log to w. Every volume is first allocated by an extension
// record; the remaining records are page writes against allocated pages,
// with one volume growing by a quarter of its initial size every
// BarrierEvery records.
func Generate(cfg Config, w *redolog.Writer) (Summary, error) {
	if err := cfg.validate(); err != nil {
		return Summary{}, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	sum := Summary{VolumePages: make(map[redobase.VolumeID]int32, cfg.Volumes)}
	var rec redolog.Record
	data := make([]byte, cfg.MaxWriteBytes)

	extend := func(vol redobase.VolumeID, pages int32) error {
		rec = redolog.Record{Header: redolog.Header{
			Type: redolog.RecordVolumeExtend,
			Key:  redobase.VolumeHeaderKey(vol),
		}, Pages: pages}
		if _, err := w.Append(&rec); err != nil {
			return err
		}
		sum.VolumePages[vol] = pages
		sum.Extends++
		return nil
	}

	for v := 1; v <= cfg.Volumes; v++ {
		if err := extend(redobase.VolumeID(v), cfg.PagesPerVolume); err != nil {
			return Summary{}, err
		}
	}
	growth := max(1, cfg.PagesPerVolume/4)
	for i := cfg.Volumes; i < cfg.Records; i++ {
		vol := redobase.VolumeID(1 + rng.Intn(cfg.Volumes))
		if cfg.BarrierEvery > 0 && i%cfg.BarrierEvery == 0 {
			if err := extend(vol, sum.VolumePages[vol]+growth); err != nil {
				return Summary{}, err
			}
			continue
		}
		n := 1 + rng.Intn(cfg.MaxWriteBytes)
		rng.Read(data[:n])
		rec = redolog.Record{
			Header: redolog.Header{
				Type: redolog.RecordPageRedo,
				Key:  redobase.MakePageKey(vol, redobase.PageID(rng.Int31n(sum.VolumePages[vol]))),
			},
			Offset: uint16(rng.Intn(cfg.PageSize - n + 1)),
			Data:   data[:n],
		}
		if _, err := w.Append(&rec); err != nil {
			return Summary{}, err
		}
		sum.PageWrites++
	}
	sum.Records = sum.Extends + sum.PageWrites
	sum.Bytes = w.Size()
	return sum, nil
}

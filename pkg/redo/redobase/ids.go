// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package redobase defines the identifiers shared by the redo engine, the log
// format and the page store.
package redobase

import (
	"fmt"

	"github.com/cockroachdb/redact"
)

// VolumeID identifies a database volume.
type VolumeID int16

// PageID identifies a page within a volume.
type PageID int32

// VolumeHeaderPageID is the page id used by operations that apply to a volume
// as a whole rather than to one of its pages.
const VolumeHeaderPageID PageID = -1

// SafeValue implements the redact.SafeValue interface.
func (VolumeID) SafeValue() {}

// SafeValue implements the redact.SafeValue interface.
func (PageID) SafeValue() {}

// PageKey (a VPID) identifies the page a redo job mutates. Two jobs with equal
// keys are never applied concurrently.
type PageKey struct {
	VolID  VolumeID
	PageID PageID
}

// MakePageKey returns the key of page pageID on volume volID.
func MakePageKey(volID VolumeID, pageID PageID) PageKey {
	return PageKey{VolID: volID, PageID: pageID}
}

// VolumeHeaderKey returns the key used for operations on the volume itself.
func VolumeHeaderKey(volID VolumeID) PageKey {
	return PageKey{VolID: volID, PageID: VolumeHeaderPageID}
}

// IsVolumeHeader returns whether the key designates a whole volume.
func (k PageKey) IsVolumeHeader() bool {
	return k.PageID == VolumeHeaderPageID
}

// Less orders keys by volume, then page.
func (k PageKey) Less(o PageKey) bool {
	if k.VolID != o.VolID {
		return k.VolID < o.VolID
	}
	return k.PageID < o.PageID
}

// SafeFormat implements the redact.SafeFormatter interface.
func (k PageKey) SafeFormat(w redact.SafePrinter, _ rune) {
	if k.IsVolumeHeader() {
		w.Printf("%d|hdr", k.VolID)
		return
	}
	w.Printf("%d|%d", k.VolID, k.PageID)
}

func (k PageKey) String() string {
	return redact.StringWithoutMarkers(k)
}

// LSA (log sequence address) is the position of a record in the log. LSAs
// increase monotonically with log order.
type LSA uint64

// NullLSA precedes every record in the log.
const NullLSA LSA = 0

// IsNull returns whether lsa is NullLSA.
func (lsa LSA) IsNull() bool {
	return lsa == NullLSA
}

// SafeFormat implements the redact.SafeFormatter interface.
func (lsa LSA) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("lsa:%d", redact.SafeUint(lsa))
}

func (lsa LSA) String() string {
	return redact.StringWithoutMarkers(lsa)
}

var _ fmt.Stringer = PageKey{}
var _ redact.SafeFormatter = LSA(0)

// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package redobase

import (
	"testing"

	"github.com/cockroachdb/redact"
	"github.com/stretchr/testify/require"
)

func TestPageKeyFormat(t *testing.T) {
	k := MakePageKey(1, 17)
	require.Equal(t, "1|17", k.String())
	require.Equal(t, "1|hdr", VolumeHeaderKey(1).String())
	require.True(t, VolumeHeaderKey(2).IsVolumeHeader())
	require.False(t, k.IsVolumeHeader())

	// Keys and LSAs are safe to log unredacted.
	require.Equal(t, redact.RedactableString("applied 1|17 at lsa:42"),
		redact.Sprintf("applied %s at %s", k, LSA(42)))
}

func TestPageKeyOrdering(t *testing.T) {
	require.True(t, MakePageKey(1, 5).Less(MakePageKey(2, 0)))
	require.True(t, MakePageKey(1, 5).Less(MakePageKey(1, 6)))
	require.True(t, VolumeHeaderKey(1).Less(MakePageKey(1, 0)))
	require.False(t, MakePageKey(1, 5).Less(MakePageKey(1, 5)))
	require.Equal(t, MakePageKey(3, 4), PageKey{VolID: 3, PageID: 4})
	require.True(t, NullLSA.IsNull())
	require.Equal(t, "lsa:7", LSA(7).String())
}

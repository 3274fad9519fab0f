package ui

import (
	"strings"
	"testing"

	"github.com/roffe/rigsync"
	"github.com/stretchr/testify/assert"
)

func TestColorSegment(t *testing.T) {
	tests := []struct {
		seg  rigsync.Segment
		code string
	}{
		{rigsync.SegmentSSB, "\x1b[32m"},
		{rigsync.SegmentMixedModes, "\x1b[32m"},
		{rigsync.SegmentNarrowDigi, "\x1b[33m"},
		{rigsync.SegmentDigimodes, "\x1b[33m"},
		{rigsync.SegmentCW, "\x1b[31m"},
		{rigsync.SegmentUpperBeacon, "\x1b[31m"},
		{rigsync.SegmentAbove, "\x1b[31m"},
	}
	for _, tt := range tests {
		got := ColorSegment(tt.seg)
		assert.True(t, strings.HasPrefix(got, tt.code), "%s: %q", tt.seg, got)
		assert.Contains(t, got, tt.seg.String())
	}
}

func TestStatusLine(t *testing.T) {
	line := StatusLine(rigsync.Status{
		Primary:   432200000,
		Uplink:    2400200000,
		Secondary: 10489700000,
		Offset:    rigsync.DefaultOffset,
		Segment:   rigsync.SegmentSSB,
	})
	assert.Contains(t, line, "TX IF   432.20000 MHz")
	assert.Contains(t, line, "Downlink 10489.70000 MHz")
	assert.Contains(t, line, "SSB")
}

package rigsync

import (
	"fmt"
	"sort"
)

// Segment is a part of the QO-100 narrowband transponder downlink.
type Segment int

const (
	SegmentBelow Segment = iota
	SegmentLowerBeacon
	SegmentCW
	SegmentNarrowDigi
	SegmentDigimodes
	SegmentMixedModes
	SegmentSSB
	SegmentUpperBeacon
	SegmentAbove
)

// segmentStarts holds the first frequency of every segment after Below.
var segmentStarts = [...]Frequency{
	10489550000,
	10489555000,
	10489600000,
	10489620000,
	10489640000,
	10489690000,
	10489795000,
	10489800000,
}

var segmentNames = [...]string{
	"Below",
	"LowerBeacon",
	"CW",
	"NarrowDigi",
	"Digimodes",
	"MixedModes",
	"SSB",
	"UpperBeacon",
	"Above",
}

func (s Segment) String() string {
	if s < 0 || int(s) >= len(segmentNames) {
		return "Unknown"
	}
	return segmentNames[s]
}

// SegmentOf classifies a downlink frequency. A frequency on a boundary
// belongs to the segment starting there.
func SegmentOf(hz Frequency) Segment {
	return Segment(sort.Search(len(segmentStarts), func(i int) bool {
		return segmentStarts[i] > hz
	}))
}

// SegmentClass tells how welcome a transmission is in a segment.
type SegmentClass int

const (
	// beacons, CW and out of band
	ClassOther SegmentClass = iota
	ClassDigital
	ClassVoice
)

func (s Segment) Class() SegmentClass {
	switch s {
	case SegmentSSB, SegmentMixedModes:
		return ClassVoice
	case SegmentNarrowDigi, SegmentDigimodes:
		return ClassDigital
	default:
		return ClassOther
	}
}

func (s Segment) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Segment) UnmarshalText(b []byte) error {
	for i, name := range segmentNames {
		if name == string(b) {
			*s = Segment(i)
			return nil
		}
	}
	return fmt.Errorf("unknown segment %q", b)
}

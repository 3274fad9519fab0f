package ui

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/roffe/rigsync"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
)

func init() {
	// gocui renders the escape sequences itself, stdout is not consulted
	for _, c := range []*color.Color{green, yellow, red} {
		c.EnableColor()
	}
}

func segmentColor(s rigsync.Segment) *color.Color {
	switch s.Class() {
	case rigsync.ClassVoice:
		return green
	case rigsync.ClassDigital:
		return yellow
	default:
		return red
	}
}

// ColorSegment renders the segment name right aligned in its class colour.
func ColorSegment(s rigsync.Segment) string {
	return segmentColor(s).Sprintf("%11s", s)
}

// StatusLine is the single line status used when running without the panel.
func StatusLine(st rigsync.Status) string {
	return fmt.Sprintf("TX IF %s | Uplink %s | Downlink %s | Offset %s | %s",
		st.Primary, st.Uplink, st.Secondary, st.Offset, ColorSegment(st.Segment))
}

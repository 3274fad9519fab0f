package rigsync

import (
	"fmt"
	"strconv"
)

// Frequency is a count of Hertz. Zero means unknown.
type Frequency int64

const Unknown Frequency = 0

const (
	Hz  Frequency = 1
	KHz           = 1000 * Hz
	MHz           = 1000 * KHz
	GHz           = 1000 * MHz
)

// maxCATDigits is the largest value that fits the 11 digit CAT field.
const maxCATDigits Frequency = 100 * GHz

func (f Frequency) MHz() float64 {
	return float64(f) / float64(MHz)
}

func (f Frequency) String() string {
	return fmt.Sprintf("%11.5f MHz", f.MHz())
}

// formatDigits renders f zero padded to 11 decimal digits.
func formatDigits(f Frequency) string {
	return fmt.Sprintf("%011d", int64(f))
}

// parseDigits parses a run of unsigned decimal digits.
func parseDigits(b []byte) (Frequency, error) {
	if len(b) == 0 {
		return Unknown, fmt.Errorf("%w: no digits", ErrMalformedReply)
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return Unknown, fmt.Errorf("%w: non digit %q", ErrMalformedReply, c)
		}
	}
	v, err := strconv.ParseUint(string(b), 10, 63)
	if err != nil {
		return Unknown, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}
	return Frequency(v), nil
}

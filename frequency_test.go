package rigsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDigitsRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := Frequency(rapid.Int64Range(0, int64(maxCATDigits)-1).Draw(t, "h"))
		s := formatDigits(h)
		if len(s) != 11 {
			t.Fatalf("formatDigits(%d) = %q, want 11 digits", h, s)
		}
		got, err := parseDigits([]byte(s))
		if err != nil {
			t.Fatalf("parseDigits(%q): %v", s, err)
		}
		if got != h {
			t.Fatalf("round trip %d -> %q -> %d", h, s, got)
		}
	})
}

func TestFrequencyString(t *testing.T) {
	assert.Equal(t, "  432.20000 MHz", Frequency(432200000).String())
	assert.Equal(t, "10489.70000 MHz", Frequency(10489700000).String())
}

func TestDecodeFA(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    Frequency
		wantErr bool
	}{
		{name: "valid", reply: "FA00432100000;", want: 432100000},
		{name: "shf", reply: "FA10489700000;", want: 10489700000},
		{name: "zero", reply: "FA00000000000;", want: 0},
		{name: "short", reply: "FA0043210000;", wantErr: true},
		{name: "wrong prefix", reply: "FB00432100000;", wantErr: true},
		{name: "no terminator", reply: "FA00432100000:", wantErr: true},
		{name: "non digit", reply: "FA0043210X000;", wantErr: true},
		{name: "sign", reply: "FA-0432100000;", wantErr: true},
		{name: "empty", reply: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeFA([]byte(tt.reply))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedReply)
				assert.Equal(t, Unknown, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

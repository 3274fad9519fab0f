//go:build windows

package rigsync

import (
	"errors"
	"time"
)

func openPty(time.Duration) (Transport, string, error) {
	return nil, "", errors.New("pseudo terminals are not supported on windows, use a com0com port pair")
}

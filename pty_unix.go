//go:build !windows

package rigsync

import (
	"errors"
	"os"
	"time"

	"github.com/creack/pty"
)

// ptyTransport is the master side of a pseudo terminal. The slave is held
// open as well so reads don't fail with EIO while no client is attached.
type ptyTransport struct {
	master, tty *os.File
	timeout     time.Duration
}

func openPty(readTimeout time.Duration) (Transport, string, error) {
	master, tty, err := pty.Open()
	if err != nil {
		return nil, "", err
	}
	return &ptyTransport{master: master, tty: tty, timeout: readTimeout}, tty.Name(), nil
}

func (p *ptyTransport) Read(b []byte) (int, error) {
	if p.timeout > 0 {
		if err := p.master.SetReadDeadline(time.Now().Add(p.timeout)); err != nil {
			return 0, err
		}
	}
	n, err := p.master.Read(b)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return n, nil
	}
	return n, err
}

func (p *ptyTransport) Write(b []byte) (int, error) {
	return p.master.Write(b)
}

func (p *ptyTransport) SetReadTimeout(t time.Duration) error {
	p.timeout = t
	return nil
}

// ResetInputBuffer drains whatever the client has written so far.
func (p *ptyTransport) ResetInputBuffer() error {
	buf := make([]byte, 256)
	for {
		if err := p.master.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
			return err
		}
		n, err := p.master.Read(buf)
		if errors.Is(err, os.ErrDeadlineExceeded) || (err == nil && n == 0) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (p *ptyTransport) Close() error {
	err := p.master.Close()
	if terr := p.tty.Close(); err == nil {
		err = terr
	}
	return err
}

package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/jroimartin/gocui"
	"github.com/roffe/rigsync"
)

type Syncer interface {
	Status() rigsync.Status
	Step(delta rigsync.Frequency) rigsync.Frequency
	Watch() (<-chan rigsync.Status, func())
}

// Panel is the full screen status display.
type Panel struct {
	g    *gocui.Gui
	sync Syncer

	small, large rigsync.Frequency

	mu     sync.Mutex
	status rigsync.Status

	// done is closed once the main loop has returned, gocui drops
	// updates posted after that
	exitMu sync.Mutex
	done   chan struct{}
	onExit func()
}

const (
	viewStatus = "status"
	viewHelp   = "help"
	viewLog    = "log"

	statusWidth  = 32
	statusHeight = 6
)

func NewPanel(s Syncer, small, large rigsync.Frequency) (*Panel, error) {
	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		return nil, err
	}
	p := &Panel{
		g:      g,
		sync:   s,
		small:  small,
		large:  large,
		status: s.Status(),
		done:   make(chan struct{}),
	}
	g.SetManagerFunc(p.layout)
	if err := p.keybindings(); err != nil {
		g.Close()
		return nil, err
	}
	return p, nil
}

// OnExit registers f to run after the main loop returns and before the
// terminal is restored.
func (p *Panel) OnExit(f func()) {
	p.onExit = f
}

// Run blocks until the user quits or ctx is done. The terminal is restored
// before Run returns.
func (p *Panel) Run(ctx context.Context) error {
	defer p.g.Close()

	updates, cancel := p.sync.Watch()
	defer cancel()
	go func() {
		for {
			select {
			case <-p.done:
				return
			case <-ctx.Done():
				p.update(func(*gocui.Gui) error { return gocui.ErrQuit })
				return
			case st, ok := <-updates:
				if !ok {
					return
				}
				p.mu.Lock()
				p.status = st
				p.mu.Unlock()
				p.update(p.drawStatus)
			}
		}
	}()

	err := p.g.MainLoop()
	p.exit()
	if err != nil && !errors.Is(err, gocui.ErrQuit) {
		return err
	}
	return nil
}

// exit stops further updates from reaching the gui.
func (p *Panel) exit() {
	p.exitMu.Lock()
	select {
	case <-p.done:
		p.exitMu.Unlock()
		return
	default:
		close(p.done)
	}
	p.exitMu.Unlock()
	if p.onExit != nil {
		p.onExit()
	}
}

func (p *Panel) update(f func(*gocui.Gui) error) {
	p.exitMu.Lock()
	defer p.exitMu.Unlock()
	select {
	case <-p.done:
		return
	default:
	}
	p.g.Update(f)
}

// LogWriter returns a writer appending to the log view. Lines written after
// the panel has exited are dropped.
func (p *Panel) LogWriter() io.Writer {
	return logWriter{p}
}

type logWriter struct {
	p *Panel
}

func (w logWriter) Write(b []byte) (int, error) {
	line := append([]byte(nil), b...)
	w.p.update(func(g *gocui.Gui) error {
		v, err := g.View(viewLog)
		if err != nil {
			return nil
		}
		_, err = v.Write(line)
		return err
	})
	return len(b), nil
}

func (p *Panel) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()
	if v, err := g.SetView(viewStatus, 0, 0, statusWidth, statusHeight); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "rigsync"
		if err := p.drawStatus(g); err != nil {
			return err
		}
	}
	if v, err := g.SetView(viewHelp, statusWidth+1, 0, max(maxX-1, statusWidth+2), statusHeight); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "keys"
		p.drawHelp(v)
	}
	if v, err := g.SetView(viewLog, 0, statusHeight+1, max(maxX-1, 1), max(maxY-1, statusHeight+2)); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = "log"
		v.Autoscroll = true
		v.Wrap = true
	}
	return nil
}

func (p *Panel) drawStatus(g *gocui.Gui) error {
	v, err := g.View(viewStatus)
	if err != nil {
		return nil
	}
	p.mu.Lock()
	st := p.status
	p.mu.Unlock()
	v.Clear()
	fmt.Fprintf(v, "TX IF:    %s\n", st.Primary)
	fmt.Fprintf(v, "Uplink:   %s\n", st.Uplink)
	fmt.Fprintf(v, "Downlink: %s\n", st.Secondary)
	fmt.Fprintf(v, "Offset:   %s\n", st.Offset)
	fmt.Fprintf(v, "Segment:  %s\n", ColorSegment(st.Segment))
	return nil
}

func (p *Panel) drawHelp(v *gocui.View) {
	v.Clear()
	fmt.Fprintf(v, "PgDn/PgUp  offset %+d/%+d Hz\n", p.large, -p.large)
	fmt.Fprintf(v, "Down/Up    offset %+d/%+d Hz\n", p.small, -p.small)
	fmt.Fprintln(v, "r          redraw")
	fmt.Fprintln(v, "q, Ctrl-C  quit")
}

func (p *Panel) redraw(g *gocui.Gui, _ *gocui.View) error {
	p.mu.Lock()
	p.status = p.sync.Status()
	p.mu.Unlock()
	if v, err := g.View(viewHelp); err == nil {
		p.drawHelp(v)
	}
	return p.drawStatus(g)
}

func (p *Panel) step(delta rigsync.Frequency) func(*gocui.Gui, *gocui.View) error {
	return func(*gocui.Gui, *gocui.View) error {
		p.sync.Step(delta)
		return nil
	}
}

func quit(*gocui.Gui, *gocui.View) error {
	return gocui.ErrQuit
}

func (p *Panel) keybindings() error {
	bindings := []struct {
		key     interface{}
		handler func(*gocui.Gui, *gocui.View) error
	}{
		{gocui.KeyPgdn, p.step(p.large)},
		{gocui.KeyPgup, p.step(-p.large)},
		{gocui.KeyArrowDown, p.step(p.small)},
		{gocui.KeyArrowUp, p.step(-p.small)},
		{'r', p.redraw},
		{'q', quit},
		{gocui.KeyCtrlC, quit},
	}
	for _, b := range bindings {
		if err := p.g.SetKeybinding("", b.key, gocui.ModNone, b.handler); err != nil {
			return err
		}
	}
	return nil
}

package main

import (
	"fmt"
	"image/color"
	"math"
	"sync"

	"github.com/nsf/termbox-go"
)

// termSim runs the box in a terminal: keys 1..9 toggle the buttons and the
// strip is drawn as a ring. It is both the port and the led backend.
type termSim struct {
	mu         sync.Mutex
	pins       []int
	pressed    map[int]bool
	pixels     []color.RGBA
	brightness uint8
	status     string
	onKey      func(ch rune) // extra keys, set before the first key arrives
	stop       func()
	closeOnce  sync.Once
	logger     flogger
}

func newTermSim(settings configSettings, pins []int, stop func()) (*termSim, error) {
	if err := termbox.Init(); err != nil {
		return nil, err
	}
	termbox.SetOutputMode(termbox.Output256)
	termbox.HideCursor()

	ts := &termSim{
		pins:    pins,
		pressed: make(map[int]bool),
		stop:    stop,
		logger:  newLogger(settings, "Sim"),
	}
	go ts.pollKeys()
	return ts, nil
}

func (ts *termSim) pollKeys() {
	for {
		ev := termbox.PollEvent()
		switch ev.Type {
		case termbox.EventKey:
			if ev.Key == termbox.KeyCtrlC || ev.Ch == 'q' {
				ts.stop()
				return
			}
			if ev.Ch >= '1' && ev.Ch <= '9' {
				ts.toggle(int(ev.Ch - '1'))
				continue
			}
			ts.mu.Lock()
			onKey := ts.onKey
			ts.mu.Unlock()
			if onKey != nil {
				onKey(ev.Ch)
			}
		case termbox.EventInterrupt, termbox.EventError:
			return
		}
	}
}

func (ts *termSim) toggle(i int) {
	if i >= len(ts.pins) {
		return
	}
	ts.mu.Lock()
	pin := ts.pins[i]
	ts.pressed[pin] = !ts.pressed[pin]
	ts.status = fmt.Sprintf("button %d %s", i+1, map[bool]string{true: "down", false: "up"}[ts.pressed[pin]])
	ts.mu.Unlock()
	ts.draw()
}

func (ts *termSim) setKeyHandler(f func(ch rune)) {
	ts.mu.Lock()
	ts.onKey = f
	ts.mu.Unlock()
}

func (ts *termSim) read(pin int) bool {
	if !isValidPin(pin) {
		return true
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return !ts.pressed[pin]
}

func (ts *termSim) cyclic() {}

func (ts *termSim) init(n int) error {
	ts.mu.Lock()
	ts.pixels = make([]color.RGBA, n)
	ts.mu.Unlock()
	return nil
}

func (ts *termSim) write(pixels []color.RGBA) {
	ts.mu.Lock()
	copy(ts.pixels, pixels)
	ts.mu.Unlock()
}

func (ts *termSim) setBrightness(b uint8) {
	ts.mu.Lock()
	ts.brightness = b
	ts.mu.Unlock()
}

func (ts *termSim) show() error {
	ts.draw()
	return nil
}

func (ts *termSim) close() {
	ts.closeOnce.Do(func() {
		termbox.Interrupt()
		termbox.Close()
	})
}

func (ts *termSim) draw() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
	n := len(ts.pixels)
	const cx, cy, r = 20, 8, 6
	for i, p := range ts.pixels {
		a := 2 * math.Pi * float64(i) / float64(n)
		x := cx + int(math.Round(2*r*math.Sin(a)))
		y := cy - int(math.Round(r*math.Cos(a)))
		termbox.SetCell(x, y, '●', term256(p), termbox.ColorDefault)
	}
	printLine(0, 2*cy+1, fmt.Sprintf("brightness %d  %s", ts.brightness, ts.status))
	printLine(0, 2*cy+2, "1-9 buttons, q quit")
	termbox.Flush()
}

func printLine(x, y int, s string) {
	for _, ch := range s {
		termbox.SetCell(x, y, ch, termbox.ColorDefault, termbox.ColorDefault)
		x++
	}
}

// term256 picks the closest entry of the 6x6x6 color cube
func term256(c color.RGBA) termbox.Attribute {
	if c.R == 0 && c.G == 0 && c.B == 0 {
		return termbox.ColorDefault
	}
	idx := 16 + 36*(int(c.R)*6/256) + 6*(int(c.G)*6/256) + int(c.B)*6/256
	return termbox.Attribute(idx + 1)
}

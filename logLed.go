package main

import (
	"fmt"
	"image/color"
	"strings"
	"sync"
)

// logLed is a strip that keeps what it was sent and logs every change
type logLed struct {
	mu         sync.Mutex
	pending    []color.RGBA
	shown      []color.RGBA
	frames     [][]color.RGBA // every shown frame that differs from the one before
	shows      int
	brightness uint8
	disableLog bool
	logger     flogger
}

func (ll *logLed) init(n int) error {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	ll.pending = make([]color.RGBA, n)
	ll.shown = make([]color.RGBA, n)
	ll.frames = make([][]color.RGBA, 0)
	for i := range ll.pending {
		ll.pending[i] = cBlack
		ll.shown[i] = cBlack
	}
	ll.logger = &ThreadLogger{name: "LEDs"}
	return nil
}

func (ll *logLed) write(pixels []color.RGBA) {
	ll.mu.Lock()
	copy(ll.pending, pixels)
	ll.mu.Unlock()
}

func (ll *logLed) setBrightness(b uint8) {
	ll.mu.Lock()
	ll.brightness = b
	ll.mu.Unlock()
}

func (ll *logLed) show() error {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	ll.shows++
	if len(ll.frames) > 0 && sameColors(ll.pending, ll.shown) {
		return nil
	}
	copy(ll.shown, ll.pending)
	ll.frames = append(ll.frames, append([]color.RGBA(nil), ll.pending...))
	if !ll.disableLog {
		ll.logger.Printf("show %s @%d", describeColors(ll.pending), ll.brightness)
	}
	return nil
}

func (ll *logLed) close() {}

func (ll *logLed) lastFrame() []color.RGBA {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	return append([]color.RGBA(nil), ll.shown...)
}

func (ll *logLed) frameCount() int {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	return len(ll.frames)
}

func (ll *logLed) showCount() int {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	return ll.shows
}

func (ll *logLed) getBrightness() uint8 {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	return ll.brightness
}

func sameColors(a, b []color.RGBA) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func describeColors(pixels []color.RGBA) string {
	parts := make([]string, len(pixels))
	for i, p := range pixels {
		if p == cBlack {
			parts[i] = "-"
			continue
		}
		parts[i] = fmt.Sprintf("%02x%02x%02x", p.R, p.G, p.B)
	}
	return strings.Join(parts, " ")
}

func (ll *logLed) allFrames() [][]color.RGBA {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	return append([][]color.RGBA(nil), ll.frames...)
}

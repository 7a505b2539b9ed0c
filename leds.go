package main

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/colornames"
)

// led backends
const (
	ledWS2812 = "ws2812"
	ledTerm   = "term"
	ledLog    = "log"
)

// ledStrip is the LED hardware. write takes pixels in physical order and
// nothing is visible until show.
type ledStrip interface {
	init(n int) error
	write(pixels []color.RGBA)
	setBrightness(b uint8)
	show() error
	close()
}

var (
	cRed        = colornames.Red
	cGreen      = colornames.Green
	cOrange     = colornames.Orange
	cBlue       = colornames.Blue
	cWhite      = colornames.White
	cYellow     = colornames.Yellow
	cBlueViolet = colornames.Blueviolet
	cBlack      = colornames.Black
)

// hue is a fully saturated color on a 0..255 wheel, 0 red, 85 green, 170 blue
func hue(h uint8) color.RGBA {
	r, g, b := colorful.Hsv(float64(h)*360/256, 1, 1).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// gaugeHue runs from green at the first of n LEDs towards red at the last
func gaugeHue(i, n int) uint8 {
	h := int(85 - 90.0/float64(n)*float64(i))
	return uint8((h + 256) % 256)
}

// scale8 dims v by brightness, 255 leaves it unchanged
func scale8(v, brightness uint8) uint8 {
	return uint8((uint16(v) * (uint16(brightness) + 1)) >> 8)
}

// mapRange re-maps x from [inMin, inMax] to [outMin, outMax] with integer math
func mapRange(x, inMin, inMax, outMin, outMax int) int {
	if inMax == inMin {
		return outMin
	}
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

// frame is the logical LED buffer, index 0 is the first LED clockwise
type frame []color.RGBA

func newFrame(n int) frame {
	f := make(frame, n)
	f.clear()
	return f
}

func (f frame) clear() {
	f.fill(cBlack)
}

func (f frame) fill(c color.RGBA) {
	for i := range f {
		f[i] = c
	}
}

// quarters lights i and the LEDs a quarter, half and three quarters round
// the ring from it
func (f frame) quarters(i int, c color.RGBA) {
	n := len(f)
	for _, off := range []int{0, n / 4, n / 2, n / 4 * 3} {
		f[(i+off)%n] = c
	}
}

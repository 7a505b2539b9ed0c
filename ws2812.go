package main

import (
	"image/color"

	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio"
)

// at 2.4MHz one SPI bit is 416ns, three of them make one WS2812 bit
const (
	ws2812BytesPerLed = 9
	ws2812ResetBytes  = 24 // > 50us low
)

// ws2812 drives the strip from SPI0 MOSI (GPIO 10)
type ws2812 struct {
	speed      int
	pixels     []color.RGBA
	brightness uint8
	buf        []byte
	logger     flogger
}

func newWS2812(settings configSettings) *ws2812 {
	return &ws2812{
		speed:      settings.GetInt(sSpiSpeed),
		brightness: uint8(settings.GetInt(sInitialBrightness)),
		logger:     newLogger(settings, "WS2812"),
	}
}

func (w *ws2812) init(n int) error {
	if err := openGPIO(); err != nil {
		return errors.Wrap(err, "open gpio")
	}
	if err := rpio.SpiBegin(rpio.Spi0); err != nil {
		return errors.Wrap(err, "spi begin")
	}
	rpio.SpiSpeed(w.speed)
	rpio.SpiChipSelect(0)

	w.pixels = make([]color.RGBA, n)
	w.buf = make([]byte, n*ws2812BytesPerLed+ws2812ResetBytes)
	w.logger.Printf("%d leds at %dHz", n, w.speed)
	return nil
}

func (w *ws2812) write(pixels []color.RGBA) {
	copy(w.pixels, pixels)
}

func (w *ws2812) setBrightness(b uint8) {
	w.brightness = b
}

func (w *ws2812) show() error {
	encodeWS2812(w.buf, w.pixels, w.brightness)
	rpio.SpiTransmit(w.buf...)
	return nil
}

func (w *ws2812) close() {
	for i := range w.pixels {
		w.pixels[i] = cBlack
	}
	w.show()
	rpio.SpiEnd(rpio.Spi0)
}

// encodeWS2812 fills buf with the SPI bit stream for pixels, GRB order, each
// data bit sent as 110 (one) or 100 (zero). buf ends in zero reset bytes.
func encodeWS2812(buf []byte, pixels []color.RGBA, brightness uint8) {
	for i := range buf {
		buf[i] = 0
	}
	bit := 0
	put := func(v bool) {
		if v {
			buf[bit/8] |= 0x80 >> uint(bit%8)
		}
		bit++
	}
	for _, p := range pixels {
		for _, c := range []uint8{p.G, p.R, p.B} {
			c = scale8(c, brightness)
			for i := 7; i >= 0; i-- {
				put(true)
				put(c&(1<<uint(i)) != 0)
				put(false)
			}
		}
	}
}

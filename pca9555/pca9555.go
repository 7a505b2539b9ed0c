// Package pca9555 drives the 16 bit I2C port expander that carries the
// buttons which do not fit on SoC GPIOs. Only the input side is used.
package pca9555

import (
	"github.com/pkg/errors"

	"dscheirer.com/piplayer/i2c"
)

// register map, each register pair covers port 0 then port 1
const (
	regInput0    = 0x00
	regPolarity0 = 0x04
	regConfig0   = 0x06
)

// Bus is the part of an i2c connection the expander needs
type Bus interface {
	Write(buf []byte) (int, error)
	WriteRead(w, r []byte) error
	Close() error
}

type Device struct {
	bus Bus
}

// Open connects to the expander at address on /dev/i2c-<bus> and turns all
// 16 lines into non-inverted inputs
func Open(address uint8, bus int, simulated bool) (*Device, error) {
	conn, err := i2c.Open(address, bus, simulated)
	if err != nil {
		return nil, errors.Wrapf(err, "open i2c-%d 0x%02x", bus, address)
	}
	d := New(conn)
	if err := d.ConfigureInputs(); err != nil {
		conn.Close()
		return nil, err
	}
	return d, nil
}

func New(bus Bus) *Device {
	return &Device{bus: bus}
}

func (d *Device) ConfigureInputs() error {
	if _, err := d.bus.Write([]byte{regConfig0, 0xff, 0xff}); err != nil {
		return errors.Wrap(err, "pca9555 config")
	}
	if _, err := d.bus.Write([]byte{regPolarity0, 0x00, 0x00}); err != nil {
		return errors.Wrap(err, "pca9555 polarity")
	}
	return nil
}

// ReadInputs returns the level of every line, bit n is line n (port 1 lines
// are bits 8..15)
func (d *Device) ReadInputs() (uint16, error) {
	var buf [2]byte
	if err := d.bus.WriteRead([]byte{regInput0}, buf[:]); err != nil {
		return 0, errors.Wrap(err, "pca9555 read")
	}
	return uint16(buf[0]) | uint16(buf[1])<<8, nil
}

func (d *Device) Close() error {
	return d.bus.Close()
}

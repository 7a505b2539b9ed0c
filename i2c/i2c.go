// Package i2c talks to a single device on a Linux i2c-dev bus. A simulated
// bus logs writes and reads back all ones, which is what an idle pull-up
// input port looks like.
package i2c

import (
	"fmt"
	"log"
	"os"
	"sync"
	"syscall"
)

type I2C struct {
	mu      sync.Mutex
	fd      *os.File
	address uint8
	sim     bool
}

const (
	I2C_SLAVE = 0x0703
)

// open a connection to the i2c device
func Open(address uint8, bus int, simulated bool) (*I2C, error) {
	if simulated {
		return &I2C{sim: true, address: address}, nil
	}

	f, err := os.OpenFile(fmt.Sprintf("/dev/i2c-%d", bus), os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}
	if err := ioctl(f.Fd(), I2C_SLAVE, uintptr(address)); err != nil {
		f.Close()
		return nil, err
	}
	return &I2C{fd: f, address: address}, nil
}

func (c *I2C) Close() error {
	if c.sim {
		log.Printf("i2c close: 0x%02x", c.address)
		return nil
	}
	return c.fd.Close()
}

func (c *I2C) Write(buf []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.selectLine(); err != nil {
		return 0, err
	}
	if c.sim {
		log.Printf("i2c write 0x%02x: % x", c.address, buf)
		return len(buf), nil
	}
	return c.fd.Write(buf)
}

// WriteRead writes a register pointer and reads the reply without letting
// another caller in between
func (c *I2C) WriteRead(w, r []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.selectLine(); err != nil {
		return err
	}
	if c.sim {
		for i := range r {
			r[i] = 0xff
		}
		return nil
	}
	if _, err := c.fd.Write(w); err != nil {
		return err
	}
	_, err := c.fd.Read(r)
	return err
}

// the slave address is per file descriptor, re-select before every transfer
func (c *I2C) selectLine() error {
	if c.sim {
		return nil
	}
	return ioctl(c.fd.Fd(), I2C_SLAVE, uintptr(c.address))
}

func ioctl(fd, cmd, arg uintptr) error {
	_, _, err := syscall.Syscall6(syscall.SYS_IOCTL, fd, cmd, arg, 0, 0, 0)
	if err != 0 {
		return err
	}
	return nil
}

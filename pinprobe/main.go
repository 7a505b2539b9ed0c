// pinprobe logs press and release of button pins so the wiring can be
// checked without starting the player. GPIO pins are 0..27, pins 100..115
// are the lines of the PCA9555 port expander.
package main

import (
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/stianeikeland/go-rpio"

	"dscheirer.com/piplayer/pca9555"
)

const (
	maxGPIO        = 27
	minExpanderPin = 100
	maxExpanderPin = 115
)

type watched struct {
	pin     int
	pressed bool
	since   time.Time
	ran     bool
}

func envInt(name string, def int) int {
	s, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		log.Fatalf("%s: %s is not a number", name, s)
	}
	return int(v)
}

func main() {
	// BUTTONS is a comma separated pin list
	// RUNPROG runs once per hold longer than HOLD
	pinsS, pinsSE := os.LookupEnv("BUTTONS")
	progS, progSE := os.LookupEnv("RUNPROG")
	hold := 3 * time.Second
	if h, ok := os.LookupEnv("HOLD"); ok {
		var err error
		if hold, err = time.ParseDuration(h); err != nil {
			log.Fatalf("HOLD: %v", err)
		}
	}

	if !pinsSE {
		log.Fatalf("Must provide BUTTONS in the environment")
	}

	if err := rpio.Open(); err != nil {
		log.Fatal(err.Error())
	}
	defer rpio.Close()

	var buttons []*watched
	var dev *pca9555.Device
	for _, p := range strings.Split(pinsS, ",") {
		pin, err := strconv.ParseInt(strings.TrimSpace(p), 0, 64)
		if err != nil {
			log.Fatalf("%s is not a number", p)
		}
		switch {
		case pin >= 0 && pin <= maxGPIO:
			rpioPin := rpio.Pin(pin)
			rpioPin.Input()  // Input mode
			rpioPin.PullUp() // GND => button press
		case pin >= minExpanderPin && pin <= maxExpanderPin:
			if dev == nil {
				dev, err = pca9555.Open(uint8(envInt("EXPANDER", 0x20)), envInt("I2CBUS", 1), false)
				if err != nil {
					log.Fatalf("port expander: %v", err)
				}
				defer dev.Close()
			}
		default:
			log.Fatalf("pin %d is neither GPIO nor expander", pin)
		}
		buttons = append(buttons, &watched{pin: int(pin)})
	}

	log.Printf("Watching %v", pinsS)
	levels := uint16(0xffff)
	for {
		if dev != nil {
			l, err := dev.ReadInputs()
			if err != nil {
				log.Println(err.Error())
			} else {
				levels = l
			}
		}
		now := time.Now()
		for _, b := range buttons {
			var pressed bool
			if b.pin <= maxGPIO {
				pressed = rpio.Pin(b.pin).Read() == rpio.Low
			} else {
				pressed = levels&(1<<uint(b.pin-minExpanderPin)) == 0
			}
			switch {
			case pressed && !b.pressed:
				log.Printf("%d pressed", b.pin)
				b.since, b.ran = now, false
			case !pressed && b.pressed:
				log.Printf("%d released after %v", b.pin, now.Sub(b.since).Round(time.Millisecond))
			case pressed && progSE && !b.ran && now.Sub(b.since) >= hold:
				b.ran = true
				log.Printf("Running %s\n", progS)
				out, err := exec.Command(progS).Output()
				if err != nil {
					log.Println(err.Error())
				}
				log.Printf("%s", out)
			}
			b.pressed = pressed
		}
		time.Sleep(30 * time.Millisecond)
	}
}

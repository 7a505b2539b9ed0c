// utility functions
package main

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// loop cadences
const (
	dButtonSleep = 5 * time.Millisecond  // one sampler + gesture pass
	dRenderTick  = 10 * time.Millisecond // longest uninterrupted renderer sleep
	dRenderIdle  = time.Millisecond      // renderer pass that drew nothing
)

type commChannels struct {
	quit     chan struct{}
	tick     chan struct{} // single slot, see runTimer
	quitOnce *sync.Once
}

// stop closes quit exactly once, whoever asks first
func (c commChannels) stop() {
	c.quitOnce.Do(func() { close(c.quit) })
}

func (c commChannels) quitting() bool {
	select {
	case <-c.quit:
		return true
	default:
		return false
	}
}

type runtimeConfig struct {
	settings   configSettings
	comms      commChannels
	clock      clockwork.Clock
	logger     flogger
	port       port
	cmd        commander
	system     system
	player     player
	battery    battery // nil when voltage sensing is not configured
	wlan       wlan
	led        ledStrip
	pad        *buttonPad
	indicators *indicators
	leds       *ledController
}

func initCommChannels() commChannels {
	return commChannels{
		quit:     make(chan struct{}),
		tick:     make(chan struct{}, 1),
		quitOnce: &sync.Once{},
	}
}

type flogger interface {
	Printf(format string, v ...interface{})
	Println(v ...interface{})
	Debugf(format string, v ...interface{})
}

// ThreadLogger prefixes every line with the name of the worker
type ThreadLogger struct {
	name  string
	debug bool
}

func (tl *ThreadLogger) Printf(format string, v ...interface{}) {
	log.Printf("[%s] %s", tl.name, fmt.Sprintf(format, v...))
}

func (tl *ThreadLogger) Println(v ...interface{}) {
	log.Printf("[%s] %s", tl.name, fmt.Sprintln(v...))
}

func (tl *ThreadLogger) Debugf(format string, v ...interface{}) {
	if tl.debug {
		tl.Printf(format, v...)
	}
}

func newLogger(settings configSettings, name string) flogger {
	return &ThreadLogger{name: name, debug: settings.GetBool(sDebug)}
}

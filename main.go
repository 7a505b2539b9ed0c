package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
)

// piplayer -config={config file}

var wg sync.WaitGroup

// initRuntime opens the configured backends and wires everything the
// workers share
func initRuntime(settings configSettings, clock clockwork.Clock) (runtimeConfig, error) {
	comms := initCommChannels()
	pad := newButtonPad(settings)

	var p port
	var led ledStrip
	var sim *termSim
	var err error

	if settings.GetString(sPortBackend) == portKeyboard || settings.GetString(sLedBackend) == ledTerm {
		sim, err = newTermSim(settings, pad.pins(), comms.stop)
		if err != nil {
			return runtimeConfig{}, errors.Wrap(err, "start terminal simulator")
		}
	}

	switch settings.GetString(sPortBackend) {
	case portRpio:
		p, err = newRpioPort(settings, pad.pins())
	case portKeyboard:
		p = sim
	case portNone:
		p = newNoPort()
	default:
		err = errors.Errorf("unknown %s '%s'", sPortBackend, settings.GetString(sPortBackend))
	}
	if err != nil {
		return runtimeConfig{}, err
	}

	switch settings.GetString(sLedBackend) {
	case ledWS2812:
		led = newWS2812(settings)
	case ledTerm:
		led = sim
	case ledLog:
		led = &logLed{disableLog: !settings.GetBool(sDebug)}
	default:
		return runtimeConfig{}, errors.Errorf("unknown %s '%s'", sLedBackend, settings.GetString(sLedBackend))
	}

	rt, err := newRuntime(settings, clock, comms, pad, p, led)
	if err != nil {
		return rt, err
	}
	if sim != nil {
		sim.setKeyHandler(simKeys(rt))
	}
	return rt, nil
}

// newRuntime wires the core around a port and a strip. The player side is
// simulated.
func newRuntime(settings configSettings, clock clockwork.Clock, comms commChannels, pad *buttonPad, p port, led ledStrip) (runtimeConfig, error) {
	if err := led.init(settings.GetInt(sNumLeds)); err != nil {
		return runtimeConfig{}, errors.Wrap(err, "init leds")
	}

	ind := &indicators{}
	sys := &simSystem{}
	pl := newSimPlayer()
	wl := &simWlan{}

	rt := runtimeConfig{
		settings:   settings,
		comms:      comms,
		clock:      clock,
		logger:     newLogger(settings, "Main"),
		port:       p,
		system:     sys,
		player:     pl,
		wlan:       wl,
		led:        led,
		pad:        pad,
		indicators: ind,
		leds:       newLedController(settings, led, ind),
	}
	if settings.GetBool(sMeasureBattery) {
		rt.battery = &simBattery{volts: settings.GetFloat(sVoltageHigh)}
	}
	rt.cmd = &simCommander{
		logger: newLogger(settings, "Cmd"),
		system: sys,
		player: pl,
		wlan:   wl,
		leds:   rt.leds,
	}
	return rt, nil
}

// simKeys are the simulator keys for what the player firmware would do
func simKeys(rt runtimeConfig) func(ch rune) {
	sys := rt.system.(*simSystem)
	pl := rt.player.(*simPlayer)
	wl := rt.wlan.(*simWlan)
	return func(ch rune) {
		switch ch {
		case 'b':
			pl.update(func(pp *playProperties) {
				if pp.playMode == busy {
					pp.playMode = noPlaylist
				} else {
					pp.playMode = busy
				}
			})
		case 's':
			pl.update(func(pp *playProperties) { pp.isWebstream = !pp.isWebstream })
		case 'f':
			pl.update(func(pp *playProperties) {
				if pp.currentRelPos < 100 {
					pp.currentRelPos += 10
				}
			})
		case 'w':
			wl.setConnected(!wl.connected())
		case 'l':
			sys.setLocked(!sys.controlsLocked())
		case 'e':
			rt.leds.indicate(indError)
		case 'o':
			rt.leds.indicate(indOk)
		case 'v':
			rt.leds.indicate(indVoltage)
		case 'n':
			rt.leds.resetToNightBrightness()
		case 'd':
			rt.leds.resetToInitialBrightness()
		}
	}
}

func main() {
	configFile := flag.String("config", "/etc/piplayer.conf", "configuration file")
	flag.Parse()

	settings, err := initSettings(*configFile)
	if err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			log.Fatalf("%+v", err)
		}
		log.Printf("%v, using defaults", err)
	}

	term := settings.GetString(sLedBackend) == ledTerm || settings.GetString(sPortBackend) == portKeyboard
	logFile := setupLogging(settings, !term)
	defer logFile.Close()

	if settings.GetBool(sDebug) {
		settings.Dump()
	}

	rt, err := initRuntime(settings, clockwork.NewRealClock())
	if err != nil {
		log.Fatalf("%+v", err)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			rt.logger.Printf("got %v", sig)
			rt.comms.stop()
		case <-rt.comms.quit:
		}
	}()

	for _, worker := range []func(runtimeConfig){runTimer, runWatchButtons, runLEDController} {
		wg.Add(1)
		go func(run func(runtimeConfig)) {
			defer wg.Done()
			run(rt)
		}(worker)
	}

	// nothing left to load
	rt.leds.indicate(indBootComplete)

	wg.Wait()

	rt.leds.exit()
	rt.port.close()
	rt.led.close()
	rt.logger.Println("exiting")
}

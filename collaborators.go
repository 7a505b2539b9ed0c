package main

import "sync"

// play modes, anything else is an active playlist
const (
	noPlaylist = 0
	busy       = 1
)

// operation modes
const (
	opModeNormal = iota
	opModeBluetooth
)

type system interface {
	controlsLocked() bool
	sleepRequested() bool
	operationMode() int
}

type playProperties struct {
	playMode            int
	pausePlay           bool
	currentRelPos       uint8 // 0..100
	numberOfTracks      int
	currentTrackNumber  int
	isWebstream         bool
	currentSpeechActive bool
	playlistFinished    bool
}

type player interface {
	currentVolume() uint8
	maxVolume() uint8
	maxVolumeSpeaker() uint8
	properties() playProperties
}

type battery interface {
	voltage() float64
}

type wlan interface {
	connected() bool
}

// simSystem, simPlayer, simBattery and simWlan stand in for the player
// firmware when running without one. Tests and the simulator keys drive them.
type simSystem struct {
	mu     sync.Mutex
	locked bool
	sleep  bool
	opMode int
}

func (s *simSystem) controlsLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked
}

func (s *simSystem) sleepRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sleep
}

func (s *simSystem) operationMode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opMode
}

func (s *simSystem) setLocked(v bool) {
	s.mu.Lock()
	s.locked = v
	s.mu.Unlock()
}

func (s *simSystem) setSleep(v bool) {
	s.mu.Lock()
	s.sleep = v
	s.mu.Unlock()
}

func (s *simSystem) setOperationMode(m int) {
	s.mu.Lock()
	s.opMode = m
	s.mu.Unlock()
}

type simPlayer struct {
	mu        sync.Mutex
	volume    uint8
	maxVol    uint8
	maxVolSpk uint8
	props     playProperties
}

func newSimPlayer() *simPlayer {
	return &simPlayer{volume: 7, maxVol: 21, maxVolSpk: 21}
}

func (p *simPlayer) currentVolume() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *simPlayer) maxVolume() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxVol
}

func (p *simPlayer) maxVolumeSpeaker() uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxVolSpk
}

func (p *simPlayer) properties() playProperties {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.props
}

func (p *simPlayer) setVolume(v uint8) {
	p.mu.Lock()
	if v > p.maxVol {
		v = p.maxVol
	}
	p.volume = v
	p.mu.Unlock()
}

// update edits the play properties in place
func (p *simPlayer) update(f func(pp *playProperties)) {
	p.mu.Lock()
	f(&p.props)
	p.mu.Unlock()
}

type simBattery struct {
	mu    sync.Mutex
	volts float64
}

func (b *simBattery) voltage() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.volts
}

func (b *simBattery) setVoltage(v float64) {
	b.mu.Lock()
	b.volts = v
	b.mu.Unlock()
}

type simWlan struct {
	mu sync.Mutex
	up bool
}

func (w *simWlan) connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.up
}

func (w *simWlan) setConnected(v bool) {
	w.mu.Lock()
	w.up = v
	w.mu.Unlock()
}

// simCommander plays the firmware's part for the actions the simulator can
// show: volume, play/pause, track changes, lock and sleep
type simCommander struct {
	logger flogger
	system *simSystem
	player *simPlayer
	wlan   *simWlan
	leds   *ledController
}

func (sc *simCommander) action(code actionCode) {
	sc.logger.Printf("action %v", code)
	switch code {
	case cmdVolumeUp:
		sc.player.setVolume(sc.player.currentVolume() + 1)
	case cmdVolumeDown:
		if v := sc.player.currentVolume(); v > 0 {
			sc.player.setVolume(v - 1)
		}
	case cmdPlayPause:
		sc.player.update(func(pp *playProperties) {
			if pp.playMode == noPlaylist {
				pp.playMode = 2
				pp.numberOfTracks = 10
				pp.currentTrackNumber = 0
				return
			}
			pp.pausePlay = !pp.pausePlay
		})
	case cmdNextTrack, cmdPrevTrack, cmdFirstTrack, cmdLastTrack:
		sc.player.update(func(pp *playProperties) {
			if pp.numberOfTracks == 0 {
				return
			}
			switch code {
			case cmdNextTrack:
				if pp.currentTrackNumber+1 < pp.numberOfTracks {
					pp.currentTrackNumber++
				}
			case cmdPrevTrack:
				if pp.currentTrackNumber > 0 {
					pp.currentTrackNumber--
				}
			case cmdFirstTrack:
				pp.currentTrackNumber = 0
			case cmdLastTrack:
				pp.currentTrackNumber = pp.numberOfTracks - 1
			}
			pp.currentRelPos = 0
		})
		if code == cmdPrevTrack || code == cmdFirstTrack {
			sc.leds.indicate(indRewind)
		} else {
			sc.leds.indicate(indPlaylistProgress)
		}
	case cmdMeasureBattery:
		sc.leds.indicate(indVoltage)
	case cmdLockButtons:
		sc.system.setLocked(!sc.system.controlsLocked())
		sc.leds.indicate(indOk)
	case cmdSleepMode:
		sc.system.setSleep(true)
	case cmdToggleWifi:
		sc.wlan.setConnected(!sc.wlan.connected())
		sc.leds.indicate(indOk)
	case cmdToggleBluetooth:
		if sc.system.operationMode() == opModeBluetooth {
			sc.system.setOperationMode(opModeNormal)
		} else {
			sc.system.setOperationMode(opModeBluetooth)
		}
		sc.leds.indicate(indOk)
	default:
		sc.leds.indicate(indError)
	}
}

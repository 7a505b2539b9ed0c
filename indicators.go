package main

import "sync/atomic"

type indicator int

const (
	indBootComplete indicator = iota
	indError
	indOk
	indVoltageWarning
	indVoltage
	indRewind
	indPlaylistProgress
	numIndicators
)

var indicatorNames = [numIndicators]string{
	"boot-complete", "error", "ok", "voltage-warning", "voltage", "rewind", "playlist-progress",
}

func (i indicator) String() string {
	if i < 0 || i >= numIndicators {
		return "unknown"
	}
	return indicatorNames[i]
}

// indicators are level flags. Setting a set flag is a no-op, only the
// renderer clears them.
type indicators struct {
	flags [numIndicators]atomic.Bool
}

func (ind *indicators) set(i indicator) {
	ind.flags[i].Store(true)
}

func (ind *indicators) isSet(i indicator) bool {
	return ind.flags[i].Load()
}

// testAndClear reports whether the flag was set and clears it
func (ind *indicators) testAndClear(i indicator) bool {
	return ind.flags[i].CompareAndSwap(true, false)
}

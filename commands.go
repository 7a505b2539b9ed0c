package main

import "fmt"

// actionCode is the symbolic command a button gesture resolves to. What an
// action does is up to the commander.
type actionCode uint32

const (
	cmdNothing         actionCode = 0
	cmdLockButtons     actionCode = 100
	cmdToggleWifi      actionCode = 130
	cmdToggleBluetooth actionCode = 131
	cmdPlayPause       actionCode = 170
	cmdPrevTrack       actionCode = 171
	cmdNextTrack       actionCode = 172
	cmdFirstTrack      actionCode = 173
	cmdLastTrack       actionCode = 174
	cmdVolumeInit      actionCode = 175
	cmdVolumeUp        actionCode = 176
	cmdVolumeDown      actionCode = 177
	cmdMeasureBattery  actionCode = 178
	cmdSleepMode       actionCode = 179
	cmdSeekForwards    actionCode = 180
	cmdSeekBackwards   actionCode = 181
	cmdStop            actionCode = 182
)

var actionNames = map[actionCode]string{
	cmdNothing:         "nothing",
	cmdLockButtons:     "lock-buttons",
	cmdToggleWifi:      "toggle-wifi",
	cmdToggleBluetooth: "toggle-bluetooth",
	cmdPlayPause:       "play-pause",
	cmdPrevTrack:       "prev-track",
	cmdNextTrack:       "next-track",
	cmdFirstTrack:      "first-track",
	cmdLastTrack:       "last-track",
	cmdVolumeInit:      "volume-init",
	cmdVolumeUp:        "volume-up",
	cmdVolumeDown:      "volume-down",
	cmdMeasureBattery:  "measure-battery",
	cmdSleepMode:       "sleep",
	cmdSeekForwards:    "seek-forwards",
	cmdSeekBackwards:   "seek-backwards",
	cmdStop:            "stop",
}

func (a actionCode) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", uint32(a))
}

// auto-repeat actions fire while held and never on release
func isRepeatAction(a actionCode) bool {
	return a == cmdVolumeUp || a == cmdVolumeDown
}

// commander receives dispatched actions, fire and forget
type commander interface {
	action(code actionCode)
}

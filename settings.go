package main

import (
	"fmt"
	"io/ioutil"
	"log"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/pkg/errors"
)

// setting names
const (
	sSamplingRate      = "samplingRate"
	sDebounce          = "debounceInterval"
	sLongPress         = "longPressTime"
	sButtonPins        = "buttonPins"
	sShortActions      = "buttonShortActions"
	sLongActions       = "buttonLongActions"
	sChordActions      = "buttonChordActions"
	sNumLeds           = "numLeds"
	sReverseRotation   = "reverseRotation"
	sInitialBrightness = "initialBrightness"
	sNightBrightness   = "nightBrightness"
	sMeasureBattery    = "measureBattery"
	sVoltageLow        = "voltageIndicatorLow"
	sVoltageHigh       = "voltageIndicatorHigh"
	sLedBackend        = "ledBackend"
	sPortBackend       = "portBackend"
	sExpanderBus       = "expanderBus"
	sExpanderAddress   = "expanderAddress"
	sSpiSpeed          = "spiSpeed"
	sLogFile           = "logFile"
	sDebug             = "debug"
)

// keep settings generic, type-convert on the fly
type configSettings struct {
	settings map[string]interface{}
}

func defaultSettings() configSettings {
	s := make(map[string]interface{})

	// setting the type here makes the conversion "automatic" later
	s[sSamplingRate] = 10 * time.Millisecond
	s[sDebounce] = 50 * time.Millisecond
	s[sLongPress] = 700 * time.Millisecond
	// next, previous, play/pause, rotary encoder, button 4, button 5
	s[sButtonPins] = []int{25, 24, 23, 22, pinDisabled, pinDisabled}
	s[sShortActions] = []int{
		int(cmdNextTrack), int(cmdPrevTrack), int(cmdPlayPause),
		int(cmdMeasureBattery), int(cmdNothing), int(cmdNothing),
	}
	s[sLongActions] = []int{
		int(cmdLastTrack), int(cmdFirstTrack), int(cmdPlayPause),
		int(cmdSleepMode), int(cmdVolumeUp), int(cmdVolumeDown),
	}
	chords := make([]int, 15)
	chords[chordIndex(0, 1, 6)] = int(cmdToggleWifi)
	chords[chordIndex(1, 2, 6)] = int(cmdLockButtons)
	chords[chordIndex(2, 3, 6)] = int(cmdToggleBluetooth)
	s[sChordActions] = chords
	s[sNumLeds] = 24
	s[sReverseRotation] = false
	s[sInitialBrightness] = 16
	s[sNightBrightness] = 2
	s[sMeasureBattery] = false
	s[sVoltageLow] = 3.4
	s[sVoltageHigh] = 4.2
	s[sExpanderBus] = 1
	s[sExpanderAddress] = byte(0x20)
	s[sSpiSpeed] = 2400000
	s[sLogFile] = "/var/log/piplayer.log"
	s[sDebug] = false

	// real hardware only on the pi
	if runtime.GOARCH == "arm" || runtime.GOARCH == "arm64" {
		s[sLedBackend] = ledWS2812
		s[sPortBackend] = portRpio
	} else {
		s[sLedBackend] = ledLog
		s[sPortBackend] = portNone
	}

	return configSettings{settings: s}
}

func (s *configSettings) settingsFromJSON(data []byte) error {
	tmp := defaultSettings()
	for k, initVal := range tmp.settings {
		// ignore missing fields
		_, dataType, _, err := jsonparser.Get(data, k)
		if err != nil || dataType == jsonparser.NotExist {
			continue
		}

		switch initVal.(type) {
		case uint8:
			var val int64
			val, err = jsonparser.GetInt(data, k)
			if err != nil {
				// try a string, "0x20" is easier to read than 32
				var valString string
				valString, err = jsonparser.GetString(data, k)
				if err == nil {
					val, err = strconv.ParseInt(valString, 0, 64)
				}
			}
			if err == nil && (val < 0 || val > 255) {
				err = fmt.Errorf("%d out of range", val)
			}
			if err == nil {
				s.settings[k] = byte(val)
			}
		case int:
			var val int64
			val, err = jsonparser.GetInt(data, k)
			if err == nil {
				s.settings[k] = int(val)
			}
		case float64:
			var val float64
			val, err = jsonparser.GetFloat(data, k)
			if err == nil {
				s.settings[k] = val
			}
		case bool:
			var bVal bool
			bVal, err = jsonparser.GetBoolean(data, k)
			if err != nil {
				// try true and false
				str, _ := jsonparser.GetString(data, k)
				switch strings.ToLower(str) {
				case "true":
					bVal, err = true, nil
				case "false":
					bVal, err = false, nil
				}
			}
			if err == nil {
				s.settings[k] = bVal
			}
		case time.Duration:
			var dur string
			dur, err = jsonparser.GetString(data, k)
			if err == nil {
				var dur2 time.Duration
				dur2, err = time.ParseDuration(dur)
				if err == nil {
					s.settings[k] = dur2
				}
			}
		case string:
			var str string
			str, err = jsonparser.GetString(data, k)
			if err == nil {
				s.settings[k] = str
			}
		case []int:
			var list []int
			list, err = intList(data, k)
			if err == nil {
				s.settings[k] = list
			}
		default:
			err = fmt.Errorf("bad type: %T", initVal)
		}
		if err != nil {
			return errors.Wrapf(err, "setting %s", k)
		}
	}
	return nil
}

func intList(data []byte, key string) ([]int, error) {
	list := []int{}
	var inner error
	_, err := jsonparser.ArrayEach(data, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if inner != nil {
			return
		}
		if dataType != jsonparser.Number {
			inner = fmt.Errorf("expected a number, got %s", dataType)
			return
		}
		v, perr := strconv.Atoi(string(value))
		if perr != nil {
			inner = perr
			return
		}
		list = append(list, v)
	}, key)
	if err != nil {
		return nil, err
	}
	return list, inner
}

// validate catches the structural mistakes that would otherwise show up as
// index panics in the gesture tables
func (s *configSettings) validate() error {
	pins := s.GetIntList(sButtonPins)
	n := len(pins)
	if n < 1 {
		return errors.New("at least one button is required")
	}
	if l := len(s.GetIntList(sShortActions)); l != n {
		return errors.Errorf("%s must have %d entries, has %d", sShortActions, n, l)
	}
	if l := len(s.GetIntList(sLongActions)); l != n {
		return errors.Errorf("%s must have %d entries, has %d", sLongActions, n, l)
	}
	if l := len(s.GetIntList(sChordActions)); l != n*(n-1)/2 {
		return errors.Errorf("%s must contain all %d button pairs, has %d", sChordActions, n*(n-1)/2, l)
	}
	if s.GetInt(sNumLeds) < 1 {
		return errors.Errorf("%s must be at least 1", sNumLeds)
	}
	for _, k := range []string{sInitialBrightness, sNightBrightness} {
		if b := s.GetInt(k); b < 0 || b > 255 {
			return errors.Errorf("%s must be 0..255, is %d", k, b)
		}
	}
	if s.GetDuration(sLongPress) <= 0 || s.GetDuration(sSamplingRate) <= 0 {
		return errors.Errorf("%s and %s must be positive", sLongPress, sSamplingRate)
	}
	if s.GetBool(sMeasureBattery) && s.GetFloat(sVoltageHigh) <= s.GetFloat(sVoltageLow) {
		return errors.Errorf("%s must be above %s", sVoltageHigh, sVoltageLow)
	}
	return nil
}

func initSettings(configFile string) (configSettings, error) {
	log.Println("initSettings")

	// defaults
	s := defaultSettings()

	data, err := ioutil.ReadFile(configFile)
	if err != nil {
		return s, errors.Wrapf(err, "could not load conf file '%s'", configFile)
	}

	log.Printf("Reading configuration from '%s'", configFile)

	if err := s.settingsFromJSON(data); err != nil {
		return s, errors.Wrapf(err, "bad configuration in '%s'", configFile)
	}
	if err := s.validate(); err != nil {
		return s, errors.Wrapf(err, "bad configuration in '%s'", configFile)
	}

	return s, nil
}

func (s *configSettings) GetString(key string) string {
	switch v := s.settings[key].(type) {
	case string:
		return v
	default:
		return ""
	}
}

func (s *configSettings) GetBool(key string) bool {
	switch v := s.settings[key].(type) {
	case bool:
		return v
	default:
		return false
	}
}

func (s *configSettings) GetDuration(key string) time.Duration {
	switch v := s.settings[key].(type) {
	case time.Duration:
		return v
	default:
		return -1
	}
}

func (s *configSettings) GetByte(key string) byte {
	switch v := s.settings[key].(type) {
	case byte:
		return v
	case int: // cast to byte
		return byte(v)
	default:
		return 0
	}
}

func (s *configSettings) GetInt(key string) int {
	switch v := s.settings[key].(type) {
	case int:
		return v
	case byte:
		return int(v)
	default:
		return 0
	}
}

func (s *configSettings) GetFloat(key string) float64 {
	switch v := s.settings[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func (s *configSettings) GetIntList(key string) []int {
	switch v := s.settings[key].(type) {
	case []int:
		return v
	default:
		return nil
	}
}

func (s *configSettings) Dump() {
	for k, v := range s.settings {
		log.Printf("%s : %T: %v\n", k, v, v)
	}
}

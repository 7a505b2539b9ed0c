package main

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// setupLogging sends the log to a rotating file, and to stderr too unless
// the terminal belongs to the simulator
func setupLogging(settings configSettings, console bool) io.Closer {
	logFile := &lumberjack.Logger{
		Filename:   settings.GetString(sLogFile),
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}

	if console {
		log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	} else {
		log.SetOutput(logFile)
	}
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	return logFile
}

package main

import (
	"github.com/atlanticdynamic/steploop/internal/logging"
)

// SetupLogger configures the default logger based on provided log level and format
func SetupLogger(logLevel, logFormat string) {
	logging.SetupLogger(logLevel, logFormat)
}

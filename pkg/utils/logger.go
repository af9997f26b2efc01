package utils

import (
	"github.com/pterm/pterm"
)

var (
	// Logger instances
	Info    = pterm.Info
	Success = pterm.Success
	Warning = pterm.Warning
	Error   = pterm.Error
	Debug   = pterm.Debug

	// Logger carries structured per-URL events from the crawl pipeline.
	Logger = pterm.DefaultLogger.WithLevel(pterm.LogLevelInfo)
)

// InitLogger initializes the logger settings
func InitLogger(debugMode bool) {
	if debugMode {
		pterm.EnableDebugMessages()
		Logger = Logger.WithLevel(pterm.LogLevelDebug)
	} else {
		pterm.DisableDebugMessages()
		Logger = Logger.WithLevel(pterm.LogLevelInfo)
	}
}

// QuietLogger returns a logger that drops everything below error. Used by
// tests and library callers that do not want console noise.
func QuietLogger() *pterm.Logger {
	return pterm.DefaultLogger.WithLevel(pterm.LogLevelError)
}

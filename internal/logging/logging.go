// Package logging wires up the process-wide logrus logger the way
// Fast-MBTiler's main.go did: a nested formatter for terse console output,
// fanned out to both a log file and stdout.
package logging

import (
	"io"
	"os"

	nested "github.com/antonfisher/nested-logrus-formatter"
	log "github.com/sirupsen/logrus"
)

// Setup configures the global logrus logger. logFile may be empty, in which
// case only stdout is used.
func Setup(logFile string, level log.Level) {
	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		ShowFullLevel:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	if logFile == "" {
		log.SetOutput(os.Stdout)
		log.SetLevel(level)
		return
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Warnf("failed to open log file %q, logging to stdout only", logFile)
		log.SetOutput(os.Stdout)
		log.SetLevel(level)
		return
	}

	log.SetOutput(io.MultiWriter(file, os.Stdout))
	log.SetLevel(level)
}

// WithRun returns a logger scoped to a single driver run, tagging every
// line with the run's identity as a run_id field.
func WithRun(runID string) *log.Entry {
	return log.WithField("run_id", runID)
}

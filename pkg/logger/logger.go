package logger

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Package-level zerolog instance shared by every component. Channels and
// core packages tag their entries with a component name so logs from the
// web channel, the session controller and the audio pipeline can be told
// apart without per-package loggers.

var (
	mu  sync.RWMutex
	log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		With().Timestamp().Logger()
)

// SetLevel sets the global minimum level ("debug", "info", "warn", "error").
// Unknown values fall back to info.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	mu.Lock()
	log = log.Level(lvl)
	mu.Unlock()
}

// SetWriter redirects log output, e.g. to a file or to io.Discard in tests.
func SetWriter(w io.Writer) {
	mu.Lock()
	log = log.Output(w)
	mu.Unlock()
}

func emit(ev *zerolog.Event, component, msg string, fields map[string]interface{}) {
	ev = ev.Str("component", component)
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func DebugCF(component, msg string, fields map[string]interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	emit(log.Debug(), component, msg, fields)
}

func InfoCF(component, msg string, fields map[string]interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	emit(log.Info(), component, msg, fields)
}

func WarnCF(component, msg string, fields map[string]interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	emit(log.Warn(), component, msg, fields)
}

func ErrorCF(component, msg string, fields map[string]interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	emit(log.Error(), component, msg, fields)
}

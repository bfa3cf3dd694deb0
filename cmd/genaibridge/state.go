//go:build cgo && (linux || windows || darwin)

package main

/*
#include <stdint.h>
#include <stdlib.h>
*/
import "C"

import (
	"os"
	"sync"
	"unsafe"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"genaibridge/internal/bridge"
	"genaibridge/internal/config"
)

// library is the process-wide state behind the exported functions.
type library struct {
	once     sync.Once
	cfg      config.Config
	log      zerolog.Logger
	bridge   *bridge.Bridge
	sessions *bridge.SessionTable
	values   *threadValues[*C.char]
	version  *C.char
}

var lib library

func freeCString(p *C.char) { C.free(unsafe.Pointer(p)) }

func (l *library) init() {
	l.once.Do(func() {
		l.cfg = config.Default()
		envErr := l.cfg.ApplyEnv()
		l.log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).
			Level(config.LogLevel(l.cfg.LogLevel)).With().Timestamp().Str("component", "genaibridge").Logger()
		l.bridge = bridge.New(bridge.Options{
			Logger:              &l.log,
			MultimodalMaxLength: l.cfg.MultimodalMaxLength,
		})
		l.sessions = bridge.NewSessionTable()
		l.values = newThreadValues(freeCString)
		l.version = C.CString(l.bridge.Version())
		if envErr != nil {
			l.log.Warn().Err(envErr).Msg("ignoring invalid environment")
		}
	})
}

// session returns the calling thread's session.
func (l *library) session() (*bridge.Session, uint64) {
	l.init()
	tid := threadID()
	return l.sessions.Get(tid), tid
}

// result hands text to the thread as a library-owned C string.
func (l *library) result(tid uint64, text string) *C.char {
	return l.values.set(tid, kindResult, C.CString(text))
}

func (l *library) lastError(tid uint64, text string) *C.char {
	return l.values.set(tid, kindError, C.CString(text))
}

// release forgets the calling thread's session and frees its strings.
func (l *library) release() {
	l.init()
	tid := threadID()
	l.sessions.Release(tid)
	l.values.release(tid)
}

func (l *library) shutdown() {
	l.init()
	l.bridge.Shutdown()
	if l.cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(l.cfg.MetricsFile, prometheus.DefaultGatherer); err != nil {
			l.log.Error().Err(err).Str("path", l.cfg.MetricsFile).Msg("write metrics")
		}
	}
}

// goString maps NULL to "", which every operation rejects as invalid input.
func goString(s *C.char) string {
	if s == nil {
		return ""
	}
	return C.GoString(s)
}

// goStrings copies a C array of count strings.
func goStrings(arr **C.char, count C.int32_t) ([]string, error) {
	if err := checkImageArray(int(count), arr == nil); err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	return convertStrings(unsafe.Slice(arr, int(count)), func(p *C.char) string { return C.GoString(p) }), nil
}

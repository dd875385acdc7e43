// Package xlog is a thin wrapper over the standard log package. No
// structured-logging library appears anywhere in the example corpus this
// module is built from; every sibling repo logs through bare log.Printf /
// log.Fatalf, so this module does the same rather than introducing a
// dependency the corpus itself never reaches for.
package xlog

import (
	"log"
	"os"
)

var std = log.New(os.Stderr, "", log.LstdFlags)

// SetOutput redirects the package logger, mainly for tests.
func SetOutput(l *log.Logger) { std = l }

func Infof(format string, args ...any) {
	std.Printf("INFO "+format, args...)
}

func Warnf(format string, args ...any) {
	std.Printf("WARN "+format, args...)
}

func Errorf(format string, args ...any) {
	std.Printf("ERROR "+format, args...)
}

// Fatalf logs then exits the process with status 1, the same pattern the
// project's cmd/ entry points use via the standard library's log.Fatalf.
func Fatalf(format string, args ...any) {
	std.Printf("FATAL "+format, args...)
	os.Exit(1)
}

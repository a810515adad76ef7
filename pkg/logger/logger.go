// Package logger provides the colored, leveled console logging used across
// the server and client, backed by logrus so every call site can attach
// structured fields (peer address, member id, ack number, ...) instead of
// formatting them into the message string.
package logger

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

var base = logrus.New()

func init() {
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	base.SetLevel(logrus.InfoLevel)
}

// SetLevel sets the minimum log level by name: debug, info, warn, error.
// Unrecognized names fall back to info.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)
}

// Entry is a scoped logger carrying structured fields.
type Entry = logrus.Entry

// Fields is re-exported so callers don't need to import logrus directly.
type Fields = logrus.Fields

// With returns an Entry carrying the given structured fields, e.g.
//
//	logger.With(logger.Fields{"peer": addr, "memberId": id}).Info("joined")
func With(fields Fields) *Entry {
	return base.WithFields(fields)
}

// NewCorrelationID mints a short, sortable id used to tag one accepted TCP
// connection across every log line about it.
func NewCorrelationID() string {
	return xid.New().String()
}

func Debug(format string, args ...interface{}) { base.Debugf(format, args...) }
func Info(format string, args ...interface{})  { base.Infof(format, args...) }
func Warn(format string, args ...interface{})  { base.Warnf(format, args...) }
func Error(format string, args ...interface{}) { base.Errorf(format, args...) }
func Fatal(format string, args ...interface{}) { base.Fatalf(format, args...) }

// Success logs at info level with an "outcome=success" field, since logrus
// has no dedicated success level.
func Success(format string, args ...interface{}) {
	base.WithField("outcome", "success").Infof(format, args...)
}

// Section prints an unstructured section header straight to stdout, used
// only for human-facing startup banners, never for the structured log
// stream.
func Section(title string) {
	border := "═══════════════════════════════════════════════════════════"
	fmt.Printf("\n╔%s╗\n", border)
	fmt.Printf("║ %-57s ║\n", title)
	fmt.Printf("╚%s╝\n\n", border)
}

// Banner prints the application banner once at startup.
func Banner(title, version string) {
	const art = `
╔═══════════════════════════════════════════════════════════╗
║                                                             ║
║   ████████╗ █████╗ ███╗   ██╗██╗  ██╗███╗   ██╗███████╗    ║
║   ╚══██╔══╝██╔══██╗████╗  ██║██║ ██╔╝████╗  ██║██╔════╝    ║
║      ██║   ███████║██╔██╗ ██║█████╔╝ ██╔██╗ ██║█████╗      ║
║      ██║   ██╔══██║██║╚██╗██║██╔═██╗ ██║╚██╗██║██╔══╝      ║
║      ██║   ██║  ██║██║ ╚████║██║  ██╗██║ ╚████║███████╗    ║
║      ╚═╝   ╚═╝  ╚═╝╚═╝  ╚═══╝╚═╝  ╚═╝╚═╝  ╚═══╝╚══════╝    ║
║                                                             ║
║              %-37s║
║                    version %-7s                    ║
║                                                             ║
╚═══════════════════════════════════════════════════════════╝
`
	fmt.Printf(art, title, version)
}

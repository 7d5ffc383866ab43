package sip

import (
	gosiplog "github.com/ghettovoice/gosip/log"
	"github.com/sirupsen/logrus"
)

// logrusAdapter satisfies gosip/log.Logger on top of a logrus.Entry,
// grounded on the teacher's skywalkingtracing.LoggerAdapter.
type logrusAdapter struct {
	entry *logrus.Entry
}

func newLogrusAdapter() *logrusAdapter {
	return &logrusAdapter{entry: logrus.WithField("component", "sip-parser")}
}

func (l *logrusAdapter) Fields() gosiplog.Fields { return gosiplog.Fields{} }

func (l *logrusAdapter) WithFields(fields map[string]interface{}) gosiplog.Logger {
	l.entry = l.entry.WithFields(fields)
	return l
}

func (l *logrusAdapter) Prefix() string                            { return "" }
func (l *logrusAdapter) WithPrefix(prefix string) gosiplog.Logger   { return l }
func (l *logrusAdapter) Print(args ...interface{})                  { l.entry.Print(args...) }
func (l *logrusAdapter) Printf(format string, args ...interface{})  { l.entry.Printf(format, args...) }
func (l *logrusAdapter) Trace(args ...interface{})                  { l.entry.Trace(args...) }
func (l *logrusAdapter) Tracef(format string, args ...interface{})  { l.entry.Tracef(format, args...) }
func (l *logrusAdapter) Debug(args ...interface{})                  { l.entry.Debug(args...) }
func (l *logrusAdapter) Debugf(format string, args ...interface{})  { l.entry.Debugf(format, args...) }
func (l *logrusAdapter) Info(args ...interface{})                   { l.entry.Info(args...) }
func (l *logrusAdapter) Infof(format string, args ...interface{})   { l.entry.Infof(format, args...) }
func (l *logrusAdapter) Warn(args ...interface{})                   { l.entry.Warn(args...) }
func (l *logrusAdapter) Warnf(format string, args ...interface{})   { l.entry.Warnf(format, args...) }
func (l *logrusAdapter) Error(args ...interface{})                  { l.entry.Error(args...) }
func (l *logrusAdapter) Errorf(format string, args ...interface{})  { l.entry.Errorf(format, args...) }
func (l *logrusAdapter) Fatal(args ...interface{})                  { l.entry.Fatal(args...) }
func (l *logrusAdapter) Fatalf(format string, args ...interface{})  { l.entry.Fatalf(format, args...) }
func (l *logrusAdapter) Panic(args ...interface{})                  { l.entry.Panic(args...) }
func (l *logrusAdapter) Panicf(format string, args ...interface{})  { l.entry.Panicf(format, args...) }
func (l *logrusAdapter) SetLevel(level uint32)                      { l.entry.Logger.SetLevel(logrus.Level(level)) }

// Package logrus adapts a *logrus.Entry to jtdbind.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/reoring/jtdbind"
)

type LogrusLogger struct{ E *logrus.Entry }

var _ jtdbind.Logger = LogrusLogger{}

func (l LogrusLogger) Debug(msg string, f jtdbind.Fields) {
	l.E.WithFields(logrus.Fields(f)).Debug(msg)
}
func (l LogrusLogger) Info(msg string, f jtdbind.Fields) { l.E.WithFields(logrus.Fields(f)).Info(msg) }
func (l LogrusLogger) Warn(msg string, f jtdbind.Fields) { l.E.WithFields(logrus.Fields(f)).Warn(msg) }
func (l LogrusLogger) Error(msg string, f jtdbind.Fields) {
	l.E.WithFields(logrus.Fields(f)).Error(msg)
}

/*
Copyright Scoir Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package util

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Logger returns a logger tagged with the given module so entries from one component can be told apart.
func Logger(module string) *logrus.Entry {
	return logrus.StandardLogger().WithField("module", module)
}

// SetLevel parses and applies the global log level, falling back to info.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.WithError(err).Warnf("unknown log level %q, using info", level)
		lvl = logrus.InfoLevel
	}

	logrus.SetLevel(lvl)
}

// LogBackoff matches backoff.Notify and reports a failed attempt with the wait before the next one.
func LogBackoff(err error, wait time.Duration) {
	logrus.WithError(err).WithField("retryIn", wait).Warn("operation failed, backing off")
}

// LeveledLogger adapts a logrus entry to retryablehttp.LeveledLogger.
type LeveledLogger struct {
	Entry *logrus.Entry
}

func (r LeveledLogger) Error(msg string, keysAndValues ...interface{}) {
	r.with(keysAndValues).Error(msg)
}

func (r LeveledLogger) Info(msg string, keysAndValues ...interface{}) {
	r.with(keysAndValues).Info(msg)
}

func (r LeveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	r.with(keysAndValues).Debug(msg)
}

func (r LeveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	r.with(keysAndValues).Warn(msg)
}

func (r LeveledLogger) with(keysAndValues []interface{}) *logrus.Entry {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}

	return r.Entry.WithFields(fields)
}

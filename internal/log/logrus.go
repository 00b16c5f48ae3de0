// Copyright © 2024 Kaleido, Inc.
//
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// LogrusLogger is used when output is not attached to a terminal, so that CI
// logs get timestamps and levels instead of spinner frames.
type LogrusLogger struct {
	logger *logrus.Logger
}

func NewLogrusLogger(out io.Writer) *LogrusLogger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})
	l.SetLevel(logrus.InfoLevel)
	return &LogrusLogger{logger: l}
}

func (l *LogrusLogger) SetLogLevel(level LogLevel) {
	switch level {
	case Trace:
		l.logger.SetLevel(logrus.TraceLevel)
	case Debug:
		l.logger.SetLevel(logrus.DebugLevel)
	case Info:
		l.logger.SetLevel(logrus.InfoLevel)
	case Warn:
		l.logger.SetLevel(logrus.WarnLevel)
	default:
		l.logger.SetLevel(logrus.ErrorLevel)
	}
}

func (l *LogrusLogger) Trace(s string) {
	l.logger.Trace(s)
}

func (l *LogrusLogger) Debug(s string) {
	l.logger.Debug(s)
}

func (l *LogrusLogger) Info(s string) {
	l.logger.Info(s)
}

func (l *LogrusLogger) Warn(s string) {
	l.logger.Warn(s)
}

func (l *LogrusLogger) Error(e error) {
	l.logger.Error(e.Error())
}

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
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
)

type SpinnerLogger struct {
	Spinner  *spinner.Spinner
	logLevel LogLevel
}

func NewSpinnerLogger(spin *spinner.Spinner) *SpinnerLogger {
	return &SpinnerLogger{
		Spinner:  spin,
		logLevel: Info,
	}
}

// NewTerminalSpinner builds the spinner used for long running steps. The
// spinner draws on w, which should be the terminal the user is watching.
func NewTerminalSpinner(w io.Writer) *spinner.Spinner {
	return spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(w))
}

func (l *SpinnerLogger) SetLogLevel(level LogLevel) {
	l.logLevel = level
}

func (l *SpinnerLogger) Start() {
	if l.Spinner != nil {
		l.Spinner.Start()
	}
}

// Stop halts the spinner without a final message.
func (l *SpinnerLogger) Stop() {
	if l.Spinner != nil {
		l.Spinner.Stop()
	}
}

// Done halts the spinner and prints "done". It prints nothing if the spinner
// was already stopped.
func (l *SpinnerLogger) Done() {
	if l.Spinner != nil {
		l.Spinner.Lock()
		l.Spinner.FinalMSG = "done\n"
		l.Spinner.Unlock()
		l.Spinner.Stop()
	}
}

func (l *SpinnerLogger) Trace(s string) {
	l.suffix(Trace, s)
}

func (l *SpinnerLogger) Debug(s string) {
	l.suffix(Debug, s)
}

func (l *SpinnerLogger) Info(s string) {
	l.suffix(Info, s)
}

func (l *SpinnerLogger) Warn(s string) {
	l.suffix(Warn, s)
}

func (l *SpinnerLogger) Error(e error) {
	l.suffix(Error, "Error: "+e.Error())
}

func (l *SpinnerLogger) suffix(level LogLevel, s string) {
	if l.logLevel <= level && l.Spinner != nil {
		l.Spinner.Lock()
		l.Spinner.Suffix = fmt.Sprintf(" %s...", s)
		l.Spinner.Unlock()
	}
}

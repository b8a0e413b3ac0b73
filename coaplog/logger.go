// Copyright 2024 tobyzxj
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package coaplog is the logging seam the driver writes its
// transport-level diagnostics through: socket errors, dropped
// datagrams, processor rejections.
package coaplog

import "github.com/sirupsen/logrus"

// Logger is the minimal surface the driver needs. Kept narrow (no
// Fields/context chaining) so any logging library's adapter can
// satisfy it in one line.
type Logger interface {
	Errorf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// NopLogger discards everything; the default when Dial is given a
// nil Logger.
type NopLogger struct{}

func (NopLogger) Errorf(string, ...interface{}) {}
func (NopLogger) Infof(string, ...interface{})  {}
func (NopLogger) Debugf(string, ...interface{}) {}

// Logrus adapts a *logrus.Logger to the Logger interface.
type Logrus struct {
	*logrus.Logger
}

// NewLogrus wraps l, or a freshly constructed default logger if l is nil.
func NewLogrus(l *logrus.Logger) Logrus {
	if l == nil {
		l = logrus.New()
	}
	return Logrus{Logger: l}
}

func (l Logrus) Errorf(format string, args ...interface{}) { l.Logger.Errorf(format, args...) }
func (l Logrus) Infof(format string, args ...interface{})  { l.Logger.Infof(format, args...) }
func (l Logrus) Debugf(format string, args ...interface{}) { l.Logger.Debugf(format, args...) }

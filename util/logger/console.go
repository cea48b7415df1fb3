// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logger

import (
	"os"
)

// Console is a console writer used for logging.
type Console struct {
	writer *os.File
}

// NewConsole creates and returns a new logger Console writer.
func NewConsole(out *os.File) *Console {

	return &Console{writer: out}
}

// Write writes the provided logger event to the console.
func (w *Console) Write(event *Event) {

	w.writer.WriteString(event.Message)
}

// Close closes this writer. It is a no-op for the console.
func (w *Console) Close() {

}

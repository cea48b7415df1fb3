// Copyright 2018 The Impulse2D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logger

import (
	"os"
)

// File is a file writer used for logging.
type File struct {
	writer *os.File
}

// NewFile creates and returns a new logger File writer, appending
// to the file with the given name.
func NewFile(filename string) (*File, error) {

	f, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	return &File{writer: f}, nil
}

// Write writes the provided logger event to the file.
func (w *File) Write(event *Event) {

	w.writer.WriteString(event.Message)
}

// Close closes the log file.
func (w *File) Close() {

	w.writer.Close()
}

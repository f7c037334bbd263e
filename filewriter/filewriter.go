// Copyright 2021 The rtcohort authors.
// All rights reserved.

// Package filewriter writes output artifacts atomically.
package filewriter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileWriter accumulates output in a temp file and atomically renames
// it into place on Close, so a failed run never leaves a truncated
// artifact behind. The first write error is saved internally and turns
// later writes into no-ops.
type FileWriter struct {
	path string   // target filename
	f    *os.File // temp file
	werr error    // first error encountered while writing
}

// New returns a FileWriter that will write to path on Close.
func New(path string) (*FileWriter, error) {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return nil, err
	}
	return &FileWriter{path: path, f: f}, nil
}

// Printf writes formatted data.
func (fw *FileWriter) Printf(format string, args ...interface{}) {
	if fw.werr == nil {
		_, fw.werr = fmt.Fprintf(fw.f, format, args...)
	}
}

// Record writes one line of sep-separated fields.
func (fw *FileWriter) Record(sep string, fields ...string) {
	fw.Printf("%s\n", strings.Join(fields, sep))
}

// Close renames the temp file to the path originally supplied to New.
// If a write error occurred earlier, it is returned and the target is
// left untouched.
func (fw *FileWriter) Close() error {
	defer os.Remove(fw.f.Name()) // no-op on success
	cerr := fw.f.Close()
	if fw.werr != nil {
		return fw.werr
	}
	if cerr != nil {
		return cerr
	}
	return os.Rename(fw.f.Name(), fw.path)
}

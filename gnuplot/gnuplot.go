// Copyright 2021 The rtcohort authors.
// All rights reserved.

// Package gnuplot renders the report's charts by templating .gnuplot
// scripts and handing them to the gnuplot binary.
package gnuplot

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"text/template"
)

// TermSetup holds the terminal lines shared by every chart template.
// An empty Output leaves gnuplot on its interactive terminal.
type TermSetup struct {
	SetTerm   string
	SetOutput string
}

// PNGTerm returns a TermSetup that writes a PNG file to path.
func PNGTerm(path string, width, height int) TermSetup {
	return TermSetup{
		SetTerm:   fmt.Sprintf("set term pngcairo size %d,%d font 'sans,10'", width, height),
		SetOutput: fmt.Sprintf("set output '%s'", path),
	}
}

// WriteData writes tab-separated rows to a temp data file for a plot
// command to read. The caller must remove the returned path.
func WriteData(header []string, rows [][]string) (string, error) {
	f, err := os.CreateTemp("", "rtcohort.data.")
	if err != nil {
		return "", err
	}
	var werr error
	write := func(fields []string) {
		if werr == nil {
			_, werr = fmt.Fprintln(f, strings.Join(fields, "\t"))
		}
	}
	write(header)
	for _, row := range rows {
		write(row)
	}
	cerr := f.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		os.Remove(f.Name())
		return "", werr
	}
	return f.Name(), nil
}

// ExecTemplate executes the supplied Go template and data to write a
// .gnuplot file, which it then passes to gnuplot.
func ExecTemplate(tmpl string, data interface{}) error {
	gf, err := os.CreateTemp("", "rtcohort.gnuplot.")
	if err != nil {
		return err
	}
	defer os.Remove(gf.Name())

	terr := template.Must(template.New("").Parse(tmpl)).Execute(gf, data)
	cerr := gf.Close()
	if terr != nil {
		return terr
	}
	if cerr != nil {
		return cerr
	}

	if err := exec.Command("gnuplot", gf.Name()).Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) != 0 {
			return fmt.Errorf("%v: %q", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return err
	}
	return nil
}

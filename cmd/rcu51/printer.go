package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/ezrec/rcu51/cpu"
)

const (
	colorError   = "\x1b[31m"
	colorWarning = "\x1b[33m"
	colorReset   = "\x1b[0m"
)

// printer writes assembler diagnostics, colored when writing to a terminal.
type printer struct {
	w     io.Writer
	name  string
	color bool
}

var _ cpu.Diagnostics = (*printer)(nil)

func newPrinter(file *os.File, name string) (pr *printer) {
	pr = &printer{
		w:     file,
		name:  name,
		color: term.IsTerminal(int(file.Fd())),
	}
	return
}

func (pr *printer) print(color string, kind string, err error) {
	if pr.color {
		fmt.Fprintf(pr.w, "%v: %v%v%v: %v\n", pr.name, color, kind, colorReset, err)
		return
	}
	fmt.Fprintf(pr.w, "%v: %v: %v\n", pr.name, kind, err)
}

func (pr *printer) Warning(err error) {
	pr.print(colorWarning, "warning", err)
}

func (pr *printer) Error(err error) {
	pr.print(colorError, "error", err)
}

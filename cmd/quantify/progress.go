package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"quantify/internal/engine"
)

var (
	headline   = color.New(color.FgCyan, color.Bold)
	plusStyle  = color.New(color.FgGreen)
	minusStyle = color.New(color.FgRed)
)

// newProgress returns a progress callback rendering a terminal bar, or nil
// when stderr is not a terminal or --quiet is set.
func newProgress(label string, total int) engine.ProgressFunc {
	if quietFlag || total == 0 || !term.IsTerminal(int(os.Stderr.Fd())) {
		return nil
	}
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionShowCount(),
	)
	return func(done, _ int, _ string) {
		_ = bar.Add(1)
	}
}

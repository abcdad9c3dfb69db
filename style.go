package main

import (
	"os"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	keywordColor = termenv.ColorProfile().Color("205")
)

// keyword renders a highlighted term for help text.
func keyword(s string) string {
	return termenv.String(s).Foreground(keywordColor).String()
}

// paragraph wraps and indents help text to the terminal width.
func paragraph(s string) string {
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 && w < width {
		width = w
	}
	return indent.String(wordwrap.String(s, width-4), 2)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Live echoes a streaming answer to a terminal as it grows and erases the
// echo once the final rendering is ready to replace it.
type Live struct {
	w       io.Writer
	width   int
	printed string
}

// NewLive returns a Live writing to w, which wraps at width columns.
func NewLive(w io.Writer, width int) *Live {
	if width <= 0 {
		width = 80
	}
	return &Live{w: w, width: width}
}

// Update writes the part of partial not yet shown. partial must extend
// the previous value; otherwise the echo is cleared and restarted.
func (l *Live) Update(partial string) {
	if !strings.HasPrefix(partial, l.printed) {
		l.Clear()
	}
	io.WriteString(l.w, partial[len(l.printed):])
	l.printed = partial
}

// Clear erases everything Update wrote.
func (l *Live) Clear() {
	if l.printed == "" {
		return
	}
	if up := l.lines() - 1; up > 0 {
		fmt.Fprintf(l.w, "\x1b[%dA", up)
	}
	io.WriteString(l.w, "\r\x1b[J")
	l.printed = ""
}

// lines counts terminal rows occupied by the echo.
func (l *Live) lines() int {
	n := 0
	for _, line := range strings.Split(l.printed, "\n") {
		cols := utf8.RuneCountInString(line)
		rows := (cols + l.width - 1) / l.width
		if rows == 0 {
			rows = 1
		}
		n += rows
	}
	return n
}

package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Out overrides where the print helpers write. Nil means the current
// os.Stdout.
var Out io.Writer

func out() io.Writer {
	if Out != nil {
		return Out
	}
	return os.Stdout
}

// Puts prints a styled line to stdout.
func Puts(s string) {
	fmt.Fprintln(out(), s)
}

// Putsf prints a formatted styled line to stdout.
func Putsf(format string, args ...any) {
	fmt.Fprintf(out(), format+"\n", args...)
}

// Warn prints a warning message.
func Warn(msg string) {
	fmt.Fprintln(out(), Warning.Render(IconWarn+msg))
}

// Err prints an error message.
func Err(msg string) {
	styled := Error.Bold(true).Render(IconError + msg)
	fmt.Fprintln(os.Stderr, styled)
}

// Ok prints a success message.
func Ok(msg string) {
	fmt.Fprintln(out(), Success.Render(IconOk+msg))
}

// Inf prints an info message.
func Inf(msg string) {
	fmt.Fprintln(out(), Info.Render("  "+msg))
}

// Header prints a section header.
func Header(s string) {
	fmt.Fprintln(out())
	fmt.Fprintln(out(), Title.Render(s))
	fmt.Fprintln(out(), Muted.Render(strings.Repeat("─", len([]rune(s))+2)))
}

// Tip prints a helpful tip.
func Tip(msg string) {
	fmt.Fprintln(out())
	fmt.Fprintln(out(), Muted.Render("  tip: "+msg))
}

// Kv prints a key-value pair, padded.
func Kv(key string, value string) {
	k := KeyStyle.Render(fmt.Sprintf("  %-14s", key))
	v := ValueStyle.Render(value)
	fmt.Fprintf(out(), "%s %s\n", k, v)
}

// Greet returns the dashboard greeting.
func Greet(name string) string {
	if name == "" {
		return IconBroom + "Hallo!"
	}
	return fmt.Sprintf("%sHallo %s!", IconBroom, name)
}

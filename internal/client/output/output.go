// Package output provides formatted terminal output for the funcstack CLI.
// Progress messages go to Stderr so that Stdout carries only command results,
// such as a rendered template.
package output

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
)

const headerSeparatorLength = 50

var (
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
	gray   = color.New(color.FgHiBlack)
	bold   = color.New(color.Bold)

	// Stdout is the output writer for command results (can be overridden for testing).
	Stdout io.Writer = os.Stdout
	// Stderr is the output writer for progress messages (can be overridden for testing).
	Stderr io.Writer = os.Stderr

	// Disable colors if not TTY or NO_COLOR is set
	_ = func() bool {
		disable := os.Getenv("NO_COLOR") != "" || !isTerminal(os.Stdout)
		if disable {
			color.NoColor = true
		}
		return disable
	}()

	ansiRegexp = regexp.MustCompile(`\x1b\[[0-9;]*m`)
)

func visibleWidth(s string) int {
	return utf8.RuneCountInString(ansiRegexp.ReplaceAllString(s, ""))
}

// Successf prints a success message with a checkmark (to stderr)
// Example: ✓ Stack shop is up to date
func Successf(format string, a ...any) {
	_, _ = fmt.Fprintf(Stderr, green.Sprint("✓")+" "+format+"\n", a...)
}

// Infof prints an informational message with an arrow (to stderr)
// Example: → Uploading 3 packages...
func Infof(format string, a ...any) {
	_, _ = fmt.Fprintf(Stderr, cyan.Sprint("→")+" "+format+"\n", a...)
}

// Warningf prints a warning message (to stderr)
func Warningf(format string, a ...any) {
	_, _ = fmt.Fprintf(Stderr, yellow.Sprint("⚠")+" "+format+"\n", a...)
}

// Errorf prints an error message with an X symbol (to stderr)
// Example: ✗ Deploy failed: stack shop ended in UPDATE_ROLLBACK_COMPLETE
func Errorf(format string, a ...any) {
	_, _ = fmt.Fprintf(Stderr, red.Sprint("✗")+" "+format+"\n", a...)
}

// Header prints a section header with a separator line (to stderr)
func Header(text string) {
	_, _ = fmt.Fprintln(Stderr)
	_, _ = fmt.Fprintln(Stderr, bold.Sprint(text))
	_, _ = fmt.Fprintln(Stderr, gray.Sprint(strings.Repeat("━", headerSeparatorLength)))
}

// KeyValue prints an indented key-value pair
// Example:   Stack: shop
func KeyValue(key, value string) {
	_, _ = fmt.Fprintf(Stdout, "  %s: %s\n", gray.Sprint(key), value)
}

// Blank prints a blank line
func Blank() {
	_, _ = fmt.Fprintln(Stdout)
}

// Write prints raw bytes, such as a rendered template, to Stdout.
func Write(data []byte) {
	_, _ = Stdout.Write(data)
}

// Bold returns text in bold
func Bold(text string) string {
	return bold.Sprint(text)
}

// Table prints a table with bold headers. Cells may contain color codes.
// Example:
// Function        Status
// ────────        ──────
// shop-appIndex   healthy
func Table(headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = visibleWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], visibleWidth(cell))
			}
		}
	}

	printRow := func(cells []string, style func(string) string) {
		for i, cell := range cells {
			if i >= len(widths) {
				continue
			}
			pad := max(widths[i]-visibleWidth(cell), 0)
			_, _ = fmt.Fprint(Stdout, style(cell), strings.Repeat(" ", pad), "  ")
		}
		_, _ = fmt.Fprintln(Stdout)
	}

	printRow(headers, Bold)
	separators := make([]string, len(headers))
	for i := range headers {
		separators[i] = strings.Repeat("─", widths[i])
	}
	printRow(separators, func(s string) string { return gray.Sprint(s) })
	for _, row := range rows {
		printRow(row, func(s string) string { return s })
	}
}

// List prints a bulleted list
func List(items []string) {
	for _, item := range items {
		_, _ = fmt.Fprintf(Stdout, "  %s %s\n", cyan.Sprint("•"), item)
	}
}

// StateBadge colors a deploy state: green when the deploy finished, red for a
// failure state, yellow while in progress.
func StateBadge(state string) string {
	switch state {
	case "PINGED", "UPDATED":
		return green.Sprint(state)
	case "UPLOAD_FAILED":
		return red.Sprint(state)
	default:
		return yellow.Sprint(state)
	}
}

// Duration formats a duration for humans
// Example: 2m 35s
func Duration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		fileInfo, _ := f.Stat()
		return (fileInfo.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

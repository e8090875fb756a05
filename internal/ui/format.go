package ui

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/term"
)

// Box drawing characters.
const (
	boxHorizontal = "─"
	boxVertical   = "│"
	bullet        = "•"
	sectionMark   = "◆"
)

// Out receives all styled output.
var Out io.Writer = os.Stdout

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

const termWidthTTL = 500 * time.Millisecond

var termWidth struct {
	sync.Mutex
	value int
	at    time.Time
}

// GetTermWidth returns the terminal width, defaulting to 80. The value is
// cached briefly so table rendering does not query the terminal per row.
func GetTermWidth() int {
	termWidth.Lock()
	defer termWidth.Unlock()
	if termWidth.value > 0 && time.Since(termWidth.at) <= termWidthTTL {
		return termWidth.value
	}
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}
	termWidth.value, termWidth.at = width, time.Now()
	return width
}

// StripAnsiCodes removes ANSI escape sequences from s.
func StripAnsiCodes(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// VisibleLength counts the runes of s that reach the terminal.
func VisibleLength(s string) int {
	return utf8.RuneCountInString(StripAnsiCodes(s))
}

// TruncateWithEllipsis shortens s to maxLen visible runes, ending in "...".
// The first color code of s is kept.
func TruncateWithEllipsis(s string, maxLen int) string {
	if VisibleLength(s) <= maxLen {
		return s
	}
	runes := []rune(StripAnsiCodes(s))
	if maxLen <= 3 {
		return string(runes[:max(maxLen, 0)])
	}
	out := string(runes[:maxLen-3]) + "..."
	if code := ansiPattern.FindString(s); code != "" {
		return code + out + ColorReset
	}
	return out
}

// PadRight pads s with spaces to width visible runes.
func PadRight(s string, width int) string {
	return s + strings.Repeat(" ", max(width-VisibleLength(s), 0))
}

// PadLeft right-aligns s in width visible runes.
func PadLeft(s string, width int) string {
	return strings.Repeat(" ", max(width-VisibleLength(s), 0)) + s
}

// PadCenter centers s in width visible runes.
func PadCenter(s string, width int) string {
	pad := max(width-VisibleLength(s), 0)
	return strings.Repeat(" ", pad/2) + s + strings.Repeat(" ", pad-pad/2)
}

// PrintHeader prints title centered in a double-line box.
func PrintHeader(title string) {
	inner := GetTermWidth() - 2
	title = TruncateWithEllipsis(title, inner-2)
	fmt.Fprintf(Out, "\n%s╔%s╗%s\n", ColorCyan, strings.Repeat("═", inner), ColorReset)
	fmt.Fprintf(Out, "%s║%s%s%s%s%s║%s\n",
		ColorCyan, ColorReset, ColorBold, PadCenter(title, inner), ColorReset, ColorCyan, ColorReset)
	fmt.Fprintf(Out, "%s╚%s╝%s\n\n", ColorCyan, strings.Repeat("═", inner), ColorReset)
}

// PrintSection prints an underlined section title.
func PrintSection(title string) {
	fmt.Fprintf(Out, "\n%s%s %s%s\n", ColorBold, sectionMark, title, ColorReset)
	fmt.Fprintf(Out, "%s%s%s\n\n", ColorCyan, strings.Repeat(boxHorizontal, VisibleLength(title)+2), ColorReset)
}

// Align positions a cell within its column.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
	AlignCenter
)

// TableColumn describes one table column. Width is in visible runes.
type TableColumn struct {
	Header string
	Width  int
	Align  Align
}

// Table buffers rows and renders them with box borders.
type Table struct {
	Columns []TableColumn
	Rows    [][]string
}

// NewTable creates an empty table.
func NewTable(columns []TableColumn) *Table {
	return &Table{Columns: columns}
}

// AddRow appends a row; missing cells are blank and extra cells are dropped.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Print renders the table to Out, shrinking columns proportionally when the
// terminal is narrower than the requested widths.
func (t *Table) Print() {
	if len(t.Columns) == 0 {
		return
	}
	cols := t.fit(GetTermWidth())

	t.rule(cols, "┌", "┬", "┐")
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = ColorBold + PadCenter(TruncateWithEllipsis(c.Header, c.Width), c.Width) + ColorReset
	}
	t.line(headers)
	t.rule(cols, "├", "┼", "┤")
	for _, row := range t.Rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = pad(TruncateWithEllipsis(row[i], c.Width), c.Width, c.Align)
		}
		t.line(cells)
	}
	t.rule(cols, "└", "┴", "┘")
}

func (t *Table) fit(width int) []TableColumn {
	cols := append([]TableColumn(nil), t.Columns...)
	available := width - (len(cols) + 1) - 2*len(cols)
	requested := 0
	for _, c := range cols {
		requested += c.Width
	}
	if requested > available && requested > 0 {
		for i := range cols {
			cols[i].Width = cols[i].Width * available / requested
		}
	}
	return cols
}

func (t *Table) rule(cols []TableColumn, left, mid, right string) {
	segs := make([]string, len(cols))
	for i, c := range cols {
		segs[i] = strings.Repeat(boxHorizontal, c.Width+2)
	}
	fmt.Fprintln(Out, ColorCyan+left+strings.Join(segs, mid)+right+ColorReset)
}

func (t *Table) line(cells []string) {
	sep := ColorCyan + boxVertical + ColorReset
	fmt.Fprintln(Out, sep+" "+strings.Join(cells, " "+sep+" ")+" "+sep)
}

func pad(s string, width int, a Align) string {
	switch a {
	case AlignRight:
		return PadLeft(s, width)
	case AlignCenter:
		return PadCenter(s, width)
	default:
		return PadRight(s, width)
	}
}

// PrintList prints items as a bullet list.
func PrintList(items []string, color string) {
	for _, item := range items {
		fmt.Fprintf(Out, "  %s%s%s %s\n", color, bullet, ColorReset, item)
	}
}

// PrintKeyValue prints an aligned "key: value" line.
func PrintKeyValue(key, value, valueColor string) {
	value = TruncateWithEllipsis(value, max(GetTermWidth()-len(key)-10, 8))
	fmt.Fprintf(Out, "  %s%-20s%s %s%s%s\n", ColorCyan, key+":", ColorReset, valueColor, value, ColorReset)
}

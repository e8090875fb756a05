package ui

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/jmagar/rift-cli/internal/model"
)

// RunErrorCount and RunWarningCount track errors/warnings during a run.
var (
	RunErrorCount   atomic.Int64
	RunWarningCount atomic.Int64
)

// PrintSuccess prints a success message.
func PrintSuccess(msg string) {
	fmt.Fprintf(Out, "%s%s%s %s%s\n", ColorGreen, SymbolCheck, ColorReset, msg, ColorReset)
}

// PrintError prints an error message and increments the error counter.
func PrintError(msg string) {
	RunErrorCount.Add(1)
	fmt.Fprintf(Out, "%s%s%s %s%s\n", ColorRed, SymbolCross, ColorReset, msg, ColorReset)
}

// PrintInfo prints an info message.
func PrintInfo(msg string) {
	fmt.Fprintf(Out, "%s%s%s %s%s\n", ColorBlue, SymbolInfo, ColorReset, msg, ColorReset)
}

// PrintWarning prints a warning message and increments the warning counter.
func PrintWarning(msg string) {
	RunWarningCount.Add(1)
	fmt.Fprintf(Out, "%s%s%s %s%s\n", ColorYellow, SymbolWarning, ColorReset, msg, ColorReset)
}

// PrintDownload prints a download message.
func PrintDownload(msg string) {
	fmt.Fprintf(Out, "%s%s%s %s%s\n", ColorCyan, SymbolDownload, ColorReset, msg, ColorReset)
}

// KindColor picks the color used for an event's download kind.
func KindColor(kind string) string {
	switch kind {
	case "Catalog+Embed":
		return ColorPurple
	case "Catalog":
		return ColorGreen
	case "Embed":
		return ColorBlue
	default:
		return ColorYellow
	}
}

// PrintEventTable renders one row per event record.
func PrintEventTable(records []*model.EventRecord) {
	table := NewTable([]TableColumn{
		{Header: "#", Width: 4, Align: AlignRight},
		{Header: "ID", Width: 34},
		{Header: "Title", Width: 40},
		{Header: "Kind", Width: 14, Align: AlignCenter},
		{Header: "Links", Width: 5, Align: AlignRight},
	})
	for i, rec := range records {
		kind := rec.Kind()
		table.AddRow(
			fmt.Sprintf("%d", i+1),
			rec.NavigationItemID,
			rec.Title,
			KindColor(kind)+kind+ColorReset,
			fmt.Sprintf("%d", len(rec.MainLinks)),
		)
	}
	table.Print()
}

// PrintEventDetail prints every resolved field of one record.
func PrintEventDetail(rec *model.EventRecord) {
	PrintSection(rec.Title)
	PrintKeyValue("ID", rec.NavigationItemID, ColorBold)
	kind := rec.Kind()
	PrintKeyValue("Kind", kind, KindColor(kind))
	if rec.Catalog != nil {
		PrintKeyValue("Catalog", rec.Catalog.CatalogURL, "")
	}
	if rec.BackgroundURL != "" {
		PrintKeyValue("Background", rec.BackgroundURL, "")
	}
	if rec.IconURL != "" {
		PrintKeyValue("Icon", rec.IconURL, "")
	}
	links := make([]string, 0, len(rec.MainLinks))
	for i, l := range rec.MainLinks {
		label := l.URL
		if l.MetagameID != "" {
			label += " (" + l.MetagameID + ")"
		}
		links = append(links, fmt.Sprintf("[%d] %s", i+1, label))
	}
	if len(links) > 0 {
		PrintList(links, ColorCyan)
	}
	if n := len(rec.AdditionalAssetURLs); n > 0 {
		PrintKeyValue("Extra assets", fmt.Sprintf("%d", n), "")
	}
}

// Summary returns the end-of-run error and warning line.
func Summary() string {
	var parts []string
	if n := RunErrorCount.Load(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d error(s)", n))
	}
	if n := RunWarningCount.Load(); n > 0 {
		parts = append(parts, fmt.Sprintf("%d warning(s)", n))
	}
	if len(parts) == 0 {
		return "completed cleanly"
	}
	return "completed with " + strings.Join(parts, ", ")
}

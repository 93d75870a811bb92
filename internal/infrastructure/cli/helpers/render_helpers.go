package helpers

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"github.com/doeshing/promptcraft/internal/domain"
)

var (
	headingStyle = pterm.NewStyle(pterm.FgCyan, pterm.Bold)
	labelStyle   = pterm.NewStyle(pterm.FgGray)
	statusStyles = map[domain.HealthStatus]*pterm.Style{
		domain.HealthOK:    pterm.NewStyle(pterm.FgGreen, pterm.Bold),
		domain.HealthWarn:  pterm.NewStyle(pterm.FgYellow, pterm.Bold),
		domain.HealthError: pterm.NewStyle(pterm.FgRed, pterm.Bold),
	}
)

// DisableStyling turns off pterm colors, used when stdout is not a terminal.
func DisableStyling() {
	pterm.DisableStyling()
}

// WriteJSON prints v as indented JSON.
func WriteJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// RenderTable prints rows under header as an aligned table.
func RenderTable(out io.Writer, header []string, rows [][]string) error {
	data := pterm.TableData{header}
	data = append(data, rows...)
	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("render table: %w", err)
	}
	fmt.Fprintln(out, rendered)
	return nil
}

// RenderPromptResult prints a generated prompt pair.
func RenderPromptResult(out io.Writer, res domain.PromptResult, showDebug bool) {
	fmt.Fprintln(out, headingStyle.Sprint("Positive prompt"))
	fmt.Fprintln(out, res.Positive)
	if res.Negative != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, headingStyle.Sprint("Negative prompt"))
		fmt.Fprintln(out, res.Negative)
	}
	if showDebug && res.DebugContext != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, headingStyle.Sprint("Debug context"))
		fmt.Fprintln(out, res.DebugContext)
	}
	if res.HistoryID != 0 {
		fmt.Fprintln(out, labelStyle.Sprintf("saved to history (#%d)", res.HistoryID))
	}
}

// RenderNumbered prints the non-empty items as "n. text", or raw when none parsed.
func RenderNumbered(out io.Writer, title, raw string, items []string) {
	fmt.Fprintln(out, headingStyle.Sprint(title))
	printed := 0
	for i, item := range items {
		if strings.TrimSpace(item) == "" {
			continue
		}
		fmt.Fprintf(out, "%s %s\n", labelStyle.Sprintf("%d.", i+1), item)
		printed++
	}
	if printed == 0 {
		fmt.Fprintln(out, raw)
	}
}

// RenderModels prints one selector per line.
func RenderModels(out io.Writer, models []string) {
	for _, model := range models {
		fmt.Fprintln(out, model)
	}
}

// RenderHistory prints entries with their listing index.
func RenderHistory(out io.Writer, entries []domain.HistoryEntry, limit int) error {
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	rows := make([][]string, 0, len(entries))
	for i, entry := range entries {
		rows = append(rows, []string{
			strconv.Itoa(i),
			entry.Timestamp,
			entry.Service,
			entry.Model,
			entry.TargetModel,
			Truncate(entry.Input, 48),
		})
	}
	return RenderTable(out, []string{"#", "TIME", "SERVICE", "MODEL", "TARGET", "INPUT"}, rows)
}

// RenderHistoryEntry prints one entry in full.
func RenderHistoryEntry(out io.Writer, entry domain.HistoryEntry) {
	meta := entry.Metadata()
	fmt.Fprintf(out, "%s %s\n", labelStyle.Sprint("Time:"), meta.Timestamp)
	fmt.Fprintf(out, "%s %s / %s\n", labelStyle.Sprint("Model:"), meta.Service, meta.Model)
	fmt.Fprintf(out, "%s %s (%s)\n", labelStyle.Sprint("Target:"), meta.TargetModel, entry.Creativity)
	fmt.Fprintln(out)
	fmt.Fprintln(out, headingStyle.Sprint("Input"))
	fmt.Fprintln(out, entry.Input)
	fmt.Fprintln(out)
	fmt.Fprintln(out, headingStyle.Sprint("Output"))
	fmt.Fprintln(out, entry.Output)
	if entry.NegativePrompt != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, headingStyle.Sprint("Negative"))
		fmt.Fprintln(out, entry.NegativePrompt)
	}
}

// RenderHealthReport prints one line per doctor check.
func RenderHealthReport(out io.Writer, report domain.HealthReport) {
	for _, check := range report.Checks {
		style, ok := statusStyles[check.Status]
		if !ok {
			style = labelStyle
		}
		fmt.Fprintf(out, "%s %s - %s\n",
			style.Sprintf("[%s]", strings.ToUpper(string(check.Status))),
			check.Name,
			check.Details)
	}
}

// Truncate shortens s to at most n runes on one line.
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if n <= 3 || len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

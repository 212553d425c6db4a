package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/oktotech/okto-go/internal/observability"
)

// Palette colors for styled output.
const (
	colorPrimary = "#5166EE"
	colorMuted   = "#808080"
	colorText    = "#E0E0E0"
	colorError   = "#E25C5C"
	colorSuccess = "#4CB782"
	colorWarning = "#E2A03F"
)

// Renderer handles styled terminal output.
type Renderer struct {
	width   int
	styled  bool
	printer *message.Printer

	Summary lipgloss.Style
	Muted   lipgloss.Style
	Data    lipgloss.Style
	Error   lipgloss.Style
	Hint    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style

	Header lipgloss.Style
	Cell   lipgloss.Style
}

// NewRenderer creates a renderer for w. Styling is enabled when writing to a
// TTY, or when forceStyled is true. NO_COLOR disables colors but keeps layout.
func NewRenderer(w io.Writer, forceStyled bool) *Renderer {
	width, isTTY := terminalInfo(w)
	styled := (isTTY || forceStyled) && os.Getenv("NO_COLOR") == ""

	if styled {
		lipgloss.SetColorProfile(2) // TrueColor
	} else {
		lipgloss.SetColorProfile(0) // Ascii
	}

	r := &Renderer{
		width:   width,
		styled:  styled,
		printer: message.NewPrinter(detectLanguage()),
	}

	plain := lipgloss.NewStyle()
	fg := func(c string) lipgloss.Style {
		if !styled {
			return plain
		}
		return plain.Foreground(lipgloss.Color(c))
	}

	r.Summary = fg(colorPrimary).Bold(styled)
	r.Muted = fg(colorMuted)
	r.Data = fg(colorText)
	r.Error = fg(colorError).Bold(styled)
	r.Hint = fg(colorMuted).Italic(styled)
	r.Success = fg(colorSuccess)
	r.Warning = fg(colorWarning)
	r.Header = fg(colorText).Bold(styled)
	r.Cell = fg(colorText)
	return r
}

// terminalInfo returns the terminal width and whether the writer is a TTY.
func terminalInfo(w io.Writer) (width int, isTTY bool) {
	width = 80

	f, ok := w.(*os.File)
	if !ok {
		return width, false
	}
	isTTY = term.IsTerminal(f.Fd())
	if isTTY {
		if cols, _, err := term.GetSize(f.Fd()); err == nil && cols >= 40 {
			width = cols
		}
	}
	return width, isTTY
}

// detectLanguage resolves the number-formatting locale from the environment.
func detectLanguage() language.Tag {
	raw := os.Getenv("LC_ALL")
	if raw == "" {
		raw = os.Getenv("LC_NUMERIC")
	}
	if raw == "" {
		raw = os.Getenv("LANG")
	}
	if idx := strings.IndexByte(raw, '.'); idx != -1 {
		raw = raw[:idx]
	}
	tag, err := language.Parse(strings.ReplaceAll(raw, "_", "-"))
	if err != nil || tag == language.Und {
		return language.AmericanEnglish
	}
	return tag
}

// RenderResponse renders a success response to the writer.
func (r *Renderer) RenderResponse(w io.Writer, resp *Response) error {
	var b strings.Builder

	if resp.Summary != "" {
		b.WriteString(r.Summary.Render(resp.Summary))
		b.WriteString("\n\n")
	}

	r.renderData(&b, normalizeData(resp.Data))

	if len(resp.Breadcrumbs) > 0 {
		b.WriteString("\n")
		r.renderBreadcrumbs(&b, resp.Breadcrumbs)
	}

	if stats := extractStats(resp.Meta); stats != nil {
		b.WriteString("\n")
		r.renderStats(&b, stats)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderError renders an error response to the writer.
func (r *Renderer) RenderError(w io.Writer, resp *ErrorResponse) error {
	var b strings.Builder

	b.WriteString(r.Error.Render("Error: " + resp.Error))
	b.WriteString("\n")

	if resp.Hint != "" {
		b.WriteString(r.Hint.Render("Hint: " + resp.Hint))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Renderer) renderData(b *strings.Builder, data any) {
	switch d := data.(type) {
	case []map[string]any:
		if len(d) == 0 {
			b.WriteString(r.Muted.Render("(no results)"))
			b.WriteString("\n")
			return
		}
		r.renderTable(b, d)

	case map[string]any:
		r.renderObject(b, d)

	case []any:
		if len(d) == 0 {
			b.WriteString(r.Muted.Render("(no results)"))
			b.WriteString("\n")
			return
		}
		r.renderList(b, d)

	case string:
		b.WriteString(r.Data.Render(d))
		b.WriteString("\n")

	case nil:
		b.WriteString(r.Muted.Render("(no data)"))
		b.WriteString("\n")

	default:
		b.WriteString(r.Data.Render(r.formatCell(data)))
		b.WriteString("\n")
	}
}

// Column priority for table rendering (lower = higher priority)
var columnPriority = map[string]int{
	"id":                 1,
	"order_id":           1,
	"name":               2,
	"token_name":         2,
	"network_name":       2,
	"nft_name":           2,
	"status":             3,
	"quantity":           4,
	"amount_in_inr":      5,
	"address":            5,
	"token_address":      6,
	"transaction_hash":   7,
	"collection_address": 7,
	"created_at":         9,
	"updated_at":         9,
}

// Columns to render in muted style
var mutedColumns = map[string]bool{
	"id":               true,
	"order_id":         true,
	"transaction_hash": true,
	"token_address":    true,
	"created_at":       true,
	"updated_at":       true,
}

// Columns to skip (images and long blobs)
var skipColumns = map[string]bool{
	"token_image":  true,
	"logo":         true,
	"image":        true,
	"nft_image":    true,
	"transaction":  true,
	"request_body": true,
}

type column struct {
	key      string
	header   string
	priority int
	muted    bool
	width    int
}

func (r *Renderer) renderTable(b *strings.Builder, data []map[string]any) {
	columns := r.selectColumns(detectColumns(data), data)
	if len(columns) == 0 {
		return
	}

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return r.Header
			}
			if col < len(columns) && columns[col].muted {
				return r.Muted
			}
			return r.Cell
		})

	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.header
	}
	t.Headers(headers...)

	for _, item := range data {
		row := make([]string, len(columns))
		for i, col := range columns {
			row[i] = r.formatCell(item[col.key])
		}
		t.Row(row...)
	}

	b.WriteString(t.String())
	b.WriteString("\n")
}

func detectColumns(data []map[string]any) []column {
	if len(data) == 0 {
		return nil
	}

	var cols []column
	for key, val := range data[0] {
		if skipColumns[key] {
			continue
		}
		switch val.(type) {
		case map[string]any, []any, []map[string]any:
			continue
		}
		cols = append(cols, column{
			key:      key,
			header:   formatHeader(key),
			priority: priorityOf(key),
			muted:    mutedColumns[key],
		})
	}

	sort.Slice(cols, func(i, j int) bool {
		if cols[i].priority != cols[j].priority {
			return cols[i].priority < cols[j].priority
		}
		return cols[i].key < cols[j].key
	})
	return cols
}

func priorityOf(key string) int {
	if p := columnPriority[key]; p != 0 {
		return p
	}
	return 50
}

func (r *Renderer) selectColumns(cols []column, data []map[string]any) []column {
	for i := range cols {
		cols[i].width = lipgloss.Width(cols[i].header)
		for _, row := range data {
			if w := lipgloss.Width(r.formatCell(row[cols[i].key])); w > cols[i].width {
				cols[i].width = w
			}
		}
		if cols[i].width > 40 {
			cols[i].width = 40
		}
	}

	// Drop the lowest-priority columns until the table fits
	const padding = 2
	selected := cols
	for len(selected) > 1 {
		total := 0
		for _, col := range selected {
			total += col.width + padding
		}
		if total <= r.width {
			break
		}
		selected = selected[:len(selected)-1]
	}
	return selected
}

// renderObject prints scalar fields as aligned label/value pairs, then each
// list-valued field as its own table.
func (r *Renderer) renderObject(b *strings.Builder, data map[string]any) {
	var scalars, lists []string
	for k, v := range data {
		if skipColumns[k] {
			continue
		}
		switch v.(type) {
		case []any:
			lists = append(lists, k)
		case map[string]any:
			continue
		default:
			scalars = append(scalars, k)
		}
	}
	sort.Slice(scalars, func(i, j int) bool {
		pi, pj := priorityOf(scalars[i]), priorityOf(scalars[j])
		if pi != pj {
			return pi < pj
		}
		return scalars[i] < scalars[j]
	})
	sort.Strings(lists)

	if len(scalars) == 0 && len(lists) == 0 {
		b.WriteString(r.Muted.Render("(no data)"))
		b.WriteString("\n")
		return
	}

	maxLen := 0
	for _, k := range scalars {
		if n := len(formatHeader(k)); n > maxLen {
			maxLen = n
		}
	}
	for _, k := range scalars {
		label := r.Muted.Render(fmt.Sprintf("%-*s: ", maxLen, formatHeader(k)))
		style := r.Data
		if mutedColumns[k] {
			style = r.Muted
		}
		b.WriteString(label + r.statusStyle(k, data[k], style).Render(r.formatCell(data[k])) + "\n")
	}

	for _, k := range lists {
		if len(scalars) > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.Header.Render(formatHeader(k)))
		b.WriteString("\n")
		items := data[k].([]any)
		if maps := toMapSlice(items); maps != nil {
			r.renderTable(b, maps)
		} else if len(items) == 0 {
			b.WriteString(r.Muted.Render("(no results)"))
			b.WriteString("\n")
		} else {
			r.renderList(b, items)
		}
	}
}

// statusStyle colors job statuses.
func (r *Renderer) statusStyle(key string, val any, fallback lipgloss.Style) lipgloss.Style {
	if key != "status" {
		return fallback
	}
	switch val {
	case "SUCCESS":
		return r.Success
	case "FAILED":
		return r.Error
	case "PENDING":
		return r.Warning
	}
	return fallback
}

func (r *Renderer) renderList(b *strings.Builder, data []any) {
	for _, item := range data {
		b.WriteString(r.Data.Render("• " + r.formatCell(item)))
		b.WriteString("\n")
	}
}

func (r *Renderer) renderBreadcrumbs(b *strings.Builder, crumbs []Breadcrumb) {
	b.WriteString(r.Muted.Render("Next:"))
	b.WriteString("\n")
	for _, bc := range crumbs {
		line := r.Muted.Render("  " + bc.Cmd)
		if bc.Description != "" {
			line += r.Muted.Render("  # " + bc.Description)
		}
		b.WriteString(line + "\n")
	}
}

// renderStats renders session statistics in a compact one-liner.
func (r *Renderer) renderStats(b *strings.Builder, stats *observability.SessionMetrics) {
	if parts := stats.FormatParts(); len(parts) > 0 {
		b.WriteString(r.Muted.Render("Stats: " + strings.Join(parts, " | ")))
		b.WriteString("\n")
	}
}

// WithStats attaches session statistics to the response.
func WithStats(stats *observability.SessionMetrics) ResponseOption {
	return WithMeta("stats", stats)
}

func extractStats(meta map[string]any) *observability.SessionMetrics {
	stats, _ := meta["stats"].(*observability.SessionMetrics)
	return stats
}

func formatHeader(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		switch w {
		case "id", "inr", "nft", "url":
			words[i] = strings.ToUpper(w)
		default:
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func (r *Renderer) formatCell(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		if len(v) > 42 {
			// Keep both ends of hashes and addresses
			return v[:20] + "…" + v[len(v)-20:]
		}
		return v
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case float64:
		if v == float64(int64(v)) {
			return r.printer.Sprint(number.Decimal(int64(v)))
		}
		return r.printer.Sprint(number.Decimal(v, number.MaxFractionDigits(6)))
	case int:
		return r.printer.Sprint(number.Decimal(v))
	case int64:
		return r.printer.Sprint(number.Decimal(v))
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, r.formatCell(item))
		}
		return strings.Join(items, ", ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

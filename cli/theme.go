package cli

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
	"text/template"

	"github.com/brunoscheufler/inkwell/telemetry"
	"github.com/charmbracelet/lipgloss"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

type Theme struct {
	Name       string
	Foreground tcell.Color
	Border     tcell.Color
	Title      tcell.Color
	Highlight  tcell.Color
	Secondary  tcell.Color
	Accent     tcell.Color
	Success    tcell.Color
	Warning    tcell.Color
	Error      tcell.Color

	// Color tags for tview dynamic text
	LabelTag     string
	ValueTag     string
	SecondaryTag string
	HeaderTag    string
	ErrorTag     string
	SuccessTag   string

	// Card colors for non-interactive output
	Card CardPalette
}

// CardPalette styles lipgloss post cards.
type CardPalette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Border    lipgloss.Color
	Subtle    lipgloss.Color
	Highlight lipgloss.Color
}

var (
	DarkTheme = Theme{
		Name:       "dark",
		Foreground: tcell.ColorWhite,
		Border:     tcell.ColorBlue,
		Title:      tcell.ColorYellow,
		Highlight:  tcell.ColorGreen,
		Secondary:  tcell.ColorGray,
		Accent:     tcell.ColorAqua,
		Success:    tcell.ColorGreen,
		Warning:    tcell.ColorYellow,
		Error:      tcell.ColorRed,

		LabelTag:     "[white]",
		ValueTag:     "[aqua]",
		SecondaryTag: "[gray]",
		HeaderTag:    "[yellow]",
		ErrorTag:     "[red]",
		SuccessTag:   "[green]",

		Card: CardPalette{
			Primary:   lipgloss.Color("#FFFFFF"),
			Secondary: lipgloss.Color("#808080"),
			Accent:    lipgloss.Color("#00FFFF"),
			Border:    lipgloss.Color("#0000FF"),
			Subtle:    lipgloss.Color("#666666"),
			Highlight: lipgloss.Color("#FFFF00"),
		},
	}

	LightTheme = Theme{
		Name:       "light",
		Foreground: tcell.ColorBlack,
		Border:     tcell.ColorNavy,
		Title:      tcell.ColorDarkBlue,
		Highlight:  tcell.ColorDarkGreen,
		Secondary:  tcell.ColorDarkGray,
		Accent:     tcell.ColorTeal,
		Success:    tcell.ColorDarkGreen,
		Warning:    tcell.ColorOrange,
		Error:      tcell.ColorDarkRed,

		LabelTag:     "[black]",
		ValueTag:     "[teal]",
		SecondaryTag: "[darkgray]",
		HeaderTag:    "[navy]",
		ErrorTag:     "[darkred]",
		SuccessTag:   "[darkgreen]",

		Card: CardPalette{
			Primary:   lipgloss.Color("#000000"),
			Secondary: lipgloss.Color("#404040"),
			Accent:    lipgloss.Color("#008080"),
			Border:    lipgloss.Color("#000080"),
			Subtle:    lipgloss.Color("#999999"),
			Highlight: lipgloss.Color("#000080"),
		},
	}
)

func GetTheme(themeName string) Theme {
	switch themeName {
	case "light":
		return LightTheme
	case "dark":
		fallthrough
	default:
		return DarkTheme
	}
}

func ApplyTheme(theme Theme) {
	// Transparent backgrounds so the terminal's own colors show through
	tview.Styles = tview.Theme{
		PrimitiveBackgroundColor:    tcell.ColorDefault,
		ContrastBackgroundColor:     tcell.ColorDefault,
		MoreContrastBackgroundColor: tcell.ColorDefault,
		BorderColor:                 theme.Border,
		TitleColor:                  theme.Title,
		GraphicsColor:               theme.Accent,
		PrimaryTextColor:            theme.Foreground,
		SecondaryTextColor:          theme.Secondary,
		TertiaryTextColor:           theme.Accent,
		InverseTextColor:            theme.Foreground,
		ContrastSecondaryTextColor:  theme.Foreground,
	}
}

func ApplyThemeToTextView(tv *tview.TextView, theme Theme) {
	tv.SetBackgroundColor(tcell.ColorDefault)
	tv.SetTextColor(theme.Foreground)
	tv.SetBorderColor(theme.Border)
	tv.SetTitleColor(theme.Title)
}

func newPanel(title string, theme Theme) *tview.TextView {
	tv := tview.NewTextView()
	tv.SetBorder(true)
	tv.SetTitle(" " + title + " ")
	tv.SetTitleAlign(tview.AlignLeft)
	tv.SetDynamicColors(true)
	tv.SetWordWrap(true)
	ApplyThemeToTextView(tv, theme)
	return tv
}

const statsTemplate = `{{.LabelColor}}Accounts:{{.ValueColor}} {{.AccountCount}}{{.LabelColor}}
Posts:{{.ValueColor}} {{.PostCount}} {{.SecondaryColor}}({{.PublicCount}} public, {{.PrivateCount}} private){{.LabelColor}}
Likes:{{.ValueColor}} {{.LikeCount}}{{.LabelColor}}
Store operations:{{.ValueColor}} {{.TotalOperations}} {{.SecondaryColor}}({{.FailedOperations}} rejected){{.LabelColor}}
Storage access:{{.ValueColor}} {{.TotalStorage}}{{.LabelColor}}
Signed in:{{.ValueColor}} {{.SignedIn}}{{.LabelColor}}
Uptime:{{.ValueColor}} {{.Uptime}}[-]`

// StatsData feeds the stats template.
type StatsData struct {
	AccountCount     int
	PostCount        int
	PublicCount      int
	PrivateCount     int
	LikeCount        int
	TotalOperations  int
	FailedOperations int
	TotalStorage     int
	SignedIn         string
	Uptime           string
	LabelColor       string
	ValueColor       string
	SecondaryColor   string
}

var statsTemplateParsed = template.Must(template.New("stats").Parse(statsTemplate))

func FormatStatsWithTheme(data StatsData, stats telemetry.Stats, theme Theme) string {
	data.LabelColor = theme.LabelTag
	data.ValueColor = theme.ValueTag
	data.SecondaryColor = theme.SecondaryTag

	for _, op := range stats.StoreOperations {
		data.TotalOperations += op.Metrics.TotalCount
		if !op.Success {
			data.FailedOperations += op.Metrics.TotalCount
		}
	}
	for _, access := range stats.StorageAccess {
		data.TotalStorage += access.Metrics.TotalCount
	}

	var buf bytes.Buffer
	if err := statsTemplateParsed.Execute(&buf, data); err != nil {
		return fmt.Sprintf("Error formatting stats: %v", err)
	}

	buf.WriteString("\n\n")
	buf.WriteString(formatOperationTable(stats, theme))
	return buf.String()
}

// formatOperationTable lists store operations sorted by key with their
// rate and p95 latency.
func formatOperationTable(stats telemetry.Stats, theme Theme) string {
	if len(stats.StoreOperations) == 0 {
		return theme.SecondaryTag + "No store activity yet[-]"
	}

	keys := make([]string, 0, len(stats.StoreOperations))
	for key := range stats.StoreOperations {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	var result strings.Builder
	result.WriteString(fmt.Sprintf("%s%-28s %7s %6s %6s[-]\n", theme.HeaderTag, "Operation", "Total", "RPM", "p95ms"))
	result.WriteString(fmt.Sprintf("%s%s[-]\n", theme.HeaderTag, strings.Repeat("─", 50)))
	for _, key := range keys {
		op := stats.StoreOperations[key]
		name := op.Store + "." + op.Operation
		color := theme.LabelTag
		if !op.Success {
			name += " (rejected)"
			color = theme.ErrorTag
		}
		result.WriteString(fmt.Sprintf("%s%-28s %s%7d %6d %6d[-]\n",
			color, name, theme.ValueTag, op.Metrics.TotalCount, op.Metrics.RequestsPerMin, op.Metrics.DurationP95))
	}
	return result.String()
}

func FormatLogEntryWithTheme(entry telemetry.LogEntry, theme Theme) string {
	// The tint handler already emits ANSI colors and timestamps
	return tview.TranslateANSI(entry.Message)
}

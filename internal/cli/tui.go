package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/overlay3d/pkg/stats"
)

var (
	tabActiveStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan).Underline(true)
	tabStyle       = lipgloss.NewStyle().Foreground(colorGray)
	headerStyle    = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	errStyle       = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// StatsModel - live usage dashboard
// =============================================================================

// Dashboard tabs.
const (
	tabNames = iota
	tabActivity
	tabHourly
	tabDaily
	tabCount
)

var tabTitles = [tabCount]string{"Names", "Activity", "Hourly", "Daily"}

// snapshotFunc reads the current counters.
type snapshotFunc func(ctx context.Context) (stats.Stats, error)

type (
	tickMsg     time.Time
	snapshotMsg struct {
		summary stats.Summary
		err     error
	}
)

// StatsModel is the bubbletea model behind "stats -i". It polls the store on
// a fixed interval and shows one table per tab.
type StatsModel struct {
	Summary  stats.Summary
	Err      error
	Tab      int
	Rows     int
	Updated  time.Time
	Interval time.Duration

	ctx   context.Context
	fetch snapshotFunc
}

// NewStatsModel creates a dashboard that polls fetch every interval.
func NewStatsModel(ctx context.Context, fetch snapshotFunc, interval time.Duration) StatsModel {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return StatsModel{Rows: 15, Interval: interval, ctx: ctx, fetch: fetch}
}

func (m StatsModel) Init() tea.Cmd {
	return m.load()
}

func (m StatsModel) load() tea.Cmd {
	return func() tea.Msg {
		s, err := m.fetch(m.ctx)
		return snapshotMsg{summary: stats.Summarize(s, 0, 0), err: err}
	}
}

func (m StatsModel) tick() tea.Cmd {
	return tea.Tick(m.Interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "right", "l":
			m.Tab = (m.Tab + 1) % tabCount
		case "shift+tab", "left", "h":
			m.Tab = (m.Tab + tabCount - 1) % tabCount
		case "r":
			return m, m.load()
		}
	case tea.WindowSizeMsg:
		m.Rows = max(msg.Height-12, 5)
	case tickMsg:
		return m, m.load()
	case snapshotMsg:
		m.Err = msg.err
		if msg.err == nil {
			m.Summary = msg.summary
			m.Updated = time.Now()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m StatsModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("overlay3d usage"))
	b.WriteString("\n")
	b.WriteString(summaryLine(m.Summary))
	b.WriteString("\n\n")

	tabs := make([]string, tabCount)
	for i, title := range tabTitles {
		if i == m.Tab {
			tabs[i] = tabActiveStyle.Render(title)
		} else {
			tabs[i] = tabStyle.Render(title)
		}
	}
	b.WriteString(strings.Join(tabs, "  "))
	b.WriteString("\n")

	headers, rows := m.tabRows()
	if len(rows) > m.Rows {
		rows = rows[:m.Rows]
	}
	b.WriteString(statsTable(headers, rows).Render())
	b.WriteString("\n")

	if m.Err != nil {
		b.WriteString(errStyle.Render("  " + m.Err.Error()))
		b.WriteString("\n")
	}
	status := "waiting for data"
	if !m.Updated.IsZero() {
		status = "updated " + m.Updated.Format("15:04:05")
	}
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %s  ⇥ switch  r refresh  q quit", status)))
	return b.String()
}

// tabRows returns the table contents of the active tab.
func (m StatsModel) tabRows() ([]string, [][]string) {
	s := m.Summary
	switch m.Tab {
	case tabActivity:
		return activityHeaders, activityRows(s.RecentActivity)
	case tabHourly:
		return []string{"Hour", "Videos"}, bucketRows(s.HourlyStats)
	case tabDaily:
		return []string{"Day", "Videos"}, bucketRows(s.DailyStats)
	default:
		return nameHeaders, nameRows(s.TopNames)
	}
}

var (
	nameHeaders     = []string{"#", "Name", "Videos"}
	activityHeaders = []string{"Time", "Action", "Name", "IP"}
)

func nameRows(names []stats.NameCount) [][]string {
	rows := make([][]string, len(names))
	for i, n := range names {
		rows[i] = []string{strconv.Itoa(i + 1), n.Name, strconv.FormatInt(n.Count, 10)}
	}
	return rows
}

func activityRows(acts []stats.Activity) [][]string {
	rows := make([][]string, len(acts))
	for i, a := range acts {
		rows[i] = []string{a.Timestamp.Local().Format("Jan 2 15:04:05"), a.Action, a.Name, a.IP}
	}
	return rows
}

func bucketRows(bs []stats.Bucket) [][]string {
	rows := make([][]string, len(bs))
	for i, b := range bs {
		rows[i] = []string{b.Key, strconv.FormatInt(b.Count, 10)}
	}
	return rows
}

func statsTable(headers []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == len(headers)-1 {
				return StyleNumber
			}
			return StyleValue
		})
}

func summaryLine(s stats.Summary) string {
	parts := []string{
		StyleNumber.Render(strconv.FormatInt(s.TotalVideos, 10)) + StyleDim.Render(" videos"),
		StyleNumber.Render(strconv.FormatInt(s.TotalDownloads, 10)) + StyleDim.Render(" downloads"),
		StyleNumber.Render(strconv.Itoa(s.UniqueIPs)) + StyleDim.Render(" visitors"),
	}
	return "  " + strings.Join(parts, StyleDim.Render(" · "))
}

package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// BucketRow is one bucket's display state in the live view.
type BucketRow struct {
	Name    string
	Balance string // formatted USDC
	Spent   string
	Limit   string // "" for unbudgeted buckets
	Usage   float64
	Active  bool
}

// BucketsMsg replaces the displayed bucket set after a poll.
type BucketsMsg struct {
	Rows []BucketRow
}

// WatchStatusMsg updates the polling status bar.
type WatchStatusMsg struct {
	Fetching  bool
	ErrMsg    string
	UpdatedAt time.Time
}

// WatchModel is the Bubble Tea model for the live bucket view.
type WatchModel struct {
	Address  string
	Rows     []BucketRow
	Status   WatchStatusMsg
	Frame    int
	cursor   int
	Quitting bool
}

type watchTickMsg struct{}

var watchSpinFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func watchSpinTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return watchTickMsg{}
	})
}

func (m WatchModel) Init() tea.Cmd { return watchSpinTick() }

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Quitting = true
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.Rows)-1 {
				m.cursor++
			}
		}

	case watchTickMsg:
		m.Frame = (m.Frame + 1) % len(watchSpinFrames)
		return m, watchSpinTick()

	case BucketsMsg:
		m.Rows = msg.Rows
		if m.cursor >= len(m.Rows) {
			m.cursor = 0
		}

	case WatchStatusMsg:
		m.Status = msg
	}

	return m, nil
}

func (m WatchModel) View() string {
	if m.Quitting {
		return ""
	}

	var sb strings.Builder
	spin := watchSpinFrames[m.Frame]

	title := fmt.Sprintf("◉  Buckets  ·  %s  ·  Base", TruncateAddr(m.Address))
	sb.WriteString(StyleTitle.Render(title) + "\n")

	if m.Status.ErrMsg != "" {
		sb.WriteString(StyleError.Render("✗ "+m.Status.ErrMsg) + "\n\n")
	} else if m.Status.Fetching {
		sb.WriteString(StyleInfo.Render(spin+" refreshing…") + "\n\n")
	} else if !m.Status.UpdatedAt.IsZero() {
		sb.WriteString(StyleMeta.Render("  updated "+m.Status.UpdatedAt.Format("15:04:05")) + "\n\n")
	} else {
		sb.WriteString(StyleMeta.Render("  connecting…") + "\n\n")
	}

	const (
		wName  = 16
		wBal   = 14
		wSpent = 20
		wBar   = 14
	)
	sep := StyleMeta.Render(strings.Repeat("─", wName+wBal+wSpent+wBar+9))

	sb.WriteString(
		padR(StyleDim.Render("BUCKET"), wName) + "  " +
			padR(StyleDim.Render("BALANCE"), wBal) + "  " +
			padR(StyleDim.Render("SPENT / LIMIT"), wSpent) + "  " +
			StyleDim.Render("USAGE") + "\n",
	)
	sb.WriteString(sep + "\n")

	if len(m.Rows) == 0 {
		sb.WriteString(StyleMeta.Render("  No buckets yet") + "\n")
	} else {
		for i, row := range m.Rows {
			nameStr := StyleBucket.Render(row.Name)
			if !row.Active {
				nameStr = StyleDim.Render(row.Name + " (off)")
			}

			balStr := StyleValue.Render(row.Balance)

			var spentStr string
			if row.Limit == "" {
				spentStr = StyleMeta.Render(row.Spent + " / ∞")
			} else {
				spentStr = StyleValue.Render(row.Spent) + StyleMeta.Render(" / "+row.Limit)
			}

			line :=
				padR(nameStr, wName) + "  " +
					padR(balStr, wBal) + "  " +
					padR(spentStr, wSpent) + "  " +
					usageBar(row.Usage, row.Limit != "")

			if i == m.cursor {
				sb.WriteString(StyleSelected.Render(line) + "\n")
			} else {
				sb.WriteString(line + "\n")
			}
		}
		sb.WriteString(sep + "\n")
	}

	sb.WriteString("\n")
	sb.WriteString(StyleMeta.Render("[ ↑↓ ] navigate   [ q ] quit"))
	sb.WriteString("\n")

	return sb.String()
}

// usageBar renders monthly usage as a 10-cell bar, colored by how close the
// bucket is to its limit.
func usageBar(usage float64, budgeted bool) string {
	if !budgeted {
		return StyleMeta.Render("──────────")
	}
	if usage < 0 {
		usage = 0
	}
	if usage > 1 {
		usage = 1
	}
	filled := int(usage * 10)

	style := StyleSuccess
	switch {
	case usage >= 1:
		style = StyleError
	case usage >= 0.8:
		style = StyleWarning
	}
	return style.Render(strings.Repeat("█", filled)) +
		StyleMeta.Render(strings.Repeat("░", 10-filled))
}

func padR(s string, n int) string {
	w := lipgloss.Width(s)
	if w >= n {
		return s
	}
	return s + strings.Repeat(" ", n-w)
}

package tui

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/phiguard/phiguard/internal/types"
)

var (
	tableBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	detailPaneBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true).
			Padding(0, 1)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("7"))

	emptyTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Align(lipgloss.Center)
)

// severityText returns plain text for severity (ANSI codes break table truncation).
func severityText(s types.Severity) string {
	switch s {
	case types.SevCritical:
		return "CRIT"
	case types.SevHigh:
		return "HIGH"
	case types.SevMedium:
		return "MED"
	case types.SevLow:
		return "LOW"
	default:
		return "INFO"
	}
}

type statusMsg string

type rescanDoneMsg struct {
	findings []types.Finding
	err      error
}

// Model is the finding browser: a table of findings on top, a detail pane
// with a highlighted source excerpt below.
type Model struct {
	root     string
	table    table.Model
	viewport viewport.Model
	spinner  spinner.Model

	findings []types.Finding
	filtered []types.Finding
	minSev   types.Severity

	rescan   func() ([]types.Finding, error)
	accept   func(types.Finding) error
	scanning bool
	ready    bool
	status   string
	width    int
	height   int
}

func NewModel(root string, findings []types.Finding, rescan func() ([]types.Finding, error), accept func(types.Finding) error) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	m := Model{
		root:     root,
		spinner:  sp,
		findings: findings,
		minSev:   types.SevInfo,
		rescan:   rescan,
		accept:   accept,
	}
	m.filtered = findings
	m.table = buildTable(m.filtered, 80)
	return m
}

func buildTable(findings []types.Finding, width int) table.Model {
	cols := []table.Column{
		{Title: "SEV", Width: 5},
		{Title: "TYPE", Width: 20},
		{Title: "LOCATION", Width: width - 45},
		{Title: "RISK", Width: 5},
		{Title: "CONF", Width: 5},
	}
	rows := make([]table.Row, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, table.Row{
			severityText(f.Severity),
			f.TypeID,
			fmt.Sprintf("%s:%d", f.File, f.Line),
			strconv.Itoa(f.RiskScore),
			fmt.Sprintf("%.2f", f.Confidence),
		})
	}
	t := table.New(table.WithColumns(cols), table.WithRows(rows), table.WithFocused(true))
	s := table.DefaultStyles()
	s.Header = s.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	s.Selected = s.Selected.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	t.SetStyles(s)
	return t
}

func (m Model) Init() tea.Cmd { return m.spinner.Tick }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.table = buildTable(m.filtered, m.width)
		m.table.SetHeight(m.height/2 - 2)
		m.viewport = viewport.New(m.width-4, m.height-m.table.Height()-6)
		m.refreshDetail()
		return m, nil

	case statusMsg:
		m.status = string(msg)
		return m, nil

	case rescanDoneMsg:
		m.scanning = false
		if msg.err != nil {
			m.status = "rescan failed: " + msg.err.Error()
			return m, nil
		}
		m.findings = msg.findings
		m.applyFilter()
		m.status = fmt.Sprintf("rescan complete: %d findings", len(m.findings))
		return m, nil

	case spinner.TickMsg:
		if m.scanning {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			if m.rescan != nil && !m.scanning {
				m.scanning = true
				m.status = "rescanning..."
				rescan := m.rescan
				return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
					fs, err := rescan()
					return rescanDoneMsg{findings: fs, err: err}
				})
			}
		case "f":
			m.minSev = nextFilter(m.minSev)
			m.applyFilter()
			m.status = "filter: " + string(m.minSev) + "+"
		case "c":
			return m, m.copyLocation()
		case "y":
			return m, m.copyDetails()
		case "b":
			return m, m.acceptCurrent()
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	prev := m.table.Cursor()
	m.table, cmd = m.table.Update(msg)
	cmds = append(cmds, cmd)
	if m.table.Cursor() != prev {
		m.refreshDetail()
	}
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func nextFilter(s types.Severity) types.Severity {
	switch s {
	case types.SevInfo:
		return types.SevLow
	case types.SevLow:
		return types.SevMedium
	case types.SevMedium:
		return types.SevHigh
	case types.SevHigh:
		return types.SevCritical
	default:
		return types.SevInfo
	}
}

func (m *Model) applyFilter() {
	m.filtered = nil
	for _, f := range m.findings {
		if f.Severity.Rank() >= m.minSev.Rank() {
			m.filtered = append(m.filtered, f)
		}
	}
	w := m.width
	if w == 0 {
		w = 80
	}
	m.table = buildTable(m.filtered, w)
	if m.height > 0 {
		m.table.SetHeight(m.height/2 - 2)
	}
	m.refreshDetail()
}

func (m *Model) current() (types.Finding, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.filtered) {
		return types.Finding{}, false
	}
	return m.filtered[i], true
}

func (m *Model) refreshDetail() {
	f, ok := m.current()
	if !ok {
		m.viewport.SetContent("")
		return
	}
	var sb strings.Builder
	sb.WriteString(keyStyle.Render("ID: ") + f.ID + "\n")
	sb.WriteString(keyStyle.Render("Type: ") + f.TypeID + " (" + string(f.Classification) + ")\n")
	sb.WriteString(keyStyle.Render("Severity: ") + string(f.Severity) + fmt.Sprintf("  risk %d  confidence %.2f\n", f.RiskScore, f.Confidence))
	sb.WriteString(keyStyle.Render("Value: ") + f.ValuePreview + "  " + f.ValueHash + "\n")
	if f.CombinationGroupID != "" {
		sb.WriteString(keyStyle.Render("Cluster: ") + f.CombinationGroupID + "\n")
	}
	for _, fac := range f.RiskBreakdown.Factors {
		sb.WriteString(fmt.Sprintf("  %-16s %5.1f × %.2f = %5.1f\n", fac.Name, fac.Value, fac.Weight, fac.Weighted))
	}
	if len(f.RegulatoryTags) > 0 {
		sb.WriteString(keyStyle.Render("Regulatory: ") + strings.Join(f.RegulatoryTags, "; ") + "\n")
	}
	if len(f.Remediation) > 0 {
		sb.WriteString(keyStyle.Render("Remediation:") + "\n")
		for _, step := range f.Remediation {
			sb.WriteString("  • " + step + "\n")
		}
	}
	if excerpt := m.sourceExcerpt(f); excerpt != "" {
		sb.WriteString("\n" + excerpt)
	}
	m.viewport.SetContent(sb.String())
	m.viewport.GotoTop()
}

// sourceExcerpt shows a few lines around the finding from the working tree.
// Findings from git history have virtual paths and get no excerpt.
func (m *Model) sourceExcerpt(f types.Finding) string {
	if strings.Contains(f.File, ":") {
		return ""
	}
	fp := filepath.Join(m.root, f.File)
	file, err := os.Open(fp)
	if err != nil {
		return ""
	}
	defer file.Close()

	const around = 4
	var lines []string
	sc := bufio.NewScanner(file)
	n := 0
	for sc.Scan() {
		n++
		if n < f.Line-around {
			continue
		}
		if n > f.Line+around {
			break
		}
		marker := "  "
		if n == f.Line {
			marker = "▸ "
		}
		lines = append(lines, fmt.Sprintf("%s%4d  %s", marker, n, highlightLine(sc.Text(), f.File)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) acceptCurrent() tea.Cmd {
	f, ok := m.current()
	if !ok || m.accept == nil {
		return nil
	}
	if err := m.accept(f); err != nil {
		msg := "baseline update failed: " + err.Error()
		return func() tea.Msg { return statusMsg(msg) }
	}
	loc := fmt.Sprintf("%s:%d", f.File, f.Line)
	return func() tea.Msg { return statusMsg("Accepted " + loc + " into baseline") }
}

func (m *Model) copyLocation() tea.Cmd {
	f, ok := m.current()
	if !ok {
		return nil
	}
	loc := fmt.Sprintf("%s:%d:%d", f.File, f.Line, f.Column)
	if err := clipboard.WriteAll(loc); err != nil {
		return func() tea.Msg { return statusMsg("clipboard unavailable") }
	}
	return func() tea.Msg { return statusMsg("Copied " + loc) }
}

func (m *Model) copyDetails() tea.Cmd {
	f, ok := m.current()
	if !ok {
		return nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s at %s:%d:%d\n", f.Severity, f.TypeID, f.File, f.Line, f.Column)
	fmt.Fprintf(&sb, "risk=%d confidence=%.2f hash=%s\n", f.RiskScore, f.Confidence, f.ValueHash)
	for _, step := range f.Remediation {
		fmt.Fprintf(&sb, "- %s\n", step)
	}
	if err := clipboard.WriteAll(sb.String()); err != nil {
		return func() tea.Msg { return statusMsg("clipboard unavailable") }
	}
	return func() tea.Msg { return statusMsg("Copied finding details") }
}

func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}
	title := titleStyle.Render(fmt.Sprintf("phiguard — %d findings (%s+)", len(m.filtered), m.minSev))
	var body string
	if len(m.filtered) == 0 {
		body = emptyTextStyle.Width(m.width).Render("\nNo findings at this severity.\n")
	} else {
		body = tableBorderStyle.Render(m.table.View()) + "\n" +
			detailPaneBorderStyle.Width(m.width - 2).Render(m.viewport.View())
	}
	status := m.status
	if m.scanning {
		status = m.spinner.View() + " " + status
	}
	help := statusStyle.Width(m.width).Render(" ↑/↓ move  f filter  b accept  c copy loc  y copy details  r rescan  q quit  " + status)
	return title + "\n" + body + "\n" + help
}

func highlightLine(line, filename string) string {
	lexer := lexers.Match(filename)
	if lexer == nil {
		ext := filepath.Ext(filename)
		if ext != "" {
			lexer = lexers.Match("file" + ext)
		}
	}
	if lexer == nil {
		return line
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return line
	}
	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return line
	}
	return strings.TrimRight(buf.String(), "\n")
}

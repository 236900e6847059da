// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hashicorp/go-hclog"

	"github.com/verte-zerg/worklog/internal/model"
	"github.com/verte-zerg/worklog/internal/stats"
)

const (
	tabOverview = iota
	tabDays
	tabWeeks
	tabSubjects
	tabWeekdays
	tabSessions
)

const (
	plotHeight = 10
)

const (
	filterIgnored = iota
	filterSubject
	filterWeekCount
	filterTrendWindow
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Config holds the initial view settings.
type Config struct {
	Source      string
	Ignored     model.WeekSet
	Subject     string
	WeekCount   stats.WeekCountPolicy
	TrendWindow int
	Logger      hclog.Logger
}

// Model implements the Bubble Tea stats UI.
type Model struct {
	records []model.SessionRecord
	cfg     Config
	logger  hclog.Logger

	result  stats.Result
	visible []model.SessionRecord
	errMsg  string

	tabs         []string
	activeTab    int
	viewports    []viewport.Model
	sessionTable table.Model
	tableLayout  tableLayout

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

type tableLayout struct {
	width    int
	height   int
	rowCount int
	colCount int
}

// NewModel constructs a stats UI model over already parsed records.
func NewModel(records []model.SessionRecord, cfg Config) *Model {
	if cfg.TrendWindow <= 0 {
		cfg.TrendWindow = stats.DefaultTrendWindow
	}
	if cfg.Ignored == nil {
		cfg.Ignored = model.WeekSet{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	m := &Model{
		records: records,
		cfg:     cfg,
		logger:  logger.Named("statsui"),
		tabs:    []string{"Overview", "Days", "Weeks", "Subjects", "Weekdays", "Sessions"},
	}
	m.initInputs()
	m.initSessionTable()
	m.initViewports()
	m.refreshResult()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (!m.filterMode && msg.String() == "q") {
			return m, tea.Quit
		}
		if m.activeTab == tabSessions {
			m.sessionTable.Focus()
		} else {
			m.sessionTable.Blur()
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "=":
			m.cfg.TrendWindow = nextTrendWindow(m.cfg.TrendWindow)
			m.renderTabContents()
			return m, nil
		case "-":
			m.cfg.TrendWindow = prevTrendWindow(m.cfg.TrendWindow)
			m.renderTabContents()
			return m, nil
		case "/":
			return m.startFilter()
		case "g", "home":
			if m.activeTab == tabSessions {
				m.sessionTable.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabSessions {
				m.sessionTable.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabSessions {
				var cmd tea.Cmd
				m.sessionTable, cmd = m.sessionTable.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		filterIgnored:     newFilterInput("Ignored weeks: "),
		filterSubject:     newFilterInput("Subject: "),
		filterWeekCount:   newFilterInput("Week count (distinct/span): "),
		filterTrendWindow: newFilterInput("Trend window: "),
	}
	m.setInputsFromConfig()
}

func (m *Model) initSessionTable() {
	cols, rows := buildSessionTableData(nil)
	m.sessionTable = table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithHeight(1),
	)
	m.sessionTable.SetStyles(sessionTableStyles())
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromConfig() {
	if len(m.filterInputs) == 0 {
		return
	}
	m.filterInputs[filterIgnored].SetValue(formatWeeks(m.cfg.Ignored.Sorted()))
	m.filterInputs[filterSubject].SetValue(m.cfg.Subject)
	m.filterInputs[filterWeekCount].SetValue(m.cfg.WeekCount.String())
	m.filterInputs[filterTrendWindow].SetValue(strconv.Itoa(m.cfg.TrendWindow))
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.setSessionTableSize(m.width, vpHeight)
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	if count == 0 {
		return
	}
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabSessions {
		m.sessionTable.Focus()
	} else {
		m.sessionTable.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderFilterSummary() string {
	source := m.cfg.Source
	if source == "" {
		source = "-"
	}
	ignored := formatWeeks(m.cfg.Ignored.Sorted())
	if ignored == "" {
		ignored = "none"
	}
	subject := m.cfg.Subject
	if subject == "" {
		subject = "any"
	}
	summary := fmt.Sprintf("Log: %s  ignored=%s  subject=%s  weeks=%s  window=%d",
		source, ignored, subject, m.cfg.WeekCount, m.cfg.TrendWindow)
	summary = truncateLine(summary, m.width)
	return headerStyle.Render(summary)
}

func (m *Model) renderHelp() string {
	return headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Filters: /  Quit: q")
}

func (m *Model) renderFilterHelp() string {
	return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel  quit: ctrl+c")
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return m.renderFilterHelp()
	}
	if m.errMsg != "" {
		return m.renderHelp() + "\n" + errorStyle.Render(m.errMsg)
	}
	return m.renderHelp()
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Filters (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	if m.activeTab == tabSessions {
		if len(m.visible) == 0 {
			return fitLines("No sessions found.", m.width, height)
		}
		view := tableMutedStyle.Render(m.sessionTable.View())
		return fitLines(view, m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

// refreshResult re-runs the aggregation over the records matching the
// current subject filter.
func (m *Model) refreshResult() {
	m.visible = filterBySubject(m.records, m.cfg.Subject)
	res, err := stats.Aggregate(m.visible, m.cfg.Ignored, stats.WithWeekCount(m.cfg.WeekCount))
	if err != nil {
		m.logger.Debug("aggregation failed", "subject", m.cfg.Subject, "error", err)
		m.errMsg = err.Error()
		m.result = stats.Result{}
	} else {
		m.errMsg = ""
		m.result = res
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	_, bodyHeight, _ := m.layoutHeights()
	applySessionTable(m, m.visible, width, bodyHeight, true)
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	if m.errMsg != "" {
		for i := range m.viewports {
			m.viewports[i].SetContent("No statistics available.")
		}
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	opts := stats.ChartOptions{Width: width, Height: plotHeight, Color: true, TrendWindow: m.cfg.TrendWindow}
	charts := stats.Charts(m.result)
	m.viewports[tabOverview].SetContent(renderOverview(m.result, opts))
	m.viewports[tabDays].SetContent(renderCharts(opts, charts[0]))
	m.viewports[tabWeeks].SetContent(renderCharts(opts, charts[1]))
	m.viewports[tabSubjects].SetContent(renderCharts(opts, charts[2]))
	m.viewports[tabWeekdays].SetContent(renderWeekdays(m.result, opts, charts[3:]))
}

func renderOverview(res stats.Result, opts stats.ChartOptions) string {
	summary := renderSummaryCards(res.Summary, opts.Width)
	var buf bytes.Buffer
	if err := stats.RenderTrend(&buf, res, opts); err != nil {
		return fmt.Sprintf("Failed to render trend: %v", err)
	}
	trend := strings.TrimRight(buf.String(), "\n")
	if trend == "" {
		trend = headerStyle.Render("Trend needs at least two weeks.")
	}
	return strings.TrimRight(summary+"\n\n"+trend, "\n")
}

func renderSummaryCards(s stats.Summary, width int) string {
	prev := "n/a"
	if s.HasPreviousWeeks {
		prev = stats.FormatHours(s.AverageWeekTimeExclLast)
	}
	cards := []string{
		metricCard("Total", stats.FormatHours(float64(s.TotalTime))),
		metricCard("Longest day", stats.FormatHours(float64(s.LongestDayTime))),
		metricCard("Longest week", stats.FormatHours(float64(s.LongestWeekTime))),
		metricCard("Avg week", stats.FormatHours(s.AverageWeekTime)),
		metricCard("Avg week (filtered)", stats.FormatHours(s.AverageWeekTimeFiltered)),
		metricCard("Avg week (w/o current)", prev),
		metricCard("Weeks", fmt.Sprintf("%d / %d", s.TotalWeekCountFiltered, s.TotalWeekCount)),
	}
	if width < 80 {
		return strings.Join(cards, "\n")
	}
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, cards[0], cards[1], cards[2])
	row2 := lipgloss.JoinHorizontal(lipgloss.Top, cards[3:]...)
	return lipgloss.JoinVertical(lipgloss.Left, row1, row2)
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderCharts(opts stats.ChartOptions, charts ...stats.Chart) string {
	var buf bytes.Buffer
	for _, chart := range charts {
		if err := stats.RenderBars(&buf, chart.Title, chart.Bars, opts.Width, chart.Format, opts.Color); err != nil {
			return fmt.Sprintf("Failed to render %s: %v", strings.ToLower(chart.Title), err)
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}

func renderWeekdays(res stats.Result, opts stats.ChartOptions, charts []stats.Chart) string {
	var buf bytes.Buffer
	if err := stats.RenderWeekdayTable(&buf, res); err != nil {
		return fmt.Sprintf("Failed to render weekday table: %v", err)
	}
	return strings.TrimRight(buf.String()+renderCharts(opts, charts...), "\n")
}

func applySessionTable(m *Model, records []model.SessionRecord, width, height int, force bool) {
	cols, rows := buildSessionTableData(records)
	viewportHeight := maxInt(1, height-1)
	if !force &&
		m.tableLayout.width == width &&
		m.tableLayout.height == viewportHeight &&
		m.tableLayout.rowCount == len(rows) &&
		m.tableLayout.colCount == len(cols) {
		return
	}
	m.sessionTable.SetColumns(cols)
	m.sessionTable.SetRows(rows)
	m.tableLayout.rowCount = len(rows)
	m.tableLayout.colCount = len(cols)
	m.setSessionTableSize(width, height)
}

func (m *Model) setSessionTableSize(width, height int) {
	viewportHeight := maxInt(1, height-1)
	if m.tableLayout.width == width && m.tableLayout.height == viewportHeight {
		return
	}
	m.tableLayout.width = width
	m.tableLayout.height = viewportHeight
	m.sessionTable.SetWidth(width)
	m.sessionTable.SetHeight(viewportHeight)
	viewportHeight = m.adjustTableHeight(height)
	if m.tableLayout.height != viewportHeight {
		m.tableLayout.height = viewportHeight
		m.sessionTable.SetHeight(viewportHeight)
	}
}

func sessionTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) adjustTableHeight(bodyHeight int) int {
	target := maxInt(1, bodyHeight)
	height := m.sessionTable.Height()
	viewHeight := lipgloss.Height(m.sessionTable.View())
	if viewHeight == target {
		return height
	}
	height += target - viewHeight
	if height < 1 {
		height = 1
	}
	m.sessionTable.SetHeight(height)
	viewHeight = lipgloss.Height(m.sessionTable.View())
	if viewHeight == target {
		return height
	}
	height += target - viewHeight
	if height < 1 {
		height = 1
	}
	return height
}

func buildSessionTableData(records []model.SessionRecord) ([]table.Column, []table.Row) {
	subjectWidth := len("Subject")
	for _, r := range records {
		subjectWidth = maxInt(subjectWidth, lipgloss.Width(r.Subject))
	}
	columns := []table.Column{
		{Title: "Date", Width: 10},
		{Title: "Week", Width: 4},
		{Title: "Start", Width: 5},
		{Title: "End", Width: 5},
		{Title: "Minutes", Width: 7},
		{Title: "Quality", Width: 7},
		{Title: "Subject", Width: minInt(subjectWidth, 40)},
	}
	rows := make([]table.Row, 0, len(records))
	for _, r := range records {
		week, _ := r.Date.ISOWeek()
		rows = append(rows, table.Row{
			r.Date.String(),
			strconv.Itoa(week),
			r.Start.String(),
			r.End.String(),
			strconv.Itoa(r.DurationMinutes()),
			strconv.Itoa(r.Quality),
			r.Subject,
		})
	}
	return columns, rows
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromConfig()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshResult()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if count == 0 {
		return nil
	}
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) applyFilter() error {
	ignored, err := model.ParseWeekSet(m.filterInputs[filterIgnored].Value())
	if err != nil {
		return err
	}
	policy, err := stats.ParseWeekCountPolicy(m.filterInputs[filterWeekCount].Value())
	if err != nil {
		return err
	}
	window := stats.DefaultTrendWindow
	if input := strings.TrimSpace(m.filterInputs[filterTrendWindow].Value()); input != "" {
		parsed, err := strconv.Atoi(input)
		if err != nil {
			return fmt.Errorf("invalid trend window (use integer)")
		}
		if parsed < 1 {
			return fmt.Errorf("invalid trend window (use integer >= 1)")
		}
		window = parsed
	}
	m.cfg.Ignored = ignored
	m.cfg.Subject = strings.TrimSpace(m.filterInputs[filterSubject].Value())
	m.cfg.WeekCount = policy
	m.cfg.TrendWindow = window
	return nil
}

// filterBySubject keeps records whose subject contains needle, ignoring case.
func filterBySubject(records []model.SessionRecord, needle string) []model.SessionRecord {
	needle = strings.ToLower(strings.TrimSpace(needle))
	if needle == "" {
		return records
	}
	out := make([]model.SessionRecord, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.Subject), needle) {
			out = append(out, r)
		}
	}
	return out
}

func formatWeeks(weeks []int) string {
	sort.Ints(weeks)
	parts := make([]string, len(weeks))
	for i, w := range weeks {
		parts[i] = strconv.Itoa(w)
	}
	return strings.Join(parts, ",")
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func nextTrendWindow(n int) int {
	if n < 2 {
		return 2
	}
	return n + 1
}

func prevTrendWindow(n int) int {
	if n <= 2 {
		return 1
	}
	return n - 1
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

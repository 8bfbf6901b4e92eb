// Package tui provides the live Bubble Tea dashboard over the tracking
// pipeline.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pedtrack/internal/event"
	"pedtrack/internal/ped"
	"pedtrack/internal/stats"
	"pedtrack/internal/track"
)

// Controller is the session/run command surface the dashboard drives.
// cmd/track wires it to the tracker plus the archive store.
type Controller interface {
	StartSession(activity track.Activity) error
	EndSession() error
	StartRun(notes string) error
	EndRun() error
	AddSpend(a ped.Amount) error
	AddExtraSpend(a ped.Amount) error
}

// ── Styles ────────────

var (
	// Title bar at the very top
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	// Active tab: bright, underlined
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	// Inactive tab: muted
	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	// Separator between tabs
	tabSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Background(lipgloss.Color("235"))

	// Section heading inside a tab
	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	// Key=value label
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	gainStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	lossStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	globalFlashStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	activeBadge = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	idleBadge   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// ── Tab definitions ─────────────────

type tabID int

const (
	tabSummary tabID = iota
	tabLoot
	tabSkills
	tabCombat
	tabRuns
	tabCount
)

var tabNames = [tabCount]string{"Summary", "Loot", "Skills", "Combat", "Runs"}

// ── Messages ─────────────────

type snapshotMsg track.Snapshot

type globalMsg event.GlobalDrop

type flashExpiredMsg struct{}

// ── Model ────────────────────

// Model is the root Bubble Tea model for the dashboard.
type Model struct {
	ctrl      Controller
	activity  track.Activity
	snapshots <-chan track.Snapshot
	globals   <-chan event.GlobalDrop

	snap      track.Snapshot
	activeTab tabID
	viewports [tabCount]viewport.Model
	width     int
	height    int
	ready     bool

	// one shared prompt, repurposed per promptMode
	input       textinput.Model
	prompt      promptMode
	globalFlash string
	err         error
}

// promptMode selects what the status-bar input is collecting.
type promptMode int

const (
	promptNone promptMode = iota
	promptNotes
	promptSpend
	promptExtra
)

// New creates the dashboard model.
func New(ctrl Controller, activity track.Activity, snaps <-chan track.Snapshot, globals <-chan event.GlobalDrop) Model {
	ti := textinput.New()
	ti.CharLimit = 120
	return Model{
		ctrl:      ctrl,
		activity:  activity,
		snapshots: snaps,
		globals:   globals,
		input:     ti,
	}
}

func waitForSnapshot(ch <-chan track.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return tea.Quit()
		}
		return snapshotMsg(s)
	}
}

func waitForGlobal(ch <-chan event.GlobalDrop) tea.Cmd {
	return func() tea.Msg {
		g, ok := <-ch
		if !ok {
			return nil
		}
		return globalMsg(g)
	}
}

func expireFlash() tea.Cmd {
	return tea.Tick(8*time.Second, func(time.Time) tea.Msg { return flashExpiredMsg{} })
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForSnapshot(m.snapshots), waitForGlobal(m.globals))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case snapshotMsg:
		m.snap = track.Snapshot(msg)
		if m.ready {
			m.refreshViewports()
		}
		return m, waitForSnapshot(m.snapshots)

	case globalMsg:
		g := event.GlobalDrop(msg)
		what := g.Item
		if what == "" {
			what = g.Creature
		}
		kind := "GLOBAL"
		if g.HOF {
			kind = "HOF"
		}
		m.globalFlash = fmt.Sprintf("%s! %s — %s (%s)", kind, g.Player, what, g.TTValue.Format())
		return m, tea.Batch(waitForGlobal(m.globals), expireFlash())

	case flashExpiredMsg:
		m.globalFlash = ""
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewports()
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompt != promptNone {
		switch msg.String() {
		case "enter":
			m.err = m.submitPrompt(strings.TrimSpace(m.input.Value()))
			m.closePrompt()
			return m, nil
		case "esc":
			m.closePrompt()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab", "l", "right":
		m.activeTab = (m.activeTab + 1) % tabCount
	case "shift+tab", "h", "left":
		m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
	case "1", "2", "3", "4", "5":
		m.activeTab = tabID(msg.String()[0] - '1')
	case "s":
		if m.snap.Session != nil && m.snap.Session.Active() {
			m.err = m.ctrl.EndSession()
		} else {
			m.err = m.ctrl.StartSession(m.activity)
		}
		return m, nil
	case "r":
		if m.snap.Session == nil || !m.snap.Session.Active() {
			return m, nil
		}
		if m.snap.RunOpen {
			m.err = m.ctrl.EndRun()
			return m, nil
		}
		return m.openPrompt(promptNotes, "run notes")
	case "p":
		if m.snap.RunOpen {
			return m.openPrompt(promptSpend, "spend (PED)")
		}
	case "x":
		if m.snap.RunOpen {
			return m.openPrompt(promptExtra, "extra spend (PED)")
		}
	}

	var cmd tea.Cmd
	m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
	return m, cmd
}

func (m Model) openPrompt(p promptMode, placeholder string) (tea.Model, tea.Cmd) {
	m.prompt = p
	m.input.Placeholder = placeholder
	m.input.Focus()
	return m, textinput.Blink
}

func (m *Model) closePrompt() {
	m.prompt = promptNone
	m.input.Reset()
	m.input.Blur()
}

func (m *Model) submitPrompt(value string) error {
	switch m.prompt {
	case promptNotes:
		return m.ctrl.StartRun(value)
	case promptSpend, promptExtra:
		a, err := ped.FromString(value)
		if err != nil {
			return err
		}
		if m.prompt == promptSpend {
			return m.ctrl.AddSpend(a)
		}
		return m.ctrl.AddExtraSpend(a)
	}
	return nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  pedtrack  " + string(m.activity))

	var tabParts []string
	for i := tabID(0); i < tabCount; i++ {
		label := fmt.Sprintf(" %d %s ", i+1, tabNames[i])
		if i == m.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
		if i < tabCount-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	content := m.viewports[m.activeTab].View()

	var statusBar string
	if m.prompt != promptNone {
		statusBar = statusBarStyle.Width(m.width).Render("  " + m.input.View() + "  (enter confirm · esc cancel)")
	} else {
		statusBar = statusBarStyle.Width(m.width).Render(m.statusLine())
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, tabRow, content, statusBar)
}

func (m Model) statusLine() string {
	var state string
	switch {
	case m.snap.Session == nil || !m.snap.Session.Active():
		state = idleBadge.Render("● no session")
	case m.snap.RunOpen:
		state = activeBadge.Render("● session · run open")
	default:
		state = activeBadge.Render("● session")
	}
	hint := "  s session  r run  p spend  x extra  ←/→ tab  q quit"
	line := " " + state + hint
	if m.snap.LastSignal != "" {
		line += dimStyle.Render("  [log " + m.snap.LastSignal + "]")
	}
	if m.snap.PendingDropped > 0 {
		line += lossStyle.Render(fmt.Sprintf("  %d buffered events dropped", m.snap.PendingDropped))
	}
	if m.globalFlash != "" {
		line += "  " + globalFlashStyle.Render(m.globalFlash)
	}
	if m.err != nil {
		line += "  " + lossStyle.Render(m.err.Error())
	}
	return line
}

// ── Viewport management ───────────────────────────────────────────────────────

func (m *Model) initViewports() {
	// title(1) + tabRow(1) + statusBar(1) = 3 fixed rows
	vpHeight := m.height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	for i := tabID(0); i < tabCount; i++ {
		vp := viewport.New(m.width, vpHeight)
		vp.SetContent(m.renderTab(i))
		m.viewports[i] = vp
	}
}

func (m *Model) refreshViewports() {
	for i := tabID(0); i < tabCount; i++ {
		m.viewports[i].SetContent(m.renderTab(i))
	}
}

// ── Tab renderers ─────────────────────────────────────────────────────────────

func (m *Model) renderTab(t tabID) string {
	if m.snap.Session == nil {
		return heading("No session") +
			dimStyle.Render("  Press s to start a "+string(m.activity)+" session.") + "\n"
	}
	switch t {
	case tabSummary:
		return m.renderSummary()
	case tabLoot:
		return m.renderLoot()
	case tabSkills:
		return m.renderSkills()
	case tabCombat:
		return m.renderCombat()
	case tabRuns:
		return m.renderRuns()
	}
	return ""
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func row(sb *strings.Builder, label, value string) {
	sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-18s", label)) + "  " + value + "\n")
}

func signed(a ped.Amount) string {
	if a.IsNegative() {
		return lossStyle.Render(a.Format())
	}
	return gainStyle.Render(a.Format())
}

func (m *Model) renderSummary() string {
	s := m.snap.Session
	var sb strings.Builder
	sb.WriteString(heading("Session Summary"))

	row(&sb, "Started:", s.StartTime.Format("2006-01-02 15:04:05"))
	row(&sb, "Activity:", string(s.Activity))
	row(&sb, "Creatures Looted:", fmt.Sprintf("%d", s.CreaturesLooted))
	row(&sb, "Total Cost:", s.TotalCost.Format())
	row(&sb, "Total Return:", s.TotalReturn.Format())
	if pct, ok := stats.ReturnPercent(s); ok {
		row(&sb, "% Return:", pct.Percent())
	} else {
		row(&sb, "% Return:", dimStyle.Render("no data"))
	}
	row(&sb, "Profit:", signed(stats.Profit(s)))
	if cpk, ok := stats.CostPerKill(s); ok {
		row(&sb, "Cost / Kill:", cpk.Format())
	}
	row(&sb, "Globals / HOFs:", fmt.Sprintf("%d / %d", s.Globals, s.HOFs))
	row(&sb, "Skill Gain:", s.TotalSkillGain.String())

	if s.Craft.Attempts > 0 {
		sb.WriteString(heading("Crafting"))
		row(&sb, "Attempts:", fmt.Sprintf("%d", s.Craft.Attempts))
		if rate, ok := stats.CraftSuccessRate(&s.Craft); ok {
			row(&sb, "Success Rate:", rate.Percent())
		}
		row(&sb, "Material Cost:", s.Craft.MaterialCost.Format())
		row(&sb, "Result Return:", s.Craft.ResultReturn.Format())
		if s.Craft.Unresolved > 0 {
			row(&sb, "Unresolved:", lossStyle.Render(fmt.Sprintf("%d lookups", s.Craft.Unresolved)))
		}
	}
	return sb.String()
}

func (m *Model) renderLoot() string {
	s := m.snap.Session
	var sb strings.Builder

	var open *track.Run
	for _, r := range s.Runs {
		if !r.Closed() {
			open = r
		}
	}
	if open == nil {
		sb.WriteString(heading("Item Breakdown"))
		sb.WriteString(dimStyle.Render("  (no open run — press r to start one)") + "\n")
		return sb.String()
	}

	sb.WriteString(heading(fmt.Sprintf("Item Breakdown — current run (%d items)", len(open.Items))))
	names := make([]string, 0, len(open.Items))
	for name := range open.Items {
		names = append(names, name)
	}
	sort.Strings(names)

	sb.WriteString(dimStyle.Render(fmt.Sprintf("  %-32s %6s %12s %12s", "Item", "Count", "TT", "Total")) + "\n")
	for _, name := range names {
		it := open.Items[name]
		sb.WriteString(fmt.Sprintf("  %-32s %6d %12s %12s\n", truncate(name, 32), it.Count, it.TTTotal.Format(), it.TotalValue.Format()))
	}
	sb.WriteString("\n")
	row(&sb, "Run Return:", open.ReturnTotal.Format())
	row(&sb, "Run Spend:", open.SpendTotal().Format())
	if open.UnresolvedEnhancers > 0 {
		row(&sb, "Unresolved:", lossStyle.Render(fmt.Sprintf("%d enhancer lookups", open.UnresolvedEnhancers)))
	}
	return sb.String()
}

func (m *Model) renderSkills() string {
	s := m.snap.Session
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Skills (%d)", len(s.Skills))))
	if len(s.Skills) == 0 {
		sb.WriteString(dimStyle.Render("  (none yet)") + "\n")
		return sb.String()
	}

	names := make([]string, 0, len(s.Skills))
	for name := range s.Skills {
		names = append(names, name)
	}
	sort.Strings(names)

	sb.WriteString(dimStyle.Render(fmt.Sprintf("  %-28s %10s %7s %7s %8s", "Skill", "Total", "Gains", "Procs", "Proc %")) + "\n")
	for _, name := range names {
		e := s.Skills[name]
		procPct := dimStyle.Render("     —")
		if pct, ok := stats.ProcPercent(e); ok {
			procPct = pct.Percent()
		}
		sb.WriteString(fmt.Sprintf("  %-28s %10s %7d %7d %8s\n", truncate(name, 28), e.Total.String(), e.Gains, e.Procs, procPct))
	}
	return sb.String()
}

func (m *Model) renderCombat() string {
	c := m.snap.Session.Combat
	var sb strings.Builder
	sb.WriteString(heading("Combat"))
	row(&sb, "Damage Dealt:", c.DamageDealt.String())
	row(&sb, "Damage Received:", c.DamageReceived.String())
	row(&sb, "Crits Dealt:", fmt.Sprintf("%d", c.CritsDealt))
	row(&sb, "Crits Received:", fmt.Sprintf("%d", c.CritsReceived))
	row(&sb, "Misses:", fmt.Sprintf("%d", c.Misses))
	row(&sb, "Kills / Deaths:", fmt.Sprintf("%d / %d", c.Kills, c.Deaths))
	return sb.String()
}

func (m *Model) renderRuns() string {
	s := m.snap.Session
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Runs (%d)", len(s.Runs))))
	if len(s.Runs) == 0 {
		sb.WriteString(dimStyle.Render("  (none yet — press r to start one)") + "\n")
		return sb.String()
	}

	best, hasBest := stats.BestRun(s)
	for i, r := range s.Runs {
		ts := timeStyle.Render(r.StartTime.Format("15:04:05"))
		state := "open"
		if r.Closed() {
			state = "closed"
		}
		marker := "   "
		if hasBest && r.ID == best.ID {
			marker = gainStyle.Render(" ★ ")
		}
		notes := r.Notes
		if notes == "" && r.Implicit {
			notes = dimStyle.Render("(implicit)")
		}
		sb.WriteString(fmt.Sprintf("%s%3d. %s  %-6s  return %s  spend %s  %s\n",
			marker, i+1, ts, state, r.ReturnTotal.Format(), r.SpendTotal().Format(), notes))
	}
	return sb.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// Run starts the dashboard and blocks until the user quits.
func Run(ctrl Controller, activity track.Activity, snaps <-chan track.Snapshot, globals <-chan event.GlobalDrop) error {
	p := tea.NewProgram(New(ctrl, activity, snaps, globals), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

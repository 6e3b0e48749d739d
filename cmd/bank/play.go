package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	cl "banktycoon/internal/cli"
	"banktycoon/internal/game"
	"banktycoon/internal/runner"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const pollEvery = time.Second

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	goodStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func newPlayCmd(t *target) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Live dashboard with keyboard controls",
		RunE: func(cmd *cobra.Command, args []string) error {
			fd := int(os.Stdout.Fd())
			if !term.IsTerminal(fd) {
				return fmt.Errorf("play needs an interactive terminal; use `bank status` instead")
			}
			width, height, err := term.GetSize(fd)
			if err != nil {
				width, height = 100, 30
			}
			m := newPlayModel(cmd.Context(), newClient(t), width, height)
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}

type keyMap struct {
	Up, Down, Switch, Approve, Deny key.Binding
	Clock, Fast, Normal, Slow       key.Binding
	Month, Event, Save, Help, Quit  key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Switch, k.Approve, k.Deny, k.Clock, k.Event, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Switch, k.Approve, k.Deny},
		{k.Clock, k.Fast, k.Normal, k.Slow, k.Month},
		{k.Event, k.Save, k.Help, k.Quit},
	}
}

var keys = keyMap{
	Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Switch:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "customers/loans")),
	Approve: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "approve")),
	Deny:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "deny")),
	Clock:   key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause/resume")),
	Fast:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "fast")),
	Normal:  key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "normal")),
	Slow:    key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "slow")),
	Month:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "advance a month")),
	Event:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "take default event choice")),
	Save:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
	Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type stateMsg struct {
	st    *game.BankState
	clock runner.Status
	err   error
}

type actionMsg struct {
	note string
	err  error
}

type pollMsg struct{}

type playModel struct {
	ctx    context.Context
	client *cl.Client

	st      *game.BankState
	clock   runner.Status
	loading bool
	status  string
	failed  bool
	loans   bool

	table   table.Model
	spinner spinner.Model
	help    help.Model
	width   int
	height  int
}

func newPlayModel(ctx context.Context, client *cl.Client, width, height int) playModel {
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	tbl := table.New(table.WithFocused(true), table.WithHeight(8))
	m := playModel{
		ctx:     ctx,
		client:  client,
		loading: true,
		table:   tbl,
		spinner: sp,
		help:    help.New(),
		width:   width,
		height:  height,
	}
	m.setColumns()
	return m
}

func (m playModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m playModel) fetch() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, 10*time.Second)
		defer cancel()
		st, err := m.client.State(ctx)
		if err != nil {
			return stateMsg{err: err}
		}
		clock, err := m.client.Clock(ctx)
		return stateMsg{st: st, clock: clock, err: err}
	}
}

func poll() tea.Cmd {
	return tea.Tick(pollEvery, func(time.Time) tea.Msg { return pollMsg{} })
}

// act runs one server call and reports it as an actionMsg.
func (m playModel) act(note string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(m.ctx, 30*time.Second)
		defer cancel()
		return actionMsg{note: note, err: fn(ctx)}
	}
}

func (m playModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.setColumns()
		m.refreshRows()
		return m, nil

	case stateMsg:
		m.loading = false
		if msg.err != nil {
			m.status, m.failed = msg.err.Error(), true
			return m, poll()
		}
		m.st, m.clock = msg.st, msg.clock
		m.refreshRows()
		return m, poll()

	case pollMsg:
		return m, m.fetch()

	case actionMsg:
		if msg.err != nil {
			m.status, m.failed = msg.err.Error(), true
		} else {
			m.status, m.failed = msg.note, false
		}
		return m, m.fetch()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, keys.Switch):
			m.loans = !m.loans
			m.setColumns()
			m.refreshRows()
			return m, nil
		case key.Matches(msg, keys.Approve), key.Matches(msg, keys.Deny):
			return m, m.decide(key.Matches(msg, keys.Approve))
		case key.Matches(msg, keys.Clock):
			return m, m.act("clock toggled", func(ctx context.Context) error {
				_, err := m.client.ToggleClock(ctx)
				return err
			})
		case key.Matches(msg, keys.Fast), key.Matches(msg, keys.Normal), key.Matches(msg, keys.Slow):
			speed := runner.SpeedNormal
			if key.Matches(msg, keys.Fast) {
				speed = runner.SpeedFast
			} else if key.Matches(msg, keys.Slow) {
				speed = runner.SpeedSlow
			}
			return m, m.act("speed "+string(speed), func(ctx context.Context) error {
				_, err := m.client.SetSpeed(ctx, speed)
				return err
			})
		case key.Matches(msg, keys.Month):
			return m, m.act("advanced one month", func(ctx context.Context) error {
				_, err := m.client.Advance(ctx, game.DaysPerMonth)
				return err
			})
		case key.Matches(msg, keys.Event):
			if m.st == nil || m.st.ActiveEvent == nil {
				m.status, m.failed = "no active event", false
				return m, nil
			}
			choice := m.st.ActiveEvent.DefaultChoice
			return m, m.act("event resolved", func(ctx context.Context) error {
				_, err := m.client.ResolveEvent(ctx, choice, uuid.NewString())
				return err
			})
		case key.Matches(msg, keys.Save):
			return m, m.act("game saved", m.client.Save)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m playModel) decide(approve bool) tea.Cmd {
	row := m.table.SelectedRow()
	if len(row) == 0 {
		return nil
	}
	id := row[0]
	queue := "customers"
	if m.loans {
		queue = "loans"
	}
	verb := "denied"
	if approve {
		verb = "approved"
	}
	return m.act(fmt.Sprintf("%s %s", id, verb), func(ctx context.Context) error {
		_, err := m.client.Command(ctx, http.MethodPost, cl.DecidePath(queue, id, approve), nil, uuid.NewString())
		return err
	})
}

func (m *playModel) setColumns() {
	w := max(m.width-8, 60)
	var cols []table.Column
	if m.loans {
		cols = []table.Column{
			{Title: "ID", Width: 10},
			{Title: "Purpose", Width: w - 10 - 8 - 12 - 8 - 6 - 10},
			{Title: "Risk", Width: 8},
			{Title: "Amount", Width: 12},
			{Title: "Rate", Width: 8},
			{Title: "Term", Width: 6},
		}
	} else {
		cols = []table.Column{
			{Title: "ID", Width: 10},
			{Title: "Kind", Width: 11},
			{Title: "Segment", Width: 9},
			{Title: "Amount", Width: 12},
			{Title: "Reason", Width: w - 10 - 11 - 9 - 12 - 10},
		}
	}
	m.table.SetRows(nil)
	m.table.SetColumns(cols)
	m.table.SetHeight(max(m.height-20, 5))
}

func (m *playModel) refreshRows() {
	if m.st == nil {
		return
	}
	var rows []table.Row
	if m.loans {
		for _, l := range m.st.LoanQueue {
			rows = append(rows, table.Row{l.ID, l.Purpose, string(l.Risk), money(l.Amount), pct(l.Rate * 100), fmt.Sprintf("%dm", l.TermMonths)})
		}
	} else {
		for _, r := range m.st.CustomerQueue {
			rows = append(rows, table.Row{r.ID, string(r.Kind), string(r.Segment), money(r.Amount), r.Reason})
		}
	}
	m.table.SetRows(rows)
}

func (m playModel) View() string {
	if m.st == nil {
		if m.failed {
			return badStyle.Render("cannot reach server: "+m.status) + "\n\n" + m.help.View(keys) + "\n"
		}
		return m.spinner.View() + " connecting...\n"
	}
	st := m.st

	clock := warnStyle.Render("paused")
	if m.clock.AutoAdvance {
		clock = goodStyle.Render("running " + string(m.clock.Speed))
	}
	header := titleStyle.Render(fmt.Sprintf("%s  day %d", st.Date, st.Date.Day)) + "  " + clock

	reserve := goodStyle
	switch r := st.ReserveRatio(); {
	case r < 10:
		reserve = badStyle
	case r < 20:
		reserve = warnStyle
	}
	funds := panelStyle.Render(strings.Join([]string{
		"Cash      " + money(st.Cash),
		"Deposits  " + money(st.Deposits),
		"Reserve   " + reserve.Render(pct(st.ReserveRatio())),
		"Invested  " + money(st.Investments.Total()),
		"Profit    " + money(st.TotalProfit),
	}, "\n"))
	bank := panelStyle.Render(strings.Join([]string{
		fmt.Sprintf("Trust     %.1f", st.Trust),
		fmt.Sprintf("Accounts  %d", st.ActiveAccounts),
		"Share     " + pct(st.MarketShare),
		fmt.Sprintf("Level     %d  security %s", st.BankLevel, st.SecurityLevel),
		fmt.Sprintf("Staff     T%d G%d M%d L%d", st.Staff.Tellers, st.Staff.Guards, st.Staff.Managers, st.Staff.LoanOfficers),
	}, "\n"))
	panels := lipgloss.JoinHorizontal(lipgloss.Top, funds, bank)

	queueTitle := fmt.Sprintf("Customers (%d)  %s", len(st.CustomerQueue), dimStyle.Render(fmt.Sprintf("Loans (%d)", len(st.LoanQueue))))
	if m.loans {
		queueTitle = fmt.Sprintf("%s  Loans (%d)", dimStyle.Render(fmt.Sprintf("Customers (%d)", len(st.CustomerQueue))), len(st.LoanQueue))
	}

	var b strings.Builder
	b.WriteString(header + "\n")
	b.WriteString(panels + "\n")
	if ev := st.ActiveEvent; ev != nil {
		style := warnStyle
		if ev.Crisis {
			style = badStyle
		}
		line := style.Render("Event: " + ev.Title)
		if ev.DefaultChoice >= 0 && ev.DefaultChoice < len(ev.Choices) {
			line += dimStyle.Render("  default: " + ev.Choices[ev.DefaultChoice])
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(titleStyle.Render(queueTitle) + "\n")
	b.WriteString(m.table.View() + "\n")
	if n := len(st.Log); n > 0 {
		last := st.Log[n-1]
		b.WriteString(dimStyle.Render(last.Date+"  "+last.Message) + "\n")
	}
	if m.status != "" {
		style := goodStyle
		if m.failed {
			style = badStyle
		}
		b.WriteString(style.Render(m.status) + "\n")
	}
	b.WriteString(m.help.View(keys) + "\n")
	return b.String()
}

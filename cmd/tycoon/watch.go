package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	cl "tycoon/internal/cli"
	"tycoon/internal/game"

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

func newWatchCmd(apiBase *string) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow day reports of the active game live",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return err
			}
			client := newClient(apiBase)
			if plain || !term.IsTerminal(int(os.Stdout.Fd())) {
				printInfo("Watching " + sess.SessionID + " (ctrl+c to stop)")
				return client.Watch(cmd.Context(), sess.SessionID, renderDayReport)
			}
			return runDashboard(cmd.Context(), client, sess.SessionID)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print reports instead of the live dashboard")
	return cmd
}

type reportMsg game.DayResult

type advancedMsg struct{ err error }

type feedClosedMsg struct{ err error }

type dashboardKeys struct {
	Next key.Binding
	Quit key.Binding
}

func (k dashboardKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Quit}
}

func (k dashboardKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

type dashboard struct {
	ctx       context.Context
	client    *cl.Client
	sessionID string

	keys    dashboardKeys
	help    help.Model
	spinner spinner.Model
	days    table.Model

	last      *game.DayResult
	busy      bool
	lastError string
	done      bool
}

func newDashboard(ctx context.Context, client *cl.Client, sessionID string) dashboard {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))

	days := table.New(
		table.WithColumns([]table.Column{
			{Title: "Day", Width: 5},
			{Title: "Revenue", Width: 12},
			{Title: "Expenses", Width: 12},
			{Title: "Net", Width: 12},
			{Title: "Cash", Width: 13},
			{Title: "Economy", Width: 11},
			{Title: "Share", Width: 7},
		}),
		table.WithHeight(10),
	)

	return dashboard{
		ctx:       ctx,
		client:    client,
		sessionID: sessionID,
		keys: dashboardKeys{
			Next: key.NewBinding(key.WithKeys("n", " "), key.WithHelp("n", "next day")),
			Quit: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
		},
		help:    help.New(),
		spinner: s,
		days:    days,
	}
}

func (m dashboard) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m dashboard) advance() tea.Cmd {
	return func() tea.Msg {
		_, err := m.client.AdvanceDay(m.ctx, m.sessionID, uuid.NewString())
		return advancedMsg{err: err}
	}
}

func (m dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Next):
			if m.busy || m.done {
				return m, nil
			}
			m.busy = true
			m.lastError = ""
			return m, m.advance()
		}
	case advancedMsg:
		m.busy = false
		if msg.err != nil {
			m.lastError = msg.err.Error()
		}
		return m, nil
	case reportMsg:
		r := game.DayResult(msg)
		m.last = &r
		rows := append(m.days.Rows(), dayRow(r))
		if len(rows) > 60 {
			rows = rows[len(rows)-60:]
		}
		m.days.SetRows(rows)
		m.days.GotoBottom()
		if r.Bankrupt {
			m.done = true
		}
		return m, nil
	case feedClosedMsg:
		m.done = true
		if msg.err != nil {
			m.lastError = msg.err.Error()
		} else {
			m.lastError = "feed closed"
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.days, cmd = m.days.Update(msg)
	return m, cmd
}

func (m dashboard) View() string {
	var b strings.Builder
	b.WriteString(panelTitle.Render("tycoon · " + m.sessionID))
	b.WriteString("\n")
	if m.last != nil {
		b.WriteString(dayReportPanel(*m.last))
		b.WriteString("\n")
	} else {
		b.WriteString(fmt.Sprintf("%s waiting for the next day...\n", m.spinner.View()))
	}
	b.WriteString(m.days.View())
	b.WriteString("\n")
	switch {
	case m.busy:
		b.WriteString(m.spinner.View() + " advancing\n")
	case m.lastError != "":
		b.WriteString(danger.Sprint(m.lastError) + "\n")
	case m.done && m.last != nil && m.last.Bankrupt:
		b.WriteString(danger.Sprint("BANKRUPT") + "\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func dayRow(r game.DayResult) table.Row {
	return table.Row{
		strconv.Itoa(r.Day),
		formatMoney(r.TotalRevenue),
		formatMoney(r.TotalExpenses),
		formatMoney(r.NetProfit),
		formatMoney(r.CashAfter),
		r.EconomicState.String(),
		fmt.Sprintf("%.1f%%", r.PlayerMarketShare*100),
	}
}

func runDashboard(ctx context.Context, client *cl.Client, sessionID string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newDashboard(ctx, client, sessionID), tea.WithContext(ctx))
	go func() {
		err := client.Watch(ctx, sessionID, func(r game.DayResult) {
			p.Send(reportMsg(r))
		})
		p.Send(feedClosedMsg{err: err})
	}()
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

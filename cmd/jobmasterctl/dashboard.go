package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/guihaojin/alluxio/internal/client"
	"github.com/guihaojin/alluxio/internal/wire"
)

var (
	dashTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginLeft(1)

	dashStateStyle = map[wire.PlanState]lipgloss.Style{
		wire.PlanCreated:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		wire.PlanRunning:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		wire.PlanCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		wire.PlanCanceled:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		wire.PlanFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}

	dashHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)
)

func dashboardCmd() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Live-refreshing summary of job states",
		Run: func(cmd *cobra.Command, args []string) {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				fatalf("dashboard requires an interactive terminal, use 'summary' for scripted output")
			}
			c := clientFor(cmd)
			model := newDashboardModel(c, interval)
			if _, err := tea.NewProgram(model).Run(); err != nil {
				fatalf("%v", err)
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Refresh interval")
	return cmd
}

type dashboardModel struct {
	client   *client.Client
	interval time.Duration
	spinner  spinner.Model
	groups   map[wire.PlanState][]wire.PlanStatus
	loaded   bool
	err      error
	quitting bool
}

type summaryMsg map[wire.PlanState][]wire.PlanStatus
type summaryErrMsg error
type dashboardTickMsg time.Time

func newDashboardModel(c *client.Client, interval time.Duration) dashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Pulse
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return dashboardModel{client: c, interval: interval, spinner: s}
}

func (m dashboardModel) Init() tea.Cmd {
	return tea.Batch(m.fetch, m.tick(), m.spinner.Tick)
}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	case summaryMsg:
		m.groups = msg
		m.loaded = true
		m.err = nil
	case summaryErrMsg:
		m.err = msg
	case dashboardTickMsg:
		return m, tea.Batch(m.fetch, m.tick())
	case spinner.TickMsg:
		if m.loaded {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m dashboardModel) View() string {
	if m.quitting {
		return ""
	}

	if !m.loaded && m.err == nil {
		return fmt.Sprintf("%s fetching job service summary...\n", m.spinner.View())
	}

	var b []string
	b = append(b, dashTitleStyle.Render("JOB SERVICE SUMMARY"))
	b = append(b, "")

	if m.err != nil {
		b = append(b, lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render(fmt.Sprintf("error: %v", m.err)))
	}

	states := []wire.PlanState{wire.PlanCreated, wire.PlanRunning, wire.PlanCompleted, wire.PlanCanceled, wire.PlanFailed}
	total := 0
	for _, state := range states {
		plans := m.groups[state]
		total += len(plans)
		style := dashStateStyle[state]
		b = append(b, style.Render(fmt.Sprintf("%-10s %d", state, len(plans))))
	}
	b = append(b, "")
	b = append(b, fmt.Sprintf("total: %d", total))
	b = append(b, dashHelpStyle.Render("q to quit"))

	return lipgloss.JoinVertical(lipgloss.Left, b...)
}

func (m dashboardModel) fetch() tea.Msg {
	groups, err := m.client.GetJobServiceSummary(context.Background())
	if err != nil {
		return summaryErrMsg(err)
	}
	for _, plans := range groups {
		sort.Slice(plans, func(i, j int) bool { return plans[i].ID < plans[j].ID })
	}
	return summaryMsg(groups)
}

func (m dashboardModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return dashboardTickMsg(t)
	})
}

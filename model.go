package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// focus represents which panel has keyboard input.
type focus int

const (
	focusCircuit focus = iota
	focusQASM
)

// runDoneMsg carries the outcome of a background build and simulation.
type runDoneMsg struct {
	id      int
	outcome *Outcome
	err     error
}

// Model is the interactive viewer: it rebuilds and re-simulates the QFT
// whenever the qubit count or the swap setting changes.
type Model struct {
	ctx     context.Context
	backend Backend
	logger  *log.Logger
	cfg     Config

	qubits  int
	swaps   bool
	runID   int
	running bool
	outcome *Outcome
	err     error

	qasmView  textarea.Model
	focus     focus
	width     int
	height    int
	statusMsg string
}

func initialModel(ctx context.Context, backend Backend, logger *log.Logger, cfg Config) Model {
	ta := textarea.New()
	ta.Placeholder = "QASM appears here..."
	ta.SetWidth(40)
	ta.SetHeight(20)
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.MaxHeight = 0

	return Model{
		ctx:      ctx,
		backend:  backend,
		logger:   logger,
		cfg:      cfg,
		qubits:   cfg.Qubits,
		swaps:    cfg.Swaps,
		qasmView: ta,
		focus:    focusCircuit,
	}
}

func (m Model) Init() tea.Cmd {
	return m.runCmd(m.runID)
}

// runCmd builds and simulates the current settings in the background.
func (m Model) runCmd(id int) tea.Cmd {
	ctx, backend, n, swaps := m.ctx, m.backend, m.qubits, m.swaps
	return func() tea.Msg {
		outcome, err := runQFT(ctx, backend, n, swaps)
		return runDoneMsg{id: id, outcome: outcome, err: err}
	}
}

// rerun discards any in-flight result and starts a new run.
func (m Model) rerun() (Model, tea.Cmd) {
	m.runID++
	m.running = true
	m.err = nil
	return m, m.runCmd(m.runID)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.qasmView.SetWidth(max(msg.Width/3-6, 20))
		m.qasmView.SetHeight(max(msg.Height/2-6, 4))

	case runDoneMsg:
		if msg.id != m.runID {
			return m, nil
		}
		m.running = false
		if msg.err != nil {
			m.err = msg.err
			m.logger.Error("run failed", "qubits", m.qubits, "err", msg.err)
			return m, nil
		}
		m.outcome = msg.outcome
		m.qasmView.SetValue(msg.outcome.Circuit.ToQASM())
		m.statusMsg = FormatElapsed(msg.outcome.Elapsed)

	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.focus {
		case focusCircuit:
			switch key {
			case "q":
				return m, tea.Quit
			case "tab":
				m.focus = focusQASM
				return m, m.qasmView.Focus()
			case "+", "=":
				if m.cfg.MaxQubits > 0 && m.qubits >= m.cfg.MaxQubits {
					m.statusMsg = fmt.Sprintf("Limit is %d qubits", m.cfg.MaxQubits)
					return m, nil
				}
				m.qubits++
				return m.rerun()
			case "-":
				if m.qubits > 0 {
					m.qubits--
					return m.rerun()
				}
			case "s":
				m.swaps = !m.swaps
				return m.rerun()
			case "r":
				return m.rerun()
			case "ctrl+s":
				if m.outcome == nil {
					return m, nil
				}
				if err := os.WriteFile("circuit.qasm", []byte(m.outcome.Circuit.ToQASM()), 0o644); err != nil {
					m.statusMsg = fmt.Sprintf("Save error: %v", err)
				} else {
					m.statusMsg = "Saved circuit.qasm"
				}
			}

		case focusQASM:
			switch key {
			case "tab", "esc":
				m.focus = focusCircuit
				m.qasmView.Blur()
				return m, nil
			case "up", "down", "pgup", "pgdown", "home", "end", "ctrl+home", "ctrl+end":
				var cmd tea.Cmd
				m.qasmView, cmd = m.qasmView.Update(msg)
				return m, cmd
			}
		}
	}

	return m, nil
}

func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	qasmWidth := m.width / 3
	circuitWidth := m.width - qasmWidth - 4
	topHeight := max(m.height/2, 8)
	controlsHeight := 4
	stateHeight := max(m.height-topHeight-controlsHeight-4, 4)

	circuitPanel := m.renderCircuitPanel(circuitWidth, topHeight)
	qasmPanel := m.renderQASMPanel(qasmWidth, topHeight)
	statePanel := m.renderStatePanel(m.width-4, stateHeight)
	controlsPanel := m.renderControlsPanel(m.width-4, controlsHeight-2)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, circuitPanel, qasmPanel)
	return lipgloss.JoinVertical(lipgloss.Left, topRow, statePanel, controlsPanel)
}

func (m Model) renderCircuitPanel(width, height int) string {
	var sb strings.Builder

	title := fmt.Sprintf("QFT · %d qubits", m.qubits)
	if m.swaps {
		title += " · swaps"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")

	switch {
	case m.err != nil:
		sb.WriteString(errorStyle.Render(m.err.Error()))
	case m.outcome == nil:
		sb.WriteString(dimStyle.Render("building..."))
	default:
		c := m.outcome.Circuit
		sb.WriteString(renderCircuit(c, width-4))
		counts := c.Counts()
		fmt.Fprintf(&sb, "\n\n  H=%d  CP=%d  SWAP=%d  depth=%d",
			counts[GateH], counts[GateCP], counts[GateSwap], c.Depth())
	}

	if m.running {
		sb.WriteString("\n  " + dimStyle.Render("running..."))
	}
	if m.statusMsg != "" {
		fmt.Fprintf(&sb, "\n  %s", activeGateStyle.Render(m.statusMsg))
	}

	return circuitStyle.Width(width).Height(height).Render(sb.String())
}

// renderQASMPanel renders the QASM viewer panel.
func (m Model) renderQASMPanel(width, height int) string {
	var sb strings.Builder

	title := "QASM"
	if m.focus == focusQASM {
		title += " [ACTIVE]"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(m.qasmView.View())

	return qasmStyle.Width(width).Height(height).Render(sb.String())
}

func (m Model) renderStatePanel(width, height int) string {
	if m.outcome == nil {
		return stateStyle.Width(width).Height(height).Render(dimStyle.Render("no result yet"))
	}
	r := m.outcome.Result
	amps := r.StateVector(m.cfg.Decimals)
	rows := max(height-3, 1)
	body := plotState(amps, r.NumQubits, m.cfg.Decimals, rows)
	footer := dimStyle.Render(fmt.Sprintf("%s · simulated in %s", r.JobID, r.Duration.Round(time.Microsecond)))
	return stateStyle.Width(width).Height(height).Render(body + "\n" + footer)
}

// renderControlsPanel renders the bottom help/controls bar.
func (m Model) renderControlsPanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(activeGateStyle.Render("Circuit: "))
	sb.WriteString("+/- Qubits  s Toggle swaps  r Re-run  ^S Save QASM")
	sb.WriteString("\n")
	sb.WriteString(activeGateStyle.Render("Actions: "))
	sb.WriteString("Tab Switch focus  ↑↓ Scroll QASM  q/^C Quit")

	return controlsStyle.Width(width).Height(height).Render(sb.String())
}

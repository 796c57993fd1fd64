// File: internal/tui/model.go
//
// Package tui is the terminal front end of a cleaning session. It owns no
// cleaning logic: every decision goes through the session controller, and
// the model only tracks which part of the review form has focus.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/adelmore/scour-cli/api/schemas"
	"github.com/adelmore/scour-cli/internal/session"
)

type mode int

const (
	modeLoading mode = iota
	modeReview
	modeEditParam
	modeLogs
	modeDone
)

// -- messages --

type stageRenderedMsg struct{ view *session.StageView }

type stageAppliedMsg struct{ log *schemas.StageLog }

type savedMsg struct{ path string }

type errMsg struct{ err error }

// Model is the bubbletea model for one interactive session.
type Model struct {
	ctrl    *session.Controller
	logger  *zap.Logger
	outPath string

	mode     mode
	spin     spinner.Model
	input    textinput.Model
	view     *session.StageView
	lastLog  *schemas.StageLog
	cursor   int
	status   string
	err      error
	width    int
	quitting bool
	saved    bool
}

func New(ctrl *session.Controller, outPath string, logger *zap.Logger) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 48

	return Model{
		ctrl:    ctrl,
		logger:  logger.Named("tui"),
		outPath: outPath,
		mode:    modeLoading,
		spin:    sp,
		input:   ti,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.renderStageCmd())
}

func (m Model) renderStageCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		view, err := ctrl.Render(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return stageRenderedMsg{view}
	}
}

func (m Model) applyStageCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		log, err := ctrl.ApplyAndNext(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return stageAppliedMsg{log}
	}
}

func (m Model) saveCmd() tea.Cmd {
	ctrl, path := m.ctrl, m.outPath
	return func() tea.Msg {
		if err := ctrl.Save(path); err != nil {
			return errMsg{err}
		}
		return savedMsg{path}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case stageRenderedMsg:
		m.view = msg.view
		m.cursor = 0
		m.mode = modeReview
		m.status = ""
		m.err = nil
		return m, nil

	case stageAppliedMsg:
		m.lastLog = msg.log
		if m.ctrl.State() == session.StateComplete {
			m.mode = modeDone
			return m, nil
		}
		m.mode = modeLoading
		return m, tea.Batch(m.spin.Tick, m.renderStageCmd())

	case savedMsg:
		m.saved = true
		m.status = fmt.Sprintf("Saved cleaned dataset to %s", msg.path)
		return m, nil

	case errMsg:
		m.err = msg.err
		m.mode = modeReview
		if m.view == nil {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.mode {
	case modeEditParam:
		return m.handleEditKey(msg)
	case modeLogs:
		if k := msg.String(); k == "l" || k == "esc" || k == "q" {
			if m.ctrl.State() == session.StateComplete {
				m.mode = modeDone
			} else {
				m.mode = modeReview
			}
		}
		return m, nil
	case modeDone:
		return m.handleDoneKey(msg)
	case modeReview:
		return m.handleReviewKey(msg)
	}
	return m, nil
}

func (m Model) handleReviewKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.view == nil {
		return m, nil
	}
	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.view.Suggestions)-1 {
			m.cursor++
		}
	case "right", " ":
		m.cycleAction(1)
	case "left":
		m.cycleAction(-1)
	case "e":
		if choice, ok := m.currentChoice(); ok && actionTakesParam(choice.Action) {
			m.input.SetValue(paramValue(choice))
			m.input.Focus()
			m.mode = modeEditParam
			return m, textinput.Blink
		}
	case "l":
		if m.lastLog != nil {
			m.mode = modeLogs
		}
	case "p":
		if err := m.ctrl.Previous(); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.mode = modeLoading
		return m, tea.Batch(m.spin.Tick, m.renderStageCmd())
	case "a", "enter":
		m.mode = modeLoading
		return m, tea.Batch(m.spin.Tick, m.applyStageCmd())
	}
	return m, nil
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.input.Blur()
		m.mode = modeReview
		return m, nil
	case tea.KeyEnter:
		if choice, ok := m.currentChoice(); ok {
			setParamValue(&choice, strings.TrimSpace(m.input.Value()))
			if err := m.ctrl.SetChoice(choice); err != nil {
				m.status = err.Error()
			} else {
				m.view.Choices[choice.Entity] = choice
			}
		}
		m.input.Blur()
		m.mode = modeReview
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleDoneKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "enter", "esc":
		m.quitting = true
		return m, tea.Quit
	case "s":
		if !m.saved {
			return m, m.saveCmd()
		}
	case "l":
		m.mode = modeLogs
	case "p":
		if err := m.ctrl.Previous(); err == nil {
			m.mode = modeLoading
			return m, tea.Batch(m.spin.Tick, m.renderStageCmd())
		}
	}
	return m, nil
}

// currentChoice resolves the choice under the cursor.
func (m Model) currentChoice() (schemas.Choice, bool) {
	if m.view == nil || m.cursor >= len(m.view.Suggestions) {
		return schemas.Choice{}, false
	}
	entity := m.view.Suggestions[m.cursor].Entity
	choice, ok := m.view.Choices[entity]
	return choice, ok
}

// cycleAction moves the focused entity to the next (or previous) action in
// the stage vocabulary and pushes the change into the controller.
func (m *Model) cycleAction(dir int) {
	choice, ok := m.currentChoice()
	if !ok {
		return
	}
	vocab := actionCycle(m.view.Stage)
	if len(vocab) == 0 {
		return
	}
	idx := 0
	for i, a := range vocab {
		if a == choice.Action {
			idx = i
			break
		}
	}
	idx = (idx + dir + len(vocab)) % len(vocab)
	choice.Action = vocab[idx]
	if err := m.ctrl.SetChoice(choice); err != nil {
		m.status = err.Error()
		return
	}
	m.view.Choices[choice.Entity] = choice
}

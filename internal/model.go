package internal

import (
	"context"
	"errors"
	"log"

	"timetracker/internal/task"
	"timetracker/internal/tracker"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type MsgTick struct{}

type Model struct {
	SelectedIndex int
	ShowAddForm   bool
	ShowEditForm  bool
	EditingTask   *task.Task
	Input         textinput.Model
	Err           error

	tracker *tracker.Tracker
	table   *taskTable
	keys    keyMap
	help    help.Model
}

func NewModel(tr *tracker.Tracker) *Model {
	input := textinput.New()
	input.Placeholder = "Task name"
	input.CharLimit = 80
	input.Width = 40

	return &Model{
		Input:   input,
		tracker: tr,
		table:   newTaskTable(tr.Tasks(), tr.Bus()),
		keys:    defaultKeyMap(),
		help:    help.New(),
	}
}

func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case MsgTick:
		m.table.tick()
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	}
	return m, nil
}

func (m *Model) View() string {
	if m.ShowAddForm {
		return m.formView("New Task")
	}

	if m.ShowEditForm {
		return m.formView("Rename Task")
	}

	if m.table.len() == 0 {
		return m.emptyStateView()
	}

	return m.mainView()
}

func (m *Model) selectedRow() *taskRow {
	return m.table.row(m.SelectedIndex)
}

func (m *Model) SelectedTask() *task.Task {
	if r := m.selectedRow(); r != nil {
		return r.task
	}
	return nil
}

func (m *Model) AddTask(name string) *task.Task {
	t := m.tracker.AddTask(name)
	m.table.add(t)
	m.SelectedIndex = m.table.len() - 1
	return t
}

func (m *Model) DeleteSelected() error {
	r := m.selectedRow()
	if r == nil {
		return nil
	}
	err := r.delete(m.tracker.Bus())
	if m.SelectedIndex >= m.table.len() {
		m.SelectedIndex = m.table.len() - 1
	}
	if m.SelectedIndex < 0 {
		m.SelectedIndex = 0
	}
	return err
}

func (m *Model) ToggleSelected() error {
	r := m.selectedRow()
	if r == nil {
		return nil
	}
	err := r.toggle(m.tracker)
	m.table.refreshAll()
	return err
}

func (m *Model) ResetSelected() {
	r := m.selectedRow()
	if r == nil {
		return
	}
	m.tracker.Reset(r.task)
	r.refresh()
}

func (m *Model) setErr(err error) {
	m.Err = err
	if err != nil {
		log.Printf("error: %v", err)
	}
}

// statusErr is the error worth showing right now: the last action's error,
// else a failed save.
func (m *Model) statusErr() error {
	if m.Err != nil {
		return m.Err
	}
	return m.tracker.SaveErr()
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.ShowAddForm || m.ShowEditForm {
		return m.handleFormInput(msg)
	}

	m.Err = nil

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.SelectedIndex > 0 {
			m.SelectedIndex--
		}
	case key.Matches(msg, m.keys.Down):
		if m.SelectedIndex < m.table.len()-1 {
			m.SelectedIndex++
		}
	case key.Matches(msg, m.keys.Toggle):
		m.setErr(m.ToggleSelected())
	case key.Matches(msg, m.keys.New):
		m.ShowAddForm = true
		m.Input.SetValue("")
		return m, m.Input.Focus()
	case key.Matches(msg, m.keys.Rename):
		t := m.SelectedTask()
		if t != nil {
			m.ShowEditForm = true
			m.EditingTask = t
			m.Input.SetValue(t.Name)
			m.Input.CursorEnd()
			return m, m.Input.Focus()
		}
	case key.Matches(msg, m.keys.Delete):
		m.setErr(m.DeleteSelected())
	case key.Matches(msg, m.keys.Reset):
		m.ResetSelected()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *Model) handleFormInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.closeForm()
		return m, nil
	case tea.KeyEnter:
		if m.ShowAddForm {
			m.AddTask(m.Input.Value())
		} else if m.EditingTask != nil {
			m.tracker.Rename(m.EditingTask, m.Input.Value())
		}
		m.closeForm()
		return m, nil
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m *Model) closeForm() {
	m.ShowAddForm = false
	m.ShowEditForm = false
	m.EditingTask = nil
	m.Input.Blur()
	m.Input.SetValue("")
}

// Close pauses running tasks when asked to and writes the final state.
func (m *Model) Close(ctx context.Context, pauseRunning bool) error {
	var errs []error
	if pauseRunning {
		errs = append(errs, m.tracker.PauseAll())
	}
	errs = append(errs, m.tracker.Persist(ctx))
	return errors.Join(errs...)
}

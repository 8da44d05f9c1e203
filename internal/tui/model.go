package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ytchat/internal/session"
	"ytchat/internal/transcript"
)

const historyLabelLen = 50

// focusArea is the control the keyboard currently drives in the Loaded view.
type focusArea int

const (
	focusQuestion focusArea = iota
	focusHistory
)

// Messages produced by the blocking pipeline commands.
type videoLoadedMsg struct{ err error }

type answeredMsg struct {
	question string
	answer   string
	err      error
}

// Model is the Bubble Tea model for the chat application. While a load or
// ask command is in flight the model is busy: all input except quit is
// dropped, so at most one session action runs at a time.
type Model struct {
	session *session.Session

	urlInput      textinput.Model
	questionInput textinput.Model
	answerView    viewport.Model
	spin          spinner.Model

	busy     bool
	status   string
	focus    focusArea
	cursor   int
	expanded map[int]bool
	width    int
	height   int
	ready    bool
}

// New creates a TUI over an empty session.
func New(sess *session.Session) Model {
	url := textinput.New()
	url.Prompt = "> "
	url.Placeholder = "https://www.youtube.com/watch?v=..."
	url.Focus()
	url.CharLimit = 0

	question := textinput.New()
	question.Prompt = "? "
	question.Placeholder = "Ask a question about the video"
	question.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = busyStyle

	return Model{
		session:       sess,
		urlInput:      url,
		questionInput: question,
		answerView:    viewport.New(0, 0),
		spin:          sp,
		status:        "Enter a YouTube video URL.",
		expanded:      map[int]bool{},
	}
}

// WithURL prefills the URL field.
func (m Model) WithURL(url string) Model {
	m.urlInput.SetValue(url)
	return m
}

// Init starts the text input cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) loadVideo(url string) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		return videoLoadedMsg{err: sess.Load(context.Background(), url)}
	}
}

func (m Model) askQuestion(question string) tea.Cmd {
	sess := m.session
	return func() tea.Msg {
		answer, err := sess.Ask(context.Background(), question)
		return answeredMsg{question: question, answer: answer, err: err}
	}
}

// Update handles key, window and pipeline-completion events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.answerView.Width = m.mainWidth()
		m.answerView.Height = max(3, msg.Height-10)
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case videoLoadedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = errorMessage(msg.err)
			return m, nil
		}
		m.status = "Ready to answer your questions! (tab: history, ctrl+n: next video)"
		m.urlInput.Blur()
		m.questionInput.Focus()
		m.focus = focusQuestion
		m.answerView.SetContent("")
		return m, nil

	case answeredMsg:
		m.busy = false
		if msg.err != nil {
			m.status = errorMessage(msg.err)
			return m, nil
		}
		m.questionInput.SetValue("")
		m.cursor = len(m.session.History()) - 1
		m.answerView.SetContent(renderQA(msg.question, msg.answer, m.mainWidth()))
		m.status = fmt.Sprintf("Answered. %d question(s) so far.", len(m.session.History()))
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		if m.session.State() == session.Empty {
			return m.updateEmpty(msg)
		}
		return m.updateLoaded(msg)
	}

	return m.updateInputs(msg)
}

func (m Model) updateEmpty(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "enter" {
		url := strings.TrimSpace(m.urlInput.Value())
		if url == "" {
			m.status = "Please enter a YouTube URL first."
			return m, nil
		}
		m.busy = true
		m.status = "Fetching transcript and building the index..."
		return m, tea.Batch(m.spin.Tick, m.loadVideo(url))
	}
	var cmd tea.Cmd
	m.urlInput, cmd = m.urlInput.Update(msg)
	return m, cmd
}

func (m Model) updateLoaded(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+n":
		// Try next video: unconditional reset back to the URL form.
		m.session.Reset()
		m.urlInput.SetValue("")
		m.urlInput.Focus()
		m.questionInput.Blur()
		m.questionInput.SetValue("")
		m.answerView.SetContent("")
		m.cursor = 0
		m.expanded = map[int]bool{}
		m.status = "Enter a YouTube video URL."
		return m, textinput.Blink
	case "tab":
		if m.focus == focusQuestion && len(m.session.History()) > 0 {
			m.focus = focusHistory
			m.questionInput.Blur()
		} else {
			m.focus = focusQuestion
			m.questionInput.Focus()
		}
		return m, nil
	}

	if m.focus == focusHistory {
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "j":
			if m.cursor < len(m.session.History())-1 {
				m.cursor++
			}
			return m, nil
		case "enter", " ":
			m.expanded[m.cursor] = !m.expanded[m.cursor]
			return m, nil
		}
		return m, nil
	}

	if msg.String() == "enter" {
		question := strings.TrimSpace(m.questionInput.Value())
		if question == "" {
			return m, nil
		}
		m.busy = true
		m.status = "Generating answer..."
		return m, tea.Batch(m.spin.Tick, m.askQuestion(question))
	}
	var cmd tea.Cmd
	m.questionInput, cmd = m.questionInput.Update(msg)
	return m, cmd
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.urlInput, cmd = m.urlInput.Update(msg)
	cmds = append(cmds, cmd)
	m.questionInput, cmd = m.questionInput.Update(msg)
	cmds = append(cmds, cmd)
	m.answerView, cmd = m.answerView.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// View renders either the URL form (Empty) or the chat layout (Loaded).
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render("YouTube Chat")
	status := statusStyle.Render(m.statusLine())

	if m.session.State() == session.Empty {
		form := boxStyle.Render(m.urlInput.View())
		help := helpStyle.Render("enter: load video • ctrl+c: quit")
		return header + "\n\n" + form + "\n" + status + "\n" + help
	}

	video := videoStyle.Render("Video: " + m.session.VideoID())
	summary := ""
	if s := m.session.Summary(); s != "" {
		summary = summaryStyle.Width(m.width).Render(s) + "\n"
	}
	main := boxStyle.Width(m.mainWidth()).Render(m.answerView.View()) + "\n" +
		boxStyle.Width(m.mainWidth()).Render(m.questionInput.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, main, m.renderSidebar())
	help := helpStyle.Render("enter: ask • tab: history • ctrl+n: try next video • ctrl+c: quit")
	return header + "\n" + video + "\n" + summary + body + "\n" + status + "\n" + help
}

func (m Model) statusLine() string {
	if m.busy {
		return m.spin.View() + m.status
	}
	return m.status
}

// renderSidebar lists every answered question in ask order, the question
// truncated to a short label; the entry under the cursor can be expanded to
// the full question and answer.
func (m Model) renderSidebar() string {
	history := m.session.History()
	w := m.sidebarWidth()
	var b strings.Builder
	b.WriteString(sidebarTitleStyle.Render("Chat History"))
	b.WriteByte('\n')
	if len(history) == 0 {
		b.WriteString(helpStyle.Render("No questions asked yet."))
		return sidebarStyle.Width(w).Render(b.String())
	}
	for i, entry := range history {
		label := fmt.Sprintf("Q%d: %s", i+1, truncate(entry.Question, historyLabelLen))
		if m.focus == focusHistory && i == m.cursor {
			label = cursorStyle.Render("› " + label)
		} else {
			label = "  " + label
		}
		b.WriteString(label)
		b.WriteByte('\n')
		if m.expanded[i] {
			b.WriteString(entryStyle.Width(w - 4).Render(
				"Question: " + entry.Question + "\n\nAnswer: " + entry.Answer))
			b.WriteByte('\n')
		}
	}
	return sidebarStyle.Width(w).Render(b.String())
}

func (m Model) sidebarWidth() int {
	w := m.width / 3
	if w < 24 {
		w = 24
	}
	return w
}

func (m Model) mainWidth() int {
	w := m.width - m.sidebarWidth() - 4
	if w < 20 {
		w = 20
	}
	return w
}

func renderQA(question, answer string, width int) string {
	q := questionStyle.Width(width).Render("Question: " + question)
	a := lipgloss.NewStyle().Width(width).Render(answer)
	return q + "\n\n" + a
}

// errorMessage maps pipeline failures to the inline message shown for the
// action that triggered them.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrInvalidURL):
		return "Invalid YouTube URL"
	case errors.Is(err, transcript.ErrTranscriptsDisabled):
		return "Transcripts are disabled for this video."
	case errors.Is(err, transcript.ErrNoTranscriptFound):
		return "No transcript was found in the requested language."
	case errors.Is(err, session.ErrNotLoaded):
		return "Load a video before asking questions."
	default:
		return "Error: " + err.Error()
	}
}

// truncate shortens s to at most n runes, appending an ellipsis when cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

var (
	titleStyle        = lipgloss.NewStyle().Bold(true)
	videoStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	summaryStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	busyStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	helpStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boxStyle          = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	sidebarStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	sidebarTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	cursorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	entryStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("7")).PaddingLeft(4)
	questionStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
)

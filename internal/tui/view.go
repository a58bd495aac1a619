package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rtzll/mediadash/internal"
	"github.com/rtzll/mediadash/internal/api"
	"github.com/rtzll/mediadash/internal/dashboard"
)

const (
	headerHeight = 3
	footerHeight = 2
	// border and horizontal padding of a pane
	paneFrame = 2
	panePad   = 2
)

type styles struct {
	title     lipgloss.Style
	pane      lipgloss.Style
	focused   lipgloss.Style
	heading   lipgloss.Style
	muted     lipgloss.Style
	user      lipgloss.Style
	assistant lipgloss.Style
	notice    map[dashboard.NoticeLevel]lipgloss.Style
}

func defaultStyles() styles {
	pane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	return styles{
		title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f8fafc")).Background(lipgloss.Color("#1e293b")).Padding(0, 1),
		pane:      pane,
		focused:   pane.BorderForeground(lipgloss.Color("#22c55e")),
		heading:   lipgloss.NewStyle().Bold(true),
		muted:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		user:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#38bdf8")),
		assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#22c55e")),
		notice: map[dashboard.NoticeLevel]lipgloss.Style{
			dashboard.NoticeInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e")),
			dashboard.NoticeWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("#eab308")),
			dashboard.NoticeError:   lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")),
		},
	}
}

// paneWidths splits the terminal into videos, metrics and chat columns
func (m Model) paneWidths() (int, int, int) {
	videos := m.width / 4
	chat := m.width / 3
	metrics := m.width - videos - chat
	return videos, metrics, chat
}

func (m Model) bodyHeight() int {
	return max(m.height-headerHeight-footerHeight, 6)
}

func (m *Model) layout() {
	videosW, metricsW, chatW := m.paneWidths()
	bodyH := m.bodyHeight() - paneFrame

	m.urlInput.Width = max(m.width-lipgloss.Width(m.urlInput.Prompt)-20, 10)
	m.videos.SetSize(max(videosW-paneFrame-panePad, 1), max(bodyH, 1))

	// one line for the heading
	m.metricsView.Width = max(metricsW-paneFrame-panePad, 1)
	m.metricsView.Height = max(bodyH-1, 1)

	m.question.SetWidth(max(chatW-paneFrame-panePad, 1))
	m.chatView.Width = max(chatW-paneFrame-panePad, 1)
	m.chatView.Height = max(bodyH-1-m.question.Height(), 1)

	m.help.Width = m.width
}

// renderMetrics fills the metrics viewport from the dashboard state
func (m *Model) renderMetrics() {
	metrics, status := m.d.Metrics()

	switch status {
	case dashboard.MetricsNone:
		m.renderedMetrics = nil
		m.metricsView.SetContent(m.styles.muted.Render("Select or process a video to see metrics."))
		return
	case dashboard.MetricsLoading:
		m.renderedMetrics = nil
		text := "Loading metrics..."
		if err := m.d.MetricsErr(); err != nil {
			text += "\n\n" + api.UserMessage(err) + "\nPress ctrl+r to retry."
		}
		m.metricsView.SetContent(m.styles.muted.Render(text))
		return
	}

	if metrics == m.renderedMetrics && m.metricsView.Width == m.renderedWidth {
		return
	}

	content := internal.MetricsMarkdown(metrics, 0)
	rendered, err := m.renderMarkdown(content, m.metricsView.Width)
	if err != nil {
		rendered = content
	}
	m.renderedMetrics = metrics
	m.renderedWidth = m.metricsView.Width
	m.metricsView.SetContent(rendered)
	m.metricsView.GotoTop()
}

// renderChat fills the chat viewport with the transcript
func (m *Model) renderChat() {
	width := max(m.chatView.Width, 20)
	wrap := lipgloss.NewStyle().Width(width)

	var sb strings.Builder
	for _, msg := range m.d.Chat().Messages() {
		label := m.styles.assistant.Render("AI:")
		if msg.Role == dashboard.RoleUser {
			label = m.styles.user.Render("You:")
		}
		sb.WriteString(wrap.Render(label + " " + msg.Text))
		sb.WriteString("\n\n")
	}
	if m.d.Chat().State() == dashboard.ChatAwaitingAnswer {
		sb.WriteString(m.spinner.View() + m.styles.muted.Render(" Thinking..."))
	}
	if sb.Len() == 0 {
		sb.WriteString(m.styles.muted.Render("Select a video and ask a question."))
	}

	m.chatView.SetContent(strings.TrimRight(sb.String(), "\n"))
	m.chatView.GotoBottom()
}

// View renders the dashboard
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := m.styles.title.Render("Media Monitoring Dashboard")
	processing := ""
	if m.d.Processing() {
		processing = " " + m.spinner.View() + " Processing..."
	}
	input := m.paneStyle(paneURL).Border(lipgloss.NormalBorder(), false, false, false, true).Render(m.urlInput.View() + processing)

	videosW, metricsW, chatW := m.paneWidths()
	h := m.bodyHeight() - paneFrame

	videos := m.paneStyle(paneVideos).Width(videosW - paneFrame).Height(h).Render(m.videos.View())

	metricsTitle := "Metrics"
	if v, ok := m.d.SelectedVideo(); ok {
		metricsTitle = v.Label()
	}
	metrics := m.paneStyle(paneMetrics).Width(metricsW - paneFrame).Height(h).Render(
		m.styles.heading.Render(truncate(metricsTitle, m.metricsView.Width)) + "\n" + m.metricsView.View())

	chat := m.paneStyle(paneChat).Width(chatW - paneFrame).Height(h).Render(
		m.styles.heading.Render("Chat with Video") + "\n" + m.chatView.View() + "\n" + m.question.View())

	body := lipgloss.JoinHorizontal(lipgloss.Top, videos, metrics, chat)

	status := ""
	if m.status != "" {
		status = m.styles.notice[m.statusLevel].Render(m.status)
	}
	footer := status + "\n" + m.help.View(m.keys)

	return lipgloss.JoinVertical(lipgloss.Left, header, input, body, footer)
}

func (m Model) paneStyle(p pane) lipgloss.Style {
	if m.focus == p {
		return m.styles.focused
	}
	return m.styles.pane
}

func truncate(s string, width int) string {
	if width <= 1 || lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	if len(r) > width-1 {
		r = r[:width-1]
	}
	return fmt.Sprintf("%s…", string(r))
}

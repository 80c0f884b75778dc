/*
Simple Chat - простая утилита для чата с ZhipuAI моделью
TUI интерфейс на Bubble Tea с потоковым выводом ответа
*/

package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/sjy/llm-universe/pkg/config"
	"github.com/sjy/llm-universe/pkg/factory"
	"github.com/sjy/llm-universe/pkg/llm"
)

// Стили интерфейса
var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	aiStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("212")).
		Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// ChatState хранит состояние чата
type ChatState struct {
	provider  llm.Provider
	modelDef  config.ModelDef
	modelName string
}

// teaMsg типы для коммуникации
type fragmentMsg struct{ text string }
type streamDoneMsg struct{}
type errorMsg struct{ err error }

// chatModel - TUI модель для чата
type chatModel struct {
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	chatState *ChatState
	fragments <-chan llm.Fragment
	cancel    context.CancelFunc

	transcript string
	current    string // ответ, который сейчас стримится
	loading    bool
	ready      bool
}

// initialModel создает начальное состояние TUI
func initialModel(chatState *ChatState) tea.Model {
	ta := textarea.New()
	ta.Placeholder = "Введите ваше сообщение..."
	ta.Focus()
	ta.Prompt = "┃ "
	ta.SetHeight(3)
	ta.CharLimit = 1000
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false) // Enter отправляет, не переносит строку

	// Размеры вьюпорта обновятся при WindowSizeMsg
	vp := viewport.New(0, 0)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := chatModel{
		chatState: chatState,
		textarea:  ta,
		viewport:  vp,
		spinner:   sp,
	}

	m.transcript = systemStyle.Render("🤖 Simple Chat") + "\n" +
		fmt.Sprintf("Модель: %s\n", chatState.modelName) +
		systemStyle.Render("Напишите сообщение и нажмите Enter") + "\n" +
		systemStyle.Render("Ctrl+C или Esc для выхода") + "\n"

	return m
}

func (m chatModel) Init() tea.Cmd {
	return textarea.Blink
}

// waitForFragment читает один фрагмент из потока и превращает его в tea.Msg.
//
// После каждого fragmentMsg команда переоформляется в Update — так поток
// перекачивается в TUI без блокировки event loop.
func waitForFragment(fragments <-chan llm.Fragment) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-fragments
		if !ok || f.Done {
			return streamDoneMsg{}
		}
		if f.Err != nil {
			return errorMsg{err: f.Err}
		}
		return fragmentMsg{text: f.Text}
	}
}

// Update обрабатывает события
func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := 1
		footerHeight := m.textarea.Height() + 2

		vpHeight := msg.Height - headerHeight - footerHeight
		if vpHeight < 0 {
			vpHeight = 0
		}

		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
		m.textarea.SetWidth(msg.Width)
		m.ready = true
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit

		case tea.KeyEnter:
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" || m.loading {
				return m, nil
			}

			m.textarea.Reset()
			m.transcript += "\n" + userStyle.Render("Вы: ") + input + "\n"
			m.transcript += aiStyle.Render("AI: ")
			m.current = ""
			m.refresh()

			// Запускаем потоковую генерацию в фоне
			ctx, cancel := context.WithTimeout(context.Background(), m.chatState.modelDef.Timeout)
			m.cancel = cancel
			m.fragments = m.chatState.provider.StreamAsync(ctx, input)
			m.loading = true

			return m, tea.Batch(
				m.spinner.Tick,
				waitForFragment(m.fragments),
			)

		case tea.KeyCtrlU:
			m.textarea.Reset()
			return m, nil
		}

	case fragmentMsg:
		m.current += msg.text
		m.refresh()
		return m, waitForFragment(m.fragments)

	case streamDoneMsg:
		m.finishStream()
		m.refresh()

	case errorMsg:
		m.finishStream()
		m.transcript += errorStyle.Render("❌ Ошибка: ") + msg.err.Error() + "\n"
		m.refresh()
	}

	if m.loading {
		m.spinner, spCmd = m.spinner.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, spCmd)
	}

	return m, tea.Batch(tiCmd, vpCmd)
}

// finishStream переносит текущий ответ в транскрипт и освобождает контекст.
func (m *chatModel) finishStream() {
	m.loading = false
	m.transcript += m.current + "\n"
	m.current = ""
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// refresh перерисовывает вьюпорт с переносом строк под текущую ширину.
func (m *chatModel) refresh() {
	content := m.transcript + m.current
	if m.viewport.Width > 0 {
		content = wordwrap.String(content, m.viewport.Width)
	}
	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}

// View рендерит интерфейс
func (m chatModel) View() string {
	if !m.ready {
		return "Initializing UI..."
	}

	status := fmt.Sprintf(" CHAT | MODEL: %s ", m.chatState.modelName)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("62")).
		Padding(0, 1).
		Bold(true)

	header := headerStyle.
		Width(m.viewport.Width).
		Render(status)

	border := systemStyle.
		Width(m.viewport.Width).
		Render("──────────────────────────────────────────────────")

	view := fmt.Sprintf("%s\n%s\n%s\n%s",
		header,
		m.viewport.View(),
		border,
		m.textarea.View(),
	)

	if m.loading {
		view += "\n" + m.spinner.View() + " Думаю..."
	}

	return view
}

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	modelName := cfg.Models.DefaultChat
	if modelName == "" {
		// Fallback: берем первый ключ из определений
		for k := range cfg.Models.Definitions {
			modelName = k
			break
		}
	}

	modelDef, ok := cfg.GetChatModel(modelName)
	if !ok {
		log.Fatalf("Модель '%s' не найдена в определениях", modelName)
	}

	provider, err := factory.NewLLMProvider(modelDef)
	if err != nil {
		log.Fatalf("Ошибка создания провайдера: %v", err)
	}

	chatState := &ChatState{
		provider:  provider,
		modelDef:  modelDef.WithDefaults(),
		modelName: modelName,
	}

	p := tea.NewProgram(
		initialModel(chatState),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		log.Fatalf("Ошибка запуска TUI: %v", err)
	}
}

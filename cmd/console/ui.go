package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/adventure-engine/pkg/combat"
	"github.com/jwebster45206/adventure-engine/pkg/session"
	"github.com/jwebster45206/adventure-engine/pkg/turn"
)

const PlaceHolderText = "What do you do?"

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	sseClient    *http.Client
	sess         *session.Session
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// SSE stream state
	eventChan   chan SSEEvent
	sseCtx      context.Context
	sseCancel   context.CancelFunc
	activeVoice string

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type turnQueuedMsg struct {
	requestID string
	err       error
}

type sessionMsg struct {
	sess *session.Session
	err  error
}

type sseEventMsg struct {
	event SSEEvent
}

type sseClosedMsg struct {
	err error
}

type copyResultMsg struct {
	err error
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")) // gold

	combatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")) // salmon

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, sess *session.Session) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	ctx, cancel := context.WithCancel(context.Background())

	return ConsoleUI{
		sseCtx:    ctx,
		sseCancel: cancel,
		config:       cfg,
		client:       client,
		sseClient:    &http.Client{}, // no timeout; the event stream stays open
		sess:         sess,
		textarea:     ta,
		chatViewport: chatVp,
		metaViewport: metaVp,
		ready:        false,
		eventChan:    make(chan SSEEvent, 16),
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(m.startSSE(), m.waitForEvent(), textarea.Blink)
}

// startSSE opens the event stream for the session. The command blocks
// for the lifetime of the connection and reports when it closes.
func (m ConsoleUI) startSSE() tea.Cmd {
	ctx := m.sseCtx
	client := m.sseClient
	baseURL := m.config.APIBaseURL
	sessionID := m.sess.ID
	eventChan := m.eventChan

	return func() tea.Msg {
		err := listenToSSE(ctx, client, baseURL, sessionID, eventChan)
		return sseClosedMsg{err: err}
	}
}

func (m ConsoleUI) waitForEvent() tea.Cmd {
	eventChan := m.eventChan
	return func() tea.Msg {
		return sseEventMsg{event: <-eventChan}
	}
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		// Pass mouse events to the chat viewport for scrolling and text
		// selection; the component ignores events outside its bounds.
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - chatWidth - 6

		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 4)

		m.ready = true
		// Reformat all content for the new width
		m.writeChatContent()
		m.metaViewport.SetContent(m.writeMetadata())

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			return m.submitTurn(turn.Request{
				SessionID: m.sess.ID,
				Action:    input,
			}, input)
		}

	case turnQueuedMsg:
		if msg.err != nil {
			m.loading = false
			m.err = msg.err
			m.writeChatContent()
			m.appendToChat(errorStyle.Render("Error: "+msg.err.Error()) + "\n\n")
		}
		return m, nil

	case sseEventMsg:
		cmds := []tea.Cmd{m.waitForEvent()}
		switch msg.event.Type {
		case "turn.processing":
			m.loading = true
			m.activeVoice = ""
			cmds = append(cmds, progressTick())
		case "voice.started":
			if id, ok := msg.event.Data["voice_id"].(string); ok {
				m.activeVoice = id
			}
			m.writeChatContent()
		case "voice.completed":
			m.activeVoice = ""
		case "turn.completed":
			m.activeVoice = ""
			cmds = append(cmds, m.refreshSession())
		case "turn.failed":
			m.loading = false
			m.activeVoice = ""
			errText := "turn failed"
			if e, ok := msg.event.Data["error"].(string); ok {
				errText = e
			}
			m.writeChatContent()
			m.appendToChat(errorStyle.Render("Error: "+errText) + "\n\n")
			cmds = append(cmds, m.refreshSession())
		case "session.updated":
			// Cheap metadata refresh without a round trip.
			if phase, ok := msg.event.Data["phase"].(string); ok {
				m.sess.Phase = session.Phase(phase)
			}
			if tc, ok := msg.event.Data["turn_count"].(float64); ok {
				m.sess.TurnCount = int(tc)
			}
			if at, ok := msg.event.Data["adventure_turn"].(float64); ok {
				m.sess.AdventureTurn = int(at)
			}
			m.metaViewport.SetContent(m.writeMetadata())
		}
		return m, tea.Batch(cmds...)

	case sseClosedMsg:
		if msg.err != nil && msg.err != context.Canceled {
			m.appendToChat(errorStyle.Render("Event stream lost: "+msg.err.Error()) + "\n\n")
		}
		return m, nil

	case sessionMsg:
		m.loading = false
		if msg.err == nil && msg.sess != nil {
			m.sess = msg.sess
			m.writeChatContent()
			m.metaViewport.SetContent(m.writeMetadata())
		}
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			m.appendToChat(errorStyle.Render("Copy failed: "+msg.err.Error()) + "\n\n")
		} else {
			m.appendToChat(promptStyle.Render("Transcript copied to clipboard.") + "\n\n")
		}
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// submitTurn queues the request and echoes the player's line locally so
// the transcript feels immediate.
func (m ConsoleUI) submitTurn(req turn.Request, echo string) (tea.Model, tea.Cmd) {
	m.textarea.Reset()
	m.loading = true
	m.progressTick = 0

	if echo != "" {
		m.sess.History = append(m.sess.History, turn.Message{
			Role:    turn.RoleUser,
			Content: echo,
		})
	}
	m.writeChatContent()

	client := m.client
	baseURL := m.config.APIBaseURL
	return m, tea.Batch(func() tea.Msg {
		requestID, err := sendTurnAsync(client, baseURL, req)
		return turnQueuedMsg{requestID: requestID, err: err}
	}, progressTick())
}

func (m ConsoleUI) refreshSession() tea.Cmd {
	client := m.client
	baseURL := m.config.APIBaseURL
	id := m.sess.ID.String()
	return func() tea.Msg {
		sess, err := getSession(client, baseURL, id)
		return sessionMsg{sess: sess, err: err}
	}
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(strings.TrimSpace(input))
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "/quit":
		m.textarea.Reset()
		m.showQuitModal = true
		return m, nil

	case "/help":
		helpText := `
Commands:
• /help - Show this help
• /sheet - Show your character sheet
• /copy - Copy the transcript to the clipboard
• /choose N - Pick a numbered choice
• /attack [target], /defend, /flee - Combat actions
• /quit - Quit the adventure

How to play:
• Type your actions and press Enter
• The table of voices responds to guide the story
• Be descriptive for better responses
`
		m.appendToChat(titleStyle.Render("Help:") + helpText + "\n")
		m.textarea.Reset()
		return m, nil

	case "/sheet":
		m.appendToChat(m.renderSheet())
		m.textarea.Reset()
		return m, nil

	case "/copy":
		m.textarea.Reset()
		transcript := plainTranscript(m.sess)
		return m, func() tea.Msg {
			return copyResultMsg{err: clipboard.WriteAll(transcript)}
		}

	case "/choose":
		if m.loading {
			return m, nil
		}
		if len(args) != 1 {
			m.appendToChat(errorStyle.Render("Usage: /choose N") + "\n\n")
			m.textarea.Reset()
			return m, nil
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			m.appendToChat(errorStyle.Render("Usage: /choose N") + "\n\n")
			m.textarea.Reset()
			return m, nil
		}
		idx := n - 1
		return m.submitTurn(turn.Request{
			SessionID: m.sess.ID,
			Choice:    &idx,
		}, fmt.Sprintf("I choose option %d.", n))

	case "/attack", "/defend", "/flee":
		if m.loading {
			return m, nil
		}
		action := combat.Action{Type: combat.ActionType(strings.TrimPrefix(cmd, "/"))}
		echo := "I " + string(action.Type) + "."
		if cmd == "/attack" && len(args) > 0 {
			action.TargetID = args[0]
			echo = "I attack " + args[0] + "."
		}
		return m.submitTurn(turn.Request{
			SessionID: m.sess.ID,
			Combat:    &action,
		}, echo)

	default:
		m.appendToChat(errorStyle.Render("Unknown command: "+cmd) + "\n\n")
		m.textarea.Reset()
		return m, nil
	}
}

// appendToChat tacks rendered text onto the current viewport content and
// scrolls to the bottom.
func (m *ConsoleUI) appendToChat(text string) {
	m.chatViewport.SetContent(m.chatViewport.View() + text)
	m.chatViewport.GotoBottom()
}

// writeChatContent rebuilds the chat pane from the session transcript
// for the current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding
	if chatWidth < 16 {
		chatWidth = 16
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("ADVENTURE ENGINE") + "\n\n")
	content.WriteString("Type your actions below to play. /help lists commands.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth-6)) + "\n\n")

	if m.sess != nil {
		if len(m.sess.History) == 0 {
			content.WriteString(openingLine(m.sess.Phase) + "\n\n")
		}
		for _, msg := range m.sess.History {
			switch msg.Role {
			case turn.RoleUser:
				content.WriteString(userStyle.Render("You: ") + wordwrap.String(msg.Content, chatWidth-6) + "\n\n")
			default:
				content.WriteString(formatVoiceLine(msg.Content, chatWidth) + "\n\n")
			}
		}
		if len(m.sess.PendingChoices) > 0 {
			content.WriteString(m.renderChoices(chatWidth))
		}
		if m.sess.Phase == session.PhaseCombat && m.sess.Encounter != nil {
			content.WriteString(m.renderCombatStatus())
		}
		if m.sess.Phase == session.PhaseEnded {
			content.WriteString(promptStyle.Render("The adventure has ended. /copy saves the transcript.") + "\n\n")
		}
	}

	if m.loading {
		if m.activeVoice != "" {
			content.WriteString(loadingStyle.Render(voiceDisplayName(m.activeVoice)+" is speaking...") + "\n")
		}
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func openingLine(phase session.Phase) string {
	switch phase {
	case session.PhaseCharacterCreation:
		return "The interviewer waits to hear who you are. Describe your character to begin."
	case session.PhaseQuestSelection:
		return "The quest-giver has work for you. Ask what needs doing."
	default:
		return "Your adventure continues. What do you do?"
	}
}

func (m *ConsoleUI) renderChoices(width int) string {
	var b strings.Builder
	b.WriteString(choiceStyle.Render("Choose:") + "\n")
	for _, c := range m.sess.PendingChoices {
		line := fmt.Sprintf("  %d. %s", c.Index+1, c.Label)
		b.WriteString(choiceStyle.Render(wordwrap.String(line, width-4)) + "\n")
	}
	b.WriteString(promptStyle.Render("  (/choose N to decide)") + "\n\n")
	return b.String()
}

func (m *ConsoleUI) renderCombatStatus() string {
	enc := m.sess.Encounter
	round := enc.Round
	if round < 1 {
		round = 1
	}

	var b strings.Builder
	b.WriteString(combatStyle.Render(fmt.Sprintf("⚔ Combat, round %d", round)) + "\n")
	for _, c := range enc.Combatants {
		marker := "  "
		if len(enc.TurnOrder) > 0 && enc.TurnIndex < len(enc.TurnOrder) && enc.TurnOrder[enc.TurnIndex] == c.ID {
			marker = "▶ "
		}
		b.WriteString(combatStyle.Render(fmt.Sprintf("%s%s  %d/%d HP", marker, c.Name, c.HP, c.MaxHP)) + "\n")
	}
	b.WriteString(promptStyle.Render("  (/attack [target], /defend, /flee)") + "\n\n")
	return b.String()
}

// renderSheet formats the player character for the /sheet command.
func (m *ConsoleUI) renderSheet() string {
	if m.sess == nil || m.sess.PC == nil || m.sess.PC.Spec == nil {
		return errorStyle.Render("No character yet. Finish character creation first.") + "\n\n"
	}
	spec := m.sess.PC.Spec

	var b strings.Builder
	b.WriteString(titleStyle.Render("CHARACTER SHEET") + "\n")
	b.WriteString(fmt.Sprintf("  %s", spec.Name))
	if spec.Class != "" {
		b.WriteString(fmt.Sprintf(" — %s", spec.Class))
	}
	if spec.Level > 0 {
		b.WriteString(fmt.Sprintf(" (level %d)", spec.Level))
	}
	b.WriteString("\n")
	if spec.Race != "" {
		b.WriteString(fmt.Sprintf("  Race: %s\n", spec.Race))
	}
	b.WriteString(fmt.Sprintf("  HP: %d/%d   AC: %d   Damage: %s\n",
		spec.HP, spec.MaxHP, spec.AC, spec.DamageDice))
	b.WriteString(fmt.Sprintf("  STR %d  DEX %d  CON %d  INT %d  WIS %d  CHA %d\n",
		spec.Stats.Strength, spec.Stats.Dexterity, spec.Stats.Constitution,
		spec.Stats.Intelligence, spec.Stats.Wisdom, spec.Stats.Charisma))
	if len(spec.Inventory) > 0 {
		b.WriteString("  Inventory: " + strings.Join(spec.Inventory, ", ") + "\n")
	}
	if spec.Background != "" {
		b.WriteString("  Background: " + spec.Background + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

// plainTranscript renders the session history without styling, for the
// clipboard.
func plainTranscript(sess *session.Session) string {
	if sess == nil {
		return ""
	}
	var b strings.Builder
	for _, msg := range sess.History {
		if msg.Role == turn.RoleUser {
			b.WriteString("You: " + msg.Content + "\n\n")
		} else {
			b.WriteString(msg.Content + "\n\n")
		}
	}
	return b.String()
}

// formatVoiceLine styles the "Speaker:" prefix the transcript carries
// and wraps the rest to the viewport width.
func formatVoiceLine(text string, width int) string {
	wrapped := wordwrap.String(text, width)
	lines := strings.Split(wrapped, "\n")
	var formatted []string

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			formatted = append(formatted, "")
			continue
		}

		// Only the first line can carry the speaker prefix.
		if i == 0 {
			if idx := strings.Index(trimmed, ":"); idx > 0 && idx <= 20 {
				speaker := trimmed[:idx]
				rest := trimmed[idx+1:]
				if len(strings.Fields(speaker)) <= 2 {
					formatted = append(formatted, speakerStyle.Render(speaker+":")+rest)
					continue
				}
			}
		}

		formatted = append(formatted, line)
	}

	return strings.Join(formatted, "\n")
}

// voiceDisplayName capitalizes a voice ID for status lines.
func voiceDisplayName(id string) string {
	if id == "" {
		return "A voice"
	}
	return strings.ToUpper(id[:1]) + id[1:]
}

// writeMetadata builds the right-hand session panel.
func (m *ConsoleUI) writeMetadata() string {
	sess := m.sess
	var content strings.Builder
	content.WriteString(titleStyle.Render("SESSION") + "\n\n")

	content.WriteString("ID:\n")
	content.WriteString(sess.ID.String()[:8] + "...\n\n")

	content.WriteString("Phase:\n")
	content.WriteString(string(sess.Phase) + "\n\n")

	content.WriteString("Story:\n")
	content.WriteString(string(sess.StoryPhase) + "\n\n")

	content.WriteString("Turns:\n")
	content.WriteString(fmt.Sprintf("%d/%d adventure\n%d total\n\n", sess.AdventureTurn, sess.MaxTurns, sess.TurnCount))

	content.WriteString("Rating:\n")
	content.WriteString(sess.Rating + "\n\n")

	if sess.PC != nil && sess.PC.Spec != nil {
		content.WriteString("Character:\n")
		content.WriteString(fmt.Sprintf("%s\n%d/%d HP\n\n", sess.PC.Spec.Name, sess.PC.Spec.HP, sess.PC.Spec.MaxHP))
	}

	if sess.Quest != nil {
		content.WriteString("Quest:\n")
		content.WriteString(sess.Quest.Title + "\n")
		if sess.QuestComplete {
			content.WriteString("(complete)\n")
		}
		content.WriteString("\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /sheet: Character\n")
	content.WriteString("• /copy: Transcript\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /quit: Quit\n")

	return content.String()
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m.quit()
		default:
			switch msg.String() {
			case "y", "Y":
				return m.quit()
			case "n", "N":
				m.showQuitModal = false
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) quit() (tea.Model, tea.Cmd) {
	if m.sseCancel != nil {
		m.sseCancel()
	}
	return m, tea.Quit
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to leave your adventure?")
	content.WriteString("\n")
	content.WriteString("The session stays on the server; resume with -session " + m.sess.ID.String()[:8] + "...")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue"))

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	sepWidth := chatWidth - 4
	if sepWidth < 10 {
		sepWidth = 10
	}

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", sepWidth)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓") // Blinking effect at the progress point
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}

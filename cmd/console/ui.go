package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/nightloop/internal/storage"
	"github.com/jwebster45206/nightloop/pkg/agents"
	"github.com/jwebster45206/nightloop/pkg/engine"
	"github.com/jwebster45206/nightloop/pkg/night"
	"github.com/jwebster45206/nightloop/pkg/postprocess"
)

const PlaceHolderText = "What do you do today?"

type lineKind int

const (
	lineUser lineKind = iota
	lineNarrator
	lineSpeaker
	lineSystem
	lineError
)

type chatLine struct {
	kind lineKind
	text string
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	store   storage.Storage
	gen     agents.TextGenerator
	seed    int64
	logger  *slog.Logger
	session *engine.Session

	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	lines        []chatLine
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Scenario selection state
	showScenarioModal bool
	scenarios         []string
	scenarioMap       map[string]string
	selectedScenario  int
	loadingScenarios  bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type turnDoneMsg struct {
	report *engine.TurnReport
	err    error
}

type nightDoneMsg struct {
	result *night.Result
	report *engine.TurnReport
	err    error
}

type savedMsg struct {
	err error
}

type scenariosLoadedMsg struct {
	scenarios   []string
	scenarioMap map[string]string
	err         error
}

type sessionCreatedMsg struct {
	session *engine.Session
	err     error
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

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

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

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(store storage.Storage, gen agents.TextGenerator, seed int64, logger *slog.Logger) ConsoleUI {
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

	return ConsoleUI{
		store:             store,
		gen:               gen,
		seed:              seed,
		logger:            logger,
		textarea:          ta,
		chatViewport:      chatVp,
		metaViewport:      metaVp,
		ready:             false,
		showScenarioModal: true,
		loadingScenarios:  true,
		selectedScenario:  0,
	}
}

func (m *ConsoleUI) addLine(kind lineKind, text string) {
	m.lines = append(m.lines, chatLine{kind: kind, text: text})
}

// writeChatContent rebuilds the chat viewport from the line log for the
// current width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding

	var content strings.Builder
	content.WriteString(titleStyle.Render("NIGHTLOOP") + "\n\n")
	content.WriteString("Each entry is one day. The house lives its own life at night.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 10))) + "\n\n")

	for _, line := range m.lines {
		switch line.kind {
		case lineUser:
			content.WriteString(userStyle.Render("You: ") + wordwrap.String(line.text, chatWidth-6) + "\n\n")
		case lineNarrator:
			content.WriteString(narratorStyle.Render(wordwrap.String(line.text, chatWidth)) + "\n\n")
		case lineSpeaker:
			// Dialogue transcript lines are "Name: text".
			if idx := strings.Index(line.text, ":"); idx > 0 && idx <= 24 {
				content.WriteString(speakerStyle.Render(line.text[:idx+1]) +
					wordwrap.String(line.text[idx+1:], chatWidth-idx) + "\n")
			} else {
				content.WriteString(wordwrap.String(line.text, chatWidth) + "\n")
			}
		case lineSystem:
			content.WriteString(promptStyle.Render(wordwrap.String(line.text, chatWidth)) + "\n\n")
		case lineError:
			content.WriteString(errorStyle.Render("Error: "+line.text) + "\n\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m *ConsoleUI) writeMetadata() {
	if m.session == nil {
		return
	}
	ws := m.session.World
	a := m.session.Assets

	var content strings.Builder
	content.WriteString(titleStyle.Render("HOUSE STATE") + "\n\n")

	content.WriteString("Session:\n")
	content.WriteString(m.session.ID.String()[:8] + "...\n\n")

	content.WriteString(fmt.Sprintf("Day %d of %d\n", ws.Turn, a.TurnLimit))
	if ws.Scene != "" {
		content.WriteString("Scene: " + ws.Scene + "\n")
	}
	content.WriteString("\n")

	content.WriteString("Inventory:\n")
	if len(ws.Inventory) == 0 {
		content.WriteString("empty-handed\n")
	}
	for _, id := range ws.Inventory {
		name := id
		if it := a.ItemByID(id); it != nil {
			name = it.Name
		}
		content.WriteString("• " + name + "\n")
	}
	content.WriteString("\n")

	content.WriteString("Household:\n")
	for _, id := range ws.NPCIDs() {
		npc := ws.NPCs[id]
		content.WriteString(fmt.Sprintf("• %s (%s)\n", npc.Name, npc.Status))
		stats := make([]string, 0, len(npc.Stats))
		for k := range npc.Stats {
			stats = append(stats, k)
		}
		sort.Strings(stats)
		for _, k := range stats {
			content.WriteString(fmt.Sprintf("    %s: %d\n", k, npc.Stats[k]))
		}
	}
	content.WriteString("\n")

	if len(ws.Vars) > 0 {
		content.WriteString("Variables:\n")
		keys := make([]string, 0, len(ws.Vars))
		for k := range ws.Vars {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			content.WriteString(fmt.Sprintf("• %s: %s\n", k, ws.Vars[k].String()))
		}
		content.WriteString("\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• /use <item>\n")
	content.WriteString("• /take <item>\n")
	content.WriteString("• /night: End the day\n")
	content.WriteString("• /save, /copy, /help\n")
	content.WriteString("• Ctrl+C: Quit\n")

	m.metaViewport.SetContent(content.String())
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showScenarioModal {
		return m.loadScenarios()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle scenario modal first
	if m.showScenarioModal {
		return m.updateScenarioModal(msg)
	}

	// Handle quit modal second
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
		// Pass mouse events to all components; each ignores events
		// outside its bounds.
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.writeChatContent()
		m.writeMetadata()
		m.ready = true

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

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0
			m.addLine(lineUser, input)
			m.writeChatContent()
			return m, tea.Batch(m.runDayTurn(engine.DayAction{
				Intent:      m.classifyIntent(input),
				NPCID:       m.detectNPC(input),
				Description: input,
			}), progressTick())
		}

	case turnDoneMsg:
		m.loading = false
		if msg.err != nil {
			m.addLine(lineError, msg.err.Error())
		} else {
			m.describeReport(msg.report)
		}
		m.writeChatContent()
		m.writeMetadata()
		return m, nil

	case nightDoneMsg:
		m.loading = false
		if msg.err != nil {
			m.addLine(lineError, msg.err.Error())
		} else {
			m.addLine(lineSystem, "Night falls. The house murmurs to itself.")
			for _, line := range msg.result.Transcript {
				m.addLine(lineSpeaker, line)
			}
			if msg.result.Narrative != "" {
				m.addLine(lineNarrator, msg.result.Narrative)
			}
			m.describeReport(msg.report)
		}
		m.writeChatContent()
		m.writeMetadata()
		return m, nil

	case savedMsg:
		if msg.err != nil {
			m.addLine(lineError, "save failed: "+msg.err.Error())
		} else {
			m.addLine(lineSystem, "Session saved.")
		}
		m.writeChatContent()
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	// Update components for non-mouse events
	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) resize() {
	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

// describeReport folds a turn report into the chat log.
func (m *ConsoleUI) describeReport(report *engine.TurnReport) {
	for _, ev := range report.Events {
		if ev != "" {
			m.addLine(lineNarrator, ev)
		}
	}
	for _, id := range report.NewlyAcquired {
		name := id
		if it := m.session.Assets.ItemByID(id); it != nil {
			name = it.Name
		}
		m.addLine(lineSystem, "Acquired: "+name)
	}
	for _, info := range report.NewlyUnlocked {
		m.addLine(lineSystem, "Something shifts: "+info.Title)
	}
	if report.Ending != nil {
		m.addLine(lineSystem, "THE END: "+report.Ending.Name)
		if report.Ending.EpiloguePrompt != "" {
			m.addLine(lineNarrator, report.Ending.EpiloguePrompt)
		}
	}
}

// classifyIntent matches the input against the scenario's rewrite rule
// intents by keyword. Unmatched input carries no mechanical intent.
func (m *ConsoleUI) classifyIntent(input string) string {
	lower := strings.ToLower(input)
	for _, rule := range m.session.Assets.MemoryRules.RewriteRules {
		when := strings.ToLower(rule.When)
		start := strings.IndexAny(when, `'"`)
		end := strings.LastIndexAny(when, `'"`)
		if start < 0 || end <= start {
			continue
		}
		intent := when[start+1 : end]
		if strings.Contains(lower, intent) {
			return intent
		}
	}
	return ""
}

// detectNPC finds the first NPC whose name or id appears in the input.
func (m *ConsoleUI) detectNPC(input string) string {
	lower := strings.ToLower(input)
	for _, npc := range m.session.Assets.NPCs {
		if strings.Contains(lower, strings.ToLower(npc.Name)) ||
			strings.Contains(lower, strings.ToLower(npc.ID)) {
			return npc.ID
		}
	}
	return ""
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	m.textarea.Reset()
	fields := strings.Fields(input)
	cmd := strings.ToLower(fields[0])

	switch cmd {
	case "/help":
		m.addLine(lineSystem, strings.TrimSpace(`
Commands:
/use <item>   use an inventory item (name an NPC in the same line to target them)
/take <item>  try to pick an item up
/night        end the day and let the household act
/save         save the session
/copy         copy the transcript to the clipboard
/quit         leave the game

Anything else you type is what you do with your day.`))
		m.writeChatContent()

	case "/use", "/take":
		if len(fields) < 2 {
			m.addLine(lineError, "name an item, e.g. "+cmd+" honey_cake")
			m.writeChatContent()
			return m, nil
		}
		itemID := m.matchItem(strings.Join(fields[1:], " "))
		action := engine.DayAction{NPCID: m.detectNPC(input), Description: input}
		if cmd == "/use" {
			action.UseItemID = itemID
		} else {
			action.AcquireItemID = itemID
		}
		m.loading = true
		m.progressTick = 0
		m.addLine(lineUser, input)
		m.writeChatContent()
		return m, tea.Batch(m.runDayTurn(action), progressTick())

	case "/night":
		m.loading = true
		m.progressTick = 0
		m.writeChatContent()
		return m, tea.Batch(m.runNight(), progressTick())

	case "/save":
		return m, m.saveSession()

	case "/copy":
		if err := clipboard.WriteAll(m.plainTranscript()); err != nil {
			m.addLine(lineError, "clipboard: "+err.Error())
		} else {
			m.addLine(lineSystem, "Transcript copied to clipboard.")
		}
		m.writeChatContent()

	case "/quit":
		m.showQuitModal = true

	default:
		m.addLine(lineError, "unknown command "+cmd+" (try /help)")
		m.writeChatContent()
	}

	return m, nil
}

// matchItem resolves loose item text to an item id, preferring exact id
// matches, then name substrings.
func (m *ConsoleUI) matchItem(text string) string {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, it := range m.session.Assets.Items {
		if strings.EqualFold(it.ID, lower) {
			return it.ID
		}
	}
	for _, it := range m.session.Assets.Items {
		if strings.Contains(lower, strings.ToLower(it.Name)) ||
			strings.Contains(strings.ToLower(it.Name), lower) {
			return it.ID
		}
	}
	return strings.ReplaceAll(lower, " ", "_")
}

func (m *ConsoleUI) plainTranscript() string {
	var sb strings.Builder
	for _, line := range m.lines {
		if line.kind == lineUser {
			sb.WriteString("You: ")
		}
		sb.WriteString(line.text + "\n")
	}
	return sb.String()
}

func (m ConsoleUI) runDayTurn(action engine.DayAction) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		report, err := session.DayTurn(ctx, action)
		return turnDoneMsg{report: report, err: err}
	}
}

func (m ConsoleUI) runNight() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		result, report, err := session.NightPhase(ctx)
		return nightDoneMsg{result: result, report: report, err: err}
	}
}

func (m ConsoleUI) saveSession() tea.Cmd {
	session := m.session
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return savedMsg{err: store.SaveSession(ctx, session.ID, session.Snapshot())}
	}
}

func (m ConsoleUI) loadScenarios() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		scenarioMap, err := store.ListScenarios(ctx)
		if err != nil {
			return scenariosLoadedMsg{err: err}
		}
		names := make([]string, 0, len(scenarioMap))
		for name := range scenarioMap {
			names = append(names, name)
		}
		sort.Strings(names)
		return scenariosLoadedMsg{scenarios: names, scenarioMap: scenarioMap}
	}
}

func (m ConsoleUI) createSession(scenarioFile string) tea.Cmd {
	store := m.store
	gen := m.gen
	seed := m.seed
	logger := m.logger
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		assets, err := store.GetScenario(ctx, scenarioFile)
		if err != nil {
			return sessionCreatedMsg{err: err}
		}
		session := engine.NewSession(assets, gen, postprocess.Passthrough{}, seed, logger)
		return sessionCreatedMsg{session: session}
	}
}

func (m ConsoleUI) updateScenarioModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case scenariosLoadedMsg:
		m.loadingScenarios = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.scenarios = msg.scenarios
			m.scenarioMap = msg.scenarioMap
		}

	case sessionCreatedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.session = msg.session
			m.showScenarioModal = false
			if m.width > 0 && m.height > 0 {
				m.resize()
			}
			m.addLine(lineSystem, fmt.Sprintf("%s. You have %d days.",
				m.session.Assets.Title, m.session.Assets.TurnLimit))
			m.writeChatContent()
			m.writeMetadata()
			m.textarea.Focus()
			m.ready = true
		}
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.loadingScenarios || m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedScenario > 0 {
				m.selectedScenario--
			}
		case tea.KeyDown:
			if m.selectedScenario < len(m.scenarios)-1 {
				m.selectedScenario++
			}
		case tea.KeyEnter:
			if len(m.scenarios) > 0 {
				scenarioFile := m.scenarioMap[m.scenarios[m.selectedScenario]]
				m.loading = true
				return m, m.createSession(scenarioFile)
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if !m.showScenarioModal {
					m.textarea.Focus()
					return m, textarea.Blink
				}
				return m, nil
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Leave the House?"))
	content.WriteString("\n\n")
	content.WriteString("Unsaved days will be lost.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderScenarioModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.loadingScenarios {
		content.WriteString(modalTitleStyle.Render("Loading Scenarios..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Reading the scenario shelf..."))
	} else if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load scenarios: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else if m.loading {
		content.WriteString(modalTitleStyle.Render("Opening the Door..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Setting the table, waking the house..."))
	} else {
		content.WriteString(modalTitleStyle.Render("Select a Scenario"))
		content.WriteString("\n\n")

		for i, name := range m.scenarios {
			if i == m.selectedScenario {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", name)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", name)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showScenarioModal {
		return m.renderScenarioModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 10))),
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
			bar.WriteString("▓")
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

package main

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/button-commands/internal/admin"
	"github.com/jwebster45206/button-commands/internal/handlers"
	"github.com/jwebster45206/button-commands/internal/press"
	"github.com/jwebster45206/button-commands/pkg/host"
	"github.com/muesli/reflow/wordwrap"
)

const PlaceHolderText = "Enter to press, or type /help"

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	logViewport  viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	loading      bool

	player   host.PlayerSnapshot
	button   host.ButtonSnapshot
	distance float64
	buttons  []uint64
	version  string

	// lines is the activity log, newest last.
	lines        []string
	lastCommands []press.Command

	showQuitModal bool
	progressTick  int
}

type pressResultMsg struct {
	result *press.Result
	err    error
}

type registerResultMsg struct {
	outcome *admin.Outcome
	err     error
}

type buttonsLoadedMsg struct {
	list *handlers.ButtonListResponse
	err  error
}

type buttonLoadedMsg struct {
	button *handlers.ButtonResponse
	err    error
}

type progressTickMsg struct{}

var (
	logPanelStyle = lipgloss.NewStyle().
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

	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	replyStyle = lipgloss.NewStyle().
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
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 200
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	logVp := viewport.New(50, 20)
	logVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:       cfg,
		client:       client,
		textarea:     ta,
		logViewport:  logVp,
		metaViewport: metaVp,
		player:       cfg.Player,
		button:       host.ButtonSnapshot{ButtonID: 1, Powered: true},
		distance:     2,
		lines:        []string{"Type /help for the list of commands."},
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.loadButtons())
}

// consoleCommand is one parsed line of operator input.
type consoleCommand struct {
	name string
	args []string
}

// parseCommand splits input into a command and its arguments. Empty input
// is a press.
func parseCommand(input string) consoleCommand {
	fields := strings.Fields(strings.TrimSpace(input))
	if len(fields) == 0 {
		return consoleCommand{name: "press"}
	}
	name := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	return consoleCommand{name: name, args: fields[1:]}
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
		m.logViewport, vpCmd = m.logViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		logWidth := int(float64(m.width)*0.7) - 4
		metaWidth := m.width - logWidth - 6

		m.logViewport.Width = logWidth - 2
		m.logViewport.Height = m.height - 5
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(logWidth - 4)
		m.ready = true
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			input := m.textarea.Value()
			m.textarea.Reset()
			return m.handleCommand(parseCommand(input))
		}

	case pressResultMsg:
		m.loading = false
		if msg.err != nil {
			m.logError(msg.err)
		} else {
			m.logPress(msg.result)
		}
		m.refresh()

	case registerResultMsg:
		m.loading = false
		if msg.err != nil {
			m.logError(msg.err)
			m.refresh()
			return m, nil
		}
		m.log(fmt.Sprintf("register %d: %s", msg.outcome.ButtonID, msg.outcome.Status))
		if msg.outcome.Message != "" {
			m.log(replyStyle.Render("reply: ") + msg.outcome.Message)
		}
		m.refresh()
		return m, m.loadButtons()

	case buttonsLoadedMsg:
		if msg.err != nil {
			m.logError(msg.err)
		} else {
			m.buttons = msg.list.Buttons
			m.version = msg.list.Version
		}
		m.refresh()

	case buttonLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.logError(msg.err)
		} else {
			m.logBehavior(msg.button)
		}
		m.refresh()

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.refresh()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.logViewport, vpCmd = m.logViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m ConsoleUI) handleCommand(cmd consoleCommand) (tea.Model, tea.Cmd) {
	switch cmd.name {
	case "press", "p":
		m.loading = true
		m.progressTick = 0
		m.log(fmt.Sprintf("press %d (powered: %t)", m.button.ButtonID, m.button.Powered))
		m.refresh()
		return m, tea.Batch(m.sendPress(), progressTick())

	case "button", "b":
		id, err := parseID(cmd.args)
		if err != nil {
			m.logError(err)
			break
		}
		m.button.ButtonID = id
		m.log(fmt.Sprintf("looking at button %d", id))

	case "power":
		m.button.Powered = !m.button.Powered
		m.log(fmt.Sprintf("button %d powered: %t", m.button.ButtonID, m.button.Powered))

	case "distance", "d":
		if len(cmd.args) != 1 {
			m.logError(fmt.Errorf("usage: /distance <metres>"))
			break
		}
		d, err := strconv.ParseFloat(cmd.args[0], 64)
		if err != nil || d < 0 {
			m.logError(fmt.Errorf("invalid distance %q", cmd.args[0]))
			break
		}
		m.distance = d

	case "move":
		if len(cmd.args) != 3 {
			m.logError(fmt.Errorf("usage: /move <x> <y> <z>"))
			break
		}
		var pos [3]float64
		for i, a := range cmd.args {
			v, err := strconv.ParseFloat(a, 64)
			if err != nil {
				m.logError(fmt.Errorf("invalid coordinate %q", a))
				m.refresh()
				return m, nil
			}
			pos[i] = v
		}
		m.player.Pos = host.Vector3{X: pos[0], Y: pos[1], Z: pos[2]}

	case "lang":
		m.player.Lang = ""
		if len(cmd.args) > 0 {
			m.player.Lang = cmd.args[0]
		}

	case "admin":
		if i := slices.Index(m.player.Permissions, admin.PermissionAdmin); i >= 0 {
			m.player.Permissions = slices.Delete(m.player.Permissions, i, i+1)
		} else {
			m.player.Permissions = append(m.player.Permissions, admin.PermissionAdmin)
		}

	case "register", "r":
		m.loading = true
		m.progressTick = 0
		m.refresh()
		return m, tea.Batch(m.sendRegister(), progressTick())

	case "show":
		m.loading = true
		m.refresh()
		return m, m.loadButton(m.button.ButtonID)

	case "buttons":
		return m, m.loadButtons()

	case "copy":
		if len(m.lastCommands) == 0 {
			m.logError(fmt.Errorf("no commands to copy"))
			break
		}
		lines := make([]string, len(m.lastCommands))
		for i, c := range m.lastCommands {
			lines[i] = c.ConsoleLine()
		}
		if err := clipboard.WriteAll(strings.Join(lines, "\n")); err != nil {
			m.logError(fmt.Errorf("clipboard: %w", err))
			break
		}
		m.log(fmt.Sprintf("copied %d command(s) to the clipboard", len(lines)))

	case "clear":
		m.lines = nil

	case "help":
		m.log(titleStyle.Render("Commands:") + `
• Enter or /press - press the button
• /button <id> - look at another button
• /power - toggle the button's power
• /distance <m> - distance to the button for /register
• /move <x> <y> <z> - move the player
• /lang <code> - set the player's language
• /admin - toggle the admin permission (honored when the API sets TRUST_HOST_PERMISSIONS)
• /register - register the button in sight
• /show - show the button's behavior
• /buttons - refresh the registered list
• /copy - copy the last commands to the clipboard
• /clear - clear the log
• Ctrl+C - quit`)

	default:
		m.logError(fmt.Errorf("unknown command /%s", cmd.name))
	}

	m.refresh()
	return m, nil
}

func parseID(args []string) (uint64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: /button <id>")
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid button id %q", args[0])
	}
	return id, nil
}

func (m *ConsoleUI) log(line string) {
	m.lines = append(m.lines, line)
}

func (m *ConsoleUI) logError(err error) {
	m.log(errorStyle.Render("Error: " + err.Error()))
}

func (m *ConsoleUI) logPress(res *press.Result) {
	switch res.Outcome {
	case press.OutcomeIgnored:
		m.log(promptStyle.Render("ignored"))
	case press.OutcomeGated:
		m.log(loadingStyle.Render(fmt.Sprintf("gated, %.1fs remaining", res.RemainingSeconds)))
		if res.Message != "" {
			m.log(replyStyle.Render("reply: ") + res.Message)
		}
	case press.OutcomeDispatched:
		m.lastCommands = res.Commands
		m.log(fmt.Sprintf("dispatched %d command(s), suppress output: %t", len(res.Commands), res.SuppressOutput))
		for _, c := range res.Commands {
			target := "server"
			if c.RunsAsPlayer() {
				target = "player"
			}
			m.log(commandStyle.Render(fmt.Sprintf("  [%s/%s] ", c.Type, target)) + c.ConsoleLine())
		}
	}
}

func (m *ConsoleUI) logBehavior(b *handlers.ButtonResponse) {
	beh := b.Behavior
	m.log(titleStyle.Render(fmt.Sprintf("Button %d", b.ID)))
	m.log(fmt.Sprintf("  requires power: %t, suppress output: %t, random: %t, cooldown: %gs",
		beh.RequireButtonPowered, beh.DisablePowerOutputOnPress, beh.RunRandomCommand, beh.CooldownSeconds))
	for i, c := range beh.Commands {
		m.log(fmt.Sprintf("  %d. [%s] %s", i+1, c.Type, c.Command))
	}
}

// refresh rebuilds both panels for the current width.
func (m *ConsoleUI) refresh() {
	width := m.logViewport.Width - 6
	if width <= 0 {
		width = 40
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("BUTTON COMMANDS") + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")
	for _, line := range m.lines {
		content.WriteString(wordwrap.String(line, width) + "\n")
	}
	if m.loading {
		content.WriteString("\n" + m.renderProgressBar())
	}
	m.logViewport.SetContent(content.String())
	m.logViewport.GotoBottom()

	m.metaViewport.SetContent(m.writeMetadata())
}

func (m ConsoleUI) writeMetadata() string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("HOST") + "\n\n")

	content.WriteString("Player:\n")
	content.WriteString(fmt.Sprintf("%s (%d)\n", m.player.Name, m.player.ID))
	content.WriteString(fmt.Sprintf("pos %.1f %.1f %.1f\n", m.player.Pos.X, m.player.Pos.Y, m.player.Pos.Z))
	if m.player.Lang != "" {
		content.WriteString("lang " + m.player.Lang + "\n")
	}
	content.WriteString(fmt.Sprintf("admin: %t\n\n", slices.Contains(m.player.Permissions, admin.PermissionAdmin)))

	content.WriteString("Button:\n")
	content.WriteString(fmt.Sprintf("%d\n", m.button.ButtonID))
	content.WriteString(fmt.Sprintf("powered: %t\n", m.button.Powered))
	content.WriteString(fmt.Sprintf("distance: %gm\n", m.distance))
	content.WriteString(fmt.Sprintf("registered: %t\n\n", slices.Contains(m.buttons, m.button.ButtonID)))

	content.WriteString("Registry:\n")
	if m.version != "" {
		content.WriteString("version " + m.version + "\n")
	}
	content.WriteString(fmt.Sprintf("%d button(s)\n", len(m.buttons)))

	return content.String()
}

func (m ConsoleUI) sendPress() tea.Cmd {
	btn, player := m.button, m.player
	return func() tea.Msg {
		res, err := pressButton(m.client, m.config.APIBaseURL, btn, player)
		return pressResultMsg{res, err}
	}
}

func (m ConsoleUI) sendRegister() tea.Cmd {
	player := m.player
	sight := host.Sight{Hit: true, ButtonID: m.button.ButtonID, Distance: m.distance}
	return func() tea.Msg {
		out, err := registerButton(m.client, m.config.APIBaseURL, player, sight)
		return registerResultMsg{out, err}
	}
}

func (m ConsoleUI) loadButtons() tea.Cmd {
	return func() tea.Msg {
		list, err := listButtons(m.client, m.config.APIBaseURL)
		return buttonsLoadedMsg{list, err}
	}
}

func (m ConsoleUI) loadButton(id uint64) tea.Cmd {
	return func() tea.Msg {
		b, err := getButton(m.client, m.config.APIBaseURL, id)
		return buttonLoadedMsg{b, err}
	}
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
				m.textarea.Focus()
				return m, textarea.Blink
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
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Leave the button console?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	logWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - logWidth - 6

	logPanel := logPanelStyle.Width(logWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.logViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(logWidth-4, 0))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, logPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := min(max(m.logViewport.Width-6, 10), 80)

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

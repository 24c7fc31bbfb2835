package settings

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mail-dashboard/internal/credential"
	"github.com/nhle/mail-dashboard/internal/model"
	"github.com/nhle/mail-dashboard/internal/theme"
)

// DoneMsg is emitted when the settings view closes without saving.
type DoneMsg struct{}

// SavedMsg is emitted after the configuration has been written to disk.
// The running client, poller, and assistant keep their startup settings;
// saved changes apply on the next launch.
type SavedMsg struct{}

// saveResultMsg carries the outcome of the save command back into Update.
type saveResultMsg struct {
	cfg *model.AppConfig
	err error
}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	baseURL       string
	sessionCookie string
	timeoutSec    string
	refreshSec    string
	themeName     string
	aiModel       string
	maxTokens     string
	sessionToken  string
	apiKey        string
}

// Model is the settings editor. It edits the on-disk configuration file
// and writes credentials to the system keyring.
type Model struct {
	cfg       *model.AppConfig
	cfgPath   string
	form      *huh.Form
	fb        *formBindings
	statusMsg string
	saving    bool
	width     int
	height    int
}

// New creates the settings model around the loaded configuration and the
// path it was loaded from.
func New(cfg *model.AppConfig, cfgPath string, width, height int) Model {
	return Model{
		cfg:     cfg,
		cfgPath: cfgPath,
		fb:      &formBindings{},
		width:   width,
		height:  height,
	}
}

// Start prefills the form from the current configuration and focuses it.
func (m *Model) Start() tea.Cmd {
	m.statusMsg = ""
	m.saving = false
	m.fb.baseURL = m.cfg.Backend.BaseURL
	m.fb.sessionCookie = m.cfg.Backend.SessionCookie
	m.fb.timeoutSec = strconv.Itoa(m.cfg.Backend.TimeoutSec)
	m.fb.refreshSec = strconv.Itoa(m.cfg.Display.RefreshIntervalSec)
	m.fb.themeName = m.cfg.Display.Theme
	m.fb.aiModel = m.cfg.AI.Model
	m.fb.maxTokens = strconv.Itoa(m.cfg.AI.MaxTokens)

	// Never pre-fill credentials.
	m.fb.sessionToken = ""
	m.fb.apiKey = ""

	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the settings view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if res, ok := msg.(saveResultMsg); ok {
		return m.handleSaveResult(res)
	}
	if m.form == nil || m.saving {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.saving = true
		return m, m.saveCmd()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return DoneMsg{} }
	}

	return m, cmd
}

// handleSaveResult reopens the form with an error status when the save
// failed, and announces success otherwise.
func (m Model) handleSaveResult(res saveResultMsg) (Model, tea.Cmd) {
	m.saving = false

	if res.err != nil {
		m.statusMsg = fmt.Sprintf("Error saving settings: %v", res.err)
		m.form = m.buildForm()
		return m, m.form.Init()
	}

	m.cfg = res.cfg
	return m, func() tea.Msg { return SavedMsg{} }
}

// saveCmd returns a command that applies the form values to a copy of
// the configuration, stores any entered credentials in the keyring, and
// writes the file.
func (m Model) saveCmd() tea.Cmd {
	fb := *m.fb
	cur := *m.cfg
	path := m.cfgPath

	return func() tea.Msg {
		cfg, err := applyBindings(cur, fb)
		if err != nil {
			return saveResultMsg{err: err}
		}

		if token := strings.TrimSpace(fb.sessionToken); token != "" {
			if err := credential.Set(credential.KeySessionToken, token); err != nil {
				return saveResultMsg{err: fmt.Errorf("storing session token: %w", err)}
			}
		}
		if key := strings.TrimSpace(fb.apiKey); key != "" {
			if err := credential.Set(credential.KeyClaudeAPIKey, key); err != nil {
				return saveResultMsg{err: fmt.Errorf("storing API key: %w", err)}
			}
		}

		if err := model.SaveConfig(path, &cfg); err != nil {
			return saveResultMsg{err: err}
		}
		return saveResultMsg{cfg: &cfg}
	}
}

// applyBindings maps the string form values onto a configuration copy.
func applyBindings(cfg model.AppConfig, fb formBindings) (model.AppConfig, error) {
	cfg.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(fb.baseURL), "/")
	cfg.Backend.SessionCookie = strings.TrimSpace(fb.sessionCookie)
	cfg.AI.Model = strings.TrimSpace(fb.aiModel)

	cfg.Display.Theme = strings.TrimSpace(fb.themeName)
	if cfg.Display.Theme == "" {
		cfg.Display.Theme = "default"
	}

	timeout, err := strconv.Atoi(strings.TrimSpace(fb.timeoutSec))
	if err != nil {
		return cfg, fmt.Errorf("timeout must be a number: %w", err)
	}
	cfg.Backend.TimeoutSec = timeout

	refresh, err := strconv.Atoi(strings.TrimSpace(fb.refreshSec))
	if err != nil {
		return cfg, fmt.Errorf("refresh interval must be a number: %w", err)
	}
	cfg.Display.RefreshIntervalSec = refresh

	maxTokens, err := strconv.Atoi(strings.TrimSpace(fb.maxTokens))
	if err != nil {
		return cfg, fmt.Errorf("max tokens must be a number: %w", err)
	}
	cfg.AI.MaxTokens = maxTokens

	return cfg, nil
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Backend URL").
				Description("Root URL of the mail backend").
				Placeholder("http://localhost:8080").
				Value(&m.fb.baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Session Cookie").
				Description("Cookie name carrying the session token").
				Value(&m.fb.sessionCookie).
				Validate(validateRequired("Session cookie")),
			huh.NewInput().
				Title("Request Timeout (seconds)").
				Value(&m.fb.timeoutSec).
				Validate(validateNumber("Timeout")),
			huh.NewInput().
				Title("Refresh Interval (seconds)").
				Description("How often the inbox refreshes; 0 disables auto-refresh").
				Value(&m.fb.refreshSec).
				Validate(validateNumber("Refresh interval")),
			huh.NewInput().
				Title("Theme").
				Placeholder("default").
				Value(&m.fb.themeName),
			huh.NewInput().
				Title("AI Model").
				Description("Model used for drafting replies").
				Value(&m.fb.aiModel),
			huh.NewInput().
				Title("AI Max Tokens").
				Value(&m.fb.maxTokens).
				Validate(validateNumber("Max tokens")),
			huh.NewInput().
				Title("Session Token").
				Description("Stored in the system keyring; leave empty to keep the current one").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.sessionToken),
			huh.NewInput().
				Title("Anthropic API Key").
				Description("Stored in the system keyring; leave empty to keep the current one").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.apiKey),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

// View renders the settings form.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Settings"))
	b.WriteString("\n\n")

	if m.statusMsg != "" {
		statusStyle := lipgloss.NewStyle().
			Foreground(theme.ColorYellow).
			Italic(true)
		b.WriteString(statusStyle.Render(m.statusMsg))
		b.WriteString("\n\n")
	}

	switch {
	case m.saving:
		b.WriteString("Saving...")
	case m.form != nil:
		b.WriteString(m.form.View())
	}

	b.WriteString("\n\n")
	hintStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	b.WriteString(hintStyle.Render("changes apply on next launch | esc cancel"))

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(b.String())
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 8
	if h < 12 {
		h = 12
	}
	return h
}

// --- Validators ---

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., https://mail.example.com)")
	}
	return nil
}

func validateNumber(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		for _, c := range strings.TrimSpace(s) {
			if c < '0' || c > '9' {
				return fmt.Errorf("%s must be a number", fieldName)
			}
		}
		return nil
	}
}

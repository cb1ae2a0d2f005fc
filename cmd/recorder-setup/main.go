package main

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"recorder-server/entities"
	httpHandler "recorder-server/handlers/http"
)

const defaultServerURL = "http://localhost:3536"

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

type step int

const (
	stepEnteringServer step = iota
	stepEnteringHandle
	stepEnteringDescription
	stepEnteringLocation
	stepEnteringIPAddress
	stepEnteringSettings
	stepConfirming
	stepRegistering
	stepComplete
)

type model struct {
	step         step
	serverURL    string
	handle       string
	description  string
	location     string
	ipAddress    string
	settings     string
	currentInput string
	message      string
	device       *entities.Device
	quitting     bool
	client       *http.Client
}

type registeredMsg struct{ device entities.Device }
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func initialModel() model {
	serverURL := os.Getenv("RECORDER_URL")
	if serverURL == "" {
		serverURL = defaultServerURL
	}
	return model{
		step:      stepEnteringServer,
		serverURL: serverURL,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

// registerDevice posts the collected form to POST /devices.
func registerDevice(client *http.Client, serverURL string, form url.Values) tea.Cmd {
	return func() tea.Msg {
		resp, err := client.PostForm(strings.TrimRight(serverURL, "/")+"/devices", form)
		if err != nil {
			return errMsg{fmt.Errorf("server not reachable: %w", err)}
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			var body struct {
				Message string `json:"message"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Message == "" {
				return errMsg{fmt.Errorf("server returned %d", resp.StatusCode)}
			}
			return errMsg{fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Message)}
		}

		var device entities.Device
		if err := json.NewDecoder(resp.Body).Decode(&device); err != nil {
			return errMsg{fmt.Errorf("unreadable response: %w", err)}
		}
		return registeredMsg{device: device}
	}
}

func (m model) form() url.Values {
	form := url.Values{"handle": {m.handle}}
	if m.description != "" {
		form.Set("description", m.description)
	}
	if m.location != "" {
		form.Set("location", m.location)
	}
	if m.ipAddress != "" {
		form.Set("ipAddress", m.ipAddress)
	}
	if m.settings != "" {
		form.Set("settings", m.settings)
	}
	return form
}

// submit validates the current input and moves to the next step.
func (m model) submit() (model, tea.Cmd) {
	input := strings.TrimSpace(m.currentInput)
	m.message = ""

	switch m.step {
	case stepEnteringServer:
		if input == "" {
			input = m.serverURL
		}
		u, err := url.Parse(input)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			m.message = errorStyle.Render("✗ server must be an http(s) URL")
			return m, nil
		}
		m.serverURL = input
		m.step = stepEnteringHandle

	case stepEnteringHandle:
		if err := httpHandler.ValidateHandle(m.currentInput); err != nil {
			m.message = errorStyle.Render("✗ " + err.Error())
			return m, nil
		}
		m.handle = m.currentInput
		m.step = stepEnteringDescription

	case stepEnteringDescription:
		m.description = input
		m.step = stepEnteringLocation

	case stepEnteringLocation:
		m.location = input
		m.step = stepEnteringIPAddress

	case stepEnteringIPAddress:
		if input != "" && net.ParseIP(input) == nil {
			m.message = errorStyle.Render("✗ not an IP address")
			return m, nil
		}
		m.ipAddress = input
		m.step = stepEnteringSettings

	case stepEnteringSettings:
		if input != "" {
			if _, err := httpHandler.ParseJSONObject(input, "settings"); err != nil {
				m.message = errorStyle.Render("✗ " + err.Error())
				return m, nil
			}
		}
		m.settings = input
		m.step = stepConfirming

	case stepConfirming:
		m.step = stepRegistering
		m.message = "Registering device..."
		return m, registerDevice(m.client, m.serverURL, m.form())

	case stepComplete:
		m.quitting = true
		return m, tea.Quit
	}

	m.currentInput = ""
	return m, nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit

		case tea.KeyBackspace:
			if len(m.currentInput) > 0 {
				r := []rune(m.currentInput)
				m.currentInput = string(r[:len(r)-1])
			}

		case tea.KeyEnter:
			if m.step == stepRegistering {
				return m, nil
			}
			return m.submit()

		case tea.KeyRunes, tea.KeySpace:
			if m.step < stepConfirming {
				m.currentInput += string(msg.Runes)
				if msg.Type == tea.KeySpace && len(msg.Runes) == 0 {
					m.currentInput += " "
				}
			}
		}

	case registeredMsg:
		m.device = &msg.device
		m.step = stepComplete
		m.message = successStyle.Render("✓ Device registered")

	case errMsg:
		m.message = errorStyle.Render("✗ " + msg.err.Error())
		m.step = stepConfirming
	}

	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("Recorder Device Setup") + "\n\n")

	prompt := func(label, hint string) {
		s.WriteString(promptStyle.Render(label) + "\n")
		if hint != "" {
			s.WriteString(hintStyle.Render(hint) + "\n")
		}
		s.WriteString(inputStyle.Render("> "+m.currentInput) + "\n\n")
	}

	switch m.step {
	case stepEnteringServer:
		prompt("Server URL:", "empty keeps "+m.serverURL)
	case stepEnteringHandle:
		prompt("Device handle:", "required, at most 50 characters")
	case stepEnteringDescription:
		prompt("Description:", "optional")
	case stepEnteringLocation:
		prompt("Location:", "optional")
	case stepEnteringIPAddress:
		prompt("IP address:", "optional")
	case stepEnteringSettings:
		prompt("Initial settings:", `optional JSON object, e.g. {"gain":3}`)

	case stepConfirming:
		fmt.Fprintf(&s, "Server:      %s\n", m.serverURL)
		fmt.Fprintf(&s, "Handle:      %s\n", m.handle)
		fmt.Fprintf(&s, "Description: %s\n", m.description)
		fmt.Fprintf(&s, "Location:    %s\n", m.location)
		fmt.Fprintf(&s, "IP address:  %s\n", m.ipAddress)
		fmt.Fprintf(&s, "Settings:    %s\n\n", m.settings)
		s.WriteString("Press Enter to register, Esc to abort\n\n")

	case stepRegistering:
		s.WriteString(m.message + "\n")
		return s.String()

	case stepComplete:
		s.WriteString(m.message + "\n\n")
		fmt.Fprintf(&s, "Device id: %s\n", m.device.DeviceID)
		if m.device.Settings != nil {
			fmt.Fprintf(&s, "Settings:  %s\n", m.device.Settings.SettingsID)
		}
		s.WriteString("\nPress Enter to exit\n")
		return s.String()
	}

	if m.message != "" {
		s.WriteString(m.message + "\n")
	}
	return s.String()
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"

	"github.com/virtual-classroom/tui/internal/app"
	"github.com/virtual-classroom/tui/internal/classroom"
	"github.com/virtual-classroom/tui/internal/client"
	"github.com/virtual-classroom/tui/internal/config"
)

func main() {
	var (
		serverURL  string
		configPath string
	)
	flag.StringVarP(&serverURL, "url", "u", "", "classroom server WebSocket URL (overrides config)")
	flag.StringVarP(&configPath, "config", "c", "classroom.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config %s: %v\n", configPath, err)
		os.Exit(1)
	}
	if serverURL != "" {
		cfg.Server.URL = serverURL
	}

	socket := client.NewSocketClient(cfg.Server.URL, client.ReconnectPolicy{
		MaxAttempts: cfg.Reconnect.MaxAttempts,
		BaseDelay:   cfg.Reconnect.BaseDelay,
		MaxDelay:    cfg.Reconnect.MaxDelay,
	})
	httpClient := client.NewHTTPClient(deriveHTTPBase(cfg.Server.URL))
	machine := classroom.NewMachine(classroom.SettleDelays{
		EndedNotice: cfg.Settle.EndedNotice,
		Redirect:    cfg.Settle.Redirect,
	})

	p := tea.NewProgram(app.New(socket, httpClient, machine), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// deriveHTTPBase converts the WebSocket endpoint into the REST base URL on
// the same host, e.g. ws://host:8080/ws into http://host:8080.
func deriveHTTPBase(wsURL string) string {
	u, err := url.Parse(wsURL)
	if err != nil {
		return "http://127.0.0.1:8080"
	}
	scheme := "http"
	if strings.HasPrefix(u.Scheme, "wss") {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s", scheme, u.Host)
}

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"

	"github.com/spf13/cobra"
)

type healthResponse struct {
	Status     string                     `json:"status"`
	Uptime     string                     `json:"uptime"`
	Components map[string]componentState `json:"components"`
}

type componentState struct {
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show health of a running daemon",
	Long:  `Query the daemon's health endpoint and print per-component status.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("config not loaded")
		}

		url := fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port)
		client := &http.Client{Timeout: 5 * time.Second}

		resp, err := client.Get(url)
		if err != nil {
			return fmt.Errorf("daemon not reachable at %s: %w", url, err)
		}
		defer resp.Body.Close()

		var health healthResponse
		if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
			return fmt.Errorf("decode health response: %w", err)
		}

		fmt.Printf("Daemon: %s (up %s)\n\n", health.Status, health.Uptime)
		fmt.Println(renderStatusTable(health.Components))
		return nil
	},
}

func renderStatusTable(components map[string]componentState) string {
	purple := lipgloss.Color("99")
	gray := lipgloss.Color("245")
	red := lipgloss.Color("203")

	headerStyle := lipgloss.NewStyle().Foreground(purple).Bold(true).Align(lipgloss.Center).Padding(0, 1)
	okStyle := lipgloss.NewStyle().Foreground(gray).Padding(0, 1)
	badStyle := lipgloss.NewStyle().Foreground(red).Padding(0, 1)

	names := make([]string, 0, len(components))
	for name := range components {
		names = append(names, name)
	}
	sort.Strings(names)

	healthy := make(map[int]bool, len(names))

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(purple)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if healthy[row] {
				return okStyle
			}
			return badStyle
		}).
		Headers("Component", "Healthy", "Error")

	for i, name := range names {
		state := components[name]
		healthy[i] = state.Healthy
		t.Row(name, fmt.Sprintf("%t", state.Healthy), state.Error)
	}

	return t.String()
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

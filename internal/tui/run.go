package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/phiguard/phiguard/internal/types"
)

// Run starts the interactive finding browser.
func Run(root string, findings []types.Finding, rescan func() ([]types.Finding, error), accept func(types.Finding) error) error {
	m := NewModel(root, findings, rescan, accept)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

type inspectDoneMsg struct {
	result *Inspection
}

type inspectErrorMsg struct {
	word string
	err  error
}

// inspectCommand runs an inspection off the update loop
func inspectCommand(ctx context.Context, in *Inspector, word string) tea.Cmd {
	return func() tea.Msg {
		result, err := in.Inspect(ctx, word)
		if err != nil {
			return inspectErrorMsg{word: word, err: err}
		}
		return inspectDoneMsg{result: result}
	}
}

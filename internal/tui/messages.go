// Package tui provides Bubble Tea models for the interactive TUI.
package tui

import "github.com/robby/leadgen/internal/domain"

// NavigateMsg is emitted when the user picks a sidebar entry.
type NavigateMsg struct {
	Screen AppScreen
}

// StatusSelectedMsg is emitted when the user picks a status in a
// StatusPickerModel. Purpose tells the owning screen what the pick is for.
type StatusSelectedMsg struct {
	Status  string
	Purpose PickPurpose
}

// ErrorMsg is emitted when an error occurs.
type ErrorMsg struct {
	Err error
}

// QuitMsg is emitted when the user requests to quit.
type QuitMsg struct{}

// Screen transitions and cross-screen updates.
type (
	openDetailMsg    struct{ lead domain.Lead }
	closeDetailMsg   struct{}
	leadUpdatedMsg   struct{ lead domain.Lead }
	leadRemovedMsg   struct{ id int }
	pickerClosedMsg  struct{}
	sidebarClosedMsg struct{}
	statusToastMsg   struct{ text string }
	openURLFailedMsg struct{ err error }
)

package utils

import (
	"fmt"
	"math"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// MessageType is a custom type used as a placeholder for various message types.
type MessageType int

// The message types used accross the CLI application.
const (
	DefaultMessage MessageType = iota
	SuccessMessage
	ErrorMessage
	StatusMessage
)

var messageStyles = map[MessageType]lipgloss.Style{
	DefaultMessage: lipgloss.NewStyle(),
	SuccessMessage: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	ErrorMessage:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	StatusMessage:  lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
}

// DecorateText shows the message types in different colors.
// Colors are dropped automatically when the output is not a terminal.
func DecorateText(s string, msgType MessageType) string {
	style, ok := messageStyles[msgType]
	if !ok {
		return s
	}
	return style.Render(s)
}

// FormatTime formats time.Duration output to a human readable value.
func FormatTime(d time.Duration) string {
	if d.Seconds() < 60.0 {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	seconds := math.Mod(d.Seconds(), 60)
	if d.Minutes() < 60.0 {
		return fmt.Sprintf("%dm %.2fs", int64(d.Minutes()), seconds)
	}
	minutes := int64(math.Mod(d.Minutes(), 60))
	if d.Hours() < 24.0 {
		return fmt.Sprintf("%dh %dm %.2fs", int64(d.Hours()), minutes, seconds)
	}
	hours := int64(math.Mod(d.Hours(), 24))
	return fmt.Sprintf("%dd %dh %dm %.2fs", int64(d.Hours()/24), hours, minutes, seconds)
}

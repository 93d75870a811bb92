package logger

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// IsTerminal checks if stderr is a terminal
func IsTerminal() bool {
	return isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
}

// ShouldUseColors honours NO_COLOR, FORCE_COLOR and PROMPTCRAFT_FORCE_COLORS before
// falling back to TTY detection.
func ShouldUseColors() bool {
	if noColor := os.Getenv("NO_COLOR"); noColor != "" {
		return false
	}

	if forceColor := os.Getenv("FORCE_COLOR"); forceColor != "" {
		return forceColor != "0"
	}

	if forced := os.Getenv("PROMPTCRAFT_FORCE_COLORS"); forced != "" {
		return strings.ToLower(forced) == "true"
	}

	return IsTerminal()
}

package commands

// CLI-specific constants
const (
	// DefaultEditorCommand is the default editor command
	DefaultEditorCommand = "vi"
	envKeyEditor         = "EDITOR"
)

// Command annotations read by the root pre-run hook.
const (
	// AnnotationSkipContainer marks commands that never touch config or backends.
	AnnotationSkipContainer = "promptcraft/skip-container"
	// AnnotationLenientConfig marks commands that must run even when the config is invalid.
	AnnotationLenientConfig = "promptcraft/lenient-config"
)

// Error messages
const (
	ErrConfigLoaderUnavailable  = "config loader unavailable"
	ErrDoctorServiceUnavailable = "doctor service unavailable"
	ErrCrafterUnavailable       = "prompt service unavailable"
	ErrKeyRequired              = "--key is required"
	ErrHistoryDisabled          = "history is disabled (history.enabled: false)"
)

// Success messages
const (
	MsgConfigurationValid       = "Configuration valid"
	MsgNoDifferencesFromDefault = "No differences from default configuration."
	MsgNoHistoryRecorded        = "No history recorded yet."
	MsgHistoryCleared           = "History cleared."
	MsgClearCancelled           = "Clear cancelled."
)

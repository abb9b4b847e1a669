package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (E120-E129)
	// ============================================

	"E120": {
		Category: CategoryConfig,
		Message:  "Failed to read pagegen configuration",
		Detail:   "The pagegen configuration file exists but could not be read or parsed.",
	},
	"E121": {
		Category:   CategoryConfig,
		Message:    "Unknown underscore exclusion policy",
		Detail:     "excludePolicy must be one of: none, segment, filename.",
		Suggestion: "Set excludePolicy to \"segment\" or \"filename\"",
	},
	"E122": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},

	// ============================================
	// CLI Errors (E140-E149)
	// ============================================

	"E140": {
		Category: CategoryCLI,
		Message:  "Working directory not found",
		Detail:   "The directory passed with --cwd does not exist.",
	},
	"E141": {
		Category: CategoryCLI,
		Message:  "Failed to start the metrics and events server",
	},

	// ============================================
	// Pipeline Errors (E200-E209)
	// ============================================

	"E201": {
		Category:   CategoryDiscovery,
		Message:    "Pages directory not found or unreadable",
		Detail:     "The scanner could not walk the configured pages directory. No files were written.",
		Suggestion: "Check the dir option and the --cwd flag",
	},
	"E202": {
		Category:   CategoryIO,
		Message:    "Failed to read app config document",
		Detail:     "The application configuration document could not be read. No files were written.",
		Suggestion: "Create the document or point appConfigName at it",
	},
	"E203": {
		Category: CategoryIO,
		Message:  "Failed to write app config document",
	},
	"E204": {
		Category: CategoryIO,
		Message:  "Failed to write generated pages module",
		Detail:   "The app config document may already have been updated; it is not rolled back.",
	},
	"E205": {
		Category: CategoryCLI,
		Message:  "Generation canceled",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

package errors

// Registered error codes.
const (
	CodeEmptyRouteTable    = "N001"
	CodeMalformedPattern   = "N002"
	CodeHistoryUnavailable = "N003"
	CodeInvalidBase        = "N004"
	CodeConfigFile         = "N005"
	CodeInvalidAssets      = "N006"

	CodeEmptyPath      = "N020"
	CodeMalformedPath  = "N021"
	CodeCannotTraverse = "N022"
	CodeHistoryWrite   = "N023"
)

// Template defines a registered error type.
type Template struct {
	Kind       Kind
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// ============================================
	// Configuration Errors (N001-N019)
	// ============================================

	CodeEmptyRouteTable: {
		Kind:       KindConfiguration,
		Message:    "Route table is empty",
		Suggestion: `Register at least one route, e.g. reg.Register("/", "Home", "home")`,
	},
	CodeMalformedPattern: {
		Kind:       KindConfiguration,
		Message:    "Malformed route pattern",
		Suggestion: `Patterns start with "/" and contain only literal, ":name" or trailing "*" segments`,
	},
	CodeHistoryUnavailable: {
		Kind:       KindConfiguration,
		Message:    "History mechanism unavailable",
		Suggestion: "History mode needs a navigable session history; pass a history adapter",
	},
	CodeInvalidBase: {
		Kind:       KindConfiguration,
		Message:    "Invalid base path",
		Suggestion: `Use "" for the domain root or a path such as "/app"`,
	},
	CodeConfigFile: {
		Kind:       KindConfiguration,
		Message:    "Invalid configuration file",
		Suggestion: "Check webnav.json or webnav.toml for syntax errors",
	},
	CodeInvalidAssets: {
		Kind:       KindConfiguration,
		Message:    "Invalid asset source",
		Suggestion: "Set either static.dir or s3.bucket",
	},

	// ============================================
	// Navigation Errors (N020-N039)
	// ============================================

	CodeEmptyPath: {
		Kind:    KindNavigationArgument,
		Message: "Navigation path is empty",
	},
	CodeMalformedPath: {
		Kind:       KindNavigationArgument,
		Message:    "Malformed navigation path",
		Suggestion: `Navigation paths are relative to the base and start with "/"`,
	},
	CodeCannotTraverse: {
		Kind:    KindRuntime,
		Message: "History adapter cannot traverse",
	},
	CodeHistoryWrite: {
		Kind:    KindRuntime,
		Message: "History update failed",
	},
}

// Lookup returns the template for a code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Codes returns all registered error codes.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

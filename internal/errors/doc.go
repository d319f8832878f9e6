// Package errors provides structured, actionable errors for webnav.
//
// Every error carries a registered code (e.g., "N001") that maps to:
//   - a kind (configuration, navigation, runtime)
//   - a short message
//   - a longer explanation
//
// Kinds double as sentinels so callers can branch with the standard library:
//
//	r, err := router.New(reg, hist)
//	if errors.Is(err, weberrors.ErrConfiguration) {
//	    // the application cannot start
//	}
//
// # Usage
//
//	err := errors.New(errors.CodeMalformedPattern).
//	    WithDetail(`route "/a//b" contains an empty segment`).
//	    WithSuggestion("Remove the duplicate slash")
//
//	fmt.Fprint(os.Stderr, err.Format())
package errors

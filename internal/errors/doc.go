// Package errors provides coded, actionable errors for configuration and
// startup failures.
//
// Every error has a code (e.g., "E101") that maps to a short message and
// an explanation. Builders add a location in the configuration file, a
// suggestion and an example:
//
//	err := errors.New("E103").
//	    WithDetail(`PORT="http" is not a number.`).
//	    WithSuggestion("Set PORT to an integer such as 4000")
//
//	errors.PrintError(err)
//	// ERROR E103: Invalid port
//	//
//	//   PORT="http" is not a number.
//	//
//	//   Hint: Set PORT to an integer such as 4000
//
// # Categories
//
//   - config: ssrkit.yaml and environment problems
//   - assets: missing or incomplete bundle manifests
//   - server: listener failures
//   - runtime: render and store misuse
//   - cli: invalid command line input
package errors

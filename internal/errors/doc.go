// Package errors provides structured, actionable error messages for pagegen.
//
// Every failure that reaches the invocation boundary is a *GenError carrying:
//   - a registered code (e.g. "E201") with a short message
//   - the pipeline stage that failed (scan, read-config, write-module, ...)
//   - the file or directory involved, when there is one
//   - a hint on how to fix the problem
//
// # Error Codes
//
//	E120-E129  configuration (unreadable or invalid pagegen config)
//	E140-E149  CLI usage
//	E200-E209  pipeline (discovery, config document read/write, output write)
//
// # Usage
//
//	err := errors.New(errors.CodeDiscovery).
//	    WithStage("scan").
//	    WithPath("src/pages").
//	    WithSuggestion("Check the dir option")
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR E201: Pages directory not found
//	//
//	//   stage: scan
//	//   path:  src/pages
//	//
//	//   Hint: Check the dir option
package errors

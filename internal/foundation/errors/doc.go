// Package errors provides the classified error type used across easearch.
//
// Every failure that ends a run is a ClassifiedError carrying a category
// (config, encoding, filesystem, ...), a severity and structured context.
// The CLI adapter turns the category into a process exit code.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryEncoding, "page is not valid text").
//		Fatal().
//		WithFile("EARoot/EA1/EA42.htm").
//		WithContext("encoding", "windows-1252").
//		Build()
package errors

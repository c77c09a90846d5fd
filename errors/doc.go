// Package errors provides the application-level error type used when a
// transport-successful response carries an error payload, and for
// configuration validation failures.
package errors

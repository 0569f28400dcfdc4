// Package sanitizer normalizes user-entered catalog text before validation.
//
// Every function is idempotent and never fails: input that normalizes to
// nothing becomes an empty string or is dropped from a slice.
package sanitizer

// Package testutil provides internal test fixtures: a fluent registry
// builder and canned tool implementations with deterministic behavior.
// It is imported only from _test.go files.
package testutil

// Package pipeline implements the project's development pipeline: a fixed
// set of named targets whose commands run through an embedded POSIX shell.
// Execution is strictly sequential and stops at the first failure; there is
// no dependency resolution beyond running a target's listed dependencies
// first, each at most once per invocation.
package pipeline

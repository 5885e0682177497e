// Package testutil provides test-only infrastructure for evslot model and
// fuzz testing.
//
// It includes a deterministic byte stream and an operation generator that
// turns fuzz input into writer and reader calls.
package testutil

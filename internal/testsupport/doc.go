// Package testsupport provides shared builders for tests: temp-dir configs,
// store setup, and master record seed data.
package testsupport

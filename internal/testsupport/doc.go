// Package testsupport holds helpers shared by package tests: an isolated
// configuration, stub binaries on PATH, sized file writers and a history
// store bound to the test's temp directory.
package testsupport

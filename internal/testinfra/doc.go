// Package testinfra starts throwaway infrastructure for integration tests.
//
// Tests that need Docker call SkipIfNoDocker (directly or through a
// Start helper) so the suite still passes on machines without it.
package testinfra

// Package trestle exposes build-level metadata shared by the CLI and
// any embedding program.
package trestle

// Version is the semantic version reported by the version command.
const Version = "0.1.0"

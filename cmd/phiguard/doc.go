// Package phiguard provides the command-line interface for the phiguard
// tool. It configures subcommands (scan, patterns, baseline, review, etc.),
// parses flags, and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/phiguard/phiguard/cmd/phiguard"
//	func main() { phiguard.Execute() }
package phiguard

// Package main hosts the subinspector CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration and logging once, then hands
// off to the audit and inspector packages: check audits whole files for
// invisible and duplicate lines, bounds prints rectangles for chosen times,
// and config scaffolds or prints the TOML configuration.
package main

//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Pipeline groups targets that drive the CLI against the configured feed.
type Pipeline mg.Namespace

// Ingest loads the feed and stores publications plus dataset-wide insights.
func (Pipeline) Ingest() error {
	mg.Deps(Build, Init)
	return sh.RunV(binPath, "store", "ingest", "--insights")
}

// Enrich sends unenriched stored publications to Claude.
func (Pipeline) Enrich() error {
	mg.Deps(Pipeline.Ingest)
	return sh.RunV(binPath, "enrich")
}

// Export writes data/export.yaml from the store.
func (Pipeline) Export() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "store", "export", "--format", "yaml")
}

// Serve starts the HTTP API on the configured address.
func (Pipeline) Serve() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "serve")
}

// Insights prints insights of every type for the full dataset.
func (Pipeline) Insights() error {
	mg.Deps(Build)
	return sh.RunV(binPath, "insights")
}

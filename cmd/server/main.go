// Package main implements the entry point for the AltScribe API server,
// which drafts image alt text for CMS collection items with an LLM and
// writes reviewed text back to the CMS.
package main

import (
	"context"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
)

const version = "0.1.0"

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/soyeahso/annobot/internal/cli"
	"github.com/tillberg/autorestart"
)

func main() {
	// Re-exec when the binary is rebuilt during development.
	if os.Getenv("ANNOBOT_DEV") == "1" {
		go autorestart.RestartOnChange()
	}

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "annobot:", err)
		os.Exit(1)
	}
}

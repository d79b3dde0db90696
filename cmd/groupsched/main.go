package main

import (
	"os"

	"groupsched/internal/cli"
	appLog "groupsched/internal/log"
)

func main() {
	if err := cli.Execute(); err != nil {
		appLog.Error("command failed", err)
		os.Exit(1)
	}
}

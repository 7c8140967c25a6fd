package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/sirupsen/logrus"
)

var CLI struct {
	LogLevel string `help:"Log level." default:"warn" env:"LOG_LEVEL"`

	Status    StatusCmd    `cmd:"" help:"Show a user's journey progress, today's stats and streak."`
	Unlocked  UnlockedCmd  `cmd:"" help:"Report whether a journey day is unlocked for a user."`
	Calendar  CalendarCmd  `cmd:"" help:"Print a user's completed and missed days."`
	Log       LogCmd       `cmd:"" help:"Log an activity for a user through the pipeline."`
	Reset     ResetCmd     `cmd:"" help:"Run the daily reset for a user."`
	Reminders RemindersCmd `cmd:"" help:"List a user's pending reminders."`
	CheckDue  CheckDueCmd  `cmd:"" name:"check-due" help:"Deliver due reminders once and exit."`
	Validate  ValidateCmd  `cmd:"" help:"Validate a pipeline configuration file without touching Redis."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("journeyctl"),
		kong.Description("Inspect and maintain journey engine state in Redis"),
		kong.UsageOnError(),
	)

	if level, err := logrus.ParseLevel(CLI.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	if err := ctx.Run(&Context{Out: os.Stdout}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/agilira/orpheus/pkg/orpheus"
)

const version = "0.3.0"

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(),
	})))

	if err := newApp().Run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// logLevel is debug when WBS_DEBUG is set, info otherwise.
func logLevel() slog.Level {
	if os.Getenv("WBS_DEBUG") != "" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func newApp() *orpheus.App {
	app := orpheus.New("wbs").
		SetDescription("Run declarative build steps").
		SetVersion(version)

	buildCmd := orpheus.NewCommand("build", "Run the build steps of a build file").
		SetHandler(buildCommand).
		AddFlag("file", "f", defaultBuildFile, "Build file").
		AddFlag("targets", "t", "", "Comma-separated targets to run instead of steps").
		AddFlag("workdir", "C", "", "Working directory (absolute path)").
		AddBoolFlag("env", "e", false, "Merge process environment into build vars")

	validateCmd := orpheus.NewCommand("validate", "Check a build file without running it").
		SetHandler(validateCommand).
		AddFlag("file", "f", defaultBuildFile, "Build file")

	listCmd := orpheus.NewCommand("list", "List tools and build variables").
		SetHandler(listCommand).
		AddFlag("file", "f", defaultBuildFile, "Build file").
		AddFlag("format", "o", "table", "Output format: table, json, yaml").
		AddBoolFlag("env", "e", false, "Merge process environment into build vars")

	app.AddCommand(buildCmd)
	app.AddCommand(validateCmd)
	app.AddCommand(listCmd)
	return app
}

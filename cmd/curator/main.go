// Command curator runs the content ingestion and retrieval pipeline.
//
// Usage:
//
//	curator serve --config curator.yaml
//	curator ingest --user alice --source-type generic-notes --source-name notes --file note.txt
//	curator query --user alice "what did we decide about the launch?"
package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/alecthomas/kong"

	"github.com/curator-ai/curator/pkg/config"
	"github.com/curator-ai/curator/pkg/logger"
)

// CLI defines the command-line interface.
type CLI struct {
	Version VersionCmd `cmd:"" help:"Show version information."`
	Serve   ServeCmd   `cmd:"" help:"Start the HTTP API server."`
	Ingest  IngestCmd  `cmd:"" help:"Ingest one content item from a file or stdin."`
	Process ProcessCmd `cmd:"" help:"Process a stored document into sections."`
	Query   QueryCmd   `cmd:"" help:"Search indexed sections."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)."`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (text, json)."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("curator version %s\n", version)
	return nil
}

// loadConfig loads the config file, or defaults when none is given, applying
// CLI logging overrides.
func loadConfig(cli *CLI) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if cli.Config != "" {
		cfg, err = config.Load(cli.Config)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	if cli.LogLevel != "" {
		cfg.Logger.Level = cli.LogLevel
	}
	if cli.LogFile != "" {
		cfg.Logger.File = cli.LogFile
	}
	if cli.LogFormat != "" {
		cfg.Logger.Format = cli.LogFormat
	}
	return cfg, nil
}

func main() {
	_ = config.LoadEnvFiles()

	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("curator"),
		kong.Description("Curator - content ingestion and retrieval pipeline"),
		kong.UsageOnError(),
	)

	cfg, err := loadConfig(&cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	cleanup, err := logger.Init(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	err = ctx.Run(cfg)
	ctx.FatalIfErrorf(err)
}

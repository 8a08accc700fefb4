package cmd

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/issuebot/internal/bot"
	"github.com/issuebot/internal/chat"
	"github.com/issuebot/internal/config"
	"github.com/issuebot/internal/logging"
	"github.com/issuebot/internal/store"
	"github.com/issuebot/internal/tracker"
)

// RunCommand returns the CLI command for executing a single chat command
// from the terminal, useful for smoke-testing a deployment.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Execute one bot command and print the reply",
		ArgsUsage: "<command> [args...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "network",
				Usage: "Conversation network for context binding",
				Value: "cli",
			},
			&cli.StringFlag{
				Name:  "channel",
				Usage: "Conversation channel for context binding",
				Value: "cli",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("no command given")
			}

			_, dispatcher, err := buildDispatcher(c)
			if err != nil {
				return err
			}

			line := strings.Join(c.Args().Slice(), " ")
			reply := dispatcher.HandleLine(c.Context, chat.Context{
				Network: c.String("network"),
				Channel: c.String("channel"),
			}, line)

			if reply == "" {
				reply = "(no reply)"
			}
			fmt.Println(reply)
			return nil
		},
	}
}

// buildDispatcher wires config, logging, store, tracker client, engine, and
// dispatcher for the serve and run commands.
func buildDispatcher(c *cli.Context) (*config.Config, *chat.Dispatcher, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logging.Setup(cfg.Logging.Level)

	var contexts store.ContextStore
	switch cfg.Store.Driver {
	case "postgres":
		pg, err := store.NewPostgresStore()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open context store: %w", err)
		}
		contexts = pg
	default:
		contexts = store.NewMemoryStore()
	}

	client := tracker.NewJiraClient(cfg.Tracker.URL, cfg.Tracker.Username, cfg.Tracker.Token)
	engine := bot.NewEngine(client, contexts)

	// The CLI feeds commands directly, so no chat prefix is required there.
	prefix := cfg.Server.Prefix
	if c.Command.Name == "run" {
		prefix = ""
	}

	return cfg, chat.NewDispatcher(engine, prefix), nil
}

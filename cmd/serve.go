package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/issuebot/internal/api"
)

// ServeCommand returns the CLI command for starting the webhook server
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the issuebot webhook server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the webhook server (overrides config)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, dispatcher, err := buildDispatcher(c)
			if err != nil {
				return err
			}

			port := cfg.Server.Port
			if c.Int("port") != 0 {
				port = c.Int("port")
			}

			fmt.Printf("Starting issuebot webhook server on port %d...\n", port)
			server := api.NewServer(port, dispatcher)
			return server.Start()
		},
	}
}

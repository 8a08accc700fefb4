package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/issuebot/internal/bot"
)

// Dispatcher routes parsed commands to the engine and returns the reply
// text. It is safe for concurrent use; per-context ordering is provided by
// the engine's reference resolver, not here.
type Dispatcher struct {
	engine *bot.Engine
	prefix string
}

// NewDispatcher creates a dispatcher. prefix is the leading marker chat
// lines must carry to be treated as bot commands ("" accepts every line).
func NewDispatcher(engine *bot.Engine, prefix string) *Dispatcher {
	return &Dispatcher{engine: engine, prefix: prefix}
}

// HandleLine parses and executes one chat line. The empty string means the
// line was not addressed to the bot and no reply should be sent.
func (d *Dispatcher) HandleLine(ctx context.Context, c Context, text string) string {
	cmd, err := Parse(c, text, d.prefix)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			return perr.Reply
		}
		return err.Error()
	}
	if cmd == nil {
		return ""
	}
	return d.Execute(ctx, cmd)
}

// Execute runs a parsed command against the engine.
func (d *Dispatcher) Execute(ctx context.Context, cmd *Command) string {
	key := cmd.Context.Key()

	switch cmd.Name {
	case "assign":
		return d.engine.Assign(ctx, key, cmd.Args[0], cmd.Args[1])
	case "benefit":
		return d.engine.SetField(ctx, key, cmd.Args[0], "Benefit", cmd.Args[1])
	case "setfield":
		return d.engine.SetField(ctx, key, cmd.Args[0], cmd.Args[1], cmd.Args[2])
	case "target":
		return d.engine.Target(ctx, key, cmd.Args[0], strings.Fields(cmd.Args[1]))
	case "addversion":
		return d.engine.AddVersion(ctx, cmd.Args[0], cmd.Args[1])
	case "versions":
		return d.engine.ListVersions(ctx, cmd.Args[0])
	case "current":
		return d.engine.Current(ctx, key)
	case "wf":
		return d.engine.Workflow(ctx, key, cmd.Args[0], cmd.Args[1])
	case "issue":
		return d.engine.GetIssue(ctx, key, cmd.Args[0])
	default:
		return "Unknown command. Available: " + commandNames()
	}
}

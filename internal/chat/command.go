package chat

import (
	"fmt"
	"sort"
	"strings"
)

// Context identifies the conversation a command came from. It is only ever
// used as an opaque lookup key for the per-context issue binding.
type Context struct {
	Network string
	Channel string
}

// Key returns the composite store key for this context.
func (c Context) Key() string {
	return c.Network + "/" + c.Channel
}

// Command is one parsed chat command: a name plus positional arguments.
type Command struct {
	Name    string
	Args    []string
	Context Context
}

// spec describes a command's argument shape. Fixed arguments are single
// whitespace-free tokens; a command with rest=true joins everything after
// the fixed arguments into one final argument (or splits it downstream).
type spec struct {
	fixed int
	rest  bool
	usage string
}

var commands = map[string]spec{
	"assign":     {fixed: 2, usage: "assign <issue> <assignee>"},
	"benefit":    {fixed: 2, usage: "benefit <issue> [ Low | Medium | High ]"},
	"setfield":   {fixed: 2, rest: true, usage: "setfield <issue> <field> <value>"},
	"target":     {fixed: 1, rest: true, usage: "target <issue> <version> ..."},
	"addversion": {fixed: 2, usage: "addversion <project> <version>"},
	"versions":   {fixed: 1, usage: "versions <project>"},
	"current":    {usage: "current"},
	"wf":         {fixed: 1, rest: true, usage: "wf <issue> [ <transition> | list ]"},
	"issue":      {fixed: 1, usage: "issue <issue>"},
}

// ParseError carries a user-facing parse failure, typically a usage line.
type ParseError struct {
	Reply string
}

func (e *ParseError) Error() string {
	return e.Reply
}

// Parse turns one line of chat into a Command. The configured prefix (for
// example "!") must lead the line; text without it is not addressed to the
// bot and yields a nil command with no error.
func Parse(c Context, text, prefix string) (*Command, error) {
	text = strings.TrimSpace(text)
	if prefix != "" {
		if !strings.HasPrefix(text, prefix) {
			return nil, nil
		}
		text = strings.TrimPrefix(text, prefix)
	}

	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil, nil
	}

	name := strings.ToLower(tokens[0])
	sp, ok := commands[name]
	if !ok {
		return nil, &ParseError{Reply: "Unknown command. Available: " + commandNames()}
	}

	args := tokens[1:]
	if len(args) < sp.fixed || (len(args) == sp.fixed && sp.rest) {
		return nil, &ParseError{Reply: "Usage: " + sp.usage}
	}
	if !sp.rest && len(args) > sp.fixed {
		return nil, &ParseError{Reply: "Usage: " + sp.usage}
	}

	if sp.rest {
		joined := strings.Join(args[sp.fixed:], " ")
		args = append(args[:sp.fixed:sp.fixed], joined)
	}

	return &Command{Name: name, Args: args, Context: c}, nil
}

func commandNames() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// Usage returns the usage line for a command name, for help replies.
func Usage(name string) string {
	sp, ok := commands[strings.ToLower(name)]
	if !ok {
		return fmt.Sprintf("unknown command %q", name)
	}
	return sp.usage
}

package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// InteractiveCmd creates the interactive command
func InteractiveCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "interactive",
		Short: "Start an interactive session (load config and connect once, run many commands)",
		Long: `Start an interactive session where config, logging and the database connection
are set up once and reused by every command, for example to re-run schedule
with different seeds. Type 'help' for commands and 'exit' or 'quit' to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := newSession(cmd.Parent(), os.Stdout)
			return s.run(os.Stdin)
		},
	}
}

// session dispatches REPL lines to sibling commands without re-running the
// root's PersistentPreRunE
type session struct {
	commands map[string]*cobra.Command
	out      io.Writer
}

func newSession(root *cobra.Command, out io.Writer) *session {
	s := &session{commands: make(map[string]*cobra.Command), out: out}
	for _, sub := range root.Commands() {
		switch sub.Name() {
		case "interactive", "completion", "help":
		default:
			s.commands[sub.Name()] = sub
		}
	}
	return s
}

func (s *session) run(in io.Reader) error {
	fmt.Fprintln(s.out, "\n🚀 Starting interactive session...")
	fmt.Fprintln(s.out, "Type 'help' for available commands, 'exit' or 'quit' to leave")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			break
		}
		if s.handle(scanner.Text()) {
			fmt.Fprintln(s.out, "👋 Goodbye!")
			return nil
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading input: %w", err)
	}
	return nil
}

// handle runs one line and reports whether the session should end
func (s *session) handle(line string) bool {
	parts, err := splitArgs(line)
	if err != nil {
		fmt.Fprintf(s.out, "❌ Error parsing command: %v\n\n", err)
		return false
	}
	if len(parts) == 0 {
		return false
	}

	name, args := parts[0], parts[1:]
	switch name {
	case "exit", "quit":
		return true
	case "help":
		s.printHelp()
		return false
	}

	target, ok := s.commands[name]
	if !ok {
		fmt.Fprintf(s.out, "❌ Unknown command: %s (type 'help' for available commands)\n\n", name)
		return false
	}

	if err := execute(target, args); err != nil {
		fmt.Fprintf(s.out, "❌ Error: %v\n\n", err)
	}
	return false
}

// execute resets flags left over from the previous invocation, then calls
// the command's RunE directly
func execute(cmd *cobra.Command, args []string) error {
	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		flag.Value.Set(flag.DefValue)
		flag.Changed = false
	})

	if err := cmd.ParseFlags(args); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	positional := cmd.Flags().Args()

	if cmd.Args != nil {
		if err := cmd.Args(cmd, positional); err != nil {
			return err
		}
	}

	switch {
	case cmd.RunE != nil:
		return cmd.RunE(cmd, positional)
	case cmd.Run != nil:
		cmd.Run(cmd, positional)
	}
	return nil
}

func (s *session) printHelp() {
	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(s.out, "\nAvailable commands:")
	for _, name := range names {
		cmd := s.commands[name]
		fmt.Fprintf(s.out, "  %-30s %s\n", cmd.Use, cmd.Short)
	}
	fmt.Fprintf(s.out, "\n  %-30s %s\n", "help", "Show this help message")
	fmt.Fprintf(s.out, "  %-30s %s\n\n", "exit, quit", "Exit the interactive session")
}

// splitArgs splits a line on whitespace. Single or double quotes group words
// and are removed.
func splitArgs(line string) ([]string, error) {
	var args []string
	var current strings.Builder
	var quote rune
	inArg := false

	for _, r := range line {
		switch {
		case quote != 0 && r == quote:
			quote = 0
		case quote != 0:
			current.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case unicode.IsSpace(r):
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unclosed quote: %c", quote)
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}

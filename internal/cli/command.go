package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is one CLI verb: a usage line, descriptions, a flag set, and the
// closure that does the work. Identity comes from the usage line, not from
// the FlagSet name.
type Command struct {
	Flags *flag.FlagSet

	// Usage is the freeform usage string shown after "sealbook" in help,
	// starting with the command name.
	Usage string

	// Short is the one-liner for the command listing; Long, when set,
	// replaces it in the per-command help.
	Short string
	Long  string

	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name is the first word of the usage line.
func (c *Command) Name() string {
	fields := strings.Fields(c.Usage)
	if len(fields) == 0 {
		return ""
	}

	return fields[0]
}

// HelpLine renders the one-line summary for the command listing.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-26s %s", c.Usage, c.Short)
}

// PrintHelp renders the full help text for "sealbook <cmd> --help".
func (c *Command) PrintHelp(o *IO) {
	var help strings.Builder

	fmt.Fprintf(&help, "Usage: sealbook %s\n\n", c.Usage)

	if c.Long != "" {
		help.WriteString(c.Long)
	} else {
		help.WriteString(c.Short)
	}

	help.WriteString("\n")

	if c.Flags != nil && c.Flags.HasFlags() {
		help.WriteString("\nFlags:\n")
		help.WriteString(c.Flags.FlagUsages())
	}

	o.Printf("%s", help.String())
}

// Run parses flags and executes the command. Errors are printed here so
// every command fails with the same shape; the return value is the process
// exit code.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(&strings.Builder{}) // pflag must not print on its own

	if parseErr := c.Flags.Parse(args); parseErr != nil {
		if errors.Is(parseErr, flag.ErrHelp) {
			c.PrintHelp(o)

			return 0
		}

		o.ErrPrintln("error:", parseErr)
		o.ErrPrintln()
		c.PrintHelp(o)

		return 1
	}

	if execErr := c.Exec(ctx, o, c.Flags.Args()); execErr != nil {
		o.ErrPrintln("error:", execErr)

		return 1
	}

	return 0
}

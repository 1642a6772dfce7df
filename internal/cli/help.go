package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/law-makers/harvest/internal/ui"
)

// minFlagColumn keeps flag descriptions aligned across sections
const minFlagColumn = 28

// helpPrinter renders colored help for one command
type helpPrinter struct {
	w   io.Writer
	cmd *cobra.Command
}

// printHelp is the help func of every command. It writes to the command's
// output stream.
func printHelp(cmd *cobra.Command, _ []string) {
	p := helpPrinter{w: cmd.OutOrStdout(), cmd: cmd}
	p.header()
	p.usage()
	p.examples()
	p.commands()
	p.flags("Flags", cmd.LocalFlags())
	p.flags("Global Flags", cmd.InheritedFlags())
	if cmd.HasAvailableSubCommands() {
		p.footer("<command> --help")
	}
	fmt.Fprintln(p.w)
}

// printUsage is shown on argument errors, on the error stream.
func printUsage(cmd *cobra.Command) error {
	p := helpPrinter{w: cmd.ErrOrStderr(), cmd: cmd}
	p.usage()
	p.commands()
	p.flags("Flags", cmd.LocalFlags())
	p.footer("--help")
	return nil
}

func (p helpPrinter) section(title string) {
	fmt.Fprintf(p.w, "\n%s\n", ui.Bold(title))
}

func (p helpPrinter) header() {
	fmt.Fprintf(p.w, "\n%s\n", ui.Heading(strings.ToUpper(p.cmd.Name())))
	if p.cmd.Short != "" {
		fmt.Fprintln(p.w, p.cmd.Short)
	}
	if long := strings.TrimSpace(p.cmd.Long); long != "" && long != p.cmd.Short {
		fmt.Fprintf(p.w, "\n%s\n", long)
	}
}

func (p helpPrinter) usage() {
	p.section("Usage")
	if p.cmd.Runnable() {
		fmt.Fprintf(p.w, "  %s\n", ui.Info(p.cmd.UseLine()))
	}
	if p.cmd.HasAvailableSubCommands() {
		fmt.Fprintf(p.w, "  %s <command> [flags]\n", ui.Info(p.cmd.CommandPath()))
	}
}

// examples prints comment lines dimmed and commands with a prompt,
// leaving a blank line before each new comment group.
func (p helpPrinter) examples() {
	if !p.cmd.HasExample() {
		return
	}
	p.section("Examples")
	afterCommand := false
	for _, line := range strings.Split(p.cmd.Example, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.HasPrefix(line, "#"):
			if afterCommand {
				fmt.Fprintln(p.w)
			}
			fmt.Fprintf(p.w, "  %s\n", ui.Info(line))
			afterCommand = false
		default:
			fmt.Fprintf(p.w, "  %s\n", ui.Success("$ "+line))
			afterCommand = true
		}
	}
}

func (p helpPrinter) commands() {
	var rows [][2]string
	for _, c := range p.cmd.Commands() {
		if c.IsAvailableCommand() && c.Name() != "help" {
			rows = append(rows, [2]string{c.Name(), c.Short})
		}
	}
	if len(rows) == 0 {
		return
	}
	p.section("Commands")
	p.table(rows, 0, ui.Heading)
}

func (p helpPrinter) flags(title string, fs *pflag.FlagSet) {
	rows := flagRows(fs)
	if len(rows) == 0 {
		return
	}
	p.section(title)
	p.table(rows, minFlagColumn, ui.Success)
}

func (p helpPrinter) footer(suffix string) {
	fmt.Fprintf(p.w, "\n%s\n", ui.Info(fmt.Sprintf("Use %q for more information.", p.cmd.CommandPath()+" "+suffix)))
}

// table prints two aligned columns. Padding is computed on the plain text
// so escape codes do not skew the alignment.
func (p helpPrinter) table(rows [][2]string, minWidth int, nameStyle func(string) string) {
	width := minWidth
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	for _, r := range rows {
		pad := strings.Repeat(" ", width-len(r[0])+2)
		fmt.Fprintf(p.w, "  %s%s%s\n", nameStyle(r[0]), pad, ui.Info(r[1]))
	}
}

// flagRows lists the visible flags of fs as "-n, --max-items int" and the
// usage text with any meaningful default appended.
func flagRows(fs *pflag.FlagSet) [][2]string {
	var rows [][2]string
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		varname, usage := pflag.UnquoteUsage(f)
		name := "    --" + f.Name
		if f.Shorthand != "" {
			name = "-" + f.Shorthand + ", --" + f.Name
		}
		if varname != "" {
			name += " " + varname
		}
		switch f.DefValue {
		case "", "false", "0", "[]":
		default:
			usage += fmt.Sprintf(" (default %s)", f.DefValue)
		}
		rows = append(rows, [2]string{name, usage})
	})
	return rows
}

package curl

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// Dialect selects the quoting rules used when rendering a command.
type Dialect int

const (
	POSIX Dialect = iota
	Windows
)

func (d Dialect) String() string {
	switch d {
	case POSIX:
		return "posix"
	case Windows:
		return "windows"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// ParseDialect accepts the names printed by Dialect.String. The empty string
// selects POSIX.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(s) {
	case "", "posix", "unix":
		return POSIX, nil
	case "windows", "cmd":
		return Windows, nil
	default:
		return POSIX, errors.Errorf("unknown curl dialect: %s", s)
	}
}

func (d Dialect) escape(s string) string {
	if d == Windows {
		return windowsEscape(s)
	}
	return posixEscape(s)
}

// Render formats the command as a single shell line.
func Render(cmd *Command, dialect Dialect) string {
	var b strings.Builder
	for _, env := range cmd.Env {
		b.WriteString(env.Name)
		b.WriteByte('=')
		b.WriteString(dialect.escape(env.Value))
		b.WriteByte(' ')
	}
	b.WriteString("curl")
	for _, arg := range cmd.Args {
		b.WriteByte(' ')
		b.WriteString(dialect.escape(arg))
	}
	return b.String()
}

// Print writes the warnings to stderr, followed by a blank line when there
// were any, and the rendered command to stdout.
func Print(stdout, stderr io.Writer, cmd *Command, dialect Dialect) error {
	for _, warning := range cmd.Warnings {
		if _, err := fmt.Fprintf(stderr, "Warning: %s\n", warning); err != nil {
			return errors.Wrap(err, "writing warning")
		}
	}
	if len(cmd.Warnings) > 0 {
		if _, err := fmt.Fprintln(stderr); err != nil {
			return errors.Wrap(err, "writing warning")
		}
	}
	if _, err := fmt.Fprintln(stdout, Render(cmd, dialect)); err != nil {
		return errors.Wrap(err, "writing curl command")
	}
	return nil
}

func isPOSIXSafe(r rune) bool {
	switch {
	case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
		return true
	}
	return strings.ContainsRune("-_=/,.+", r)
}

func posixEscape(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool { return !isPOSIXSafe(r) }) < 0 {
		return s
	}
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		if r == '\'' || r == '!' {
			b.WriteString(`'\`)
			b.WriteRune(r)
			b.WriteByte('\'')
		} else {
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

func windowsEscape(s string) string {
	if s != "" && !strings.ContainsAny(s, "\"\t\n ") {
		return s
	}
	var b strings.Builder
	b.WriteByte('"')
	backslashes := 0
	for _, r := range s {
		switch r {
		case '\\':
			backslashes++
			continue
		case '"':
			b.WriteString(strings.Repeat(`\`, backslashes*2+1))
		default:
			b.WriteString(strings.Repeat(`\`, backslashes))
		}
		backslashes = 0
		b.WriteRune(r)
	}
	b.WriteString(strings.Repeat(`\`, backslashes*2))
	b.WriteByte('"')
	return b.String()
}

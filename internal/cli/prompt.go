package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"golang.org/x/text/unicode/norm"
)

// Prompter asks the operator for values on a line-oriented input.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	// readSecret reads one line without echo. Nil when the input is not a
	// terminal, in which case secrets are read like any other line.
	readSecret func() (string, error)
}

// NewPrompter returns a Prompter over in and out. When in is a terminal,
// secrets are read with echo disabled.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{in: bufio.NewReader(in), out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		p.readSecret = func() (string, error) {
			b, err := term.ReadPassword(fd)
			fmt.Fprintln(out)
			return string(b), err
		}
	}
	return p
}

// Ask prints label and returns the trimmed, NFC-normalized answer.
// An exhausted input yields "" rather than an error so that validation can
// report every missing field at once.
func (p *Prompter) Ask(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	line, err := p.readLine()
	if err != nil {
		return "", err
	}
	return normalize(line), nil
}

// AskSecret is Ask without echo. The value is returned verbatim apart from
// the line terminator.
func (p *Prompter) AskSecret(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if p.readSecret != nil {
		return p.readSecret()
	}
	return p.readLine()
}

func (p *Prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// normalize trims surrounding whitespace and composes the text to NFC so
// that names typed on different platforms produce the same paths.
func normalize(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

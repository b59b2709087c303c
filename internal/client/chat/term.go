package chat

import (
	"bufio"
	"io"
	"os"

	"golang.org/x/term"
)

const prompt = "lf> "

// scannerReader reads plain lines, for pipes and files.
type scannerReader struct {
	s   *bufio.Scanner
	out io.Writer
}

func (r *scannerReader) ReadLine() (string, error) {
	io.WriteString(r.out, prompt)
	if !r.s.Scan() {
		if err := r.s.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.s.Text(), nil
}

// terminalReader gives history and line editing on a raw terminal.
type terminalReader struct {
	t *term.Terminal
}

func (r *terminalReader) ReadLine() (string, error) { return r.t.ReadLine() }

// NewLineReader picks a terminal reader when stdin is a TTY. The returned
// restore func must be called before exit.
func NewLineReader(in *os.File, out io.Writer) (LineReader, io.Writer, func(), error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return &scannerReader{s: bufio.NewScanner(in), out: out}, out, func() {}, nil
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, nil, nil, err
	}

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{in, out}, prompt)

	return &terminalReader{t: t}, t, func() { _ = term.Restore(fd, state) }, nil
}

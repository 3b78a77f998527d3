package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// ReadLine prints a prompt to w and reads one line of input. The trailing
// newline is trimmed; a partial line followed by EOF is still returned.
func ReadLine(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// ReadInt reads a line and parses it as an integer. An empty line yields the
// fallback value.
func ReadInt(reader *bufio.Reader, prompt string, w io.Writer, fallback int) (int, error) {
	s, err := ReadLine(reader, prompt, w)
	if err != nil {
		return 0, err
	}
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("expected a number, got %q", s)
	}
	return n, nil
}

// ReadFloat reads a line and parses it as a float. An empty line yields zero.
func ReadFloat(reader *bufio.Reader, prompt string, w io.Writer) (float64, error) {
	s, err := ReadLine(reader, prompt, w)
	if err != nil {
		return 0, err
	}
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("expected a number, got %q", s)
	}
	return f, nil
}

// ReadPassword reads a password from the terminal without echo. The caller
// owns the returned buffer and should wipe it when done.
func ReadPassword(prompt string, w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt+": "); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

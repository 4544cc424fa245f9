package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// readPassphrase prompts on stderr and reads without echo when stdin is a terminal.
func readPassphrase(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading passphrase: %w", err)
		}
		return string(b), nil
	}
	return readLine(cmd.InOrStdin())
}

// readNewPassphrase asks twice and insists both entries match.
func readNewPassphrase(cmd *cobra.Command) (string, error) {
	first, err := readPassphrase(cmd, "New passphrase: ")
	if err != nil {
		return "", err
	}
	second, err := readPassphrase(cmd, "Repeat passphrase: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passphrases do not match")
	}
	return first, nil
}

// readers keeps one buffered reader per input so consecutive prompts do not
// lose buffered lines.
var readers = map[io.Reader]*bufio.Reader{}

func readLine(r io.Reader) (string, error) {
	br, ok := readers[r]
	if !ok {
		br = bufio.NewReader(r)
		readers[r] = br
	}
	line, err := br.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

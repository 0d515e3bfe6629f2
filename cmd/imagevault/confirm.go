package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	errAborted        = errors.New("aborted")
	errNotInteractive = errors.New("refusing to continue without confirmation: stdin is not a terminal, pass -yes")
)

// confirm asks a yes/no question on the terminal. yes skips the question.
func (a *app) confirm(prompt string, yes bool) error {
	if yes {
		return nil
	}
	if a.isTerminal == nil || !a.isTerminal() {
		return errNotInteractive
	}

	fmt.Fprintf(a.stderr, "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	}
	return errAborted
}

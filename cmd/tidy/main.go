// Package main provides the entry point for the tidy file organizer CLI.
package main

import (
	"errors"
	"os"
	"strconv"
)

// Exit codes.
const (
	exitFailure  = 1
	exitCanceled = 130
)

func main() {
	if err := Execute(); err != nil {
		var exit *exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		printError("%v", err)
		os.Exit(exitFailure)
	}
}

// exitError ends the process with a specific status. Its message has
// already been shown to the user.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return "exit status " + strconv.Itoa(e.code)
}

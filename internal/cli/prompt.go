package cli

import (
	"errors"
	"strings"

	"github.com/peterh/liner"
)

// promptPassword reads a password interactively. A flag-provided value
// bypasses the prompt. An aborted prompt (Ctrl-C) is reported as cancelled,
// which callers treat as a silent no-op rather than an error.
func promptPassword(flagValue, label string) (value string, cancelled bool, err error) {
	if flagValue != "" {
		return flagValue, false, nil
	}

	line := liner.NewLiner()
	defer func() { _ = line.Close() }()

	line.SetCtrlCAborts(true)

	value, promptErr := line.PasswordPrompt(label)
	if errors.Is(promptErr, liner.ErrPromptAborted) {
		return "", true, nil
	}

	if promptErr != nil {
		return "", false, promptErr
	}

	return value, false, nil
}

// promptConfirm asks a yes/no question. Abort and anything but "y"/"yes"
// count as no.
func promptConfirm(label string) (bool, error) {
	line := liner.NewLiner()
	defer func() { _ = line.Close() }()

	line.SetCtrlCAborts(true)

	answer, promptErr := line.Prompt(label)
	if errors.Is(promptErr, liner.ErrPromptAborted) {
		return false, nil
	}

	if promptErr != nil {
		return false, promptErr
	}

	answer = strings.ToLower(strings.TrimSpace(answer))

	return answer == "y" || answer == "yes", nil
}

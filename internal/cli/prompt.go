package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/ALT-F4-LLC/mailvault/internal/output"
)

// errCancelled is returned when the user backs out of a prompt.
var errCancelled = errors.New("cancelled")

// passwordFlags registers --password and --ask-password on cmd.
func passwordFlags(cmd *cobra.Command, usage string) {
	cmd.Flags().String("password", "", usage)
	cmd.Flags().Bool("ask-password", false, "Prompt for the password")
}

// readPassword returns the password given by flag or, with --ask-password,
// typed at a prompt. When confirm is set the password is asked twice.
func readPassword(cmd *cobra.Command, confirm bool) (string, error) {
	password, _ := cmd.Flags().GetString("password")
	ask, _ := cmd.Flags().GetBool("ask-password")
	if password != "" || !ask {
		return password, nil
	}
	if getWriter(cmd).JSONMode {
		return "", cmdErr(fmt.Errorf("--ask-password cannot be used with --json, use --password"), output.ErrValidation)
	}
	return promptPassword(confirm)
}

func promptPassword(confirm bool) (string, error) {
	var password, again string
	fields := []huh.Field{
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Validate(func(s string) error {
				if s == "" {
					return errors.New("password cannot be empty")
				}
				return nil
			}).
			Value(&password),
	}
	if confirm {
		fields = append(fields, huh.NewInput().
			Title("Confirm password").
			EchoMode(huh.EchoModePassword).
			Validate(func(s string) error {
				if s != password {
					return errors.New("passwords do not match")
				}
				return nil
			}).
			Value(&again))
	}

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", errCancelled
		}
		return "", fmt.Errorf("interactive form failed: %w", err)
	}
	return password, nil
}

// confirmAction asks a yes/no question. It returns true without asking when
// --yes is set or output is JSON.
func confirmAction(cmd *cobra.Command, title, affirmative string) (bool, error) {
	yes, _ := cmd.Flags().GetBool("yes")
	if yes || getWriter(cmd).JSONMode {
		return true, nil
	}

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative(affirmative).
				Negative("Cancel").
				Value(&confirmed),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("interactive form failed: %w", err)
	}
	return confirmed, nil
}

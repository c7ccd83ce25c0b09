// Package prompt holds the interactive terminal prompts of the CLI
package prompt

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"

	"github.com/blogdeck/blogdeck/internal/api"
)

// IsInteractive reports whether both stdin and stdout are terminals
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Email asks for an email address, prefilled with the last one used
func Email(defaultEmail string) (string, error) {
	prompt := promptui.Prompt{
		Label:   "Email",
		Default: defaultEmail,
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("email is required")
			}
			return nil
		},
	}

	email, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("login cancelled: %w", err)
	}
	return strings.TrimSpace(email), nil
}

// Password reads a password without echoing it
func Password(label string, out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("password is required in non-interactive mode (use --password flag or BLOGDECK_PASSWORD env var)")
	}

	fmt.Fprintf(out, "%s: ", label)
	bytePassword, err := term.ReadPassword(fd)
	fmt.Fprintln(out) // New line after password input
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

// Credentials asks for an email and a password
func Credentials(defaultEmail string, out io.Writer) (string, string, error) {
	email, err := Email(defaultEmail)
	if err != nil {
		return "", "", err
	}
	password, err := Password("Password", out)
	if err != nil {
		return "", "", err
	}
	return email, password, nil
}

// Confirm asks a yes/no question; anything but yes is a no
func Confirm(label string) bool {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	_, err := prompt.Run()
	return err == nil
}

type tagOption struct {
	Label    string
	ID       string
	Selected bool
	Done     bool
}

// SelectTags lets the user toggle tags on and off until they pick Done
func SelectTags(tags []api.Tag, selected []string) ([]string, error) {
	if len(tags) == 0 {
		return selected, nil
	}
	chosen := slices.Clone(selected)

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ if .Done }}{{ .Label | green }}{{ else }}[{{ if .Selected }}x{{ else }} {{ end }}] {{ .Label | cyan }}{{ end }}",
		Inactive: "  {{ if .Done }}{{ .Label }}{{ else }}[{{ if .Selected }}x{{ else }} {{ end }}] {{ .Label }}{{ end }}",
		Selected: "{{ if .Done }}{{ .Label | green }}{{ end }}",
	}

	cursor := 0
	for {
		options := make([]tagOption, 0, len(tags)+1)
		options = append(options, tagOption{Label: "Done", Done: true})
		for _, tag := range tags {
			id := tag.ID.String()
			options = append(options, tagOption{Label: tag.Label(), ID: id, Selected: slices.Contains(chosen, id)})
		}

		prompt := promptui.Select{
			Label:     "Tags",
			Items:     options,
			Templates: templates,
			Size:      10,
			CursorPos: cursor,
		}

		index, _, err := prompt.Run()
		if err != nil {
			return nil, fmt.Errorf("tag selection cancelled: %w", err)
		}

		option := options[index]
		if option.Done {
			return chosen, nil
		}
		if option.Selected {
			chosen = slices.DeleteFunc(chosen, func(id string) bool { return id == option.ID })
		} else {
			chosen = append(chosen, option.ID)
		}
		cursor = index
	}
}

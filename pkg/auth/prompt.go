package auth

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"
)

// PromptEmail reads an email address from stdin
func PromptEmail() (string, error) {
	fmt.Print("LinkedIn email: ")
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read email: %w", err)
	}

	email := strings.TrimSpace(input)
	if email == "" {
		return "", ErrInvalidCredentials
	}
	return email, nil
}

// PromptPassword reads a password from stdin without echoing
func PromptPassword() (string, error) {
	fmt.Print("LinkedIn password: ")
	password, err := readPassword()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return "", ErrInvalidCredentials
	}
	return password, nil
}

// readPassword reads a line from stdin without echoing when attached to a
// terminal, falling back to regular input otherwise
func readPassword() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println() // New line after password
		if err == nil {
			return string(password), nil
		}
	}

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

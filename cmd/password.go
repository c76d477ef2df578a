package cmd

import (
	"fmt"
	"syscall"

	"golang.org/x/term"
)

// promptPassword reads a password from the terminal without echoing it.
func promptPassword() string {
	fmt.Print("Enter password: ")
	password, err := term.ReadPassword(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return ""
	}
	return string(password)
}

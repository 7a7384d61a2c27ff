// Command secrethash reads the admin secret without echo and prints its
// bcrypt hash, suitable for the IRISVAULT_ADMIN_SECRET setting.
package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func main() {
	fmt.Fprint(os.Stderr, "Admin secret: ")
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read secret: %v\n", err)
		os.Exit(1)
	}
	if len(secret) == 0 {
		fmt.Fprintln(os.Stderr, "empty secret")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword(secret, bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash secret: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(hash))
}

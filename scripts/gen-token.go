package main

import (
	"fmt"
	"os"

	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/middleware"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: go run scripts/gen-token.go <userId> [displayName]\n")
		os.Exit(1)
	}

	secret := os.Getenv("TOKEN_SECRET")
	if secret == "" {
		fmt.Fprintf(os.Stderr, "Error: TOKEN_SECRET must be set\n")
		os.Exit(1)
	}

	displayName := "Anonymous"
	if len(os.Args) > 2 {
		displayName = os.Args[2]
	}

	token, participantID, err := middleware.NewAuthMiddleware(secret).IssueToken(os.Args[1], displayName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("participantId: %s\n", participantID)
	fmt.Println(token)
}

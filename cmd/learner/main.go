package main

import (
	"fmt"
	"os"

	"github.com/learnportal/backend/internal/apperrors"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", apperrors.FromError(err).Message)
		os.Exit(1)
	}
}

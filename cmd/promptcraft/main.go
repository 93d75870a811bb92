package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/doeshing/promptcraft/internal/infrastructure/cli"
)

func main() {
	ctx := context.Background()
	opts := cli.Options{Verbose: isVerbose()}

	root := cli.NewRootCmd(ctx, opts)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func isVerbose() bool {
	v := os.Getenv("PROMPTCRAFT_DEBUG")
	return strings.EqualFold(v, "1") || strings.EqualFold(v, "true")
}

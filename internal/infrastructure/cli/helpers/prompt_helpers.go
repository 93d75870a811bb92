package helpers

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/ports"
)

// ReadInput joins args into one text. With no args, or the single arg "-",
// piped stdin is read instead.
func ReadInput(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 && !(len(args) == 1 && args[0] == "-") {
		return strings.Join(args, " "), nil
	}
	if f, ok := stdin.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return "", nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// ResolveModel picks the selector for a generation: the flag, then the configured
// default, then the first discovered model.
func ResolveModel(ctx context.Context, catalog ports.ModelCatalog, flagValue, configured string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	if strings.TrimSpace(configured) != "" {
		return configured
	}
	if catalog == nil {
		return ""
	}
	for _, model := range catalog.Discover(ctx, false) {
		if domain.IsSelectableModel(model) {
			return model
		}
	}
	return ""
}

// PromptForConfirmation asks a yes/no question defaulting to no.
func PromptForConfirmation(out io.Writer, in io.Reader, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, _ := bufio.NewReader(in).ReadString('\n')
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}

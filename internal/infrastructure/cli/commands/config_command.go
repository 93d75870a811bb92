package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/doeshing/promptcraft/internal/app"
	configapp "github.com/doeshing/promptcraft/internal/application/config"
	"github.com/doeshing/promptcraft/internal/domain"
	"github.com/doeshing/promptcraft/internal/infrastructure/cli/helpers"
	configinfra "github.com/doeshing/promptcraft/internal/infrastructure/config"
)

// NewConfigCommand groups the config inspection and editing subcommands.
// Every subcommand runs with lenient loading so a broken file can be repaired.
func NewConfigCommand(container *app.Container) *cobra.Command {
	cc := configCommands{container: container}

	root := &cobra.Command{
		Use:   "config",
		Short: "Inspect promptcraft configuration",
		RunE:  cc.show,
	}
	root.AddCommand(
		&cobra.Command{Use: "show", Short: "Print the effective configuration as YAML", RunE: cc.show},
		cc.getCommand(),
		&cobra.Command{
			Use:     "set <key> <value>",
			Short:   "Set a configuration value (value accepts YAML syntax)",
			Args:    cobra.MinimumNArgs(2),
			Example: "  promptcraft config set backends.lmstudio.enabled false",
			RunE:    cc.set,
		},
		&cobra.Command{Use: "path", Short: "Print the configuration file location", RunE: cc.path},
		&cobra.Command{Use: "edit", Short: "Open the configuration file in $EDITOR", RunE: cc.edit},
		&cobra.Command{Use: "validate", Short: "Check the configuration file for errors", RunE: cc.validate},
		&cobra.Command{Use: "reset", Short: "Back up the file and restore built-in defaults", RunE: cc.reset},
		&cobra.Command{Use: "diff", Short: "Compare the configuration against built-in defaults", RunE: cc.diff},
	)

	lenient := func(c *cobra.Command) {
		c.Annotations = map[string]string{AnnotationLenientConfig: "true"}
	}
	lenient(root)
	for _, sub := range root.Commands() {
		lenient(sub)
	}
	return root
}

type configCommands struct {
	container *app.Container
}

func (cc configCommands) load(ctx context.Context) (domain.Config, error) {
	cfg, err := cc.container.ConfigProvider.Load(ctx)
	if err != nil {
		return domain.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (cc configCommands) getCommand() *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Print a single configuration value",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				key = args[0]
			}
			if key == "" {
				return fmt.Errorf(ErrKeyRequired)
			}
			cfg, err := cc.load(cmd.Context())
			if err != nil {
				return err
			}
			value, err := helpers.LookupConfigKey(cfg, key)
			if err != nil {
				return err
			}
			return writeYAML(cmd.OutOrStdout(), value)
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "Key path (e.g., backends.ollama.base_url)")
	return cmd
}

func (cc configCommands) show(cmd *cobra.Command, _ []string) error {
	cfg, err := cc.load(cmd.Context())
	if err != nil {
		return err
	}
	return writeYAML(cmd.OutOrStdout(), cfg)
}

func (cc configCommands) set(cmd *cobra.Command, args []string) error {
	key, raw := args[0], strings.Join(args[1:], " ")
	cfg, err := cc.load(cmd.Context())
	if err != nil {
		return err
	}
	updated, err := helpers.ApplyConfigKey(cfg, key, raw)
	if err != nil {
		return err
	}
	if err := helpers.SaveConfigWithValidation(cc.container, updated); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Set %s\n", key)
	return nil
}

func (cc configCommands) path(cmd *cobra.Command, _ []string) error {
	loader, err := helpers.GetConfigLoader(cc.container)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), loader.Path())
	return nil
}

func (cc configCommands) edit(cmd *cobra.Command, _ []string) error {
	loader, err := helpers.GetConfigLoader(cc.container)
	if err != nil {
		return err
	}
	editor := os.Getenv(envKeyEditor)
	if editor == "" {
		editor = DefaultEditorCommand
	}

	proc := exec.CommandContext(cmd.Context(), editor, loader.Path())
	proc.Stdin, proc.Stdout, proc.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := proc.Run(); err != nil {
		return fmt.Errorf("editor %s: %w", editor, err)
	}
	return nil
}

func (cc configCommands) validate(cmd *cobra.Command, _ []string) error {
	cfg, err := cc.container.ConfigProvider.Load(cmd.Context())
	if err == nil {
		err = configapp.Validate(cfg)
	}
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), MsgConfigurationValid)
	return nil
}

// reset keeps a timestamped copy of the existing file before overwriting it.
func (cc configCommands) reset(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	loader, err := helpers.GetConfigLoader(cc.container)
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(loader.Path()); statErr == nil {
		if backup, backupErr := loader.Backup(); backupErr == nil {
			fmt.Fprintf(out, "Previous configuration saved to %s\n", backup)
		}
	}

	defaults, err := loader.Reset()
	if err != nil {
		return fmt.Errorf("reset config: %w", err)
	}
	fmt.Fprintf(out, "Configuration reset at %s\n", loader.Path())
	return writeYAML(out, defaults)
}

func (cc configCommands) diff(cmd *cobra.Command, _ []string) error {
	current, err := cc.load(cmd.Context())
	if err != nil {
		return err
	}
	defaults, err := configinfra.DefaultConfig()
	if err != nil {
		return err
	}

	if d := cmp.Diff(defaults, current); d != "" {
		fmt.Fprintln(cmd.OutOrStdout(), d)
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), MsgNoDifferencesFromDefault)
	return nil
}

func writeYAML(out io.Writer, v interface{}) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	_, err = out.Write(data)
	return err
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doeshing/promptcraft/internal/app"
	"github.com/doeshing/promptcraft/internal/infrastructure/cli/helpers"
)

// NewDoctorCommand creates the doctor command
func NewDoctorCommand(container *app.Container) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:         "doctor",
		Short:       "Check config, backends and history paths",
		Annotations: map[string]string{AnnotationLenientConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if container.DoctorService == nil {
				return fmt.Errorf(ErrDoctorServiceUnavailable)
			}

			report, err := container.DoctorService.Run(cmd.Context())
			if jsonOutput {
				if encErr := helpers.WriteJSON(cmd.OutOrStdout(), report); encErr != nil {
					return encErr
				}
			} else {
				helpers.RenderHealthReport(cmd.OutOrStdout(), report)
			}

			if err != nil {
				return fmt.Errorf("diagnostics completed with errors: %w", err)
			}
			if !report.Healthy() {
				return fmt.Errorf("diagnostics found problems")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the report as JSON")
	return cmd
}

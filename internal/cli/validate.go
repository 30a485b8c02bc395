package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/formparity/parity-go/internal/parity"
)

func (a *App) validateConfigCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "validate-config",
		Short: "Check the environments file without contacting any environment",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := a.cfg
			if from != "" {
				cfg.From = from
			}
			if to != "" {
				cfg.To = to
			}
			m, err := cfg.Migration()
			if err != nil {
				return failed(err)
			}

			forms := m.Forms
			if len(forms) == 0 {
				forms = parity.DefaultForms
			}
			fmt.Fprintf(a.Stdout, "from:  %s (%s) %s\n", m.From.DisplayName(), m.From.Key, m.From.BaseURL)
			fmt.Fprintf(a.Stdout, "to:    %s (%s) %s\n", m.To.DisplayName(), m.To.Key, m.To.BaseURL)
			fmt.Fprintf(a.Stdout, "forms: %s\n", strings.Join(forms, ", "))
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "source environment key")
	cmd.Flags().StringVar(&to, "to", "", "target environment key")
	return cmd
}

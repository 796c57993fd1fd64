// File: cmd/clean.go
package cmd

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/adelmore/scour-cli/internal/advisor"
	"github.com/adelmore/scour-cli/internal/agent"
	"github.com/adelmore/scour-cli/internal/config"
	"github.com/adelmore/scour-cli/internal/observability"
	"github.com/adelmore/scour-cli/internal/session"
	"github.com/adelmore/scour-cli/internal/tui"
)

// newCleanCmd creates and configures the `clean` command.
func newCleanCmd() *cobra.Command {
	cleanCmd := &cobra.Command{
		Use:   "clean <file>",
		Short: "Interactively clean a delimited dataset stage by stage",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("upload.delimiter", cmd.Flags().Lookup("delimiter")); err != nil {
				return err
			}
			return viper.BindPFlags(cmd.Flags())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			ctrl, err := buildController(cfg, logger)
			if err != nil {
				return err
			}

			path := args[0]
			if err := ctrl.Upload(path); err != nil {
				return err
			}

			outPath, _ := cmd.Flags().GetString("output")
			if outPath == "" {
				outPath = cleanedPath(path)
			}

			model := tui.New(ctrl, outPath, logger)
			program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("interactive session failed: %w", err)
			}

			logger.Info("Session finished",
				zap.String("input", path),
				zap.Int("stages_applied", len(ctrl.Logs())))
			return nil
		},
	}

	cleanCmd.Flags().StringP("output", "o", "", "path for the cleaned CSV (default <file>.cleaned.csv)")
	cleanCmd.Flags().String("delimiter", "", "field delimiter (default: sniffed from the file)")
	return cleanCmd
}

func buildController(cfg *config.Config, logger *zap.Logger) (*session.Controller, error) {
	gateway, err := advisor.NewGateway(cfg.Advisor, logger)
	if err != nil {
		return nil, fmt.Errorf("configure advisor: %w", err)
	}
	root := agent.NewRoot(gateway, cfg.Session, logger)
	return session.NewController(root, cfg.Session, cfg.Upload, logger), nil
}

// cleanedPath derives the default output path next to the input file.
func cleanedPath(in string) string {
	if i := strings.LastIndex(in, "."); i > 0 {
		return in[:i] + ".cleaned.csv"
	}
	return in + ".cleaned.csv"
}

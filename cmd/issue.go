// File: cmd/issue.go
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/adelmore/scour-cli/api/schemas"
	"github.com/adelmore/scour-cli/internal/config"
	"github.com/adelmore/scour-cli/internal/observability"
)

// newIssueCmd creates the single-shot `issue` command: describe one data
// quality problem, review the proposed fix, apply it, save.
func newIssueCmd() *cobra.Command {
	issueCmd := &cobra.Command{
		Use:   "issue <file>",
		Short: "Fix one described data quality issue without the full pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			description, _ := cmd.Flags().GetString("message")
			if strings.TrimSpace(description) == "" {
				return fmt.Errorf("an issue description is required (--message)")
			}

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

			suggestion, err := ctrl.FixIssue(ctx, description)
			if err != nil {
				return fmt.Errorf("could not obtain a fix: %w", err)
			}

			fmt.Printf("Proposed fix: %s\n", suggestion.Params.Fix)
			fmt.Printf("Instruction:  %s\n", suggestion.Params.Code)

			assumeYes, _ := cmd.Flags().GetBool("yes")
			if !assumeYes && !confirm("Apply this fix? [y/N] ") {
				fmt.Println("Aborted.")
				return nil
			}

			entry, err := ctrl.ApplyFix(ctx, suggestion)
			if err != nil {
				return err
			}
			if entry.Status == schemas.StatusError {
				return fmt.Errorf("fix failed: %s", entry.Error)
			}
			if entry.Status == schemas.StatusSkipped {
				fmt.Println("Nothing to do.")
				return nil
			}

			outPath, _ := cmd.Flags().GetString("output")
			if outPath == "" {
				outPath = cleanedPath(path)
			}
			if err := ctrl.Save(outPath); err != nil {
				return err
			}

			logger.Info("Issue fixed",
				zap.String("input", path), zap.String("output", outPath),
				zap.String("code", entry.Code))
			fmt.Printf("Saved to %s\n", outPath)
			return nil
		},
	}

	issueCmd.Flags().StringP("message", "m", "", "description of the data quality issue")
	issueCmd.Flags().StringP("output", "o", "", "path for the fixed CSV (default <file>.cleaned.csv)")
	issueCmd.Flags().BoolP("yes", "y", false, "apply the fix without confirmation")
	return issueCmd
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}

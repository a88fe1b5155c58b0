package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/anoixa/folio/internal/app"
)

// cleanCmd 清理原图已丢失的图片记录
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete image records whose original file is missing",
	Long: `Delete image records whose original file no longer exists in storage.
Each record is removed from its galleries first, so gallery positions stay contiguous.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		container, err := app.NewContainer(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer container.Close()

		ctx := cmd.Context()
		orphans, err := container.Images.Orphans(ctx)
		if err != nil {
			return err
		}

		deleted := 0
		for _, img := range orphans {
			if dryRun {
				fmt.Fprintf(cmd.OutOrStdout(), "[dry-run] %s %s\n", img.ID, img.FilePath)
				continue
			}
			if err := container.Images.Delete(ctx, img.ID); err != nil {
				logger.Error("Failed to delete orphan record", slog.String("image_id", img.ID), slog.Any("error", err))
				continue
			}
			deleted++
		}

		logger.Info("Clean finished",
			slog.Int("orphans", len(orphans)),
			slog.Int("deleted", deleted),
			slog.Bool("dry_run", dryRun))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().Bool("dry-run", false, "Only show what would be cleaned, don't actually delete")
}

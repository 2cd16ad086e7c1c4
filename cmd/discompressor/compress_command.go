package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"discompressor/internal/api"
	"discompressor/internal/config"
	"discompressor/internal/logging"
	"discompressor/internal/progress"
	"discompressor/internal/staging"
)

const staleScratchAge = 24 * time.Hour

func newCompressCommand(ctx *commandContext) *cobra.Command {
	var sizeMB int
	var install bool
	var assumeYes bool

	cmd := &cobra.Command{
		Use:   "compress <input>",
		Short: "Re-encode a video so it fits a target size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if sizeMB <= 0 {
				return fmt.Errorf("--size is required (presets: %s MB)", formatPresets(cfg.Encoding.PresetSizesMB))
			}
			input, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve input path: %w", err)
			}
			if info, err := os.Stat(input); err != nil {
				return fmt.Errorf("inspect input %q: %w", input, err)
			} else if info.IsDir() {
				return fmt.Errorf("input %q is a directory", input)
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := ctx.commandLogger(cmd)
			result := staging.CleanStale(runCtx, cfg.Paths.TempDir, staging.ProvisionPrefix, staleScratchAge, logger)
			if len(result.Removed) > 0 {
				logger.Info("removed stale download directories",
					logging.String(logging.FieldEventType, "scratch_cleanup"),
					logging.Int("count", len(result.Removed)),
				)
			}

			return ctx.withService(cmd, func(svc *api.Service) error {
				if _, ok := svc.LocateBinaries(); !ok && install {
					if err := runInstall(runCtx, cmd, svc, assumeYes); err != nil {
						return err
					}
				}
				return runCompress(runCtx, cmd, svc, input, sizeMB)
			})
		},
	}

	cmd.Flags().IntVarP(&sizeMB, "size", "s", 0, "Target output size in MB")
	cmd.Flags().BoolVar(&install, "install", false, "Install ffmpeg first if it is missing")
	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the install confirmation")
	return cmd
}

func runCompress(ctx context.Context, cmd *cobra.Command, svc *api.Service, input string, sizeMB int) error {
	out := cmd.OutOrStdout()
	job, err := svc.StartTranscode(ctx, input, sizeMB)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Compressing %s to %d MB\n", input, sizeMB)

	renderer := newProgressRenderer(out, "Compressing", renderPercent)
	terminal, err := progress.Forward(context.Background(), job.Events(), renderer.Update)
	<-job.Done()
	if err != nil {
		return err
	}

	switch terminal.Kind {
	case progress.KindSuccess:
		fmt.Fprintf(out, "Wrote %s%s\n", terminal.OutputPath, describeOutput(terminal.OutputPath, sizeMB))
		return nil
	case progress.KindCancelled:
		fmt.Fprintln(cmd.ErrOrStderr(), "Compression cancelled")
		return context.Canceled
	default:
		return terminalError("compress", terminal)
	}
}

func describeOutput(path string, targetMB int) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	return fmt.Sprintf(" (%s, target %d MB)", humanize.Bytes(uint64(info.Size())), targetMB)
}

func formatPresets(sizes []int) string {
	parts := make([]string, 0, len(sizes))
	for _, size := range sizes {
		parts = append(parts, strconv.Itoa(size))
	}
	return strings.Join(parts, ", ")
}

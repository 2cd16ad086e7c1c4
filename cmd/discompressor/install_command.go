package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"discompressor/internal/api"
	"discompressor/internal/preflight"
	"discompressor/internal/progress"
)

func newInstallCommand(ctx *commandContext) *cobra.Command {
	var assumeYes bool
	var force bool

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Download ffmpeg and ffprobe into the install directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return ctx.withService(cmd, func(svc *api.Service) error {
				if svc.InstalledLocally() && !force {
					fmt.Fprintf(cmd.OutOrStdout(), "ffmpeg is already installed in %s (use --force to reinstall)\n",
						svc.Config().Paths.InstallDir)
					return nil
				}
				return runInstall(runCtx, cmd, svc, assumeYes)
			})
		},
	}

	cmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Skip the download confirmation")
	cmd.Flags().BoolVar(&force, "force", false, "Reinstall even if binaries are present")
	return cmd
}

// runInstall checks the target directories, reports the download size,
// confirms, and provisions with a byte progress display.
func runInstall(ctx context.Context, cmd *cobra.Command, svc *api.Service, assumeYes bool) error {
	out := cmd.OutOrStdout()
	cfg := svc.Config()

	if failed := preflight.Failed(preflight.RunAll(ctx, cfg)); len(failed) > 0 {
		lines := make([]string, 0, len(failed))
		for _, result := range failed {
			lines = append(lines, fmt.Sprintf("%s: %s", result.Name, result.Detail))
		}
		return fmt.Errorf("cannot install ffmpeg:\n  %s", strings.Join(lines, "\n  "))
	}

	size, err := svc.DownloadSize(ctx)
	switch {
	case err != nil:
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not determine download size: %v\n", err)
		fmt.Fprintln(out, "Download size: unknown")
	case size > 0:
		fmt.Fprintf(out, "Download size: %s\n", humanize.Bytes(uint64(size)))
	default:
		fmt.Fprintln(out, "Download size: unknown")
	}

	if !assumeYes {
		ok, err := confirm(cmd.InOrStdin(), out, fmt.Sprintf("Install ffmpeg into %s? [y/N] ", cfg.Paths.InstallDir))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out, "Install aborted")
			return nil
		}
	}

	events, err := svc.Provision(ctx)
	if err != nil {
		return err
	}
	renderer := newProgressRenderer(out, "Downloading ffmpeg", renderBytes)
	terminal, err := progress.Forward(context.Background(), events, renderer.Update)
	if err != nil {
		return err
	}
	switch terminal.Kind {
	case progress.KindSuccess:
		fmt.Fprintf(out, "Installed ffmpeg and ffprobe into %s\n", terminal.OutputPath)
		return nil
	case progress.KindCancelled:
		fmt.Fprintln(cmd.ErrOrStderr(), "Install cancelled")
		return context.Canceled
	default:
		return terminalError("install ffmpeg", terminal)
	}
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func terminalError(action string, ev progress.Event) error {
	if ev.Err != nil {
		return fmt.Errorf("%s: %w", action, ev.Err)
	}
	if ev.Message != "" {
		return fmt.Errorf("%s: %s", action, ev.Message)
	}
	return fmt.Errorf("%s failed", action)
}

package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"discompressor/internal/api"
	"discompressor/internal/config"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "probe <input>",
		Short: "Show duration and container details for a media file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve input path: %w", err)
			}
			return ctx.withService(cmd, func(svc *api.Service) error {
				report, err := svc.Probe(cmd.Context(), input)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, report)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderProbe(report))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderProbe(report api.ProbeReport) string {
	var b strings.Builder
	duration := time.Duration(report.DurationSeconds * float64(time.Second)).Round(time.Second)
	fmt.Fprintf(&b, "File: %s\n", report.Path)
	fmt.Fprintf(&b, "Container: %s\n", fallback(report.Container, "unknown"))
	fmt.Fprintf(&b, "Duration: %s\n", duration)
	if report.SizeBytes > 0 {
		fmt.Fprintf(&b, "Size: %s\n", humanize.Bytes(uint64(report.SizeBytes)))
	}
	if report.BitRate > 0 {
		fmt.Fprintf(&b, "Bitrate: %s/s\n", humanize.SIWithDigits(float64(report.BitRate), 1, "b"))
	}
	if report.VideoCodec != "" {
		fmt.Fprintf(&b, "Video: %s %dx%d\n", report.VideoCodec, report.Width, report.Height)
	}
	fmt.Fprintf(&b, "Audio streams: %d\n", report.AudioStreams)
	return b.String()
}

func fallback(value, alt string) string {
	if strings.TrimSpace(value) == "" {
		return alt
	}
	return value
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"discompressor/internal/api"
	"discompressor/internal/preflight"
)

type statusReport struct {
	ConfigPath       string                 `json:"configPath"`
	ConfigExists     bool                   `json:"configExists"`
	InstallDir       string                 `json:"installDir"`
	InstalledLocally bool                   `json:"installedLocally"`
	Encoder          string                 `json:"encoder,omitempty"`
	Prober           string                 `json:"prober,omitempty"`
	Dependencies     []api.DependencyStatus `json:"dependencies"`
	Checks           []checkStatus          `json:"checks"`
	PresetSizesMB    []int                  `json:"presetSizesMb"`
}

type checkStatus struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var checkNetwork bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show ffmpeg availability and directory health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(cmd, func(svc *api.Service) error {
				cfg := svc.Config()
				report := statusReport{
					ConfigPath:       ctx.configPath,
					ConfigExists:     ctx.configExists,
					InstallDir:       cfg.Paths.InstallDir,
					InstalledLocally: svc.InstalledLocally(),
					Dependencies:     svc.Dependencies(),
					PresetSizesMB:    cfg.Encoding.PresetSizesMB,
				}
				if paths, ok := svc.LocateBinaries(); ok {
					report.Encoder = paths.Encoder
					report.Prober = paths.Prober
				}
				results := preflight.RunAll(cmd.Context(), cfg)
				if checkNetwork {
					results = append(results, preflight.CheckReleaseURL(cmd.Context(), cfg.FFmpeg.ReleaseURL))
				}
				for _, r := range results {
					report.Checks = append(report.Checks, checkStatus{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
				}

				if jsonOutput {
					return writeJSON(cmd, report)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderStatus(report))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&checkNetwork, "network", false, "Also check that the release URL is reachable")
	return cmd
}

func renderStatus(report statusReport) string {
	var b strings.Builder
	title := cases.Title(language.Und)

	configLine := report.ConfigPath
	if !report.ConfigExists {
		configLine += " (not found, using defaults)"
	}
	fmt.Fprintf(&b, "Config: %s\n", configLine)
	fmt.Fprintf(&b, "Install directory: %s (installed: %s)\n", report.InstallDir, yesNo(report.InstalledLocally))
	if report.Encoder != "" {
		fmt.Fprintf(&b, "Using: %s, %s\n", report.Encoder, report.Prober)
	}
	fmt.Fprintf(&b, "Presets: %s MB\n\n", formatPresets(report.PresetSizesMB))

	depRows := make([][]string, 0, len(report.Dependencies))
	for _, dep := range report.Dependencies {
		state := "available"
		if !dep.Available {
			state = "missing"
		}
		depRows = append(depRows, []string{dep.Name, dep.Command, title.String(state), dep.Detail})
	}
	b.WriteString(renderTable([]string{"Dependency", "Command", "State", "Detail"}, depRows, nil))
	b.WriteString("\n")

	checkRows := make([][]string, 0, len(report.Checks))
	for _, check := range report.Checks {
		state := "ok"
		if !check.Passed {
			state = "failed"
		}
		checkRows = append(checkRows, []string{check.Name, title.String(state), check.Detail})
	}
	b.WriteString(renderTable([]string{"Check", "Result", "Detail"}, checkRows, nil))
	b.WriteString("\n")
	return b.String()
}

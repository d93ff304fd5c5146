package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"storypack/internal/config"
	"storypack/internal/logging"
	"storypack/internal/pipeline"
	"storypack/internal/tagging"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var (
		title     string
		subtitle  string
		badge     string
		paletteID string
		artPath   string
		baseDir   string
		outName   string
		noTagging bool
	)

	cmd := &cobra.Command{
		Use:   "build <slug>",
		Short: "Render a cover, tag the audio, and bundle one story",
		Long: `Build runs the full packaging pipeline for one story folder:
resolve the palette, normalize the artwork, compose and render the cover,
embed it into the audio files, remove the consumed source art, and zip the
folder into an upload-ready bundle.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			// Copy before applying per-invocation overrides so the shared
			// config stays untouched.
			cfg := *loaded
			if trimmed := strings.TrimSpace(baseDir); trimmed != "" {
				expanded, err := config.ExpandPath(trimmed)
				if err != nil {
					return fmt.Errorf("resolve stories folder: %w", err)
				}
				cfg.Paths.BaseDir = expanded
			}

			// Expand --art relative to the caller's working directory here;
			// the pipeline resolves bare names against the stories folder.
			art := strings.TrimSpace(artPath)
			if art != "" {
				expanded, err := config.ExpandPath(art)
				if err != nil {
					return fmt.Errorf("resolve art path: %w", err)
				}
				art = expanded
			}

			logger, err := logging.NewFromConfig(&cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			runner, err := pipeline.New(&cfg, logger)
			if err != nil {
				return err
			}
			defer runner.Close()

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			result, err := runner.Run(runCtx, pipeline.StoryConfig{
				Slug:        args[0],
				Title:       title,
				Subtitle:    subtitle,
				Badge:       badge,
				Palette:     paletteID,
				ArtPath:     art,
				OutName:     outName,
				SkipTagging: noTagging,
			})
			if err != nil {
				return err
			}

			printBuildSummary(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Display title (default: derived from the slug)")
	cmd.Flags().StringVar(&subtitle, "subtitle", "", "Subtitle line under the title")
	cmd.Flags().StringVar(&badge, "badge", "", "Badge text rendered in the corner pill")
	cmd.Flags().StringVar(&paletteID, "palette", "", "Builtin palette name or palette JSON file")
	cmd.Flags().StringVar(&artPath, "art", "", "Artwork file (default: {slug}_art.* or {slug}.* in the stories folder)")
	cmd.Flags().StringVar(&baseDir, "base", "", "Stories folder override")
	cmd.Flags().StringVar(&outName, "out-name", "", "Cover filename inside the story folder")
	cmd.Flags().BoolVar(&noTagging, "no-tagging", false, "Skip embedding the cover into audio files")
	return cmd
}

func printBuildSummary(cmd *cobra.Command, result *pipeline.Result) {
	out := cmd.OutOrStdout()
	printer := newStatusPrinter(out)

	printer.line(statusOK, "Cover", result.CoverPath)

	kind, message := taggingSummary(result.Tagging)
	printer.line(kind, "Tagging", message)
	if result.Tagging.Failed() > 0 {
		fmt.Fprintln(out, taggingFailureTable(result.Tagging))
	}

	artKind, artMessage := statusInfo, "kept"
	if result.ArtDeleted {
		artKind, artMessage = statusOK, "removed"
	}
	printer.line(artKind, "Source art", artMessage)

	printer.line(statusOK, "Bundle", result.BundlePath)
	fmt.Fprintf(out, "Packaged %s in %s\n", result.Slug, result.Duration.Round(time.Millisecond))
}

func taggingSummary(report tagging.Report) (statusKind, string) {
	switch {
	case report.Skipped:
		return statusInfo, "skipped: " + report.SkipReason
	case report.Failed() > 0:
		return statusWarn, fmt.Sprintf("%d of %d files failed", report.Failed(), report.Attempted)
	case report.Tagged == 0:
		return statusInfo, "no audio files found"
	default:
		return statusOK, fmt.Sprintf("tagged %d files", report.Tagged)
	}
}

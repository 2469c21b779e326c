package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/ayusman/skintone/internal/detector"
	"github.com/ayusman/skintone/internal/report"
	"github.com/ayusman/skintone/internal/tone"
	"github.com/spf13/cobra"
)

// analyzeOptions holds the flags of the analyze command.
type analyzeOptions struct {
	TonePalette     string
	NDominantColors int
	ReportPath      string
	Backend         string
	CascadePath     string
	PigoCascade     string
	Indent          bool
}

var analyzeOpts analyzeOptions

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Estimate the skin tone of the first face in an image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd, args[0], analyzeOpts)
	},
}

func init() {
	defaults := tone.DefaultOptions()

	analyzeCmd.Flags().StringVarP(&analyzeOpts.TonePalette, "palette", "p", defaults.TonePalette, "Tone palette name (accepted for compatibility, unused)")
	analyzeCmd.Flags().IntVarP(&analyzeOpts.NDominantColors, "colors", "n", defaults.NDominantColors, "Number of dominant colors (accepted for compatibility, always 3)")
	analyzeCmd.Flags().StringVarP(&analyzeOpts.ReportPath, "report", "r", "", "Write the annotated report image to this path (.png or .jpg)")
	analyzeCmd.Flags().StringVarP(&analyzeOpts.Backend, "backend", "b", detector.BackendHaar, "Face detector backend: haar or pigo")
	analyzeCmd.Flags().StringVar(&analyzeOpts.CascadePath, "cascade", "", "Path to the Haar frontal face cascade XML")
	analyzeCmd.Flags().StringVar(&analyzeOpts.PigoCascade, "pigo-cascade", "", "Path to the pigo facefinder cascade")
	analyzeCmd.Flags().BoolVar(&analyzeOpts.Indent, "indent", false, "Indent the JSON output")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, imagePath string, opts analyzeOptions) error {
	if !tone.KnownPalette(opts.TonePalette) {
		log.Printf("Unknown tone palette %q (ignored by the fallback estimator)", opts.TonePalette)
	}

	cfg := tone.DefaultConfig()
	cfg.Detector.Backend = opts.Backend
	cfg.Detector.CascadePath = opts.CascadePath
	cfg.Detector.PigoCascadePath = opts.PigoCascade

	estimator := tone.New(cfg)
	result := estimator.Analyze(imagePath, tone.Options{
		TonePalette:       opts.TonePalette,
		NDominantColors:   opts.NDominantColors,
		ReturnReportImage: opts.ReportPath != "",
	})

	enc := json.NewEncoder(cmd.OutOrStdout())
	if opts.Indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}

	if opts.ReportPath != "" {
		img, ok := result.ReportImages[tone.ReportKeyFace]
		if !ok {
			fmt.Fprintf(cmd.ErrOrStderr(), "No report image produced (status: %s)\n", result.Status())
			return nil
		}
		if err := report.Save(img, opts.ReportPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Report image written to %s\n", opts.ReportPath)
	}

	return nil
}

// standforge builds image-generation prompts for retail display stands:
// it analyzes product/shelf/stand geometry, applies form data as absolute
// truth, merges advisory 3D-scan context, compresses to budget and scores
// the result.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"standforge/internal/cache"
	"standforge/internal/config"
	"standforge/internal/dimension"
	"standforge/internal/hierarchy"
	"standforge/internal/logging"
	"standforge/internal/qa"
	"standforge/internal/spec"
	"standforge/internal/visual"
)

const version = "1.0.0"

var (
	verbose    bool
	specFile   string
	configFile string
	baseFile   string
	visualURL  string
	styleSeed  int64
	noVisual   bool
)

var rootCmd = &cobra.Command{
	Use:   "standforge",
	Short: "standforge - display-stand prompt pipeline",
	Long: `standforge turns a display-stand specification into a bounded,
validated image-generation prompt.

Form data is absolute truth: visual context and creative styling are
advisory and can never override the specification's counts, names and
dimensions.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Initialize(verbose)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logging.Sync()
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run the dimensional analyzer over a specification",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := spec.LoadFile(specFile)
		if err != nil {
			return err
		}

		res := dimension.Analyze(s)

		fmt.Printf("Physically valid: %t\n", res.IsPhysicallyValid)
		for _, issue := range res.Issues {
			fmt.Printf("Issue: %s\n", issue)
		}
		if res.Layout.ProductsPerShelf > 0 {
			fmt.Printf("Layout: %d per shelf (%d across, %d deep), capacity %d, spacing %.2f cm\n",
				res.Layout.ProductsPerShelf, res.Layout.ProductsPerRow,
				res.Layout.ProductsPerColumn, res.Layout.TotalCapacity, res.Layout.Spacing)
		}
		fmt.Printf("Utilization: shelf %.1f%%, stand %.1f%% (%s), wasted %.0f cm3\n",
			res.Utilization.ShelfUsagePercent, res.Utilization.StandUsagePercent,
			res.Utilization.Efficiency, res.Utilization.WastedVolume)
		for _, c := range res.Constraints {
			fmt.Printf("Constraint [%s/%s]: %s\n", c.Type, c.Severity, c.Suggestion)
		}
		for _, r := range res.Recommendations {
			fmt.Printf("Recommendation: %s\n", r)
		}
		return nil
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the full orchestration and print the final prompt",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, _, err := runPipeline(cmd)
		if err != nil {
			return err
		}

		fmt.Println(res.FinalPrompt)
		fmt.Println()
		fmt.Print(res.Report.Render())
		fmt.Print(res.CompressionReport)
		fmt.Print(hierarchy.RenderConflicts(res.Conflicts))
		fmt.Printf("Integrity score: %d/100\n", res.IntegrityScore)
		return nil
	},
}

var qaCmd = &cobra.Command{
	Use:   "qa",
	Short: "Generate a prompt and run the QA battery against it",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, s, err := runPipeline(cmd)
		if err != nil {
			return err
		}

		report := qa.Evaluate(res, s)
		fmt.Print(report.Render())
		fmt.Printf("Integrity score: %d/100\n", res.IntegrityScore)

		if report.OverallStatus == qa.StatusCritical {
			os.Exit(1)
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the standforge version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("standforge %s\n", version)
	},
}

// runPipeline assembles the orchestrator from flags and config and runs it.
func runPipeline(cmd *cobra.Command) (*hierarchy.Result, spec.Specification, error) {
	s, err := spec.LoadFile(specFile)
	if err != nil {
		return nil, spec.Specification{}, err
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, spec.Specification{}, err
	}
	if visualURL != "" {
		cfg.Visual.BaseURL = visualURL
		cfg.Visual.Enabled = true
	}
	if noVisual {
		cfg.Visual.Enabled = false
	}

	var vs hierarchy.VisualSource
	if cfg.Visual.Enabled && cfg.Visual.BaseURL != "" {
		timeout, err := cfg.VisualTimeout()
		if err != nil {
			return nil, spec.Specification{}, err
		}
		vs = visual.NewClient(cfg.Visual.BaseURL, timeout)
	}

	base := ""
	if baseFile != "" {
		data, err := os.ReadFile(baseFile)
		if err != nil {
			return nil, spec.Specification{}, fmt.Errorf("failed to read base prompt: %w", err)
		}
		base = strings.TrimSpace(string(data))
	} else if cmd.Flags().Changed("style-seed") {
		base = hierarchy.BasePrompt(s, styleSeed)
	}

	o := hierarchy.New(cfg, vs, cache.New())
	res, err := o.Generate(cmd.Context(), base, s)
	if err != nil {
		return nil, spec.Specification{}, err
	}
	return res, s, nil
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&specFile, "spec", "f", "spec.yaml", "specification file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "standforge.yaml", "pipeline config file")

	for _, c := range []*cobra.Command{generateCmd, qaCmd} {
		c.Flags().StringVar(&baseFile, "base", "", "file holding a hand-written base prompt")
		c.Flags().StringVar(&visualURL, "visual-url", "", "visual context service base URL")
		c.Flags().Int64Var(&styleSeed, "style-seed", 0, "creative style template seed")
		c.Flags().BoolVar(&noVisual, "no-visual", false, "skip the visual context tier")
	}

	rootCmd.AddCommand(analyzeCmd, generateCmd, qaCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Command restyle applies brand design tokens to a UI screenshot through a
// sequence of image edits.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/ui-restyler/internal/config"
	"github.com/fpang/ui-restyler/internal/logging"
	"github.com/fpang/ui-restyler/internal/restyle"
	"github.com/fpang/ui-restyler/internal/tokens"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// Global flags
var (
	configFlag   string
	logLevelFlag string
)

// cfg is loaded once in PersistentPreRunE and shared by subcommands.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "restyle",
	Short: "Restyle UI screenshots to match brand tokens",
	Long: `Restyle turns brand design tokens (colors, corner radii, shadows) into an
ordered plan of natural-language image edits and runs them one after another
against an image editing backend, keeping layout and content intact.

Examples:
  restyle run --image home.png --tokens brand.json
  restyle run --pick --steps "Primary actions,Corner radii" --seed 7
  restyle run --image s3://shots/home.png --backend dry-run --upload s3://artifacts/runs
  restyle tokens --brand Acme --primary "#FF5500" > acme.json
  restyle batch --dir screens/ --backend local
  restyle steps`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init()

		var err error
		cfg, err = config.Load(configFlag)
		if err != nil {
			return err
		}

		level := cfg.LogLevel
		if cmd.Flags().Changed("log-level") {
			level = logLevelFlag
		}
		logging.InitWithLevel(level)

		log.Debug().Str("version", version).Str("save_dir", cfg.SaveDir).Str("backend", cfg.Backend).Msg("Configuration loaded")
		return nil
	},
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print the sample brand token document",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(restyle.LoadSampleTokens(cfg.SampleTokensPath))
	},
}

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "List the available edit steps",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		defaults := make(map[restyle.StepKey]bool)
		for _, k := range restyle.DefaultStepKeys {
			defaults[k] = true
		}
		fmt.Printf("%-26s %-24s %-8s %s\n", "KEY", "LABEL", "STRENGTH", "DEFAULT")
		for _, d := range restyle.Catalog() {
			mark := ""
			if defaults[d.Key] {
				mark = "yes"
			}
			fmt.Printf("%-26s %-24s %-8.2f %s\n", d.Key, d.Label, d.Strength, mark)
		}
	},
}

var tokenForm tokens.Form
var tokensOutFlag string

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Build a brand token document from individual values",
	Long: `Builds a token document from flags. Blank values take defaults; radii
that are not positive numbers fall back to their defaults.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := restyle.TokensFromForm(tokenForm)
		if err != nil {
			return err
		}
		if tokensOutFlag == "" {
			fmt.Println(text)
			return nil
		}
		if err := os.WriteFile(tokensOutFlag, []byte(text+"\n"), 0644); err != nil {
			return fmt.Errorf("failed to write tokens: %w", err)
		}
		log.Info().Str("path", tokensOutFlag).Msg("Tokens written")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "Config file (default: restyle.yaml in ., ./configs or $HOME/.ui-restyler)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "info", "Log level: debug, info, warn, error")

	f := tokensCmd.Flags()
	f.StringVar(&tokenForm.Brand, "brand", "", "Brand name (default "+tokens.DefaultFormBrand+")")
	f.StringVar(&tokenForm.Primary, "primary", "", "Primary color (default "+tokens.DefaultPrimary+")")
	f.StringVar(&tokenForm.Secondary, "secondary", "", "Secondary color (default "+tokens.DefaultSecondary+")")
	f.StringVar(&tokenForm.Background, "background", "", "Background color (default "+tokens.DefaultBackground+")")
	f.StringVar(&tokenForm.Surface, "surface", "", "Surface color (default "+tokens.DefaultSurface+")")
	f.StringVar(&tokenForm.Link, "link", "", "Link color (default "+tokens.DefaultLink+")")
	f.StringVar(&tokenForm.TextOnDark, "text-on-dark", "", "Text color on dark surfaces (default "+tokens.DefaultTextOnDark+")")
	f.StringVar(&tokenForm.TextOnLight, "text-on-light", "", "Text color on light surfaces (default "+tokens.DefaultTextOnLight+")")
	f.StringVar(&tokenForm.RadiusButton, "radius-button", "", "Button corner radius in px")
	f.StringVar(&tokenForm.RadiusCard, "radius-card", "", "Card corner radius in px")
	f.StringVar(&tokenForm.RadiusInput, "radius-input", "", "Input corner radius in px")
	f.StringVar(&tokenForm.RadiusChip, "radius-chip", "", "Chip corner radius in px")
	f.StringVar(&tokenForm.Elevation1, "elevation1", "", "Shadow for elevation 1")
	f.StringVar(&tokenForm.Elevation2, "elevation2", "", "Shadow for elevation 2")
	f.StringVarP(&tokensOutFlag, "out", "o", "", "Write to file instead of stdout")

	rootCmd.AddCommand(runCmd, batchCmd, tokensCmd, sampleCmd, stepsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// splitList splits comma-separated flag values and drops blanks.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fpang/ui-restyler/internal/backend"
	"github.com/fpang/ui-restyler/internal/cli"
	"github.com/fpang/ui-restyler/internal/filehandler"
	"github.com/fpang/ui-restyler/internal/lambdaboot"
	"github.com/fpang/ui-restyler/internal/restyle"
	"github.com/fpang/ui-restyler/internal/s3util"
)

// Flags shared by run and batch
var (
	logoFlag     string
	tokensFlag   string
	stepsFlag    []string
	seedFlag     int64
	strengthFlag float64
	backendFlag  string
	jitterFlag   bool
	saveDirFlag  string
	metricsFlag  bool
	hideSteps    bool
	uploadFlag   string
)

// run-only flags
var (
	imageFlag string
	pickFlag  bool
)

// batch-only flags
var (
	dirFlag   string
	depthFlag int
	limitFlag int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Restyle a screenshot",
	Long: `Runs the edit plan for the selected steps against a screenshot and writes
every intermediate image, its prompt, and final.png under the save directory.

Images may be local paths or s3://bucket/key locations. Without --image or
--pick the path is read interactively.`,
	Args: cobra.NoArgs,
	Run:  runMain,
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Restyle every screenshot in a directory",
	Long: `Runs the same tokens and steps against every image found under --dir.
Each screenshot gets its own output directory under the save directory,
named after the file. A failed screenshot is reported and skipped.`,
	Args: cobra.NoArgs,
	Run:  batchMain,
}

func addRestyleFlags(f *pflag.FlagSet) {
	f.StringVar(&logoFlag, "logo", "", "Brand logo path or s3:// URI")
	f.StringVarP(&tokensFlag, "tokens", "t", "", "Token document (JSON or YAML); '-' reads stdin. Default: sample tokens")
	f.StringSliceVarP(&stepsFlag, "steps", "s", nil, "Step keys or labels (default: all follow-up steps)")
	f.Int64Var(&seedFlag, "seed", 0, "Base seed; <= 0 draws a random seed per step (default from config)")
	f.Float64Var(&strengthFlag, "strength", 0, "Strength multiplier (default from config)")
	f.StringVarP(&backendFlag, "backend", "b", "", "Backend: fal, gemini, local, dry-run (default from config)")
	f.BoolVar(&jitterFlag, "jitter", true, "Offset the seed by the step index")
	f.StringVarP(&saveDirFlag, "save-dir", "o", "", "Output directory (default from config)")
	f.BoolVar(&metricsFlag, "metrics", false, "Emit CloudWatch EMF metrics to stdout")
	f.BoolVar(&hideSteps, "final-only", false, "Do not list intermediate outputs")
	f.StringVar(&uploadFlag, "upload", "", "Upload run artifacts to s3://bucket/prefix")
}

func init() {
	addRestyleFlags(runCmd.Flags())
	runCmd.Flags().StringVarP(&imageFlag, "image", "i", "", "Screenshot path or s3:// URI")
	runCmd.Flags().BoolVar(&pickFlag, "pick", false, "Choose the screenshot with a native file dialog")

	addRestyleFlags(batchCmd.Flags())
	batchCmd.Flags().StringVarP(&dirFlag, "dir", "d", "", "Directory of screenshots (required)")
	batchCmd.Flags().IntVar(&depthFlag, "depth", 0, "Maximum recursion depth (0 = unlimited)")
	batchCmd.Flags().IntVar(&limitFlag, "limit", 0, "Maximum number of screenshots (0 = unlimited)")
	_ = batchCmd.MarkFlagRequired("dir")
}

// applyOverrides copies explicitly set flags over the loaded config.
func applyOverrides(flags *pflag.FlagSet) {
	if flags.Changed("seed") {
		cfg.Seed = seedFlag
	}
	if flags.Changed("strength") {
		cfg.StrengthMultiplier = strengthFlag
	}
	if flags.Changed("jitter") {
		cfg.SeedJitter = jitterFlag
	}
	if flags.Changed("save-dir") {
		cfg.SaveDir = saveDirFlag
	}
	if flags.Changed("metrics") {
		cfg.Metrics.Enabled = metricsFlag
	}
	if !restyle.ValidMultiplier(cfg.StrengthMultiplier) {
		log.Fatal().Float64("strength", cfg.StrengthMultiplier).Msg("Strength multiplier must be a finite non-negative number")
	}
}

func runMain(cmd *cobra.Command, args []string) {
	start := time.Now()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	applyOverrides(cmd.Flags())

	in := &inputs{ctx: ctx}
	defer in.cleanup()

	imagePath := imageFlag
	switch {
	case pickFlag:
		p, err := cli.PickImage("Select a UI screenshot")
		if err != nil {
			if errors.Is(err, cli.ErrPickerCanceled) {
				fmt.Println("No screenshot selected.")
				return
			}
			log.Fatal().Err(err).Msg("Failed to pick screenshot")
		}
		imagePath = p
	case imagePath == "":
		imagePath = cli.PromptForPath(os.Stdin, os.Stdout, "Screenshot", "")
	}

	img := in.load(imagePath, "screenshot")
	logo := in.loadLogo()
	tokensText := readTokens(tokensFlag)
	editor := cli.InitEditor(cfg, backendFlag)

	printHeader("UI Restyle", editor)
	fmt.Printf("Screenshot: %s (%dx%d)\n", imagePath, img.Bounds().Dx(), img.Bounds().Dy())
	fmt.Println("--------------------------------------------")

	res, err := restyleOne(ctx, img, logo, tokensText, editor, cfg.SaveDir)
	if err != nil {
		if res != nil && res.Info != "" {
			fmt.Println(res.Info)
			fmt.Println("--------------------------------------------")
		}
		cli.HandleRestyleError(err)
	}
	printResult(res)

	if uploadFlag != "" {
		uploadArtifacts(ctx, in.s3Client(), res)
	}

	fmt.Println("============================================")
	fmt.Printf("Done in %s (%d step(s), run %s)\n", cli.FormatDurationShort(time.Since(start)), len(res.Plan), res.Run.RunID)
}

func batchMain(cmd *cobra.Command, args []string) {
	start := time.Now()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	applyOverrides(cmd.Flags())

	paths, err := filehandler.ScanImages(dirFlag, filehandler.ScanOptions{
		MaxDepth: depthFlag,
		Limit:    limitFlag,
		Exclude:  []string{cfg.SaveDir},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to scan directory")
	}
	if len(paths) == 0 {
		fmt.Printf("No screenshots found in %s\n", dirFlag)
		return
	}

	in := &inputs{ctx: ctx}
	defer in.cleanup()

	logo := in.loadLogo()
	tokensText := readTokens(tokensFlag)
	editor := cli.InitEditor(cfg, backendFlag)

	printHeader("UI Restyle (batch)", editor)
	fmt.Printf("Screenshots: %d in %s\n", len(paths), dirFlag)

	var failed int
	for i, p := range paths {
		if ctx.Err() != nil {
			break
		}
		fmt.Println("--------------------------------------------")
		fmt.Printf("[%d/%d] %s\n", i+1, len(paths), p)

		img, err := filehandler.LoadImage(p)
		if err != nil {
			log.Error().Err(err).Str("path", p).Msg("Skipping unreadable screenshot")
			failed++
			continue
		}

		saveDir := filepath.Join(cfg.SaveDir, batchDirName(i, p))
		res, err := restyleOne(ctx, img, logo, tokensText, editor, saveDir)
		if err != nil {
			log.Error().Str("path", p).Msg(cli.ErrorMessage(err))
			failed++
			continue
		}
		fmt.Printf("Saved final image to: %s\n", res.FinalPath)

		if uploadFlag != "" {
			uploadArtifacts(ctx, in.s3Client(), res)
		}
	}

	fmt.Println("============================================")
	fmt.Printf("Done in %s (%d succeeded, %d failed)\n", cli.FormatDurationShort(time.Since(start)), len(paths)-failed, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func restyleOne(ctx context.Context, img, logo image.Image, tokensText string, editor backend.Editor, saveDir string) (*restyle.Result, error) {
	return restyle.Restyle(ctx, restyle.Request{
		Image:              img,
		Logo:               logo,
		TokensText:         tokensText,
		Steps:              splitList(stepsFlag),
		Seed:               cfg.Seed,
		StrengthMultiplier: cfg.StrengthMultiplier,
		SeedJitter:         cfg.SeedJitter,
		Backend:            editor,
		SaveDir:            saveDir,
		ShowSteps:          !hideSteps,
		Metrics:            cfg.MetricsEmitter(),
	})
}

func printHeader(title string, editor backend.Editor) {
	fmt.Println()
	fmt.Println("============================================")
	fmt.Println(title)
	fmt.Println("============================================")
	if logoFlag != "" {
		fmt.Printf("Logo: %s\n", logoFlag)
	}
	fmt.Printf("Backend: %s\n", editor.Name())
	fmt.Printf("Seed: %d (jitter: %t)  Strength x%.2f\n", cfg.Seed, cfg.SeedJitter, cfg.StrengthMultiplier)
	fmt.Printf("Output: %s\n", cfg.SaveDir)
}

func printResult(res *restyle.Result) {
	if hideSteps {
		fmt.Printf("Saved final image to: %s\n", res.FinalPath)
		return
	}
	fmt.Println(res.Info)
}

// batchDirName names a screenshot's output directory. The index prefix
// keeps same-named files from different subdirectories apart.
func batchDirName(i int, path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return fmt.Sprintf("%03d_%s", i+1, base)
}

// inputs resolves local and S3 image paths, tracking temp files for cleanup.
type inputs struct {
	ctx      context.Context
	client   *s3.Client
	cleanups []func()
}

func (in *inputs) s3Client() *s3.Client {
	if in.client == nil {
		in.client = s3.NewFromConfig(lambdaboot.InitAWS().Config)
	}
	return in.client
}

func (in *inputs) loadLogo() image.Image {
	if logoFlag == "" {
		return nil
	}
	return in.load(logoFlag, "logo")
}

func (in *inputs) load(path, what string) image.Image {
	if s3util.IsURI(path) {
		local, cleanup, err := s3util.DownloadURI(in.ctx, in.s3Client(), path)
		if err != nil {
			log.Fatal().Err(err).Str("uri", path).Msgf("Failed to download %s", what)
		}
		in.cleanups = append(in.cleanups, cleanup)
		path = local
	}

	path = cli.ValidateAndResolveImage(path)
	img, err := filehandler.LoadImage(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msgf("Failed to load %s", what)
	}
	return img
}

func (in *inputs) cleanup() {
	for _, c := range in.cleanups {
		c()
	}
}

// readTokens returns the token document text from a file, stdin, or the
// sample document when no source is given.
func readTokens(source string) string {
	switch source {
	case "":
		log.Info().Msg("No tokens given; using sample tokens")
		return restyle.LoadSampleTokens(cfg.SampleTokensPath)
	case "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to read tokens from stdin")
		}
		return string(data)
	default:
		data, err := os.ReadFile(filepath.Clean(source))
		if err != nil {
			log.Fatal().Err(err).Str("path", source).Msg("Failed to read tokens")
		}
		return string(data)
	}
}

func uploadArtifacts(ctx context.Context, client *s3.Client, res *restyle.Result) {
	bucket, prefix, err := s3util.ParseURI(uploadFlag, true)
	if err != nil {
		log.Error().Err(err).Msg("Invalid upload location; skipping upload")
		return
	}
	u := &s3util.Uploader{
		Client:    client,
		Presigner: s3.NewPresignClient(client),
		Bucket:    bucket,
		Prefix:    prefix,
	}
	artifacts, err := u.UploadRun(ctx, res.Run.RunDir, res.FinalPath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upload run artifacts")
		return
	}
	fmt.Printf("Uploaded %d artifact(s) to s3://%s/\n", len(artifacts), bucket)
	for _, a := range artifacts {
		if a.Name == restyle.FinalFileName && a.URL != "" {
			fmt.Printf("Final image: %s\n", a.URL)
		}
	}
}

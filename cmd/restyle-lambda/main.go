// Command restyle-lambda runs the restyler HTTP API behind API Gateway.
package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/rs/zerolog/log"

	"github.com/fpang/ui-restyler/internal/backend"
	"github.com/fpang/ui-restyler/internal/config"
	"github.com/fpang/ui-restyler/internal/lambdaboot"
	"github.com/fpang/ui-restyler/internal/logging"
	"github.com/fpang/ui-restyler/internal/s3util"
	"github.com/fpang/ui-restyler/internal/webapi"
)

const (
	artifactBucketEnvVar = "RESTYLE_ARTIFACT_BUCKET"
	artifactPrefixEnvVar = "RESTYLE_ARTIFACT_PREFIX"
	defaultLambdaSaveDir = "/tmp/restyle"
)

var api *webapi.Server

func init() {
	initStart := time.Now()
	logging.Init()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	// Only /tmp is writable in Lambda.
	if !strings.HasPrefix(filepath.Clean(cfg.SaveDir), "/tmp") {
		cfg.SaveDir = defaultLambdaSaveDir
	}
	if err := os.MkdirAll(cfg.SaveDir, 0755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.SaveDir).Msg("Failed to create save directory")
	}

	aws := lambdaboot.InitAWS()

	var keyParam string
	switch cfg.Variant() {
	case backend.VariantFAL:
		keyParam = lambdaboot.LoadFALKey(aws.SSM)
	case backend.VariantGemini:
		keyParam = lambdaboot.LoadGeminiKey(aws.SSM)
	}

	var uploader *s3util.Uploader
	s3c := lambdaboot.InitS3Optional(aws.Config, artifactBucketEnvVar)
	if s3c != nil {
		uploader = &s3util.Uploader{
			Client:    s3c.Client,
			Presigner: s3c.Presigner,
			Bucket:    s3c.Bucket,
			Prefix:    os.Getenv(artifactPrefixEnvVar),
		}
	}

	originVerifySecret := os.Getenv("ORIGIN_VERIFY_SECRET")
	if originVerifySecret == "" {
		log.Warn().Msg("ORIGIN_VERIFY_SECRET not set; origin verification disabled")
	}

	var origins []string
	if v := os.Getenv("RESTYLE_ALLOWED_ORIGINS"); v != "" {
		origins = strings.Split(v, ",")
	}

	api = webapi.New(webapi.Config{
		SaveDir:          cfg.SaveDir,
		SampleTokensPath: cfg.SampleTokensPath,
		Defaults: webapi.Defaults{
			Backend:            cfg.Variant(),
			Seed:               cfg.Seed,
			StrengthMultiplier: cfg.StrengthMultiplier,
			SeedJitter:         cfg.SeedJitter,
		},
		BackendOptions:     cfg.BackendOptions(),
		MaxUploadBytes:     cfg.Server.MaxUploadBytes,
		Metrics:            cfg.MetricsEmitter(),
		Artifacts:          uploader,
		OriginVerifySecret: originVerifySecret,
		AllowedOrigins:     origins,
	})

	sl := lambdaboot.StartupLog("restyle-lambda", initStart).
		Version(commitHash+"@"+buildTime).
		Feature("artifactUpload", uploader != nil).
		Feature("originVerify", originVerifySecret != "").
		Feature("metrics", cfg.Metrics.Enabled).
		Config("backend", cfg.Backend).
		Config("saveDir", cfg.SaveDir)
	if s3c != nil {
		sl = sl.S3Bucket("artifacts", s3c.Bucket)
	}
	if keyParam != "" {
		sl = sl.SSMParam("apiKey", keyParam)
	}
	sl.Log()
}

func main() {
	adapter := httpadapter.NewV2(api.Handler())
	lambda.Start(adapter.ProxyWithContext)
}

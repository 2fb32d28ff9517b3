// Package lambdaboot holds the Lambda cold-start bootstrap: AWS config, the
// optional artifact bucket, SSM-backed API keys, and startup logging.
package lambdaboot

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"

	"github.com/fpang/ui-restyler/internal/logging"
)

// Default SSM parameter paths, overridable through the *_PARAM env vars.
const (
	DefaultFALKeyParam    = "/ui-restyler/prod/fal-key"
	DefaultGeminiKeyParam = "/ui-restyler/prod/gemini-api-key"
)

// AWSClients holds the core AWS SDK clients used by the Lambda.
type AWSClients struct {
	Config aws.Config
	SSM    *ssm.Client
}

// S3Clients holds the S3 client, presigner, and bucket name.
type S3Clients struct {
	Client    *s3.Client
	Presigner *s3.PresignClient
	Bucket    string
}

// ParameterGetter is the subset of the SSM client used to read secrets.
type ParameterGetter interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// InitAWS loads the default AWS config and returns it along with common clients.
func InitAWS() AWSClients {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	log.Debug().Str("region", cfg.Region).Msg("AWS config loaded")
	return AWSClients{
		Config: cfg,
		SSM:    ssm.NewFromConfig(cfg),
	}
}

// InitS3Optional creates S3 clients when bucketEnvVar is set. Returns nil
// (with a warning) otherwise.
func InitS3Optional(cfg aws.Config, bucketEnvVar string) *S3Clients {
	bucket := os.Getenv(bucketEnvVar)
	if bucket == "" {
		log.Warn().Str("envVar", bucketEnvVar).Msg("Artifact bucket not set; uploads disabled")
		return nil
	}
	client := s3.NewFromConfig(cfg)
	return &S3Clients{
		Client:    client,
		Presigner: s3.NewPresignClient(client),
		Bucket:    bucket,
	}
}

// LoadSecret copies an SSM SecureString into envVar unless envVar is already
// set. The parameter name comes from paramEnvVar, or defaultParam when unset.
// Returns the parameter name that was read, or "" when the env var was set.
func LoadSecret(ctx context.Context, getter ParameterGetter, envVar, paramEnvVar, defaultParam string) (string, error) {
	if os.Getenv(envVar) != "" {
		return "", nil
	}
	paramName := logging.EnvOrDefault(paramEnvVar, defaultParam)

	start := time.Now()
	result, err := getter.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &paramName,
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return paramName, fmt.Errorf("read %s from SSM: %w", paramName, err)
	}
	if result.Parameter == nil || result.Parameter.Value == nil || *result.Parameter.Value == "" {
		return paramName, fmt.Errorf("SSM parameter %s is empty", paramName)
	}
	if err := os.Setenv(envVar, *result.Parameter.Value); err != nil {
		return paramName, fmt.Errorf("set %s: %w", envVar, err)
	}
	log.Debug().Str("param", paramName).Dur("elapsed", time.Since(start)).Msg("API key loaded from SSM")
	return paramName, nil
}

// LoadFALKey fetches FAL_KEY from SSM (SSM_FAL_KEY_PARAM) when unset. Fatals on error.
func LoadFALKey(getter ParameterGetter) string {
	param, err := LoadSecret(context.Background(), getter, "FAL_KEY", "SSM_FAL_KEY_PARAM", DefaultFALKeyParam)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load FAL API key")
	}
	return param
}

// LoadGeminiKey fetches GEMINI_API_KEY from SSM (SSM_API_KEY_PARAM) when unset.
// Non-fatal: the Gemini backend reports a missing key on first use.
func LoadGeminiKey(getter ParameterGetter) string {
	param, err := LoadSecret(context.Background(), getter, "GEMINI_API_KEY", "SSM_API_KEY_PARAM", DefaultGeminiKeyParam)
	if err != nil {
		log.Warn().Err(err).Msg("Gemini API key not available; gemini backend disabled")
	}
	return param
}

// StartupLog is a convenience wrapper for the startup logger.
func StartupLog(name string, initStart time.Time) *logging.StartupLogger {
	return logging.NewStartupLogger(name).InitDuration(time.Since(initStart))
}

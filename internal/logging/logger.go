package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LevelEnvVar controls the log level: debug, info, warn, error (default: info).
const LevelEnvVar = "RESTYLE_LOG_LEVEL"

// Init initializes the global logger from RESTYLE_LOG_LEVEL.
func Init() {
	InitWithLevel(os.Getenv(LevelEnvVar))
}

// InitWithLevel initializes the global logger at the given level. Inside
// Lambda the output stays JSON for CloudWatch; elsewhere it is a console
// writer on stderr.
func InitWithLevel(level string) {
	zerolog.SetGlobalLevel(ParseLevel(level))

	if IsLambda() {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// IsLambda reports whether the process runs inside AWS Lambda.
func IsLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

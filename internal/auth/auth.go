// Package auth resolves API credentials for the hosted image-editing
// providers. Keys are read, never negotiated: from the environment first,
// then from a GPG-encrypted file under ~/.ui-restyler/.
package auth

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

const credentialDir = ".ui-restyler"

// ErrNoKey is returned when no source yields a credential.
var ErrNoKey = errors.New("API key not found")

// Provider describes where to look for one provider's credential.
type Provider struct {
	// Name is used in log fields and error messages.
	Name string
	// EnvVars are checked in order; later names are aliases of the first.
	EnvVars []string
	// CredentialFile is the GPG file name inside ~/.ui-restyler/.
	CredentialFile string
}

// FAL is the FLUX.1 Kontext hosting provider. FAL_API_KEY is accepted as an
// alias of FAL_KEY.
var FAL = Provider{
	Name:           "fal",
	EnvVars:        []string{"FAL_KEY", "FAL_API_KEY"},
	CredentialFile: "fal-credentials.gpg",
}

// Gemini is the Google Gemini API provider.
var Gemini = Provider{
	Name:           "gemini",
	EnvVars:        []string{"GEMINI_API_KEY"},
	CredentialFile: "gemini-credentials.gpg",
}

// GetAPIKey retrieves the provider's API key from available sources.
// Priority order:
//  1. Each of the provider's environment variables, in order
//  2. GPG-encrypted file at ~/.ui-restyler/<CredentialFile>
func GetAPIKey(p Provider) (string, error) {
	for _, name := range p.EnvVars {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			log.Debug().Str("provider", p.Name).Str("env_var", name).Msg("Using API key from environment variable")
			return key, nil
		}
	}

	key, err := getFromGPG(p.CredentialFile)
	if err == nil && key != "" {
		log.Debug().Str("provider", p.Name).Msg("Using API key from GPG encrypted file")
		return key, nil
	}

	log.Debug().Err(err).Str("provider", p.Name).Msg("No API key available")
	return "", fmt.Errorf("%w for %s: set %s", ErrNoKey, p.Name, strings.Join(p.EnvVars, " or "))
}

// getFromGPG decrypts the API key from the GPG-encrypted credentials file.
func getFromGPG(fileName string) (string, error) {
	credPath, err := getCredentialPath(fileName)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(credPath); os.IsNotExist(err) {
		return "", fmt.Errorf("GPG credentials file not found at %s", credPath)
	}

	log.Debug().Str("file", credPath).Msg("Decrypting GPG credentials")

	// Build GPG command with optional passphrase file for non-interactive use
	args := []string{"--decrypt", "--quiet"}

	passphrasePath, err := getPassphrasePath()
	if err == nil {
		fi, statErr := os.Stat(passphrasePath)
		if statErr == nil {
			// passphrase file must be owner-only
			mode := fi.Mode().Perm()
			if mode&0077 != 0 {
				log.Warn().
					Str("passphrase_file", passphrasePath).
					Str("permissions", fmt.Sprintf("%04o", mode)).
					Msg("Passphrase file has insecure permissions (should be 0600); skipping")
			} else {
				log.Debug().Str("passphrase_file", passphrasePath).Msg("Using passphrase file for GPG decryption")
				args = append(args, "--pinentry-mode", "loopback", "--passphrase-file", passphrasePath)
			}
		}
	}

	args = append(args, credPath)
	cmd := exec.Command("gpg", args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("GPG decryption failed: %s", string(exitErr.Stderr))
		}
		return "", fmt.Errorf("GPG decryption failed: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}

// getCredentialPath returns the full path to a credentials file.
func getCredentialPath(fileName string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, credentialDir, fileName), nil
}

// getPassphrasePath returns the path to the GPG passphrase file next to the
// executable, falling back to the working directory for development.
func getPassphrasePath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}

	passphrasePath := filepath.Join(filepath.Dir(exe), ".gpg-passphrase")
	if _, err := os.Stat(passphrasePath); err == nil {
		return passphrasePath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	return filepath.Join(cwd, ".gpg-passphrase"), nil
}

package app

import (
	"crypto/rand"
	"encoding/hex"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/minimal-todo/internal/config"
)

func MustReadConfig(logger zerolog.Logger) *config.Config {
	cfg, err := config.NewEnvReader().Read()
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to read env")
		panic(err)
	}
	logger.Info().
		Str("env", cfg.Env).
		Msg("read env")

	if cfg.JWT.SigningKey == "" {
		cfg.JWT.SigningKey, err = generateSigningKey()
		if err != nil {
			logger.Error().
				Err(err).
				Msg("failed to generate jwt signing key")
			panic(err)
		}
		logger.Warn().
			Str("env", cfg.Env).
			Msg("JWT_SIGNING_KEY is not set, using an ephemeral key; tokens will not survive a restart")
	}

	return cfg
}

// generateSigningKey returns a random hex key of config.MinSigningKeyLength bytes.
func generateSigningKey() (string, error) {
	key := make([]byte, config.MinSigningKeyLength)
	_, err := rand.Read(key)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

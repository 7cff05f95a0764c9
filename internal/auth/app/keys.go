package app

import (
	"crypto/ed25519"
	"fmt"
	"log/slog"
	"os"

	"github.com/redbrickhq/gatehouse/pkg/cryptox"
)

// loadSigningKey loads the Ed25519 signing key from cfg.KeyFile, or
// generates an ephemeral one when no path is configured. Ephemeral keys
// invalidate every outstanding token on restart, which is fine for dev
// and wrong for anything else.
func loadSigningKey(cfg Config, logger *slog.Logger) (ed25519.PrivateKey, error) {
	if cfg.KeyFile == "" {
		logger.Warn("no signing key configured, generating an ephemeral one",
			"hint", "set AUTH_KEY_FILE to persist tokens across restarts")

		pemKey, err := cryptox.GenerateEd25519Key()
		if err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
		return cryptox.ParseEd25519PrivateKeyPEM(pemKey)
	}

	pemKey, err := os.ReadFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("read signing key %s: %w", cfg.KeyFile, err)
	}

	key, err := cryptox.ParseEd25519PrivateKeyPEM(pemKey)
	if err != nil {
		return nil, fmt.Errorf("parse signing key %s: %w", cfg.KeyFile, err)
	}

	logger.Info("signing key loaded", "path", cfg.KeyFile)
	return key, nil
}

package app

import (
	"fmt"
	"log/slog"

	"github.com/evamind/gateway/pkg/cryptox"
	"github.com/evamind/gateway/pkg/jwtx"
)

// InitSigningKeys builds the HS256 secret set. Outside prod an empty
// secret is replaced by a random per-process one, so every token becomes
// invalid when the gateway restarts.
func InitSigningKeys(cfg Config, logger *slog.Logger) (*jwtx.SecretSet, error) {
	active := cfg.SigningSecret
	if active == "" {
		if cfg.Env == "prod" {
			return nil, fmt.Errorf("%w: GATEWAY_SIGNING_SECRET is required", ErrInsecureConfig)
		}
		generated, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return nil, fmt.Errorf("generate ephemeral signing secret: %w", err)
		}
		active = generated
		logger.Warn("no signing secret configured, using an ephemeral one; tokens will not survive a restart")
	}

	previous := make([][]byte, len(cfg.PreviousSigningSecrets))
	for i, s := range cfg.PreviousSigningSecrets {
		previous[i] = []byte(s)
	}

	keys, err := jwtx.NewSecretSet([]byte(active), previous...)
	if err != nil {
		return nil, err
	}

	kid, _ := keys.Active()
	logger.Info("signing keys loaded", "kid", kid, "previous", len(previous))
	return keys, nil
}

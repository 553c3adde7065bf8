package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

// VaultBackend implements a storage backend using HashiCorp Vault's KV v2
// secrets engine. Snapshot artifacts in particular are kept here so the
// registry state never sits on plain object storage.
type VaultBackend struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// NewVaultBackend creates a Vault storage backend authenticated with a
// token.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - token: Vault token
//   - mountPath: KV v2 mount path (e.g. "secret")
//   - dataPath: Path within the mount (e.g. "fidesinnova")
func NewVaultBackend(address, token, mountPath, dataPath string, log *slog.Logger) (*VaultBackend, error) {
	config := api.DefaultConfig()
	config.Address = address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	mountPath = strings.TrimSuffix(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultBackend{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", strings.TrimPrefix(strings.TrimPrefix(address, "https://"), "http://"), mountPath, dataPath),
	}, nil
}

// Fetch retrieves an artifact from Vault by its content identifier and
// type, using the KV v2 path structure.
func (b *VaultBackend) Fetch(ctx context.Context, id interfaces.ArtifactID, artifactType interfaces.ArtifactType) ([]byte, error) {
	start := time.Now()
	path := b.getSecretPath(id, artifactType)

	secret, err := b.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		b.log.Error("Failed to read from Vault",
			slog.String("path", path),
			"err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	if secret == nil || secret.Data == nil {
		b.log.Debug("Artifact not found in Vault", slog.String("path", path))
		return nil, interfaces.ErrArtifactNotFound
	}

	payload, err := decodeVaultSecret(secret.Data)
	if err != nil {
		return nil, err
	}

	b.log.Debug("Fetched artifact from Vault",
		slog.String("artifact_id", id.String()),
		slog.Duration("duration", time.Since(start)))

	return payload, nil
}

// decodeVaultSecret unwraps a KV v2 read response and base64-decodes the
// artifact payload.
func decodeVaultSecret(secretData map[string]interface{}) ([]byte, error) {
	// KV v2 wraps the payload in a "data" map.
	data, ok := secretData["data"]
	if !ok {
		return nil, fmt.Errorf("invalid data format in Vault response")
	}
	content, ok := data.(map[string]interface{})["content"]
	if !ok {
		return nil, fmt.Errorf("content key not found in Vault data")
	}
	contentStr, ok := content.(string)
	if !ok {
		return nil, fmt.Errorf("invalid content format in Vault data")
	}
	payload, err := base64.StdEncoding.DecodeString(contentStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode Vault content: %w", err)
	}
	return payload, nil
}

// encodeVaultSecret builds the KV v2 write payload. Artifacts are binary, so
// the content goes in base64 rather than as a raw string that JSON transport
// would mangle.
func encodeVaultSecret(data []byte) map[string]interface{} {
	return map[string]interface{}{
		"data": map[string]interface{}{
			"content": base64.StdEncoding.EncodeToString(data),
		},
	}
}

// Store saves an artifact to Vault and returns its content identifier, the
// SHA-256 hash of the data.
func (b *VaultBackend) Store(ctx context.Context, data []byte, artifactType interfaces.ArtifactType) (interfaces.ArtifactID, error) {
	start := time.Now()
	id := interfaces.ComputeArtifactID(data)
	path := b.getSecretPath(id, artifactType)

	_, err := b.client.Logical().WriteWithContext(ctx, path, encodeVaultSecret(data))
	if err != nil {
		b.log.Error("Failed to write to Vault",
			slog.String("path", path),
			"err", err)
		return id, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Debug("Stored artifact in Vault",
		slog.String("artifact_id", id.String()),
		slog.Duration("duration", time.Since(start)))

	return id, nil
}

// Available checks that Vault is reachable, initialized, and unsealed.
func (b *VaultBackend) Available(ctx context.Context) bool {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := b.client.Sys().HealthWithContext(healthCtx)
	if err != nil {
		b.log.Debug("Vault health check failed", "err", err)
		return false
	}

	if !health.Initialized || health.Sealed {
		b.log.Debug("Vault is not available",
			slog.Bool("initialized", health.Initialized),
			slog.Bool("sealed", health.Sealed))
		return false
	}

	return true
}

// Name returns a unique identifier for this storage backend.
func (b *VaultBackend) Name() string {
	return fmt.Sprintf("vault-%s-%s", b.mountPath, b.dataPath)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *VaultBackend) LocationURI() string {
	return b.locationURI
}

func (b *VaultBackend) getSecretPath(id interfaces.ArtifactID, artifactType interfaces.ArtifactType) string {
	if b.dataPath == "" {
		return fmt.Sprintf("%s/data/%s/%s", b.mountPath, artifactType, id)
	}
	return fmt.Sprintf("%s/data/%s/%s/%s", b.mountPath, b.dataPath, artifactType, id)
}

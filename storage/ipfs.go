package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	shell "github.com/ipfs/go-ipfs-api"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

// IPFSBackend implements a storage backend using the InterPlanetary File
// System. Artifacts are pinned under a per-type MFS path keyed by their
// content identifier so they stay resolvable without a CID index.
type IPFSBackend struct {
	shell       *shell.Shell
	host        string
	port        string
	log         *slog.Logger
	locationURI string
}

// NewIPFSBackend creates an IPFS storage backend connected to the specified
// node API host and port.
func NewIPFSBackend(host, port, timeout string, log *slog.Logger) (*IPFSBackend, error) {
	apiURL := fmt.Sprintf("%s:%s", host, port)

	return &IPFSBackend{
		shell:       shell.NewShell(apiURL),
		host:        host,
		port:        port,
		log:         log,
		locationURI: fmt.Sprintf("ipfs://%s/?timeout=%s", apiURL, timeout),
	}, nil
}

// Fetch retrieves an artifact from IPFS by its content identifier and type.
// Returns ErrArtifactNotFound if the content doesn't exist or
// ErrBackendUnavailable if the IPFS node is not accessible.
func (b *IPFSBackend) Fetch(ctx context.Context, id interfaces.ArtifactID, artifactType interfaces.ArtifactType) ([]byte, error) {
	start := time.Now()
	path := b.getMFSPath(id, artifactType)

	if !b.shell.IsUp() {
		b.log.Warn("IPFS node unavailable",
			slog.String("host", b.host),
			slog.String("port", b.port))
		return nil, interfaces.ErrBackendUnavailable
	}

	reader, err := b.shell.FilesRead(ctx, path)
	if err != nil {
		if strings.Contains(err.Error(), "does not exist") || strings.Contains(err.Error(), "no link named") {
			b.log.Debug("Artifact not found in IPFS",
				slog.String("path", path),
				slog.Duration("duration", time.Since(start)))
			return nil, interfaces.ErrArtifactNotFound
		}

		b.log.Error("Failed to fetch artifact from IPFS",
			slog.String("path", path),
			"err", err,
			slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("failed to fetch artifact from IPFS: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact from IPFS: %w", err)
	}

	b.log.Debug("Fetched artifact from IPFS",
		slog.String("path", path),
		slog.Int("size", len(data)),
		slog.Duration("duration", time.Since(start)))

	return data, nil
}

// Store adds an artifact to IPFS and returns its content identifier, the
// SHA-256 hash of the data. The artifact is also written to the node's MFS
// under its identifier so Fetch can find it again. Returns
// ErrBackendUnavailable if the IPFS node is not accessible.
func (b *IPFSBackend) Store(ctx context.Context, data []byte, artifactType interfaces.ArtifactType) (interfaces.ArtifactID, error) {
	id := interfaces.ComputeArtifactID(data)

	if !b.shell.IsUp() {
		return id, interfaces.ErrBackendUnavailable
	}

	cid, err := b.shell.Add(bytes.NewReader(data))
	if err != nil {
		return id, fmt.Errorf("failed to add artifact to IPFS: %w", err)
	}

	path := b.getMFSPath(id, artifactType)
	if err := b.shell.FilesWrite(ctx, path, bytes.NewReader(data), shell.FilesWrite.Create(true), shell.FilesWrite.Parents(true)); err != nil {
		return id, fmt.Errorf("failed to index artifact in IPFS: %w", err)
	}

	b.log.Debug("Stored artifact in IPFS",
		slog.String("ipfs_cid", cid),
		slog.String("artifact_id", id.String()),
		slog.String("artifact_type", artifactType.String()))

	return id, nil
}

// Available checks if the IPFS node is accessible.
func (b *IPFSBackend) Available(ctx context.Context) bool {
	return b.shell.IsUp()
}

// Name returns a unique identifier for this storage backend.
func (b *IPFSBackend) Name() string {
	return fmt.Sprintf("ipfs-%s-%s", b.host, b.port)
}

// LocationURI returns the URI that identifies this storage backend.
func (b *IPFSBackend) LocationURI() string {
	return b.locationURI
}

func (b *IPFSBackend) getMFSPath(id interfaces.ArtifactID, artifactType interfaces.ArtifactType) string {
	return fmt.Sprintf("/fidesinnova/%s/%s", artifactType, id)
}

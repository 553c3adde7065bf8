package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

// FileBackend implements a storage backend using the local file system.
// Artifacts are stored in a directory structure organized by artifact type.
type FileBackend struct {
	baseDir     string
	log         *slog.Logger
	locationURI string
}

// NewFileBackend creates a file storage backend using the specified base
// directory. Subdirectories per artifact type are created if they don't
// exist.
func NewFileBackend(baseDir string, log *slog.Logger) (*FileBackend, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	for _, artifactType := range []interfaces.ArtifactType{
		interfaces.CommitmentArtifact,
		interfaces.ProofArtifact,
		interfaces.ProgramArtifact,
		interfaces.SnapshotArtifact,
	} {
		if err := os.MkdirAll(filepath.Join(baseDir, artifactType.String()), 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", artifactType, err)
		}
	}

	return &FileBackend{
		baseDir:     baseDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// Fetch retrieves an artifact from the file system by its content
// identifier and type. Returns ErrArtifactNotFound if the file doesn't
// exist.
func (b *FileBackend) Fetch(ctx context.Context, id interfaces.ArtifactID, artifactType interfaces.ArtifactType) ([]byte, error) {
	filePath := b.getFilePath(id, artifactType)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, interfaces.ErrArtifactNotFound
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	b.log.Debug("Fetched artifact from file",
		slog.String("path", filePath),
		slog.Int("size", len(data)))

	return data, nil
}

// Store saves an artifact to the file system and returns its content
// identifier, the SHA-256 hash of the data.
func (b *FileBackend) Store(ctx context.Context, data []byte, artifactType interfaces.ArtifactType) (interfaces.ArtifactID, error) {
	id := interfaces.ComputeArtifactID(data)
	filePath := b.getFilePath(id, artifactType)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return id, fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return id, fmt.Errorf("failed to write file: %w", err)
	}

	b.log.Debug("Stored artifact in file",
		slog.String("path", filePath),
		slog.String("artifact_id", id.String()))

	return id, nil
}

// Available checks the base directory exists.
func (b *FileBackend) Available(ctx context.Context) bool {
	_, err := os.Stat(b.baseDir)
	if err != nil {
		b.log.Debug("File backend unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this storage backend.
func (b *FileBackend) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(b.baseDir))
}

// LocationURI returns the URI that identifies this storage backend.
func (b *FileBackend) LocationURI() string {
	return b.locationURI
}

func (b *FileBackend) getFilePath(id interfaces.ArtifactID, artifactType interfaces.ArtifactType) string {
	return filepath.Join(b.baseDir, artifactType.String(), id.String())
}

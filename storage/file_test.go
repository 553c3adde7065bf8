package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileBackend(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir(), discardLogger())
	require.NoError(t, err)

	ctx := context.Background()
	assert.True(t, backend.Available(ctx))

	data := []byte("commitment payload")
	id, err := backend.Store(ctx, data, interfaces.CommitmentArtifact)
	require.NoError(t, err)
	assert.Equal(t, interfaces.ComputeArtifactID(data), id)

	fetched, err := backend.Fetch(ctx, id, interfaces.CommitmentArtifact)
	require.NoError(t, err)
	assert.Equal(t, data, fetched)

	// Artifact types are separate namespaces.
	_, err = backend.Fetch(ctx, id, interfaces.ProofArtifact)
	assert.ErrorIs(t, err, interfaces.ErrArtifactNotFound)

	_, err = backend.Fetch(ctx, interfaces.ArtifactID{0xff}, interfaces.CommitmentArtifact)
	assert.ErrorIs(t, err, interfaces.ErrArtifactNotFound)
}

func TestFactorySchemes(t *testing.T) {
	factory := NewFactory(discardLogger())

	backend, err := factory.StorageBackendFor(interfaces.StorageLocation("file://" + t.TempDir()))
	require.NoError(t, err)
	assert.Contains(t, backend.Name(), "file-")

	_, err = factory.StorageBackendFor("ftp://example.com/share")
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)

	_, err = factory.StorageBackendFor("vault://token@vault.example.com:8200")
	assert.Error(t, err, "vault URI without a mount path should fail")

	backend, err = factory.StorageBackendFor("vault://token@vault.example.com:8200/secret/fidesinnova")
	require.NoError(t, err)
	assert.Equal(t, "vault-secret-fidesinnova", backend.Name())

	backend, err = factory.StorageBackendFor("s3://bucket/prefix?region=eu-west-1")
	require.NoError(t, err)
	assert.Equal(t, "s3-bucket", backend.Name())

	backend, err = factory.StorageBackendFor("ipfs://127.0.0.1:5001")
	require.NoError(t, err)
	assert.Equal(t, "ipfs-127.0.0.1-5001", backend.Name())
}

func TestFactoryMultiBackend(t *testing.T) {
	factory := NewFactory(discardLogger())

	multi, err := factory.CreateMultiBackend([]interfaces.StorageLocation{
		interfaces.StorageLocation("file://" + t.TempDir()),
		"ftp://invalid",
	})
	require.NoError(t, err, "invalid locations are skipped, not fatal")

	ctx := context.Background()
	data := []byte("snapshot payload")
	id, err := multi.Store(ctx, data, interfaces.SnapshotArtifact)
	require.NoError(t, err)

	fetched, err := multi.Fetch(ctx, id, interfaces.SnapshotArtifact)
	require.NoError(t, err)
	assert.Equal(t, data, fetched)

	_, err = factory.CreateMultiBackend([]interfaces.StorageLocation{"ftp://invalid"})
	assert.Error(t, err, "no valid backends should fail")
}

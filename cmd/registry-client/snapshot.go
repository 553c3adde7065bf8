package main

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/cryptoutils"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

var snapshotCommand = &cli.Command{
	Name:  "snapshot",
	Usage: "Snapshot and restore registry state (owner only)",
	Subcommands: []*cli.Command{
		{
			Name:  "store",
			Usage: "Persist a snapshot to the server's artifact storage",
			Action: func(cCtx *cli.Context) error {
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				artifactID, err := client.StoreSnapshot()
				if err != nil {
					return err
				}
				fmt.Println(artifactID.String())
				return nil
			},
		},
		{
			Name:      "restore",
			Usage:     "Restore the registry from a stored snapshot",
			ArgsUsage: "<artifact-id>",
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 1 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				artifactID, err := interfaces.NewHash32FromHex(cCtx.Args().Get(0))
				if err != nil {
					return err
				}
				return client.RestoreSnapshot(artifactID)
			},
		},
		{
			Name:  "export",
			Usage: "Download the mutation log and write it passphrase-encrypted to a file",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "passphrase", Required: true, EnvVars: []string{"FIDES_EXPORT_PASSPHRASE"}},
				&cli.StringFlag{Name: "out", Required: true, Usage: "output file"},
			},
			Action: func(cCtx *cli.Context) error {
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				events, err := client.EventsSince(0)
				if err != nil {
					return err
				}
				plaintext, err := json.Marshal(events)
				if err != nil {
					return err
				}

				sealed, err := sealExport([]byte(cCtx.String("passphrase")), plaintext)
				if err != nil {
					return err
				}
				return os.WriteFile(cCtx.String("out"), sealed, 0o600)
			},
		},
		{
			Name:  "import",
			Usage: "Decrypt an exported mutation log and print it",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "passphrase", Required: true, EnvVars: []string{"FIDES_EXPORT_PASSPHRASE"}},
				&cli.StringFlag{Name: "in", Required: true, Usage: "input file"},
			},
			Action: func(cCtx *cli.Context) error {
				sealed, err := os.ReadFile(cCtx.String("in"))
				if err != nil {
					return err
				}
				plaintext, err := openExport([]byte(cCtx.String("passphrase")), sealed)
				if err != nil {
					return err
				}
				fmt.Println(string(plaintext))
				return nil
			},
		},
	},
}

// Export format: [32-byte content ID][12-byte nonce][ciphertext]. The content
// ID salts the Argon2id key derivation so each export gets a distinct key.
func sealExport(passphrase, plaintext []byte) ([]byte, error) {
	contentID := interfaces.ComputeArtifactID(plaintext)
	key := cryptoutils.DeriveExportKey(passphrase, contentID.Bytes())

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	out := append([]byte{}, contentID.Bytes()...)
	out = append(out, nonce...)
	return aesGCM.Seal(out, nonce, plaintext, nil), nil
}

func openExport(passphrase, sealed []byte) ([]byte, error) {
	if len(sealed) < 32+12 {
		return nil, errors.New("export file too short")
	}
	contentID := sealed[:32]
	key := cryptoutils.DeriveExportKey(passphrase, contentID)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := sealed[32 : 32+aesGCM.NonceSize()]
	ciphertext := sealed[32+aesGCM.NonceSize():]

	plaintext, err := aesGCM.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("could not decrypt export: %w", err)
	}
	return plaintext, nil
}

package main

import (
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/cryptoutils"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/custody"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
)

var custodyCommand = &cli.Command{
	Name:  "custody",
	Usage: "Split the owner key across guardians and recover it from shares",
	Subcommands: []*cli.Command{
		{
			Name:  "split",
			Usage: "Split a 32-byte owner key into guardian shares",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "key", Required: true, EnvVars: []string{"FIDES_OWNER_KEY"}, Usage: "hex-encoded owner private key"},
				&cli.IntFlag{Name: "threshold", Value: 3, Usage: "shares required for recovery"},
				&cli.StringSliceFlag{Name: "guardian", Required: true, Usage: "guardian public key PEM file; may be repeated"},
				&cli.StringFlag{Name: "out-dir", Value: ".", Usage: "directory to write share files to"},
			},
			Action: func(cCtx *cli.Context) error {
				ownerKey, err := hex.DecodeString(cCtx.String("key"))
				if err != nil {
					return fmt.Errorf("invalid owner key hex: %w", err)
				}

				guardianPEMs := [][]byte{}
				for _, path := range cCtx.StringSlice("guardian") {
					pemData, err := os.ReadFile(path)
					if err != nil {
						return err
					}
					guardianPEMs = append(guardianPEMs, pemData)
				}

				_, shares, err := custody.New(ownerKey, custody.Config{
					Threshold:       cCtx.Int("threshold"),
					GuardianPubKeys: guardianPEMs,
				})
				if err != nil {
					return err
				}

				outDir := cCtx.String("out-dir")
				for i, share := range shares {
					path := filepath.Join(outDir, fmt.Sprintf("share-%d.bin", i))
					if err := os.WriteFile(path, share, 0o600); err != nil {
						return err
					}
					fmt.Printf("share %d written to %s\n", i, path)
				}
				return nil
			},
		},
		{
			Name:  "sign-share",
			Usage: "Sign a recovery share with a guardian's private key",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "share", Required: true, Usage: "share file"},
				&cli.StringFlag{Name: "key", Required: true, Usage: "guardian EC private key PEM file"},
			},
			Action: func(cCtx *cli.Context) error {
				share, err := os.ReadFile(cCtx.String("share"))
				if err != nil {
					return err
				}
				keyPEM, err := os.ReadFile(cCtx.String("key"))
				if err != nil {
					return err
				}

				block, _ := pem.Decode(keyPEM)
				if block == nil {
					return errors.New("failed to decode guardian key PEM")
				}
				guardianKey, err := x509.ParseECPrivateKey(block.Bytes)
				if err != nil {
					return fmt.Errorf("failed to parse guardian key: %w", err)
				}

				signature, err := custody.SignShare(share, guardianKey)
				if err != nil {
					return err
				}
				fmt.Println(hex.EncodeToString(signature))
				return nil
			},
		},
		{
			Name:  "recover",
			Usage: "Reconstruct the owner key from signed guardian shares",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "threshold", Value: 3, Usage: "shares required for recovery"},
				&cli.StringFlag{Name: "owner", Required: true, Usage: "expected owner address. 40-char hex string"},
				&cli.StringSliceFlag{Name: "guardian", Required: true, Usage: "guardian public key PEM file; may be repeated"},
				&cli.StringSliceFlag{
					Name:     "share",
					Required: true,
					Usage:    "signed share as index:share-file:signature-hex-file:guardian-pem-file; may be repeated",
				},
			},
			Action: func(cCtx *cli.Context) error {
				ownerAddress, err := interfaces.NewAddressFromHex(cCtx.String("owner"))
				if err != nil {
					return fmt.Errorf("invalid owner address: %w", err)
				}

				guardianPEMs := [][]byte{}
				for _, path := range cCtx.StringSlice("guardian") {
					pemData, err := os.ReadFile(path)
					if err != nil {
						return err
					}
					guardianPEMs = append(guardianPEMs, pemData)
				}

				recovery, err := custody.NewRecovery(custody.Config{
					Threshold:       cCtx.Int("threshold"),
					GuardianPubKeys: guardianPEMs,
					OwnerAddress:    ownerAddress,
				})
				if err != nil {
					return err
				}

				for _, spec := range cCtx.StringSlice("share") {
					parts := strings.Split(spec, ":")
					if len(parts) != 4 {
						return fmt.Errorf("malformed share spec %q", spec)
					}

					index, err := strconv.Atoi(parts[0])
					if err != nil {
						return fmt.Errorf("malformed share index in %q", spec)
					}
					share, err := os.ReadFile(parts[1])
					if err != nil {
						return err
					}
					signatureHex, err := os.ReadFile(parts[2])
					if err != nil {
						return err
					}
					signature, err := hex.DecodeString(strings.TrimSpace(string(signatureHex)))
					if err != nil {
						return fmt.Errorf("malformed signature in %q: %w", spec, err)
					}
					guardianPEM, err := os.ReadFile(parts[3])
					if err != nil {
						return err
					}

					if err := recovery.SubmitShare(index, share, signature, guardianPEM); err != nil {
						return err
					}
				}

				ownerKey, err := recovery.OwnerKey()
				if err != nil {
					return err
				}
				address, err := cryptoutils.KeyAddress(ownerKey)
				if err != nil {
					return err
				}

				fmt.Printf("private key: %s\n", cryptoutils.KeyToHex(ownerKey))
				fmt.Printf("address:     %s\n", address.String())
				return nil
			},
		},
	},
}

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/api/clients"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/cmd/flags"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/cryptoutils"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/interfaces"
	"github.com/TheArchitect2000/fidesinnova-smart-contract-protocol/noderesolver"
)

func main() {
	app := &cli.App{
		Name:  "registry-client",
		Usage: "Interact with a FidesInnova registry node",
		Flags: append([]cli.Flag{
			flags.ServerAddrFlag,
			flags.NodeDomainFlag,
			flags.DNSResolverFlag,
			flags.SigningKeyFlag,
		}, flags.CommonFlags...),
		Commands: []*cli.Command{
			keygenCommand,
			sealingKeygenCommand,
			managerCommand,
			deviceCommand,
			serviceCommand,
			commitmentCommand,
			proofCommand,
			identityCommand,
			tokenCommand,
			eventsCommand,
			snapshotCommand,
			custodyCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// newClient builds the API client from the global flags. With --node-domain
// set, the server address is discovered through DNS SRV records.
func newClient(cCtx *cli.Context) (*clients.RegistryClient, error) {
	serverAddr := cCtx.String(flags.ServerAddrFlag.Name)

	if domain := cCtx.String(flags.NodeDomainFlag.Name); domain != "" {
		nodeDomain, err := interfaces.NewNodeDomainName(domain)
		if err != nil {
			return nil, err
		}

		resolver := noderesolver.New(cCtx.String(flags.DNSResolverFlag.Name))
		endpoints, err := resolver.RegistryEndpoints(nodeDomain)
		if err != nil {
			return nil, err
		}
		serverAddr = "http://" + endpoints[0]
	}

	client := &clients.RegistryClient{ServerAddr: serverAddr}

	if keyHex := cCtx.String(flags.SigningKeyFlag.Name); keyHex != "" {
		key, err := cryptoutils.LoadKeyFromHex(keyHex)
		if err != nil {
			return nil, fmt.Errorf("invalid signing key: %w", err)
		}
		client.SigningKey = key
	}

	return client, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func readJSONFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

var keygenCommand = &cli.Command{
	Name:  "keygen",
	Usage: "Generate a secp256k1 signing key",
	Action: func(cCtx *cli.Context) error {
		key, err := cryptoutils.GenerateKey()
		if err != nil {
			return err
		}
		address, err := cryptoutils.KeyAddress(key)
		if err != nil {
			return err
		}
		fmt.Printf("private key: %s\n", cryptoutils.KeyToHex(key))
		fmt.Printf("address:     %s\n", address.String())
		return nil
	},
}

var sealingKeygenCommand = &cli.Command{
	Name:  "sealing-keygen",
	Usage: "Generate a P-256 keypair for sealing device parameters",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "out-prefix", Value: "sealing", Usage: "prefix of the written key files"},
	},
	Action: func(cCtx *cli.Context) error {
		privateKeyPEM, publicKeyPEM, err := cryptoutils.GenerateSealingKeypair()
		if err != nil {
			return err
		}
		prefix := cCtx.String("out-prefix")
		if err := os.WriteFile(prefix+".key", privateKeyPEM, 0o600); err != nil {
			return err
		}
		if err := os.WriteFile(prefix+".pub", publicKeyPEM, 0o644); err != nil {
			return err
		}
		fmt.Printf("private key written to %s.key\n", prefix)
		fmt.Printf("public key written to %s.pub\n", prefix)
		return nil
	},
}

var managerCommand = &cli.Command{
	Name:  "manager",
	Usage: "Manage node-to-manager bindings (owner only)",
	Subcommands: []*cli.Command{
		{
			Name:      "add",
			Usage:     "Bind a manager address to a node",
			ArgsUsage: "<node-id> <manager-address>",
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 2 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				manager, err := interfaces.NewAddressFromHex(cCtx.Args().Get(1))
				if err != nil {
					return err
				}
				return client.AddManager(interfaces.NodeID(cCtx.Args().Get(0)), manager)
			},
		},
		{
			Name:      "remove",
			Usage:     "Unbind a node's manager",
			ArgsUsage: "<node-id>",
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 1 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				return client.RemoveManager(interfaces.NodeID(cCtx.Args().Get(0)))
			},
		},
		{
			Name:  "list",
			Usage: "List all node-to-manager bindings",
			Action: func(cCtx *cli.Context) error {
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				bindings, err := client.Managers()
				if err != nil {
					return err
				}
				return printJSON(bindings)
			},
		},
	},
}

var deviceCommand = &cli.Command{
	Name:  "device",
	Usage: "Manage device records",
	Subcommands: []*cli.Command{
		{
			Name:      "create",
			Usage:     "Register a device from a JSON record",
			ArgsUsage: "<node-id> <device.json>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "seal-params", Usage: "file with confidential parameters to seal into the record"},
				&cli.StringFlag{Name: "owner-pubkey", Usage: "owner public key PEM file the parameters are sealed to"},
			},
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 2 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				var device interfaces.Device
				if err := readJSONFile(cCtx.Args().Get(1), &device); err != nil {
					return err
				}

				if paramsPath := cCtx.String("seal-params"); paramsPath != "" {
					pubKeyPath := cCtx.String("owner-pubkey")
					if pubKeyPath == "" {
						return fmt.Errorf("--seal-params requires --owner-pubkey")
					}
					params, err := os.ReadFile(paramsPath)
					if err != nil {
						return err
					}
					pubKeyPEM, err := os.ReadFile(pubKeyPath)
					if err != nil {
						return err
					}
					sealed, err := cryptoutils.SealToPublicKey(pubKeyPEM, params)
					if err != nil {
						return fmt.Errorf("could not seal parameters: %w", err)
					}
					device.SealedParameters = sealed
				}

				created, err := client.CreateDevice(interfaces.NodeID(cCtx.Args().Get(0)), device)
				if err != nil {
					return err
				}
				return printJSON(created)
			},
		},
		{
			Name:      "params",
			Usage:     "Decrypt a device's sealed parameters with the owner's private key",
			ArgsUsage: "<node-id> <device-id>",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "key", Required: true, Usage: "owner private key PEM file"},
			},
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 2 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				device, err := client.Device(interfaces.NodeID(cCtx.Args().Get(0)), cCtx.Args().Get(1))
				if err != nil {
					return err
				}
				if len(device.SealedParameters) == 0 {
					return fmt.Errorf("device has no sealed parameters")
				}
				privKeyPEM, err := os.ReadFile(cCtx.String("key"))
				if err != nil {
					return err
				}
				params, err := cryptoutils.OpenWithPrivateKey(privKeyPEM, device.SealedParameters)
				if err != nil {
					return fmt.Errorf("could not open sealed parameters: %w", err)
				}
				fmt.Println(string(params))
				return nil
			},
		},
		{
			Name:      "remove",
			Usage:     "Remove a device, burning its token if minted",
			ArgsUsage: "<node-id> <device-id>",
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 2 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				return client.RemoveDevice(interfaces.NodeID(cCtx.Args().Get(0)), cCtx.Args().Get(1))
			},
		},
		{
			Name:      "get",
			Usage:     "Look up a device",
			ArgsUsage: "<node-id> <device-id>",
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 2 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				device, err := client.Device(interfaces.NodeID(cCtx.Args().Get(0)), cCtx.Args().Get(1))
				if err != nil {
					return err
				}
				return printJSON(device)
			},
		},
		{
			Name:  "list",
			Usage: "List all registered devices",
			Action: func(cCtx *cli.Context) error {
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				devices, err := client.Devices()
				if err != nil {
					return err
				}
				return printJSON(devices)
			},
		},
	},
}

var serviceCommand = &cli.Command{
	Name:  "service",
	Usage: "Manage service records",
	Subcommands: []*cli.Command{
		{
			Name:      "create",
			Usage:     "Register a service from a JSON record, optionally uploading its program",
			ArgsUsage: "<node-id> <service.json> [program-file]",
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 2 && cCtx.NArg() != 3 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				var service interfaces.Service
				if err := readJSONFile(cCtx.Args().Get(1), &service); err != nil {
					return err
				}
				var program []byte
				if cCtx.NArg() == 3 {
					if program, err = os.ReadFile(cCtx.Args().Get(2)); err != nil {
						return err
					}
				}
				created, err := client.CreateService(interfaces.NodeID(cCtx.Args().Get(0)), service, program)
				if err != nil {
					return err
				}
				return printJSON(created)
			},
		},
		{
			Name:      "remove",
			Usage:     "Remove a service",
			ArgsUsage: "<node-id> <service-id>",
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 2 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				return client.RemoveService(interfaces.NodeID(cCtx.Args().Get(0)), cCtx.Args().Get(1))
			},
		},
		{
			Name:      "get",
			Usage:     "Look up a service",
			ArgsUsage: "<node-id> <service-id>",
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 2 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				service, err := client.Service(interfaces.NodeID(cCtx.Args().Get(0)), cCtx.Args().Get(1))
				if err != nil {
					return err
				}
				return printJSON(service)
			},
		},
		{
			Name:      "program",
			Usage:     "Download a service's program",
			ArgsUsage: "<node-id> <service-id> <out-file>",
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 3 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				program, err := client.ServiceProgram(interfaces.NodeID(cCtx.Args().Get(0)), cCtx.Args().Get(1))
				if err != nil {
					return err
				}
				return os.WriteFile(cCtx.Args().Get(2), program, 0o644)
			},
		},
		{
			Name:  "list",
			Usage: "List all registered services",
			Action: func(cCtx *cli.Context) error {
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				services, err := client.Services()
				if err != nil {
					return err
				}
				return printJSON(services)
			},
		},
	},
}

var commitmentCommand = &cli.Command{
	Name:  "commitment",
	Usage: "Manage firmware commitments",
	Subcommands: []*cli.Command{
		{
			Name:      "store",
			Usage:     "Store a commitment record and its payload file",
			ArgsUsage: "<node-id> <commitment.json> <payload-file>",
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 3 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				var commitment interfaces.Commitment
				if err := readJSONFile(cCtx.Args().Get(1), &commitment); err != nil {
					return err
				}
				payload, err := os.ReadFile(cCtx.Args().Get(2))
				if err != nil {
					return err
				}
				stored, err := client.StoreCommitment(interfaces.NodeID(cCtx.Args().Get(0)), commitment, payload)
				if err != nil {
					return err
				}
				return printJSON(stored)
			},
		},
		{
			Name:      "remove",
			Usage:     "Remove a commitment record",
			ArgsUsage: "<node-id> <commitment-id>",
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 2 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				return client.RemoveCommitment(interfaces.NodeID(cCtx.Args().Get(0)), cCtx.Args().Get(1))
			},
		},
		{
			Name:      "get",
			Usage:     "Look up a commitment record",
			ArgsUsage: "<node-id> <commitment-id>",
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 2 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				commitment, err := client.Commitment(interfaces.NodeID(cCtx.Args().Get(0)), cCtx.Args().Get(1))
				if err != nil {
					return err
				}
				return printJSON(commitment)
			},
		},
		{
			Name:      "payload",
			Usage:     "Download a commitment payload",
			ArgsUsage: "<node-id> <commitment-id> <out-file>",
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 3 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				payload, err := client.CommitmentPayload(interfaces.NodeID(cCtx.Args().Get(0)), cCtx.Args().Get(1))
				if err != nil {
					return err
				}
				return os.WriteFile(cCtx.Args().Get(2), payload, 0o644)
			},
		},
		{
			Name:  "list",
			Usage: "List all commitment records",
			Action: func(cCtx *cli.Context) error {
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				commitments, err := client.Commitments()
				if err != nil {
					return err
				}
				return printJSON(commitments)
			},
		},
	},
}

var proofCommand = &cli.Command{
	Name:  "proof",
	Usage: "Submit and inspect ZKP log entries",
	Subcommands: []*cli.Command{
		{
			Name:      "submit",
			Usage:     "Append a ZKP entry from a JSON record",
			ArgsUsage: "<node-id> <entry.json>",
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 2 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				var entry interfaces.ZKPEntry
				if err := readJSONFile(cCtx.Args().Get(1), &entry); err != nil {
					return err
				}
				resp, err := client.SubmitProof(interfaces.NodeID(cCtx.Args().Get(0)), entry)
				if err != nil {
					return err
				}
				return printJSON(resp)
			},
		},
		{
			Name:      "get",
			Usage:     "Fetch the log entry at an index",
			ArgsUsage: "<index>",
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 1 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				index, err := strconv.ParseUint(cCtx.Args().Get(0), 10, 64)
				if err != nil {
					return err
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				entry, err := client.Proof(index)
				if err != nil {
					return err
				}
				return printJSON(entry)
			},
		},
		{
			Name:  "list",
			Usage: "List the full proof log",
			Action: func(cCtx *cli.Context) error {
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				entries, err := client.Proofs()
				if err != nil {
					return err
				}
				return printJSON(entries)
			},
		},
	},
}

var identityCommand = &cli.Command{
	Name:  "identity",
	Usage: "Manage device identity bindings",
	Subcommands: []*cli.Command{
		{
			Name:      "bind",
			Usage:     "Bind an identity address to an ownership address",
			ArgsUsage: "<node-id> <identity-address> <owner-address>",
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 3 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				identity, err := interfaces.NewAddressFromHex(cCtx.Args().Get(1))
				if err != nil {
					return err
				}
				owner, err := interfaces.NewAddressFromHex(cCtx.Args().Get(2))
				if err != nil {
					return err
				}
				return client.BindIdentity(interfaces.NodeID(cCtx.Args().Get(0)), identity, owner)
			},
		},
		{
			Name:      "unbind",
			Usage:     "Remove an identity binding",
			ArgsUsage: "<node-id> <identity-address>",
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 2 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				identity, err := interfaces.NewAddressFromHex(cCtx.Args().Get(1))
				if err != nil {
					return err
				}
				return client.UnbindIdentity(interfaces.NodeID(cCtx.Args().Get(0)), identity)
			},
		},
		{
			Name:      "owner",
			Usage:     "Show the ownership address bound to an identity",
			ArgsUsage: "<node-id> <identity-address>",
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 2 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				identity, err := interfaces.NewAddressFromHex(cCtx.Args().Get(1))
				if err != nil {
					return err
				}
				owner, err := client.IdentityOwner(interfaces.NodeID(cCtx.Args().Get(0)), identity)
				if err != nil {
					return err
				}
				fmt.Println(owner.String())
				return nil
			},
		},
		{
			Name:      "list",
			Usage:     "List the identities bound to an ownership address",
			ArgsUsage: "<node-id> <owner-address>",
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 2 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				owner, err := interfaces.NewAddressFromHex(cCtx.Args().Get(1))
				if err != nil {
					return err
				}
				identities, err := client.OwnerIdentities(interfaces.NodeID(cCtx.Args().Get(0)), owner)
				if err != nil {
					return err
				}
				return printJSON(identities)
			},
		},
	},
}

var tokenCommand = &cli.Command{
	Name:  "token",
	Usage: "Manage device ownership tokens",
	Subcommands: []*cli.Command{
		{
			Name:      "mint",
			Usage:     "Mint a device's ownership token",
			ArgsUsage: "<node-id> <device-id> <holder-address>",
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 3 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				to, err := interfaces.NewAddressFromHex(cCtx.Args().Get(2))
				if err != nil {
					return err
				}
				token, err := client.MintToken(interfaces.NodeID(cCtx.Args().Get(0)), cCtx.Args().Get(1), to)
				if err != nil {
					return err
				}
				return printJSON(token)
			},
		},
		{
			Name:      "transfer",
			Usage:     "Transfer a token to a new holder (signed by the current holder)",
			ArgsUsage: "<token-id> <holder-address>",
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 2 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				tokenID, err := interfaces.NewHash32FromHex(cCtx.Args().Get(0))
				if err != nil {
					return err
				}
				to, err := interfaces.NewAddressFromHex(cCtx.Args().Get(1))
				if err != nil {
					return err
				}
				return client.TransferToken(tokenID, to)
			},
		},
		{
			Name:      "burn",
			Usage:     "Burn a token",
			ArgsUsage: "<token-id>",
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 1 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				tokenID, err := interfaces.NewHash32FromHex(cCtx.Args().Get(0))
				if err != nil {
					return err
				}
				return client.BurnToken(tokenID)
			},
		},
		{
			Name:      "owner",
			Usage:     "Show a token's current holder",
			ArgsUsage: "<token-id>",
			Action: func(cCtx *cli.Context) error {
				if cCtx.NArg() != 1 {
					return cli.ShowSubcommandHelp(cCtx)
				}
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				tokenID, err := interfaces.NewHash32FromHex(cCtx.Args().Get(0))
				if err != nil {
					return err
				}
				owner, err := client.TokenOwner(tokenID)
				if err != nil {
					return err
				}
				fmt.Println(owner.String())
				return nil
			},
		},
		{
			Name:  "list",
			Usage: "List minted tokens, optionally filtered by holder",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "owner", Usage: "only show tokens held by this address"},
			},
			Action: func(cCtx *cli.Context) error {
				client, err := newClient(cCtx)
				if err != nil {
					return err
				}
				if ownerHex := cCtx.String("owner"); ownerHex != "" {
					owner, err := interfaces.NewAddressFromHex(ownerHex)
					if err != nil {
						return err
					}
					tokens, err := client.TokensOf(owner)
					if err != nil {
						return err
					}
					return printJSON(tokens)
				}
				tokens, err := client.Tokens()
				if err != nil {
					return err
				}
				return printJSON(tokens)
			},
		},
	},
}

var eventsCommand = &cli.Command{
	Name:  "events",
	Usage: "List the public mutation log",
	Flags: []cli.Flag{
		&cli.Uint64Flag{Name: "since", Usage: "only show events with sequence numbers greater than this"},
	},
	Action: func(cCtx *cli.Context) error {
		client, err := newClient(cCtx)
		if err != nil {
			return err
		}
		events, err := client.EventsSince(cCtx.Uint64("since"))
		if err != nil {
			return err
		}
		return printJSON(events)
	},
}

package main

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/everscale-go/tvm-abi/abi"
	"github.com/everscale-go/tvm-abi/address"
	"github.com/everscale-go/tvm-abi/boc"
	"github.com/everscale-go/tvm-abi/internal/abischema"
	"github.com/everscale-go/tvm-abi/message"
	"github.com/everscale-go/tvm-abi/payload"
	"github.com/everscale-go/tvm-abi/transaction"
)

// argValue returns s, or the content of the file it names when it starts with "@".
func argValue(s string) ([]byte, error) {
	if path, ok := strings.CutPrefix(s, "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", path, err)
		}
		return data, nil
	}
	return []byte(s), nil
}

func loadContract(s string) (*abi.Contract, error) {
	data, err := argValue(s)
	if err != nil {
		return nil, err
	}
	if err := abischema.Validate(data); err != nil {
		return nil, err
	}
	return abi.LoadContract(data)
}

func loadParams(s string) ([]abi.Param, error) {
	data, err := argValue(s)
	if err != nil {
		return nil, err
	}
	return abi.ParseParams(data)
}

func loadTokens(params []abi.Param, s string) ([]abi.Token, error) {
	data, err := argValue(s)
	if err != nil {
		return nil, err
	}
	return abi.UnmarshalTokensFromJSON(params, data)
}

// parseMethod reads a method selector: a JSON string, a JSON list of names, null, or a bare name.
func parseMethod(s string) (abi.MethodName, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return abi.MethodName{}, fmt.Errorf("expected string or array")
	}
	if !json.Valid([]byte(trimmed)) {
		return abi.KnownMethod(trimmed), nil
	}
	var m abi.MethodName
	if err := json.Unmarshal([]byte(trimmed), &m); err != nil {
		return abi.MethodName{}, err
	}
	return m, nil
}

func contractFunction(c *abi.Contract, name string) (*abi.Function, error) {
	fn, ok := c.Function(name)
	if !ok {
		return nil, fmt.Errorf("function %q not found", name)
	}
	return fn, nil
}

func parseStateInit(s string) (*message.StateInit, error) {
	if s == "" {
		return nil, nil
	}
	return message.ParseStateInit(s)
}

func checkPublicKeyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check-public-key <hex>",
		Short: "Validate a hex encoded ed25519 public key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.respond(cmd.Name(), func() (interface{}, error) {
				_, err := abi.CheckPublicKey(args[0])
				return nil, err
			})
		},
	}
}

func parseTypeCmd(a *app) *cobra.Command {
	var components string
	cmd := &cobra.Command{
		Use:   "parse-type <descriptor>",
		Short: "Parse a type descriptor and print its signature form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.respond(cmd.Name(), func() (interface{}, error) {
				t, err := abi.TypeOf(args[0])
				if err != nil {
					return nil, err
				}
				if components != "" {
					params, err := loadParams(components)
					if err != nil {
						return nil, err
					}
					if t, err = abi.SetComponents(t, params); err != nil {
						return nil, err
					}
				}
				return t.String(), nil
			})
		},
	}
	cmd.Flags().StringVar(&components, "components", "", "tuple components, as a JSON params list")
	return cmd
}

func packCmd(a *app) *cobra.Command {
	var params, tokens string
	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Pack tokens into a cell",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.respond(cmd.Name(), func() (interface{}, error) {
				p, err := loadParams(params)
				if err != nil {
					return nil, err
				}
				t, err := loadTokens(p, tokens)
				if err != nil {
					return nil, err
				}
				c, err := abi.Pack(t)
				if err != nil {
					return nil, err
				}
				return boc.Encode(c), nil
			})
		},
	}
	cmd.Flags().StringVar(&params, "params", "", "JSON params list")
	cmd.Flags().StringVar(&tokens, "tokens", "", "JSON object of values")
	return cmd
}

func unpackCmd(a *app) *cobra.Command {
	var params, body string
	var allowPartial bool
	cmd := &cobra.Command{
		Use:   "unpack",
		Short: "Unpack tokens from a cell",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.respond(cmd.Name(), func() (interface{}, error) {
				p, err := loadParams(params)
				if err != nil {
					return nil, err
				}
				c, err := boc.Decode(body)
				if err != nil {
					return nil, err
				}
				tokens, err := abi.Unpack(p, c, allowPartial)
				if err != nil {
					return nil, err
				}
				return abi.MakeJSONValue(tokens), nil
			})
		},
	}
	cmd.Flags().StringVar(&params, "params", "", "JSON params list")
	cmd.Flags().StringVar(&body, "boc", "", "base64 cell")
	cmd.Flags().BoolVar(&allowPartial, "allow-partial", false, "ignore data left after the params")
	return cmd
}

func bocHashCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "boc-hash <boc>",
		Short: "Print the hash of the root cell",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.respond(cmd.Name(), func() (interface{}, error) {
				return boc.Hash(args[0])
			})
		},
	}
}

func parseKnownPayloadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse-known-payload <boc>",
		Short: "Recognize a well known payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.respond(cmd.Name(), func() (interface{}, error) {
				known, ok, err := payload.ParseBOC(args[0])
				if err != nil || !ok {
					return nil, err
				}
				return known, nil
			})
		},
	}
}

func encodeInternalInputCmd(a *app) *cobra.Command {
	var contractABI, method, input string
	cmd := &cobra.Command{
		Use:   "encode-internal-input",
		Short: "Encode the body of an internal call",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.respond(cmd.Name(), func() (interface{}, error) {
				c, err := loadContract(contractABI)
				if err != nil {
					return nil, err
				}
				fn, err := contractFunction(c, method)
				if err != nil {
					return nil, err
				}
				inputs, err := loadTokens(fn.Inputs, input)
				if err != nil {
					return nil, err
				}
				return message.EncodeInternalInput(fn, inputs)
			})
		},
	}
	cmd.Flags().StringVar(&contractABI, "abi", "", "contract ABI JSON, or @file")
	cmd.Flags().StringVar(&method, "method", "", "function name")
	cmd.Flags().StringVar(&input, "input", "{}", "JSON object of inputs")
	return cmd
}

type externalFlags struct {
	dst, contractABI, method, stateInit, input string
	timeout                                    uint32
}

func (f *externalFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dst, "dst", "", "destination address")
	cmd.Flags().StringVar(&f.contractABI, "abi", "", "contract ABI JSON, or @file")
	cmd.Flags().StringVar(&f.method, "method", "", "function name")
	cmd.Flags().StringVar(&f.stateInit, "state-init", "", "base64 state init to attach")
	cmd.Flags().StringVar(&f.input, "input", "{}", "JSON object of inputs")
	cmd.Flags().Uint32Var(&f.timeout, "timeout", 0, "expiration timeout in seconds (default from config)")
}

type externalCall struct {
	dst       address.Address
	fn        *abi.Function
	stateInit *message.StateInit
	inputs    []abi.Token
	timeout   uint32
}

func (a *app) externalCall(cmd *cobra.Command, f *externalFlags) (*externalCall, error) {
	dst, err := address.FromString(f.dst)
	if err != nil {
		return nil, err
	}
	c, err := loadContract(f.contractABI)
	if err != nil {
		return nil, err
	}
	fn, err := contractFunction(c, f.method)
	if err != nil {
		return nil, err
	}
	stateInit, err := parseStateInit(f.stateInit)
	if err != nil {
		return nil, err
	}
	inputs, err := loadTokens(fn.Inputs, f.input)
	if err != nil {
		return nil, err
	}
	timeout := a.cfg.Message.Timeout
	if cmd.Flags().Changed("timeout") {
		timeout = f.timeout
	}
	return &externalCall{dst: dst, fn: fn, stateInit: stateInit, inputs: inputs, timeout: timeout}, nil
}

func createExternalMessageWithoutSignatureCmd(a *app) *cobra.Command {
	var flags externalFlags
	cmd := &cobra.Command{
		Use:   "create-external-message-without-signature",
		Short: "Build an unsigned external message for a contract that accepts calls without signature",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.respond(cmd.Name(), func() (interface{}, error) {
				call, err := a.externalCall(cmd, &flags)
				if err != nil {
					return nil, err
				}
				return message.NewBuilder(a.clock).CreateExternalMessageWithoutSignature(
					call.dst, call.fn, call.stateInit, call.inputs, call.timeout)
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func createExternalMessageCmd(a *app) *cobra.Command {
	var flags externalFlags
	var publicKey, signature string
	cmd := &cobra.Command{
		Use:   "create-external-message",
		Short: "Build an external message to be signed, and complete it when a signature is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.respond(cmd.Name(), func() (interface{}, error) {
				call, err := a.externalCall(cmd, &flags)
				if err != nil {
					return nil, err
				}
				key, err := abi.CheckPublicKey(publicKey)
				if err != nil {
					return nil, err
				}
				unsigned, err := message.NewBuilder(a.clock).CreateExternalMessage(
					call.dst, call.fn, call.stateInit, call.inputs, key, call.timeout)
				if err != nil {
					return nil, err
				}
				if signature == "" {
					return unsigned, nil
				}
				sig, err := hex.DecodeString(signature)
				if err != nil {
					return nil, fmt.Errorf("signature hex decode error: %w", err)
				}
				return unsigned.Complete(sig)
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&publicKey, "public-key", "", "hex encoded public key of the signer")
	cmd.Flags().StringVar(&signature, "signature", "", "hex encoded signature of the message hash")
	return cmd
}

func expectedAddressCmd(a *app) *cobra.Command {
	var tvc, contractABI, publicKey, initData string
	var workchain int8
	cmd := &cobra.Command{
		Use:   "expected-address",
		Short: "Compute the address of a contract deployed with the given initial data",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.respond(cmd.Name(), func() (interface{}, error) {
				si, err := message.ParseStateInit(tvc)
				if err != nil {
					return nil, err
				}
				c, err := loadContract(contractABI)
				if err != nil {
					return nil, err
				}
				var key ed25519.PublicKey
				if publicKey != "" {
					if key, err = abi.CheckPublicKey(publicKey); err != nil {
						return nil, err
					}
				}
				tokens, err := loadTokens(c.DataParams(), initData)
				if err != nil {
					return nil, err
				}
				wc := a.cfg.Message.Workchain
				if cmd.Flags().Changed("workchain") {
					wc = workchain
				}
				addr, err := message.ExpectedAddress(si, c, wc, key, tokens)
				if err != nil {
					return nil, err
				}
				return addr.String(), nil
			})
		},
	}
	cmd.Flags().StringVar(&tvc, "tvc", "", "base64 state init of the contract image")
	cmd.Flags().StringVar(&contractABI, "abi", "", "contract ABI JSON, or @file")
	cmd.Flags().Int8Var(&workchain, "workchain", 0, "workchain id (default from config)")
	cmd.Flags().StringVar(&publicKey, "public-key", "", "hex encoded public key")
	cmd.Flags().StringVar(&initData, "init-data", "{}", "JSON object of initial data")
	return cmd
}

func decodeInputCmd(a *app) *cobra.Command {
	var body, contractABI, method string
	var internal bool
	cmd := &cobra.Command{
		Use:   "decode-input",
		Short: "Decode a call body",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.respond(cmd.Name(), func() (interface{}, error) {
				c, err := loadContract(contractABI)
				if err != nil {
					return nil, err
				}
				m, err := parseMethod(method)
				if err != nil {
					return nil, err
				}
				b, err := boc.Decode(body)
				if err != nil {
					return nil, err
				}
				decoded, err := c.DecodeInput(b, m, internal)
				if err != nil || decoded == nil {
					return nil, err
				}
				return decoded, nil
			})
		},
	}
	cmd.Flags().StringVar(&body, "body", "", "base64 message body")
	cmd.Flags().StringVar(&contractABI, "abi", "", "contract ABI JSON, or @file")
	cmd.Flags().StringVar(&method, "method", "null", "function name, JSON list of names, or null for any")
	cmd.Flags().BoolVar(&internal, "internal", false, "the body belongs to an internal message")
	return cmd
}

func decodeOutputCmd(a *app) *cobra.Command {
	var body, contractABI, method string
	cmd := &cobra.Command{
		Use:   "decode-output",
		Short: "Decode an answer body",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.respond(cmd.Name(), func() (interface{}, error) {
				c, err := loadContract(contractABI)
				if err != nil {
					return nil, err
				}
				m, err := parseMethod(method)
				if err != nil {
					return nil, err
				}
				b, err := boc.Decode(body)
				if err != nil {
					return nil, err
				}
				decoded, err := c.DecodeOutput(b, m)
				if err != nil || decoded == nil {
					return nil, err
				}
				return decoded, nil
			})
		},
	}
	cmd.Flags().StringVar(&body, "body", "", "base64 message body")
	cmd.Flags().StringVar(&contractABI, "abi", "", "contract ABI JSON, or @file")
	cmd.Flags().StringVar(&method, "method", "null", "function name, JSON list of names, or null for any")
	return cmd
}

func decodeEventCmd(a *app) *cobra.Command {
	var body, contractABI, event string
	cmd := &cobra.Command{
		Use:   "decode-event",
		Short: "Decode an event body",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.respond(cmd.Name(), func() (interface{}, error) {
				c, err := loadContract(contractABI)
				if err != nil {
					return nil, err
				}
				m, err := parseMethod(event)
				if err != nil {
					return nil, err
				}
				b, err := boc.Decode(body)
				if err != nil {
					return nil, err
				}
				decoded, err := c.DecodeEvent(b, m)
				if err != nil || decoded == nil {
					return nil, err
				}
				return decoded, nil
			})
		},
	}
	cmd.Flags().StringVar(&body, "body", "", "base64 message body")
	cmd.Flags().StringVar(&contractABI, "abi", "", "contract ABI JSON, or @file")
	cmd.Flags().StringVar(&event, "event", "null", "event name, JSON list of names, or null for any")
	return cmd
}

func decodeTransactionCmd(a *app) *cobra.Command {
	var tx, contractABI, method string
	cmd := &cobra.Command{
		Use:   "decode-transaction",
		Short: "Decode the call made by a transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.respond(cmd.Name(), func() (interface{}, error) {
				data, err := argValue(tx)
				if err != nil {
					return nil, err
				}
				t, err := transaction.Parse(data)
				if err != nil {
					return nil, err
				}
				c, err := loadContract(contractABI)
				if err != nil {
					return nil, err
				}
				m, err := parseMethod(method)
				if err != nil {
					return nil, err
				}
				decoded, err := transaction.DecodeTransaction(c, t, m)
				if err != nil || decoded == nil {
					return nil, err
				}
				return decoded, nil
			})
		},
	}
	cmd.Flags().StringVar(&tx, "transaction", "", "transaction JSON, or @file")
	cmd.Flags().StringVar(&contractABI, "abi", "", "contract ABI JSON, or @file")
	cmd.Flags().StringVar(&method, "method", "null", "function name, JSON list of names, or null for any")
	return cmd
}

func decodeTransactionEventsCmd(a *app) *cobra.Command {
	var tx, contractABI string
	cmd := &cobra.Command{
		Use:   "decode-transaction-events",
		Short: "Decode the events emitted by a transaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.respond(cmd.Name(), func() (interface{}, error) {
				data, err := argValue(tx)
				if err != nil {
					return nil, err
				}
				t, err := transaction.Parse(data)
				if err != nil {
					return nil, err
				}
				c, err := loadContract(contractABI)
				if err != nil {
					return nil, err
				}
				return transaction.DecodeTransactionEvents(c, t)
			})
		},
	}
	cmd.Flags().StringVar(&tx, "transaction", "", "transaction JSON, or @file")
	cmd.Flags().StringVar(&contractABI, "abi", "", "contract ABI JSON, or @file")
	return cmd
}

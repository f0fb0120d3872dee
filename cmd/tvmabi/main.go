package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/gowebpki/jcs"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/everscale-go/tvm-abi/clock"
	"github.com/everscale-go/tvm-abi/internal/config"
	"github.com/everscale-go/tvm-abi/internal/logging"
)

type app struct {
	out        io.Writer
	configPath string
	canonical  bool

	cfg     config.Configuration
	logger  *zap.Logger
	clock   clock.Clock
	initErr error
}

// envelope is the result of every command: {"type":"ok","data":...} or {"type":"err","data":"..."}.
type envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func newRootCmd(out io.Writer) *cobra.Command {
	return (&app{out: out}).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tvmabi",
		Short:         "Contract ABI toolkit for TVM chains",
		Long:          "tvmabi encodes and decodes contract calls, messages, events and transactions against a contract ABI.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.initErr = a.init()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to config file")
	root.PersistentFlags().BoolVar(&a.canonical, "canonical", false, "print results as canonical JSON")

	root.AddCommand(
		checkPublicKeyCmd(a),
		parseTypeCmd(a),
		packCmd(a),
		unpackCmd(a),
		bocHashCmd(a),
		parseKnownPayloadCmd(a),
		encodeInternalInputCmd(a),
		createExternalMessageWithoutSignatureCmd(a),
		createExternalMessageCmd(a),
		expectedAddressCmd(a),
		decodeInputCmd(a),
		decodeOutputCmd(a),
		decodeEventCmd(a),
		decodeTransactionCmd(a),
		decodeTransactionEventsCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	a.canonical = a.canonical || cfg.Output.Canonical
	switch {
	case a.clock != nil:
	case cfg.Clock.Type == "ntp":
		a.clock = clock.NewNTP(cfg.Clock.NTPServer, cfg.Clock.SyncInterval)
	default:
		a.clock = clock.System{}
	}
	return nil
}

// respond runs fn and writes its result envelope. Failures of fn are reported in the envelope; only a
// failure to write the envelope is returned.
func (a *app) respond(command string, fn func() (interface{}, error)) error {
	if a.initErr != nil {
		return a.write(envelope{Type: "err", Data: a.initErr.Error()})
	}
	logger := logging.WithRequest(a.logger, command)
	defer func() { _ = logger.Sync() }()

	logger.Debug("running command")
	data, err := fn()
	res := envelope{Type: "ok", Data: data}
	if err != nil {
		logger.Warn("command failed", zap.Error(err))
		res = envelope{Type: "err", Data: err.Error()}
	}
	return a.write(res)
}

func (a *app) write(res envelope) error {
	encoded, err := json.Marshal(res)
	if err != nil {
		encoded, err = json.Marshal(envelope{Type: "err", Data: fmt.Sprintf("cannot encode result: %v", err)})
		if err != nil {
			return err
		}
	}
	if a.canonical {
		if encoded, err = jcs.Transform(encoded); err != nil {
			return fmt.Errorf("cannot canonicalize result: %w", err)
		}
	}
	_, err = fmt.Fprintln(a.out, string(encoded))
	return err
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tvmabi: %v\n", err)
		os.Exit(1)
	}
}

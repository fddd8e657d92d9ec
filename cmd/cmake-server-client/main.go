// Command cmake-server-client connects to a cmake server endpoint, drives
// the protocol handshake and the introspection request sequence, and logs
// every message exchanged.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cmakeserver "github.com/cmakeutil/cmake-server-go"
	"github.com/cmakeutil/cmake-server-go/internal/config"
)

var (
	cfgFile string
	logFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "cmake-server-client <endpoint> <generator> <buildDirectory> [<sourceDirectory>]",
	Short: "Drive the cmake server protocol against a local endpoint",
	Long: `cmake-server-client connects to a running cmake server (started with
cmake -E server --pipe=<endpoint>), performs the protocol handshake and the
configure step, then requests compute, globalSettings, cmakeInputs, cache
and codemodel, logging every message exchanged.

It exits 0 when the server closes the stream and non-zero on any protocol
violation.`,
	Args:          cobra.RangeArgs(3, 4),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func run(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadFile(cfgFile)
	if err != nil {
		return err
	}

	if logFile != "" {
		fileCfg.LogFile = logFile
	}

	log, cleanup, err := newLogger(fileCfg.LogFile)
	if err != nil {
		return err
	}
	defer cleanup()

	endpoint, generator, buildDirectory := args[0], args[1], args[2]

	opts := []cmakeserver.Option{
		cmakeserver.WithLogger(log),
		cmakeserver.WithCacheArguments(fileCfg.CacheArguments),
		cmakeserver.WithProtocolVersion(fileCfg.ProtocolVersion),
	}
	if len(args) == 4 {
		opts = append(opts, cmakeserver.WithSourceDirectory(args[3]))
	}

	client := cmakeserver.New(endpoint, generator, buildDirectory, opts...)
	defer client.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return client.Run(ctx)
}

// newLogger builds the process-scoped message log: stderr by default, a
// file when configured. The wire traffic is logged at debug level, so the
// handler level depends on --verbose.
func newLogger(path string) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	out := os.Stderr
	cleanup := func() {}

	if path != "" {
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}

		out = file
		cleanup = func() { file.Close() }
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})

	return slog.New(handler), cleanup, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var connErr *cmakeserver.ConnectError
		if errors.As(err, &connErr) {
			// Connection refused is a user-facing condition, not a bug:
			// short message, no stack trace.
			fmt.Fprintf(os.Stderr, "could not connect to %s\n", connErr.Endpoint)
			os.Exit(1)
		}

		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (cacheArguments, protocolVersion, logFile)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write the message log to a file instead of stderr")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log full wire traffic")
}

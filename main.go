package main

import (
	"fmt"
	"os"

	"leafls/internal/config"
	"leafls/internal/server"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

// Version will be set during the build process using ldflags
var Version = "(dev) v0.0.0"

var (
	configPath    string
	logfile       string
	verbose       int
	tcpAddress    string
	wsAddress     string
	printsVersion bool

	rootCmd = &cobra.Command{
		Use:           "leafls",
		Short:         "Language server for leaf documents",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&configPath, "config", "", "Path to a TOML settings file")
	flags.StringVar(&logfile, "logfile", "", "Path to log file (logs go to stderr if empty)")
	flags.CountVarP(&verbose, "verbose", "v", "Add verbosity (may be repeated)")
	flags.StringVar(&tcpAddress, "tcp", "", "Listen for TCP connections on this address instead of stdio")
	flags.StringVar(&wsAddress, "websocket", "", "Listen for WebSocket connections on this address instead of stdio")
	flags.BoolVar(&printsVersion, "version", false, "Print the version of the program")
	rootCmd.MarkFlagsMutuallyExclusive("tcp", "websocket")
}

func main() {
	code := 1
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "leafls: fatal: %v\n", r)
			os.Exit(1)
		}
		os.Exit(code)
	}()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "leafls: %v\n", err)
		return
	}
	code = exitCode
}

// exitCode is set by run once the server has terminated.
var exitCode int

func run(cmd *cobra.Command, args []string) error {
	if printsVersion {
		fmt.Printf("%s LSP server version %s\n", server.Name, Version)
		return nil
	}

	// Logging
	var path *string
	if logfile != "" {
		path = &logfile
	}
	commonlog.Configure(verbose, path)
	log := commonlog.GetLogger(server.Name + ".server")

	// Settings
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFile(configPath); err != nil {
			return err
		}
	}

	ls := server.New(cfg, Version, log)
	transport := ls.Transport(verbose > 2)

	serve := transport.RunStdio
	switch {
	case tcpAddress != "":
		serve = func() error { return transport.RunTCP(tcpAddress) }
	case wsAddress != "":
		serve = func() error { return transport.RunWebSocket(wsAddress) }
	}

	log.Infof("starting %s %s", server.Name, Version)
	code, err := ls.Serve(cmd.Context(), serve)
	exitCode = code
	if err != nil {
		return err
	}
	log.Infof("exiting with code %d", code)
	return nil
}

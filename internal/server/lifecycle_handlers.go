package server

import (
	"context"
	"fmt"
	"time"

	"leafls/internal/config"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) initialize(
	context *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	cfg, err := config.Load(s.Config(), params.InitializationOptions)
	if err != nil {
		return nil, fmt.Errorf("invalid initialization options: %w", err)
	}

	root := ""
	if params.RootURI != nil {
		root = *params.RootURI
	} else if params.RootPath != nil {
		root = *params.RootPath
	}

	s.mu.Lock()
	s.config = cfg
	s.root = root
	s.mu.Unlock()

	s.client.attach()
	s.client.Infof(context, "initializing %s %s in %q", Name, s.version, root)

	return protocol.InitializeResult{
		Capabilities: s.capabilities(),
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    Name,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(
	context *glsp.Context,
	params *protocol.InitializedParams,
) error {
	s.client.Infof(context, "client initialized")
	return nil
}

// shutdown answers at once and leaves the server pending until the exit
// notification or the configured delay, whichever comes first.
func (s *Server) shutdown(context *glsp.Context) error {
	deadline := s.life.requestShutdown()
	s.log.Infof("shutdown requested, terminating at %s", deadline.Format(time.RFC3339Nano))
	return nil
}

func (s *Server) exit(context *glsp.Context) error {
	code := s.life.exit()
	s.log.Infof("exit with code %d", code)
	return s.resolver.Close()
}

func (s *Server) setTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

// ShutdownDeadline reports when a pending shutdown terminates the server.
func (s *Server) ShutdownDeadline() (time.Time, bool) {
	return s.life.Deadline()
}

// Serve runs a transport until the server terminates and returns the
// process exit code. A transport that stops on its own ends the server as
// if the exit notification had arrived; a transport error fails it.
func (s *Server) Serve(ctx context.Context, run func() error) (int, error) {
	go func() {
		if err := run(); err != nil {
			s.life.fail(fmt.Errorf("transport: %w", err))
			return
		}
		s.life.exit()
	}()
	return s.life.wait(ctx)
}

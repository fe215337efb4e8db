package server

import (
	"fmt"

	"leafls/internal/config"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// workspaceDidChangeConfiguration overlays the new settings and
// revalidates every open document under them.
func (s *Server) workspaceDidChangeConfiguration(
	context *glsp.Context,
	params *protocol.DidChangeConfigurationParams,
) error {
	cfg, err := config.Load(s.Config(), params.Settings)
	if err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	s.mu.Lock()
	s.config = cfg
	s.mu.Unlock()
	s.client.Infof(context, "settings changed, reporting at most %d problems", cfg.MaxNumberOfProblems)

	s.validateAll(context)
	return nil
}

func (s *Server) workspaceDidChangeWatchedFiles(
	context *glsp.Context,
	params *protocol.DidChangeWatchedFilesParams,
) error {
	for _, change := range params.Changes {
		s.client.Infof(context, "watched file changed: %s (%d)", change.URI, change.Type)
	}
	return nil
}

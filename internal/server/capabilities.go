package server

import (
	"leafls/internal/union"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) capabilities() protocol.ServerCapabilities {
	syncKind := protocol.TextDocumentSyncKindFull

	capabilities := s.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = union.Right[protocol.TextDocumentSyncKind](
		protocol.TextDocumentSyncOptions{
			OpenClose: &protocol.True,
			Change:    &syncKind,
		},
	)
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		ResolveProvider: &protocol.False,
	}
	capabilities.HoverProvider = union.Left[bool, protocol.HoverOptions](true)
	capabilities.DefinitionProvider = union.Left[bool, protocol.DefinitionOptions](true)
	capabilities.TypeDefinitionProvider = union.Left[bool, protocol.TypeDefinitionOptions](true)
	capabilities.ReferencesProvider = union.Left[bool, protocol.ReferenceOptions](true)
	capabilities.FoldingRangeProvider = union.Left[bool, protocol.FoldingRangeOptions](false)
	capabilities.DocumentFormattingProvider = union.Left[bool, protocol.DocumentFormattingOptions](false)
	return capabilities
}

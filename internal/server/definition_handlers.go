package server

import (
	"leafls/internal/analysis"
	"leafls/internal/locator"
	"leafls/internal/union"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// LocationResult is the "Location or Location[]" shape of definition
// replies. The server always answers with a single location.
type LocationResult = union.Either[protocol.Location, []protocol.Location]

// locate resolves the current text of uri.
func (s *Server) locate(uri protocol.DocumentUri) (*locator.Locator, error) {
	prog, err := s.manager.Program(uri)
	if err != nil {
		return nil, err
	}
	return locator.New(prog), nil
}

func (s *Server) textDocumentDefinition(
	context *glsp.Context,
	params *protocol.DefinitionParams,
) (any, error) {
	return s.definition(params.TextDocumentPositionParams, (*locator.Locator).Definition)
}

func (s *Server) textDocumentTypeDefinition(
	context *glsp.Context,
	params *protocol.TypeDefinitionParams,
) (any, error) {
	return s.definition(params.TextDocumentPositionParams, (*locator.Locator).TypeDefinition)
}

func (s *Server) definition(
	params protocol.TextDocumentPositionParams,
	find func(*locator.Locator, analysis.Position) (analysis.Token, error),
) (any, error) {
	uri := params.TextDocument.URI
	l, err := s.locate(uri)
	if err != nil {
		return nil, err
	}
	decl, err := find(l, fromProtocol(params.Position))
	if err != nil {
		return nil, err
	}
	return union.Left[protocol.Location, []protocol.Location](toLocation(uri, decl)), nil
}

// textDocumentReferences lists every use of the symbol under the cursor.
// A position without a symbol yields an empty list.
func (s *Server) textDocumentReferences(
	context *glsp.Context,
	params *protocol.ReferenceParams,
) ([]protocol.Location, error) {
	uri := params.TextDocument.URI
	l, err := s.locate(uri)
	if err != nil {
		return nil, err
	}

	refs := l.References(fromProtocol(params.Position), params.Context.IncludeDeclaration)
	locations := make([]protocol.Location, len(refs))
	for i, ref := range refs {
		locations[i] = toLocation(uri, ref)
	}
	return locations, nil
}

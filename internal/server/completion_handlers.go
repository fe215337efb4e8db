package server

import (
	"leafls/internal/locator"
	"leafls/internal/union"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// CompletionResult is the "CompletionItem[] or CompletionList" shape of
// completion replies. The server always answers with the item list.
type CompletionResult = union.Either[[]protocol.CompletionItem, protocol.CompletionList]

var completionKinds = map[locator.CompletionKind]protocol.CompletionItemKind{
	locator.CompletionField:            protocol.CompletionItemKindField,
	locator.CompletionParameter:        protocol.CompletionItemKindVariable,
	locator.CompletionLocal:            protocol.CompletionItemKindVariable,
	locator.CompletionFunction:         protocol.CompletionItemKindFunction,
	locator.CompletionImportedFunction: protocol.CompletionItemKindFunction,
	locator.CompletionType:             protocol.CompletionItemKindStruct,
}

func (s *Server) textDocumentCompletion(
	context *glsp.Context,
	params *protocol.CompletionParams,
) (any, error) {
	l, err := s.locate(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	candidates := l.Completions(fromProtocol(params.Position))
	items := make([]protocol.CompletionItem, len(candidates))
	for i, c := range candidates {
		kind := completionKinds[c.Kind]
		detail := c.Detail
		items[i] = protocol.CompletionItem{
			Label:         c.Label,
			Kind:          &kind,
			Detail:        &detail,
			Documentation: c.Category,
		}
	}
	return union.Left[[]protocol.CompletionItem, protocol.CompletionList](items), nil
}

// completionItemResolve returns the item unchanged.
func (s *Server) completionItemResolve(
	context *glsp.Context,
	params *protocol.CompletionItem,
) (*protocol.CompletionItem, error) {
	return params, nil
}

package server

import (
	"fmt"

	"leafls/internal/union"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// HoverContents is the subset of hover content shapes the server emits.
type HoverContents = union.Either[protocol.MarkupContent, protocol.MarkedStringStruct]

func (s *Server) textDocumentHover(
	context *glsp.Context,
	params *protocol.HoverParams,
) (*protocol.Hover, error) {
	l, err := s.locate(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	pos := fromProtocol(params.Position)
	code, err := l.Hover(pos)
	if err != nil {
		return nil, err
	}
	if code == "" {
		return &protocol.Hover{Contents: union.Left[protocol.MarkupContent, protocol.MarkedStringStruct](
			protocol.MarkupContent{Kind: protocol.MarkupKindMarkdown},
		)}, nil
	}

	hover := &protocol.Hover{
		Contents: union.Left[protocol.MarkupContent, protocol.MarkedStringStruct](protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: codeBlock(s.Config().LanguageID, code),
		}),
	}
	if tok, ok := l.TokenAt(pos); ok {
		r := toRange(tok.Span)
		hover.Range = &r
	}
	return hover, nil
}

func codeBlock(lang, code string) string {
	return fmt.Sprintf("```%s\n%s\n```", lang, code)
}

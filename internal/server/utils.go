package server

import (
	"leafls/internal/analysis"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Both sides count columns in UTF-16 code units.

func fromProtocol(p protocol.Position) analysis.Position {
	return analysis.Position{Line: int(p.Line), Column: int(p.Character)}
}

func toProtocol(p analysis.Position) protocol.Position {
	return protocol.Position{
		Line:      protocol.UInteger(max(p.Line, 0)),
		Character: protocol.UInteger(max(p.Column, 0)),
	}
}

func toRange(s analysis.Span) protocol.Range {
	return protocol.Range{Start: toProtocol(s.Start), End: toProtocol(s.End)}
}

func toLocation(uri protocol.DocumentUri, tok analysis.Token) protocol.Location {
	return protocol.Location{URI: uri, Range: toRange(tok.Span)}
}

package server

import (
	"errors"
	"fmt"

	"leafls/internal/manager"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

func (s *Server) textDocumentDidOpen(
	context *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	s.bind(context)
	item := params.TextDocument
	if lang := s.Config().LanguageID; item.LanguageID != "" && item.LanguageID != lang {
		s.log.Debugf("opening %s with language %q, expected %q", item.URI, item.LanguageID, lang)
	}
	s.manager.Open(item.URI, item.LanguageID, item.Version, item.Text)

	doc, err := s.manager.Get(item.URI)
	if err != nil {
		return err
	}
	s.validate(context, doc)
	return nil
}

// textDocumentDidChange applies the last full-text change. The store's
// change handler publishes diagnostics. Stale or unknown documents are
// logged and otherwise ignored.
func (s *Server) textDocumentDidChange(
	context *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	s.bind(context)
	uri := params.TextDocument.URI
	if len(params.ContentChanges) == 0 {
		return nil
	}

	var text string
	switch change := params.ContentChanges[len(params.ContentChanges)-1].(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		text = change.Text
	case protocol.TextDocumentContentChangeEvent:
		if change.Range != nil {
			return fmt.Errorf("unexpected incremental change for %s", uri)
		}
		text = change.Text
	default:
		return fmt.Errorf("unexpected change event type %T", change)
	}

	err := s.manager.Change(uri, params.TextDocument.Version, text)
	switch {
	case errors.Is(err, manager.ErrStaleVersion), errors.Is(err, manager.ErrUnknownDocument):
		s.client.Warningf(context, "ignoring change: %v", err)
		return nil
	case err != nil:
		return err
	}
	return nil
}

// textDocumentDidClose forgets the document and clears its diagnostics.
func (s *Server) textDocumentDidClose(
	context *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	if !s.manager.Close(uri) {
		s.log.Debugf("closing %s, which was not open", uri)
	}
	publishDiagnostics(context, uri, nil, []protocol.Diagnostic{})
	return nil
}

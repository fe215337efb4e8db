package server

import (
	"leafls/internal/analysis"
	"leafls/internal/config"
	"leafls/internal/manager"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// validate publishes the findings of doc's current text, replacing
// whatever was published for its URI before.
func (s *Server) validate(context *glsp.Context, doc manager.Document) {
	prog := s.manager.ProgramOf(doc)
	version := protocol.UInteger(max(doc.Version, 0))
	publishDiagnostics(context, doc.URI, &version, findingDiagnostics(prog.Findings, s.Config()))
}

// validateAll revalidates every open document, in URI order.
func (s *Server) validateAll(context *glsp.Context) {
	for _, doc := range s.manager.Snapshot() {
		s.validate(context, doc)
	}
}

func publishDiagnostics(
	context *glsp.Context,
	uri string,
	version *protocol.UInteger,
	diagnostics []protocol.Diagnostic,
) {
	context.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Version:     version,
		Diagnostics: diagnostics,
	})
}

// findingDiagnostics keeps the first cfg.MaxNumberOfProblems findings in
// order. The result is never nil so that an empty list
// clears the client's previous set.
func findingDiagnostics(findings []analysis.Finding, cfg config.Config) []protocol.Diagnostic {
	n := min(len(findings), max(cfg.MaxNumberOfProblems, 0))
	diagnostics := make([]protocol.Diagnostic, 0, n)

	severity := protocol.DiagnosticSeverityWarning
	source := cfg.DiagnosticSource
	for _, f := range findings[:n] {
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range:    toRange(f.Span),
			Severity: &severity,
			Source:   &source,
			Message:  f.Message,
		})
	}
	return diagnostics
}

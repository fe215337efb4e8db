// Package server speaks the editor protocol: it keeps the open documents,
// publishes diagnostics for them and answers hover, completion, definition
// and reference queries by resolving the current text on every request.
package server

import (
	"fmt"
	"sync"
	"time"

	"leafls/internal/analysis"
	"leafls/internal/cache"
	"leafls/internal/config"
	"leafls/internal/manager"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"
)

const Name = "leafls"

type Server struct {
	version string
	handler protocol.Handler

	mu     sync.Mutex
	config config.Config
	root   string
	notify glsp.NotifyFunc

	resolver *analysis.Resolver
	manager  *manager.DocumentManager
	client   *clientLog
	life     *lifecycle
	log      commonlog.Logger
}

func New(cfg config.Config, version string, log commonlog.Logger) *Server {
	ls := &Server{
		version: version,
		config:  cfg,
		client:  &clientLog{log: log},
		life:    newLifecycle(cfg.ShutdownDelay, time.Now),
		log:     log,
	}
	ls.resolver = analysis.NewResolver(commonlog.GetLogger(Name + ".analysis"))
	ls.manager = manager.NewDocumentManager(
		ls.resolver,
		cache.NewPrograms(cfg.ProgramCacheSize),
		ls.documentChanged,
		commonlog.GetLogger(Name+".manager"),
	)
	ls.handler = protocol.Handler{
		Initialize:                      ls.initialize,
		Initialized:                     ls.initialized,
		Shutdown:                        ls.shutdown,
		Exit:                            ls.exit,
		SetTrace:                        ls.setTrace,
		WorkspaceDidChangeConfiguration: ls.workspaceDidChangeConfiguration,
		WorkspaceDidChangeWatchedFiles:  ls.workspaceDidChangeWatchedFiles,
		TextDocumentDidOpen:             ls.textDocumentDidOpen,
		TextDocumentDidChange:           ls.textDocumentDidChange,
		TextDocumentDidClose:            ls.textDocumentDidClose,
		TextDocumentCompletion:          ls.textDocumentCompletion,
		CompletionItemResolve:           ls.completionItemResolve,
		TextDocumentHover:               ls.textDocumentHover,
		TextDocumentDefinition:          ls.textDocumentDefinition,
		TextDocumentTypeDefinition:      ls.textDocumentTypeDefinition,
		TextDocumentReferences:          ls.textDocumentReferences,
	}
	return ls
}

// Transport wraps the server in a glsp JSON-RPC server.
func (s *Server) Transport(debug bool) *glspserver.Server {
	return glspserver.NewServer(s, Name, debug)
}

// Handle implements glsp.Handler. The exit notification bypasses the
// protocol handler, which refuses every message once shutdown has been
// requested. A panic in a handler fails the whole server.
func (s *Server) Handle(ctx *glsp.Context) (r any, validMethod bool, validParams bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic while handling %s: %v", ctx.Method, p)
			s.life.fail(err)
			r, validMethod, validParams = nil, true, true
		}
	}()

	s.bind(ctx)
	if ctx.Method == protocol.MethodExit {
		return nil, true, true, s.exit(ctx)
	}
	return s.handler.Handle(ctx)
}

// Config returns the settings currently in effect.
func (s *Server) Config() config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// Root returns the workspace root sent by the client, if any.
func (s *Server) Root() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// bind remembers how to reach the client that sent the current message.
func (s *Server) bind(context *glsp.Context) {
	if context == nil || context.Notify == nil {
		return
	}
	s.mu.Lock()
	s.notify = context.Notify
	s.mu.Unlock()
}

// documentChanged is the change handler given to the document manager. It
// publishes diagnostics for doc before the change call returns.
func (s *Server) documentChanged(doc manager.Document) {
	s.mu.Lock()
	notify := s.notify
	s.mu.Unlock()

	if notify == nil {
		s.log.Debugf("no client to publish diagnostics of %s to", doc.URI)
		return
	}
	s.validate(&glsp.Context{Notify: notify}, doc)
}

package manager

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"leafls/internal/analysis"
	"leafls/internal/cache"

	"github.com/tliron/commonlog"
)

var (
	ErrUnknownDocument = errors.New("document is not open")
	ErrStaleVersion    = errors.New("document version is not newer than the stored one")
)

// Document is an immutable revision of an open text document.
type Document struct {
	URI        string
	LanguageID string
	Version    int32
	Text       string
}

// Resolver turns text into a program model.
type Resolver interface {
	Resolve(text string) *analysis.Program
}

// ChangeHandler is told about every accepted change, after the store has
// been updated.
type ChangeHandler func(doc Document)

// DocumentManager holds the open documents keyed by URI.
type DocumentManager struct {
	mu       sync.Mutex
	docs     map[string]Document
	onChange ChangeHandler

	resolver Resolver
	programs *cache.Programs
	log      commonlog.Logger
}

// NewDocumentManager creates an empty store. onChange may be nil.
func NewDocumentManager(
	resolver Resolver,
	programs *cache.Programs,
	onChange ChangeHandler,
	log commonlog.Logger,
) *DocumentManager {
	return &DocumentManager{
		docs:     make(map[string]Document),
		onChange: onChange,
		resolver: resolver,
		programs: programs,
		log:      log,
	}
}

// Open stores a document, replacing any previous one with the same URI.
func (dm *DocumentManager) Open(uri string, languageID string, version int32, text string) {
	dm.mu.Lock()
	if _, ok := dm.docs[uri]; ok {
		dm.log.Debugf("reopening %s at version %d", uri, version)
	}
	dm.docs[uri] = Document{URI: uri, LanguageID: languageID, Version: version, Text: text}
	dm.mu.Unlock()

	dm.programs.Forget(uri)
}

// Change replaces the full text of an open document and calls the change
// handler before returning. Versions must increase.
func (dm *DocumentManager) Change(uri string, version int32, text string) error {
	dm.mu.Lock()
	old, ok := dm.docs[uri]
	if !ok {
		dm.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownDocument, uri)
	}
	if version <= old.Version {
		dm.mu.Unlock()
		return fmt.Errorf("%w: %s: %d <= %d", ErrStaleVersion, uri, version, old.Version)
	}
	doc := Document{URI: uri, LanguageID: old.LanguageID, Version: version, Text: text}
	dm.docs[uri] = doc
	handler := dm.onChange
	dm.mu.Unlock()

	if handler != nil {
		handler(doc)
	}
	return nil
}

// Close forgets a document. It reports whether the document was open.
func (dm *DocumentManager) Close(uri string) bool {
	dm.mu.Lock()
	_, ok := dm.docs[uri]
	delete(dm.docs, uri)
	dm.mu.Unlock()

	dm.programs.Forget(uri)
	return ok
}

// Get returns the current revision of uri.
func (dm *DocumentManager) Get(uri string) (Document, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, ok := dm.docs[uri]
	if !ok {
		return Document{}, fmt.Errorf("%w: %s", ErrUnknownDocument, uri)
	}
	return doc, nil
}

// Snapshot returns every open document, sorted by URI. Later changes do
// not affect the returned slice.
func (dm *DocumentManager) Snapshot() []Document {
	dm.mu.Lock()
	out := make([]Document, 0, len(dm.docs))
	for _, doc := range dm.docs {
		out = append(out, doc)
	}
	dm.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

// Program resolves the current revision of uri.
func (dm *DocumentManager) Program(uri string) (*analysis.Program, error) {
	doc, err := dm.Get(uri)
	if err != nil {
		return nil, err
	}
	return dm.ProgramOf(doc), nil
}

// ProgramOf resolves a specific revision, consulting the program cache.
func (dm *DocumentManager) ProgramOf(doc Document) *analysis.Program {
	key := cache.KeyOf(doc.URI, doc.Version, doc.Text)
	if prog, ok := dm.programs.Get(key); ok {
		return prog
	}
	prog := dm.resolver.Resolve(doc.Text)
	dm.programs.Put(key, prog)
	return prog
}

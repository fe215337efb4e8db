package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

var lang = golang.GetLanguage()

// directiveQuery captures the host-import directives that may precede a
// bodyless function.
const directiveQuery = `((comment) @directive (#match? @directive "^//go:(wasmimport|linkname) "))`

type match struct {
	row     uint32
	content string
}

func executeQuery(root *sitter.Node, query string, source []byte) ([]match, error) {
	q, err := sitter.NewQuery([]byte(query), lang)
	if err != nil {
		return nil, err
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, root)

	var matches []match
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		m = qc.FilterPredicates(m, source)
		for _, c := range m.Captures {
			matches = append(matches, match{
				row:     c.Node.EndPoint().Row,
				content: c.Node.Content(source),
			})
		}
	}
	return matches, nil
}

// parserPool hands out tree-sitter parsers for one-shot parses.
type parserPool struct {
	pool chan *sitter.Parser
	done chan struct{}
	once sync.Once
}

var errPoolClosed = errors.New("parser pool is closed")

func newParserPool(n int) *parserPool {
	pp := &parserPool{
		pool: make(chan *sitter.Parser, n),
		done: make(chan struct{}),
	}
	for i := 0; i < n; i++ {
		p := sitter.NewParser()
		p.SetLanguage(lang)
		pp.pool <- p
	}
	return pp
}

func (pp *parserPool) parse(ctx context.Context, source []byte) (*sitter.Tree, error) {
	var p *sitter.Parser
	select {
	case p = <-pp.pool:
	case <-pp.done:
		return nil, errPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer pp.release(p)

	tree, err := p.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return tree, nil
}

func (pp *parserPool) release(p *sitter.Parser) {
	select {
	case <-pp.done:
		p.Close()
	default:
		pp.pool <- p
	}
}

// close frees the idle parsers; busy ones are freed on release. It may be
// called more than once.
func (pp *parserPool) close() {
	pp.once.Do(func() {
		close(pp.done)
		for {
			select {
			case p := <-pp.pool:
				p.Close()
			default:
				return
			}
		}
	})
}

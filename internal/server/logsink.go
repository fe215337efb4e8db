package server

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// clientLog writes to the server log and, once attached during
// initialize, mirrors each line to the editor as window/logMessage.
type clientLog struct {
	log      commonlog.Logger
	attached atomic.Bool
}

func (c *clientLog) attach() {
	c.attached.Store(true)
}

func (c *clientLog) Infof(ctx *glsp.Context, format string, args ...any) {
	c.log.Infof(format, args...)
	c.send(ctx, protocol.MessageTypeLog, format, args...)
}

func (c *clientLog) Warningf(ctx *glsp.Context, format string, args ...any) {
	c.log.Warningf(format, args...)
	c.send(ctx, protocol.MessageTypeWarning, format, args...)
}

func (c *clientLog) send(ctx *glsp.Context, kind protocol.MessageType, format string, args ...any) {
	if !c.attached.Load() || ctx == nil || ctx.Notify == nil {
		return
	}
	line := strings.ReplaceAll(fmt.Sprintf(format, args...), "\n", " ")
	ctx.Notify(protocol.ServerWindowLogMessage, &protocol.LogMessageParams{
		Type:    kind,
		Message: line,
	})
}

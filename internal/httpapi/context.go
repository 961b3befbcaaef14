package httpapi

import (
	"context"
)

// joinContexts returns a child of req that is also canceled when base is
// done. Request-scoped values (request id) stay reachable. The returned
// cancel func must be called when the handler ends.
func joinContexts(req, base context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(req)
	stop := context.AfterFunc(base, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

package driven

import "context"

// TargetResolver resolves which accounts impersonate a channel. The
// resolution itself is an external concern; the pipeline only consumes the
// ordered list of handles.
type TargetResolver interface {
	// Resolve returns the ordered target handles for a channel.
	// Returns domain.ErrNotFound if the channel has no target list.
	Resolve(ctx context.Context, channel string) ([]string, error)
}

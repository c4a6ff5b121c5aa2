package ingest

import (
	"context"
	"log/slog"
)

// Action is the routing decision for one ChangeEvent.
type Action int

const (
	ActionSkip Action = iota
	ActionPersist
	ActionReject
	ActionRemove
)

func (a Action) String() string {
	switch a {
	case ActionPersist:
		return "persist"
	case ActionReject:
		return "reject"
	case ActionRemove:
		return "remove"
	default:
		return "skip"
	}
}

// Decide is the routing table. Removed events are not validated; unknown kinds
// are skipped.
func Decide(ev ChangeEvent) (Action, ValidationOutcome) {
	switch ev.Kind {
	case EventCreated:
		outcome := Validate(ev.Key)
		if outcome.Accepted {
			return ActionPersist, outcome
		}
		return ActionReject, outcome
	case EventRemoved:
		return ActionRemove, ValidationOutcome{}
	default:
		return ActionSkip, ValidationOutcome{}
	}
}

// Router dispatches ChangeEvents to the catalog writer or the rejecter. It
// performs no retries.
type Router struct {
	writer   EntryWriter
	rejecter Rejecter
	logger   *slog.Logger
}

// NewRouter creates a router over the given collaborators.
func NewRouter(writer EntryWriter, rejecter Rejecter, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{writer: writer, rejecter: rejecter, logger: logger}
}

// Route executes the action for ev. Only catalog write failures are returned;
// a failed rejection notice is logged by the rejecter and dropped so the
// rejected file is not reprocessed.
func (r *Router) Route(ctx context.Context, ev ChangeEvent) (Action, error) {
	action, outcome := Decide(ev)
	switch action {
	case ActionPersist:
		return action, r.writer.Put(ctx, ev.Key)
	case ActionReject:
		r.logger.Warn("File failed validation", "key", ev.Key, "bucket", ev.BucketName, "reason", outcome.Reason)
		_ = r.rejecter.Reject(ctx, ev.Key, outcome.Reason)
		return action, nil
	case ActionRemove:
		return action, r.writer.Delete(ctx, ev.Key)
	default:
		r.logger.Debug("Skipping unhandled event", "key", ev.Key, "event_name", ev.EventName)
		return action, nil
	}
}

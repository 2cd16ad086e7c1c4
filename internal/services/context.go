package services

import "context"

type scopeKey struct{}

// scope carries the identifiers attached to work running under a context.
type scope struct {
	jobID string
	stage string
}

func scopeFrom(ctx context.Context) scope {
	if ctx == nil {
		return scope{}
	}
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

// WithJobID annotates ctx with a transcode or provisioning job identifier.
// A blank id leaves ctx unchanged.
func WithJobID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	s := scopeFrom(ctx)
	s.jobID = id
	return context.WithValue(ctx, scopeKey{}, s)
}

// JobIDFromContext extracts the job identifier if present.
func JobIDFromContext(ctx context.Context) (string, bool) {
	id := scopeFrom(ctx).jobID
	return id, id != ""
}

// WithStage annotates ctx with the current stage (probing, encoding,
// download, ...). A blank stage leaves ctx unchanged.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	s := scopeFrom(ctx)
	s.stage = stage
	return context.WithValue(ctx, scopeKey{}, s)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	stage := scopeFrom(ctx).stage
	return stage, stage != ""
}

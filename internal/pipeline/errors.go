package pipeline

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/Norgate-AV/widgetpack/internal/bundler"
	"github.com/Norgate-AV/widgetpack/internal/codes"
	"github.com/Norgate-AV/widgetpack/internal/discover"
	"github.com/Norgate-AV/widgetpack/internal/output"
	"github.com/Norgate-AV/widgetpack/internal/synth"
)

// Stage names the pipeline step a failure happened in
type Stage string

const (
	StageDiscover    Stage = "discover"
	StageResolve     Stage = "resolve"
	StageSynthesize  Stage = "synthesize"
	StageBundle      Stage = "bundle"
	StageMaterialize Stage = "materialize"
	StageInline      Stage = "inline"
	StageCleanup     Stage = "cleanup"
	StageRecord      Stage = "record"
)

// EntryError is the error returned for every fatal pipeline failure
type EntryError struct {
	// Entry is the widget being built, empty for failures before the queue starts
	Entry string
	Stage Stage
	Kind  codes.Kind
	Err   error
}

func (e *EntryError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}

	return fmt.Sprintf("widget %q failed at %s: %v", e.Entry, e.Stage, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

func fail(entry string, stage Stage, err error) *EntryError {
	return &EntryError{
		Entry: entry,
		Stage: stage,
		Kind:  classify(stage, err),
		Err:   err,
	}
}

// classify maps an error to a failure kind. Sentinels win over the stage
// default.
func classify(stage Stage, err error) codes.Kind {
	var buildErr *bundler.BuildError

	switch {
	case errors.Is(err, synth.ErrMalformedEntry):
		return codes.KindMalformedEntry
	case errors.Is(err, output.ErrMissingOutput):
		return codes.KindMissingOutput
	case errors.Is(err, discover.ErrDuplicateEntry):
		return codes.KindConfig
	case errors.As(err, &buildErr):
		return codes.KindBundler
	}

	switch stage {
	case StageDiscover:
		return codes.KindConfig
	case StageSynthesize, StageBundle:
		return codes.KindBundler
	default:
		return codes.KindIO
	}
}

// KindOf returns the failure kind carried by err. Errors that are not
// EntryErrors are configuration errors.
func KindOf(err error) codes.Kind {
	if err == nil {
		return codes.KindNone
	}

	var entryErr *EntryError
	if errors.As(err, &entryErr) {
		return entryErr.Kind
	}

	return codes.KindConfig
}

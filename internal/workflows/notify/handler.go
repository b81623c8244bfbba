// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"context"

	"github.com/automa-saga/automa"
	"github.com/automa-saga/logx"
	"github.com/hashgraph/regsync/internal/doctor"
	"github.com/rs/zerolog"
)

// Default notification handler that logs through logx.
// Caller may override using SetDefault
var handler = &Handler{
	StepStart: func(ctx context.Context, stp automa.Step, msg string, args ...interface{}) {
		withTrace(ctx, logx.As().Debug()).
			Str("step_id", stp.Id()).
			Msgf(msg, args...)
	},
	StepCompletion: func(ctx context.Context, stp automa.Step, report *automa.Report, msg string, args ...interface{}) {
		e := withTrace(ctx, logx.As().Info()).
			Str("step_id", stp.Id()).
			Str("status", report.Status.String())
		for k, v := range report.Metadata {
			e = e.Str(k, v)
		}
		e.Msgf(msg, args...)
	},
	StepFailure: func(ctx context.Context, stp automa.Step, report *automa.Report, msg string, args ...interface{}) {
		// the first failed step report carries the root cause
		first := FirstFailure(report)

		l := withTrace(ctx, logx.As().Error()).Err(report.Error).
			Str("step_id", stp.Id()).
			Str("status", report.Status.String())
		if first != nil && first.Id != report.Id && first.Error != nil {
			l.
				Str("first_error", first.Error.Error()).
				Str("first_error_step_id", first.Id)
		}

		l.Msgf(msg, args...)
	},
}

// Handler defines callbacks for step events
// Caller may pass a custom handler, e.g. one that collects events in tests or prints them for the watch loop.
type Handler struct {
	StepStart      func(ctx context.Context, stp automa.Step, msg string, args ...interface{})
	StepCompletion func(ctx context.Context, stp automa.Step, report *automa.Report, msg string, args ...interface{})
	StepFailure    func(ctx context.Context, stp automa.Step, report *automa.Report, msg string, args ...interface{})
}

// SetDefault sets the default callback handler for step events
// It only updates non-nil handlers to preserve existing defaults
func SetDefault(h *Handler) {
	if h.StepStart != nil {
		handler.StepStart = h.StepStart
	}

	if h.StepCompletion != nil {
		handler.StepCompletion = h.StepCompletion
	}

	if h.StepFailure != nil {
		handler.StepFailure = h.StepFailure
	}
}

// As returns the current notification handler
func As() *Handler {
	return handler
}

// FirstFailure returns the deepest report that failed with an error, or report itself when no step report did.
func FirstFailure(report *automa.Report) *automa.Report {
	if report == nil {
		return nil
	}

	for _, stepReport := range report.StepReports {
		if stepReport != nil && stepReport.HasError() {
			return FirstFailure(stepReport)
		}
	}

	return report
}

func withTrace(ctx context.Context, e *zerolog.Event) *zerolog.Event {
	if traceId, ok := ctx.Value(doctor.TraceIdKey).(string); ok && traceId != "" {
		return e.Str("trace_id", traceId)
	}
	return e
}

// SPDX-License-Identifier: Apache-2.0

package notify

import (
	"context"
	"testing"

	"github.com/automa-saga/automa"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/require"
)

// mockStep implements automa.Step for testing
type mockStep struct {
	id    string
	state automa.NamespacedStateBag
}

func (m *mockStep) Prepare(ctx context.Context) (context.Context, error) {
	return ctx, nil
}

func (m *mockStep) Execute(ctx context.Context) *automa.Report {
	return automa.SuccessReport(m)
}

func (m *mockStep) Rollback(ctx context.Context) *automa.Report {
	return automa.SuccessReport(m)
}

func (m *mockStep) State() automa.NamespacedStateBag {
	if m.state == nil {
		m.state = automa.NewNamespacedStateBag(nil, nil)
	}

	return m.state
}

func (m *mockStep) WithState(s automa.NamespacedStateBag) automa.Step {
	c := *m
	c.state = s
	return &c
}

func (m *mockStep) Id() string { return m.id }

func restoreDefault(t *testing.T) {
	orig := *As()
	t.Cleanup(func() { SetDefault(&orig) })
}

func TestNotificationHandler_Callbacks(t *testing.T) {
	restoreDefault(t)

	var completed, failed bool
	var gotMsg string

	SetDefault(&Handler{
		StepCompletion: func(ctx context.Context, stp automa.Step, report *automa.Report, msg string, args ...interface{}) {
			completed = true
			gotMsg = msg
		},
		StepFailure: func(ctx context.Context, stp automa.Step, report *automa.Report, msg string, args ...interface{}) {
			failed = true
			gotMsg = msg
		},
	})

	step := &mockStep{id: "test-step"}
	As().StepCompletion(context.Background(), step, &automa.Report{Status: automa.StatusSuccess}, "done")
	require.True(t, completed)
	require.Equal(t, "done", gotMsg)

	report := &automa.Report{Status: automa.StatusFailed, Error: errorx.IllegalState.New("fail")}
	As().StepFailure(context.Background(), step, report, "fail")
	require.True(t, failed)
	require.Equal(t, "fail", gotMsg)
}

func TestSetDefault_PartialUpdate(t *testing.T) {
	restoreDefault(t)

	before := As().StepFailure
	called := false
	SetDefault(&Handler{
		StepCompletion: func(ctx context.Context, stp automa.Step, report *automa.Report, msg string, args ...interface{}) {
			called = true
		},
	})

	As().StepCompletion(context.Background(), &mockStep{id: "id"}, &automa.Report{Status: automa.StatusSuccess}, "msg")
	require.True(t, called)
	require.NotNil(t, As().StepFailure)
	require.NotNil(t, before)
}

func TestDefaultHandler_DoesNotPanic(t *testing.T) {
	step := &mockStep{id: "load-registry"}
	ctx := context.Background()

	require.NotPanics(t, func() {
		As().StepStart(ctx, step, "Loading %s", "migrator.go")
		As().StepCompletion(ctx, step, &automa.Report{Status: automa.StatusSuccess, Metadata: map[string]string{"path": "migrator.go"}}, "ok")
		As().StepFailure(ctx, step, &automa.Report{Status: automa.StatusFailed, Error: errorx.IllegalState.New("boom")}, "failed")
	})
}

func TestFirstFailure(t *testing.T) {
	cause := errorx.IllegalState.New("cause")
	leaf := &automa.Report{Id: "leaf", Status: automa.StatusFailed, Error: cause}
	root := &automa.Report{
		Id:     "root",
		Status: automa.StatusFailed,
		Error:  errorx.Decorate(cause, "workflow failed"),
		StepReports: []*automa.Report{
			{Id: "ok", Status: automa.StatusSuccess},
			leaf,
		},
	}

	require.Same(t, leaf, FirstFailure(root))
	require.Nil(t, FirstFailure(nil))

	ok := &automa.Report{Id: "ok", Status: automa.StatusSuccess}
	require.Same(t, ok, FirstFailure(ok))
}

package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubJob struct {
	runs int
	err  error
}

func (j *stubJob) Name() string { return "stub" }

func (j *stubJob) Run(ctx context.Context) error {
	j.runs++
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("no deadline")
	}
	return j.err
}

func TestStart_RejectsBadSpec(t *testing.T) {
	_, err := Start(Entry{Spec: "not a spec", Job: &stubJob{}})
	assert.Error(t, err)
}

func TestStart_RegistersEntries(t *testing.T) {
	c, err := Start(
		Entry{Spec: "0 9 * * *", Job: &stubJob{}},
		Entry{Spec: "0 0 * * 0", Job: &stubJob{}},
	)
	require.NoError(t, err)
	defer c.Stop()

	assert.Len(t, c.Entries(), 2)
}

func TestRunOnce(t *testing.T) {
	ok := &stubJob{}
	require.NoError(t, RunOnce(context.Background(), ok))
	assert.Equal(t, 1, ok.runs)

	failing := &stubJob{err: errors.New("boom")}
	assert.EqualError(t, RunOnce(context.Background(), failing), "boom")
}

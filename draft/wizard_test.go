package draft

import (
	"context"
	"testing"

	"github.com/queuev/queuev-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeStepOne(t *testing.T, store *Store, userID string) {
	t.Helper()
	store.Update(context.Background(), userID, models.DraftUpdate{
		QueueName: strPtr("City Clinic"),
		Address:   strPtr("12 Main St"),
	})
}

func TestAdvanceBlockedUntilDetailsFilled(t *testing.T) {
	store := NewStore(nil, &fakePersister{}, nil)
	ctx := context.Background()

	_, err := store.Advance(ctx, "user-1")
	assert.ErrorIs(t, err, ErrStepIncomplete)

	store.Update(ctx, "user-1", models.DraftUpdate{QueueName: strPtr("City Clinic")})
	_, err = store.Advance(ctx, "user-1")
	assert.ErrorIs(t, err, ErrStepIncomplete, "address is still missing")

	completeStepOne(t, store, "user-1")
	sess, err := store.Advance(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, StepTiming, sess.Step)
}

func TestAdvanceStopsAtLastStep(t *testing.T) {
	store := NewStore(nil, &fakePersister{}, nil)
	ctx := context.Background()
	completeStepOne(t, store, "user-1")

	for i := 0; i < 3; i++ {
		_, err := store.Advance(ctx, "user-1")
		require.NoError(t, err)
	}

	sess, err := store.Advance(ctx, "user-1")
	assert.ErrorIs(t, err, ErrWizardDone)
	assert.Equal(t, StepColumns, sess.Step)
}

func TestBackIsNoOpOnFirstStep(t *testing.T) {
	store := NewStore(nil, &fakePersister{}, nil)
	ctx := context.Background()

	sess := store.Back(ctx, "user-1")
	assert.Equal(t, StepDetails, sess.Step)

	completeStepOne(t, store, "user-1")
	_, err := store.Advance(ctx, "user-1")
	require.NoError(t, err)
	sess = store.Back(ctx, "user-1")
	assert.Equal(t, StepDetails, sess.Step)
}

func TestCanSubmitGate(t *testing.T) {
	store := NewStore(nil, &fakePersister{}, nil)
	ctx := context.Background()
	completeStepOne(t, store, "user-1")

	assert.ErrorIs(t, store.CanSubmit(ctx, "user-1"), ErrSubmitTooEarly)

	_, err := store.Advance(ctx, "user-1")
	require.NoError(t, err)
	assert.ErrorIs(t, store.CanSubmit(ctx, "user-1"), ErrSubmitTooEarly)

	_, err = store.Advance(ctx, "user-1")
	require.NoError(t, err)
	assert.NoError(t, store.CanSubmit(ctx, "user-1"), "submission opens at the categories step")
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "details", StepDetails.String())
	assert.Equal(t, "columns", StepColumns.String())
	assert.Equal(t, "unknown", Step(42).String())
}

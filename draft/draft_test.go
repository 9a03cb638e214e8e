package draft

import (
	"context"
	"testing"
	"time"

	"github.com/queuev/queuev-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePersister struct {
	created []models.Queue
	assign  func(q models.Queue) models.Queue
}

func (f *fakePersister) CreateQueue(_ context.Context, q models.Queue) (models.Queue, error) {
	if f.assign != nil {
		q = f.assign(q)
	}
	f.created = append(f.created, q)
	return q, nil
}

type fakeInviter struct {
	queues    []models.Queue
	inviterID string
}

func (f *fakeInviter) InviteStaff(_ context.Context, q models.Queue, inviterID string) {
	f.queues = append(f.queues, q)
	f.inviterID = inviterID
}

func strPtr(s string) *string { return &s }

func TestGetCreatesBlankDraft(t *testing.T) {
	store := NewStore(nil, &fakePersister{}, nil)

	sess := store.Get(context.Background(), "user-1")

	assert.Equal(t, StepDetails, sess.Step)
	assert.Empty(t, sess.Queue.QueueName)
	assert.Empty(t, sess.Queue.Categories)
	assert.Equal(t, []string{"FULL NAME"}, sess.Queue.FormColumns)
}

func TestUpdateMergesOnlyProvidedFields(t *testing.T) {
	store := NewStore(nil, &fakePersister{}, nil)
	ctx := context.Background()

	store.Update(ctx, "user-1", models.DraftUpdate{
		QueueName: strPtr("City Clinic"),
		Address:   strPtr("12 Main St"),
	})
	sess := store.Update(ctx, "user-1", models.DraftUpdate{
		Notes: strPtr("bring ID"),
	})

	assert.Equal(t, "City Clinic", sess.Queue.QueueName)
	assert.Equal(t, "12 Main St", sess.Queue.Address)
	assert.Equal(t, "bring ID", sess.Queue.Notes)
}

func TestAddCategoryAppliesDefaults(t *testing.T) {
	store := NewStore(nil, &fakePersister{}, nil)

	sess := store.AddCategory(context.Background(), "user-1", &models.AddCategoryRequest{Name: "Walk-in"})

	require.Len(t, sess.Queue.Categories, 1)
	category := sess.Queue.Categories[0]
	assert.Equal(t, "Walk-in", category.Name)
	assert.Equal(t, "10", category.Limit)
	assert.Equal(t, "5", category.TimeLimit)
	assert.NotNil(t, category.InvitedStaff)
	assert.Empty(t, category.InvitedStaff)
}

func TestRemovedCategoryLeavesNoStaleInvites(t *testing.T) {
	store := NewStore(nil, &fakePersister{}, nil)
	ctx := context.Background()

	store.AddCategory(ctx, "user-1", &models.AddCategoryRequest{Name: "Priority"})
	_, err := store.InviteStaffEmail(ctx, "user-1", 0, "staff@example.com")
	require.NoError(t, err)

	_, err = store.RemoveCategory(ctx, "user-1", 0)
	require.NoError(t, err)

	sess := store.AddCategory(ctx, "user-1", &models.AddCategoryRequest{Name: "Priority"})
	require.Len(t, sess.Queue.Categories, 1)
	assert.Empty(t, sess.Queue.Categories[0].InvitedStaff,
		"re-added category must not inherit invites from the removed one")
}

func TestInviteStaffEmailDeduplicates(t *testing.T) {
	store := NewStore(nil, &fakePersister{}, nil)
	ctx := context.Background()

	store.AddCategory(ctx, "user-1", &models.AddCategoryRequest{Name: "Walk-in"})
	_, err := store.InviteStaffEmail(ctx, "user-1", 0, "Staff@Example.com")
	require.NoError(t, err)
	sess, err := store.InviteStaffEmail(ctx, "user-1", 0, "staff@example.com")
	require.NoError(t, err)

	assert.Equal(t, []string{"Staff@Example.com"}, sess.Queue.Categories[0].InvitedStaff)
}

func TestRemoveCategoryOutOfRange(t *testing.T) {
	store := NewStore(nil, &fakePersister{}, nil)

	_, err := store.RemoveCategory(context.Background(), "user-1", 3)

	assert.ErrorIs(t, err, ErrCategoryOutOfRange)
}

func TestRemoveFormColumn(t *testing.T) {
	store := NewStore(nil, &fakePersister{}, nil)
	ctx := context.Background()

	store.AddFormColumn(ctx, "user-1", "PHONE")
	sess, err := store.RemoveFormColumn(ctx, "user-1", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"FULL NAME"}, sess.Queue.FormColumns)

	_, err = store.RemoveFormColumn(ctx, "user-1", 5)
	assert.ErrorIs(t, err, ErrColumnOutOfRange)
}

func TestSubmitRequiresAuthentication(t *testing.T) {
	store := NewStore(nil, &fakePersister{}, nil)

	_, err := store.Submit(context.Background(), "")

	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestSubmitRejectsBlankNameAndAddress(t *testing.T) {
	store := NewStore(nil, &fakePersister{}, nil)
	ctx := context.Background()

	store.Update(ctx, "user-1", models.DraftUpdate{Address: strPtr("12 Main St")})
	_, err := store.Submit(ctx, "user-1")
	assert.ErrorIs(t, err, ErrQueueNameRequired)

	store.Update(ctx, "user-1", models.DraftUpdate{
		QueueName: strPtr("City Clinic"),
		Address:   strPtr("   "),
	})
	_, err = store.Submit(ctx, "user-1")
	assert.ErrorIs(t, err, ErrAddressRequired)
}

func TestSubmitRejectsDuplicateCategoryNames(t *testing.T) {
	store := NewStore(nil, &fakePersister{}, nil)
	ctx := context.Background()

	store.Update(ctx, "user-1", models.DraftUpdate{
		QueueName: strPtr("City Clinic"),
		Address:   strPtr("12 Main St"),
	})
	store.AddCategory(ctx, "user-1", &models.AddCategoryRequest{Name: "Walk In"})
	store.AddCategory(ctx, "user-1", &models.AddCategoryRequest{Name: "walk  in"})

	_, err := store.Submit(ctx, "user-1")

	assert.ErrorIs(t, err, ErrDuplicateCategory)
}

func TestSubmitPersistsAndClearsDraft(t *testing.T) {
	persister := &fakePersister{assign: func(q models.Queue) models.Queue {
		q.QueueID = "abcde12345-1700000000000"
		return q
	}}
	inviter := &fakeInviter{}
	cache := NewMemoryCache()
	store := NewStore(cache, persister, inviter)
	ctx := context.Background()

	store.Update(ctx, "user-1", models.DraftUpdate{
		QueueName: strPtr("  City Clinic  "),
		Address:   strPtr("12 Main St"),
	})
	store.AddCategory(ctx, "user-1", &models.AddCategoryRequest{Name: "Walk-in", Limit: "25"})
	_, err := store.InviteStaffEmail(ctx, "user-1", 0, "staff@example.com")
	require.NoError(t, err)

	queue, err := store.Submit(ctx, "user-1")
	require.NoError(t, err)

	assert.Equal(t, "abcde12345-1700000000000", queue.QueueID)
	assert.Equal(t, "City Clinic", queue.QueueName)
	assert.Equal(t, "user-1", queue.CreatedBy)
	assert.NotEmpty(t, queue.DateTime, "date defaults to now when left blank")
	assert.NotEmpty(t, queue.Expiration)

	require.Len(t, persister.created, 1)
	require.Len(t, inviter.queues, 1)
	assert.Equal(t, "user-1", inviter.inviterID)
	assert.Equal(t, "abcde12345-1700000000000", inviter.queues[0].QueueID,
		"inviter sees the persisted queue, ids included")

	// Draft and mirror are gone; the next Get starts fresh.
	cached, err := cache.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, cached)
	fresh := store.Get(ctx, "user-1")
	assert.Empty(t, fresh.Queue.QueueName)
	assert.Equal(t, StepDetails, fresh.Step, "a finished wizard leaves no session behind")
}

func TestUpdateNormalizesDates(t *testing.T) {
	store := NewStore(nil, &fakePersister{}, nil)
	ctx := context.Background()

	sess := store.Update(ctx, "user-1", models.DraftUpdate{
		DateTime:   strPtr("JULY 2, 2025"),
		Expiration: strPtr("2025-07-02T09:30"),
	})

	dt, err := time.Parse(time.RFC3339, sess.Queue.DateTime)
	require.NoError(t, err)
	assert.Equal(t, time.July, dt.Month())
	assert.Equal(t, 2, dt.Day())
	assert.Equal(t, 2025, dt.Year())

	exp, err := time.Parse(time.RFC3339, sess.Queue.Expiration)
	require.NoError(t, err)
	assert.Equal(t, 9, exp.Hour())
	assert.Equal(t, 30, exp.Minute())

	// Already-normalized and unrecognized values pass through untouched.
	sess = store.Update(ctx, "user-1", models.DraftUpdate{
		DateTime:   strPtr("2025-07-02T09:30:00Z"),
		Expiration: strPtr("sometime next week"),
	})
	assert.Equal(t, "2025-07-02T09:30:00Z", sess.Queue.DateTime)
	assert.Equal(t, "sometime next week", sess.Queue.Expiration)
}

func TestDraftRecoveredFromMirror(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()

	first := NewStore(cache, &fakePersister{}, nil)
	first.Update(ctx, "user-1", models.DraftUpdate{QueueName: strPtr("City Clinic")})
	first.AddCategory(ctx, "user-1", &models.AddCategoryRequest{Name: "Walk-in"})

	// A new store simulates a process restart sharing the same cache.
	second := NewStore(cache, &fakePersister{}, nil)
	sess := second.Get(ctx, "user-1")

	assert.Equal(t, "City Clinic", sess.Queue.QueueName)
	require.Len(t, sess.Queue.Categories, 1)
	assert.Equal(t, "Walk-in", sess.Queue.Categories[0].Name)
}

func TestDiscardDropsDraftAndMirror(t *testing.T) {
	cache := NewMemoryCache()
	store := NewStore(cache, &fakePersister{}, nil)
	ctx := context.Background()

	store.Update(ctx, "user-1", models.DraftUpdate{QueueName: strPtr("City Clinic")})
	store.Discard(ctx, "user-1")

	cached, err := cache.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, cached)
	assert.Empty(t, store.Get(ctx, "user-1").Queue.QueueName)
}

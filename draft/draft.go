// Package draft holds the per-user queue definition being built across the
// four wizard steps. The draft lives in memory for the session and is
// mirrored into a recoverable cache after every mutation, so a reload
// mid-wizard restores the in-progress queue. The mirror is cleared only on
// confirmed submission. One wizard session per user: concurrent edits
// overwrite each other last-writer-wins, same as the cache they share.
package draft

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/queuev/queuev-api/models"
	"github.com/queuev/queuev-api/utils"
)

var (
	ErrNotAuthenticated   = errors.New("user must be authenticated to create a queue")
	ErrQueueNameRequired  = errors.New("queue name is required")
	ErrAddressRequired    = errors.New("address is required")
	ErrDuplicateCategory  = errors.New("duplicate category name")
	ErrCategoryOutOfRange = errors.New("category index out of range")
	ErrColumnOutOfRange   = errors.New("form column index out of range")
)

// Session is one user's wizard state: the draft itself plus the step the
// user is on. This is also the shape mirrored into the cache.
type Session struct {
	Queue models.Queue `json:"queue"`
	Step  Step         `json:"step"`
}

// Cache mirrors sessions into recoverable storage keyed per user. Load
// returns (nil, nil) when no mirror exists.
type Cache interface {
	Load(ctx context.Context, userID string) (*Session, error)
	Save(ctx context.Context, userID string, s Session) error
	Clear(ctx context.Context, userID string) error
}

// Persister turns a finalized draft into stored records and assigns
// identifiers. It returns the queue with queue and category ids filled in.
type Persister interface {
	CreateQueue(ctx context.Context, q models.Queue) (models.Queue, error)
}

// Inviter persists staff invitations gathered during step 3. Failures are
// handled (logged) by the implementation; submission never blocks on it.
type Inviter interface {
	InviteStaff(ctx context.Context, q models.Queue, inviterID string)
}

// Store owns every in-progress draft. All methods are safe for concurrent
// use; the per-user draft itself is single-writer by convention.
type Store struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	cache     Cache
	persister Persister
	inviter   Inviter
}

// NewStore creates a draft store. cache and inviter may be nil: without a
// cache drafts are memory-only, without an inviter submission skips the
// invitation side effect.
func NewStore(cache Cache, persister Persister, inviter Inviter) *Store {
	return &Store{
		sessions:  make(map[string]*Session),
		cache:     cache,
		persister: persister,
		inviter:   inviter,
	}
}

func newSession() *Session {
	return &Session{
		Queue: models.Queue{
			Categories:  []models.Category{},
			FormColumns: []string{"FULL NAME"},
		},
		Step: StepDetails,
	}
}

// session returns the caller's wizard session, recovering it from the cache
// mirror if this process has not seen the user yet. Callers hold s.mu.
func (s *Store) session(ctx context.Context, userID string) *Session {
	if sess, ok := s.sessions[userID]; ok {
		return sess
	}
	if s.cache != nil {
		if cached, err := s.cache.Load(ctx, userID); err != nil {
			log.Printf("⚠️ Failed to load draft mirror for user %s: %v", userID, err)
		} else if cached != nil {
			if cached.Step < StepDetails || cached.Step > StepColumns {
				cached.Step = StepDetails
			}
			s.sessions[userID] = cached
			return cached
		}
	}
	sess := newSession()
	s.sessions[userID] = sess
	return sess
}

// mirror copies the session into the cache. Mirror failures never fail the
// mutation: the in-memory draft is the source of truth for this session.
func (s *Store) mirror(ctx context.Context, userID string, sess *Session) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Save(ctx, userID, *sess); err != nil {
		log.Printf("⚠️ Failed to mirror draft for user %s: %v", userID, err)
	}
}

// Get returns the caller's current wizard session.
func (s *Store) Get(ctx context.Context, userID string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.session(ctx, userID)
}

// Update shallow-merges a partial update into the draft: non-nil fields
// replace the current value wholesale, nil fields are untouched.
func (s *Store) Update(ctx context.Context, userID string, u models.DraftUpdate) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(ctx, userID)
	q := &sess.Queue
	if u.QueueName != nil {
		q.QueueName = *u.QueueName
	}
	if u.Address != nil {
		q.Address = *u.Address
	}
	if u.DateTime != nil {
		q.DateTime = normalizeDateTime(*u.DateTime)
	}
	if u.Expiration != nil {
		q.Expiration = normalizeDateTime(*u.Expiration)
	}
	if u.BreakTimeFrom != nil {
		q.BreakTimeFrom = *u.BreakTimeFrom
	}
	if u.BreakTimeTo != nil {
		q.BreakTimeTo = *u.BreakTimeTo
	}
	if u.Categories != nil {
		q.Categories = *u.Categories
	}
	if u.Notes != nil {
		q.Notes = *u.Notes
	}
	if u.FormColumns != nil {
		q.FormColumns = *u.FormColumns
	}

	s.mirror(ctx, userID, sess)
	return *sess
}

// AddCategory appends a category with defaults overlaid by any supplied
// fields. The new category never shares state with a previously removed one.
func (s *Store) AddCategory(ctx context.Context, userID string, req *models.AddCategoryRequest) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	category := models.Category{
		Limit:        "10",
		TimeLimit:    "5",
		InvitedStaff: []string{},
	}
	if req != nil {
		if req.Name != "" {
			category.Name = req.Name
		}
		if req.Limit != "" {
			category.Limit = req.Limit
		}
		if req.TimeLimit != "" {
			category.TimeLimit = req.TimeLimit
		}
	}

	sess := s.session(ctx, userID)
	sess.Queue.Categories = append(sess.Queue.Categories, category)
	s.mirror(ctx, userID, sess)
	return *sess
}

// RemoveCategory deletes by position. Category identity is positional within
// an uncommitted draft, so subsequent indices shift down.
func (s *Store) RemoveCategory(ctx context.Context, userID string, index int) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(ctx, userID)
	if index < 0 || index >= len(sess.Queue.Categories) {
		return *sess, ErrCategoryOutOfRange
	}
	sess.Queue.Categories = append(sess.Queue.Categories[:index], sess.Queue.Categories[index+1:]...)
	s.mirror(ctx, userID, sess)
	return *sess, nil
}

// InviteStaffEmail records a staff email on the category at index. The
// invited set ignores duplicates; insertion order is irrelevant.
func (s *Store) InviteStaffEmail(ctx context.Context, userID string, index int, email string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(ctx, userID)
	if index < 0 || index >= len(sess.Queue.Categories) {
		return *sess, ErrCategoryOutOfRange
	}
	category := &sess.Queue.Categories[index]
	for _, existing := range category.InvitedStaff {
		if strings.EqualFold(existing, email) {
			return *sess, nil
		}
	}
	category.InvitedStaff = append(category.InvitedStaff, email)
	s.mirror(ctx, userID, sess)
	return *sess, nil
}

// AddFormColumn appends a label to the registration form columns.
func (s *Store) AddFormColumn(ctx context.Context, userID, column string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(ctx, userID)
	sess.Queue.FormColumns = append(sess.Queue.FormColumns, column)
	s.mirror(ctx, userID, sess)
	return *sess
}

// RemoveFormColumn deletes a column by position. Index 0 ("FULL NAME") is
// conventionally protected at the handler layer, not here.
func (s *Store) RemoveFormColumn(ctx context.Context, userID string, index int) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(ctx, userID)
	if index < 0 || index >= len(sess.Queue.FormColumns) {
		return *sess, ErrColumnOutOfRange
	}
	sess.Queue.FormColumns = append(sess.Queue.FormColumns[:index], sess.Queue.FormColumns[index+1:]...)
	s.mirror(ctx, userID, sess)
	return *sess, nil
}

// Discard throws away the draft and its mirror without submitting.
func (s *Store) Discard(ctx context.Context, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drop(ctx, userID)
}

func (s *Store) drop(ctx context.Context, userID string) {
	delete(s.sessions, userID)
	if s.cache != nil {
		if err := s.cache.Clear(ctx, userID); err != nil {
			log.Printf("⚠️ Failed to clear draft mirror for user %s: %v", userID, err)
		}
	}
}

// Submit validates the draft, persists the queue with its categories,
// fires the staff invitation side effect best-effort, and clears the draft
// and its mirror. It returns the generated queue id.
func (s *Store) Submit(ctx context.Context, userID string) (models.Queue, error) {
	if userID == "" {
		return models.Queue{}, ErrNotAuthenticated
	}

	s.mu.Lock()
	sess := s.session(ctx, userID)
	q := sess.Queue
	s.mu.Unlock()

	q.QueueName = strings.TrimSpace(q.QueueName)
	q.Address = strings.TrimSpace(q.Address)
	if q.QueueName == "" {
		return models.Queue{}, ErrQueueNameRequired
	}
	if q.Address == "" {
		return models.Queue{}, ErrAddressRequired
	}
	if err := checkDuplicateCategories(q.Categories); err != nil {
		return models.Queue{}, err
	}

	now := time.Now()
	if q.DateTime == "" {
		q.DateTime = now.Format(time.RFC3339)
	}
	if q.Expiration == "" {
		q.Expiration = now.Add(24 * time.Hour).Format(time.RFC3339)
	}
	q.CreatedBy = userID

	persisted, err := s.persister.CreateQueue(ctx, q)
	if err != nil {
		return models.Queue{}, err
	}

	// Invitation failures are logged by the inviter and never block the
	// caller: the queue exists, the QR code must display.
	if s.inviter != nil {
		s.inviter.InviteStaff(ctx, persisted, userID)
	}

	s.mu.Lock()
	s.drop(ctx, userID)
	s.mu.Unlock()

	return persisted, nil
}

// normalizeDateTime coerces the timestamp shapes clients send into
// RFC 3339: datetime-local input values and the legacy "JULY 2, 2025"
// dropdown strings. Anything unrecognized is stored as-is; Submit backfills
// blanks but never rejects a raw string.
func normalizeDateTime(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return s
	}
	if t, err := utils.ParseDateTimeInput(s); err == nil {
		return t.Format(time.RFC3339)
	}
	if t, err := utils.ParseMonthNameDate(s); err == nil {
		return t.Format(time.RFC3339)
	}
	return s
}

// checkDuplicateCategories rejects two categories whose names normalize to
// the same derived identifier; persisting them would collapse into one row.
func checkDuplicateCategories(categories []models.Category) error {
	seen := make(map[string]bool, len(categories))
	for _, c := range categories {
		key := strings.ToLower(strings.Join(strings.Fields(c.Name), "-"))
		if key == "" {
			continue
		}
		if seen[key] {
			return ErrDuplicateCategory
		}
		seen[key] = true
	}
	return nil
}

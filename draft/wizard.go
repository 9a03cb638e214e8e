package draft

import (
	"context"
	"errors"
	"strings"
)

// Wizard steps. Transitions are strictly forward/backward, no skipping.
// Submission ("GENERATE QR CODE") is offered from the categories step on;
// there is no success step: a successful Submit drops the session, so the
// terminal state is the absence of a draft.
type Step int

const (
	StepDetails    Step = iota + 1 // name, address, schedule
	StepTiming                     // expiration, break time
	StepCategories                 // categories, notes, staff invites
	StepColumns                    // registration form columns
)

var (
	ErrStepIncomplete = errors.New("current step is incomplete")
	ErrWizardDone     = errors.New("wizard already finished")
	ErrSubmitTooEarly = errors.New("queue details are not complete yet")
)

func (s Step) String() string {
	switch s {
	case StepDetails:
		return "details"
	case StepTiming:
		return "timing"
	case StepCategories:
		return "categories"
	case StepColumns:
		return "columns"
	}
	return "unknown"
}

// stepComplete applies the step-local validation gate for advancing. Only
// step 1 has one: name and address must be non-empty after trimming. There
// is deliberately no cross-step check (expiration may precede the schedule,
// matching how the product behaves).
func stepComplete(sess *Session, s Step) error {
	if s == StepDetails {
		if strings.TrimSpace(sess.Queue.QueueName) == "" || strings.TrimSpace(sess.Queue.Address) == "" {
			return ErrStepIncomplete
		}
	}
	return nil
}

// Advance moves the session one step forward after validating the current
// step's slice of the draft.
func (s *Store) Advance(ctx context.Context, userID string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(ctx, userID)
	if sess.Step >= StepColumns {
		return *sess, ErrWizardDone
	}
	if err := stepComplete(sess, sess.Step); err != nil {
		return *sess, err
	}
	sess.Step++
	s.mirror(ctx, userID, sess)
	return *sess, nil
}

// Back moves the session one step backward. Backing out of step 1 is a
// no-op rather than an error; the UI treats it as navigation to home.
func (s *Store) Back(ctx context.Context, userID string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(ctx, userID)
	if sess.Step > StepDetails {
		sess.Step--
		s.mirror(ctx, userID, sess)
	}
	return *sess
}

// CanSubmit reports whether the session has reached the step where
// submission is offered.
func (s *Store) CanSubmit(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session(ctx, userID).Step < StepCategories {
		return ErrSubmitTooEarly
	}
	return nil
}

package models

import "time"

// Invitation statuses. Invitations are never deleted; they only transition
// from pending to accepted or rejected.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationRejected = "rejected"
)

// Invitation links an inviter, an invited user, a category and a queue. The
// payload is denormalized so the invitations screen renders without joins,
// matching the stored document it replaces.
type Invitation struct {
	ID                     string    `json:"id"`
	CategoryID             string    `json:"categoryId"`
	CategoryName           string    `json:"categoryName"`
	CategoryLimit          string    `json:"categoryLimit"`
	CategoryTimeLimit      string    `json:"categoryTimeLimit"`
	InvitedEmail           string    `json:"invitedEmail"`
	InvitedUserID          string    `json:"invitedUserId"`
	InvitedUserDisplayName string    `json:"invitedUserDisplayName"`
	InviterUserID          string    `json:"inviterUserId"`
	InviterEmail           string    `json:"inviterEmail"`
	QueueID                string    `json:"queueId"`
	QueueName              string    `json:"queueName"`
	QueueAddress           string    `json:"queueAddress"`
	Status                 string    `json:"status"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

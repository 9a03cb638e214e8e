package models

// ============================================================================
// QUEUE & CATEGORY MODELS
// ============================================================================

// Category is a named, capacity-limited line inside a queue. Until the queue
// is persisted a category has no id of its own; its identity is the position
// in Queue.Categories.
type Category struct {
	CategoryID   string   `json:"categoryId,omitempty"`
	Name         string   `json:"name"`
	Limit        string   `json:"limit"`
	TimeLimit    string   `json:"timeLimit"`
	InvitedStaff []string `json:"invitedStaff,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	QueueID      string   `json:"queueId,omitempty"`
	UsersList    []string `json:"usersList,omitempty"`
}

// Queue is a schedulable service session. The same shape is used for the
// in-progress wizard draft (ids empty) and for persisted queues.
// DateTime/Expiration/CreatedAt are RFC 3339 strings.
type Queue struct {
	QueueID       string     `json:"queueId,omitempty"`
	QueueName     string     `json:"queueName"`
	Address       string     `json:"address"`
	DateTime      string     `json:"dateTime"`
	Expiration    string     `json:"expiration"`
	BreakTimeFrom string     `json:"breakTimeFrom,omitempty"`
	BreakTimeTo   string     `json:"breakTimeTo,omitempty"`
	Categories    []Category `json:"categories"`
	CreatedBy     string     `json:"createdBy"`
	CreatedAt     string     `json:"createdAt,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	FormColumns   []string   `json:"formColumns"`
}

// ============================================================================
// WIZARD REQUESTS
// ============================================================================

// DraftUpdate is a shallow partial update of the draft. Nil fields are left
// untouched; non-nil fields replace the draft value wholesale.
type DraftUpdate struct {
	QueueName     *string     `json:"queueName"`
	Address       *string     `json:"address"`
	DateTime      *string     `json:"dateTime"`
	Expiration    *string     `json:"expiration"`
	BreakTimeFrom *string     `json:"breakTimeFrom"`
	BreakTimeTo   *string     `json:"breakTimeTo"`
	Categories    *[]Category `json:"categories"`
	Notes         *string     `json:"notes"`
	FormColumns   *[]string   `json:"formColumns"`
}

type AddCategoryRequest struct {
	Name      string `json:"name"`
	Limit     string `json:"limit"`
	TimeLimit string `json:"timeLimit"`
}

type AddFormColumnRequest struct {
	Column string `json:"column" binding:"required"`
}

// SubmitResponse is returned when the wizard submits successfully; the
// frontend renders the QR screen from it.
type SubmitResponse struct {
	QueueID    string `json:"queueId"`
	CheckInURL string `json:"checkInUrl"`
}

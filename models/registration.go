package models

import "time"

// Registration is one check-in row: a person standing in a category of a
// queue. Field names mirror the legacy registration documents (index1,
// time_in, type) because older clients still read and write that shape.
type Registration struct {
	ID         string     `json:"id"`
	Address    string     `json:"address"`
	Index1     int        `json:"index1"`
	Name       string     `json:"name"`
	Schedule   *time.Time `json:"schedule,omitempty"`
	Status     string     `json:"status"`
	TimeIn     *time.Time `json:"time_in,omitempty"`
	Type       string     `json:"type"` // category name
	UID        string     `json:"uid"`
	QueueID    string     `json:"queueId"`
	CategoryID string     `json:"categoryId"`
}

type CheckInRequest struct {
	QueueID  string `json:"queueId" binding:"required"`
	Category string `json:"category" binding:"required"`
	Name     string `json:"name" binding:"required"`
}

package model

import "time"

// Ticket represents an issue-tracker ticket referenced from merge requests.
//
// @Description Issue tracker ticket
type Ticket struct {
	Key      string    `json:"key" example:"PROJ-1432"`
	Summary  string    `json:"summary" example:"Uploads time out on large files"`
	Status   string    `json:"status" example:"In Progress"`
	Assignee string    `json:"assignee,omitempty" example:"jdoe"`
	Priority string    `json:"priority,omitempty" example:"High"`
	Updated  time.Time `json:"updated"`
	Labels   []string  `json:"labels,omitempty"`
} // @name Ticket

// TicketSearchResult is the payload of a JQL search.
//
// @Description Result of a JQL ticket search
type TicketSearchResult struct {
	Total   int      `json:"total" example:"3"`
	Tickets []Ticket `json:"tickets"`
} // @name TicketSearchResult

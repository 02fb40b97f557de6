package models

import "time"

// Schedule represents a single task or event owned by one user.
type Schedule struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Content       string     `json:"content,omitempty"`
	Date          time.Time  `json:"date"`
	DueTime       *time.Time `json:"due_time,omitempty"`
	AlarmTime     *time.Time `json:"alarm_time,omitempty"`
	Priority      Priority   `json:"priority,omitempty"`
	OwnerID       int64      `json:"owner_id"`
	Individual    bool       `json:"individual"`
	ProjectName   string     `json:"project_name,omitempty"`
	ParentID      *int64     `json:"parent_id,omitempty"`
	ParentOrder   int        `json:"parent_order"`
	Memo          string     `json:"memo,omitempty"`
	MemoAuthorID  *int64     `json:"memo_author_id,omitempty"`
	MemoUpdatedAt *time.Time `json:"memo_updated_at,omitempty"`
	IsCompleted   bool       `json:"is_completed"`
	IsDeleted     bool       `json:"is_deleted"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// VisibleTo reports whether a non-admin user can read the schedule without a share grant.
func (s *Schedule) VisibleTo(userID int64) bool {
	if s == nil {
		return false
	}
	return s.OwnerID == userID || !s.Individual
}

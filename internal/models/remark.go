package models

import "time"

// Remark is a free-text note attached to a car
type Remark struct {
	ID        string    `json:"id" db:"id"`
	CarID     string    `json:"carId" db:"car_id"`
	Text      string    `json:"text" db:"text"`
	Type      string    `json:"type,omitempty" db:"type"`
	Priority  string    `json:"priority,omitempty" db:"priority"`
	CreatedBy string    `json:"createdBy" db:"created_by"`
	UpdatedBy string    `json:"updatedBy,omitempty" db:"updated_by"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// RemarkGroupCount holds the number of remarks sharing one type or priority value
type RemarkGroupCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// RemarkStats holds aggregate statistics over all remarks
type RemarkStats struct {
	Total      int64              `json:"total"`
	ByType     []RemarkGroupCount `json:"byType"`
	ByPriority []RemarkGroupCount `json:"byPriority"`
}

// RemarkFilter narrows List queries over remarks
type RemarkFilter struct {
	Type     string
	Priority string
	Limit    int
	Offset   int
}

package model

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Recurrence задает периодичность повторения задачи
type Recurrence string

const (
	RecurrenceNone    Recurrence = "none"
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// NewID генерирует новый идентификатор задачи/тега
func NewID() string {
	return uuid.NewString()
}

// Task - задача. Все таймстемпы в epoch-миллисекундах, как Date.now() у клиента.
// DeletedAt != nil означает мягкое удаление: строка остается в БД и видна через sync.
type Task struct {
	ID            string     `json:"id"`
	Text          string     `json:"text"`
	Description   string     `json:"description"`
	Completed     bool       `json:"completed"`
	Important     bool       `json:"important"`
	Tag           string     `json:"tag"`
	DueAt         *int64     `json:"due_at"`
	Recurrence    Recurrence `json:"recurrence"`
	RecurrenceAlt bool       `json:"recurrence_alt"`
	CreatedAt     int64      `json:"created_at"`
	UpdatedAt     int64      `json:"updated_at"`
	DeletedAt     *int64     `json:"deleted_at"`
}

type TaskFilter struct {
	Tag            *string
	Completed      *bool
	Important      *bool
	IncludeDeleted bool
}

// OptInt64 отличает "поле не прислали" от явного null в PATCH-запросе
type OptInt64 struct {
	Set   bool
	Value *int64
}

func (o *OptInt64) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// TaskPatch - частичное обновление: применяются только присланные поля
type TaskPatch struct {
	Text          *string     `json:"text"`
	Description   *string     `json:"description"`
	Completed     *bool       `json:"completed"`
	Important     *bool       `json:"important"`
	Tag           *string     `json:"tag"`
	DueAt         OptInt64    `json:"due_at"`
	Recurrence    *Recurrence `json:"recurrence"`
	RecurrenceAlt *bool       `json:"recurrence_alt"`
}

// IsEmpty сообщает, что в патче не прислано ни одного поля
func (p TaskPatch) IsEmpty() bool {
	return p.Text == nil && p.Description == nil && p.Completed == nil &&
		p.Important == nil && p.Tag == nil && !p.DueAt.Set &&
		p.Recurrence == nil && p.RecurrenceAlt == nil
}

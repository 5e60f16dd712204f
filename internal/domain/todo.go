package domain

import (
	"strings"
	"time"
)

// Priority levels use the external integer encoding 1/2/3 as their
// internal values, so boundary mapping is a range check plus a cast.
type Priority int

const (
	PriorityHigh Priority = iota + 1
	PriorityMedium
	PriorityLow
)

// ParsePriority maps the wire encoding (1/2/3) to a Priority.
func ParsePriority(v int) (Priority, error) {
	p := Priority(v)
	if p < PriorityHigh || p > PriorityLow {
		return 0, &ValidationError{Field: "priority", Message: "must be 1 (HIGH), 2 (MEDIUM) or 3 (LOW)"}
	}
	return p, nil
}

func (p Priority) Int() int { return int(p) }

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "HIGH"
	case PriorityMedium:
		return "MEDIUM"
	case PriorityLow:
		return "LOW"
	default:
		return "UNKNOWN"
	}
}

type Status string

const (
	StatusNew        Status = "NEW"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// ParseStatus validates the string wire form of a status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusNew, StatusInProgress, StatusDone:
		return Status(s), nil
	default:
		return "", &ValidationError{Field: "status", Message: "must be one of NEW, IN_PROGRESS, DONE"}
	}
}

const (
	maxNameLength        = 512
	maxDescriptionLength = 2000
)

type Todo struct {
	ID          int64
	Name        string
	Description string
	Priority    Priority
	Status      Status
	DueDate     *time.Time
	IsDeleted   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateInput carries the full mutable field set of a todo. It backs
// both Create and Replace, which overwrite every mutable field.
type CreateInput struct {
	Name        string
	Description string
	Priority    Priority
	Status      Status
	DueDate     *time.Time
}

// Validate normalizes and checks the input. The name is trimmed before
// the non-empty check; an absent status defaults to NEW.
func (in *CreateInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if len(in.Name) > maxNameLength {
		return &ValidationError{Field: "name", Message: "exceeds 512 characters"}
	}
	if len(in.Description) > maxDescriptionLength {
		return &ValidationError{Field: "description", Message: "exceeds 2000 characters"}
	}
	if _, err := ParsePriority(in.Priority.Int()); err != nil {
		return err
	}
	if in.Status == "" {
		in.Status = StatusNew
	}
	if _, err := ParseStatus(string(in.Status)); err != nil {
		return err
	}
	return nil
}

// NewTodo builds a validated todo entity. The ID is zero until the
// repository persists the record and the store assigns one.
func NewTodo(in *CreateInput) (*Todo, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	return &Todo{
		Name:        in.Name,
		Description: in.Description,
		Priority:    in.Priority,
		Status:      in.Status,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Patch is a partial update. A nil pointer means "no change".
type Patch struct {
	Name        *string
	Description *string
	Priority    *Priority
	Status      *Status
	DueDate     *time.Time
}

func (p *Patch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Priority == nil &&
		p.Status == nil && p.DueDate == nil
}

// Validate checks every supplied field. An empty patch is rejected
// rather than treated as a timestamp-only touch.
func (p *Patch) Validate() error {
	if p.IsEmpty() {
		return &ValidationError{Field: "body", Message: "at least one field must be supplied"}
	}
	if p.Name != nil {
		trimmed := strings.TrimSpace(*p.Name)
		if trimmed == "" {
			return &ValidationError{Field: "name", Message: "is required"}
		}
		if len(trimmed) > maxNameLength {
			return &ValidationError{Field: "name", Message: "exceeds 512 characters"}
		}
		p.Name = &trimmed
	}
	if p.Description != nil && len(*p.Description) > maxDescriptionLength {
		return &ValidationError{Field: "description", Message: "exceeds 2000 characters"}
	}
	if p.Priority != nil {
		if _, err := ParsePriority(p.Priority.Int()); err != nil {
			return err
		}
	}
	if p.Status != nil {
		if _, err := ParseStatus(string(*p.Status)); err != nil {
			return err
		}
	}
	return nil
}

// Apply writes the supplied fields onto the todo and refreshes
// updated_at. Validation must have run first.
func (p *Patch) Apply(t *Todo) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	t.UpdatedAt = time.Now().UTC()
}

// Stats counts visible records, overall and per priority.
type Stats struct {
	Total  int64
	High   int64
	Medium int64
	Low    int64
}

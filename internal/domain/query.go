package domain

// Pagination bounds applied during query normalization. A limit of zero
// (or absent) selects DefaultLimit rather than an unbounded result set.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// sortFields whitelists the sortable columns. Anything else is a
// validation failure, never a silent fallback.
var sortFields = map[string]bool{
	"id":         true,
	"name":       true,
	"priority":   true,
	"status":     true,
	"due_date":   true,
	"created_at": true,
	"updated_at": true,
}

// ListQuery is the full query specification for List: visibility,
// equality filters, keyword search, sorting and pagination. Both store
// backends evaluate the same normalized form, so a page of results is
// deterministic regardless of backend.
type ListQuery struct {
	Priority       *Priority
	Status         *Status
	IncludeDeleted bool
	Search         string
	Overdue        bool
	SortBy         string
	SortOrder      SortOrder
	Offset         int
	Limit          int
}

// Normalize validates the query and fills defaults: sort by created_at
// ascending, limit clamped into [1, maxLimit] with zero meaning
// defaultLimit. Pass zero bounds to use the package defaults.
func (q *ListQuery) Normalize(defaultLimit, maxLimit int) error {
	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}

	if q.Priority != nil {
		if _, err := ParsePriority(q.Priority.Int()); err != nil {
			return err
		}
	}
	if q.Status != nil {
		if _, err := ParseStatus(string(*q.Status)); err != nil {
			return err
		}
	}

	if q.SortBy == "" {
		q.SortBy = "created_at"
	}
	if !sortFields[q.SortBy] {
		return &ValidationError{Field: "sort_by", Message: "unsupported sort field: " + q.SortBy}
	}

	switch q.SortOrder {
	case "":
		q.SortOrder = SortAsc
	case SortAsc, SortDesc:
	default:
		return &ValidationError{Field: "order", Message: "must be asc or desc"}
	}

	if q.Offset < 0 {
		return &ValidationError{Field: "offset", Message: "must be >= 0"}
	}
	if q.Limit < 0 {
		return &ValidationError{Field: "limit", Message: "must be >= 0"}
	}
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}

	return nil
}

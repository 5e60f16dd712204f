package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority(1)
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)
	assert.Equal(t, "HIGH", p.String())

	p, err = ParsePriority(3)
	require.NoError(t, err)
	assert.Equal(t, PriorityLow, p)

	for _, v := range []int{0, 4, -1, 100} {
		_, err := ParsePriority(v)
		assert.Error(t, err, "priority %d should be rejected", v)
		assert.True(t, IsValidation(err))
	}
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"NEW", "IN_PROGRESS", "DONE"} {
		got, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, Status(s), got)
	}

	for _, s := range []string{"", "new", "CANCELLED", "done "} {
		_, err := ParseStatus(s)
		assert.Error(t, err, "status %q should be rejected", s)
	}
}

func TestNewTodo_Defaults(t *testing.T) {
	todo, err := NewTodo(&CreateInput{
		Name:     "Study",
		Priority: PriorityHigh,
	})
	require.NoError(t, err)

	assert.Equal(t, "Study", todo.Name)
	assert.Equal(t, StatusNew, todo.Status)
	assert.Equal(t, PriorityHigh, todo.Priority)
	assert.False(t, todo.IsDeleted)
	assert.Zero(t, todo.ID)
	assert.False(t, todo.UpdatedAt.Before(todo.CreatedAt))
}

func TestCreateInput_Validate(t *testing.T) {
	in := &CreateInput{Name: "  trimmed  ", Priority: PriorityLow}
	require.NoError(t, in.Validate())
	assert.Equal(t, "trimmed", in.Name)
	assert.Equal(t, StatusNew, in.Status)

	cases := []struct {
		name  string
		in    CreateInput
		field string
	}{
		{"empty name", CreateInput{Name: "", Priority: PriorityLow}, "name"},
		{"whitespace name", CreateInput{Name: "   ", Priority: PriorityLow}, "name"},
		{"zero priority", CreateInput{Name: "x"}, "priority"},
		{"out of range priority", CreateInput{Name: "x", Priority: 7}, "priority"},
		{"bad status", CreateInput{Name: "x", Priority: PriorityLow, Status: "WAITING"}, "status"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			require.Error(t, err)
			ve, ok := err.(*ValidationError)
			require.True(t, ok)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestPatch_Validate(t *testing.T) {
	empty := &Patch{}
	err := empty.Validate()
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	name := "  ok  "
	p := &Patch{Name: &name}
	require.NoError(t, p.Validate())
	assert.Equal(t, "ok", *p.Name)

	blank := "   "
	err = (&Patch{Name: &blank}).Validate()
	require.Error(t, err)

	badPriority := Priority(9)
	err = (&Patch{Priority: &badPriority}).Validate()
	require.Error(t, err)

	badStatus := Status("LATER")
	err = (&Patch{Status: &badStatus}).Validate()
	require.Error(t, err)
}

func TestPatch_Apply_OnlyTouchesSuppliedFields(t *testing.T) {
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	todo := &Todo{
		ID:          7,
		Name:        "original",
		Description: "original description",
		Priority:    PriorityMedium,
		Status:      StatusNew,
		DueDate:     &due,
		CreatedAt:   time.Now().UTC().Add(-time.Hour),
		UpdatedAt:   time.Now().UTC().Add(-time.Hour),
	}
	before := todo.UpdatedAt

	status := StatusDone
	p := &Patch{Status: &status}
	require.NoError(t, p.Validate())
	p.Apply(todo)

	assert.Equal(t, "original", todo.Name)
	assert.Equal(t, "original description", todo.Description)
	assert.Equal(t, PriorityMedium, todo.Priority)
	assert.Equal(t, StatusDone, todo.Status)
	assert.Equal(t, &due, todo.DueDate)
	assert.True(t, todo.UpdatedAt.After(before))
}

func TestListQuery_Normalize(t *testing.T) {
	q := &ListQuery{}
	require.NoError(t, q.Normalize(0, 0))
	assert.Equal(t, "created_at", q.SortBy)
	assert.Equal(t, SortAsc, q.SortOrder)
	assert.Equal(t, DefaultLimit, q.Limit)

	q = &ListQuery{Limit: 5000}
	require.NoError(t, q.Normalize(0, 0))
	assert.Equal(t, MaxLimit, q.Limit)

	q = &ListQuery{Limit: 10, Offset: 30, SortBy: "priority", SortOrder: SortDesc}
	require.NoError(t, q.Normalize(0, 0))
	assert.Equal(t, 10, q.Limit)
	assert.Equal(t, 30, q.Offset)

	err := (&ListQuery{SortBy: "owner"}).Normalize(0, 0)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	err = (&ListQuery{SortOrder: "sideways"}).Normalize(0, 0)
	require.Error(t, err)

	err = (&ListQuery{Offset: -1}).Normalize(0, 0)
	require.Error(t, err)

	err = (&ListQuery{Limit: -1}).Normalize(0, 0)
	require.Error(t, err)
}

func TestListQuery_Normalize_CustomBounds(t *testing.T) {
	q := &ListQuery{}
	require.NoError(t, q.Normalize(25, 50))
	assert.Equal(t, 25, q.Limit)

	q = &ListQuery{Limit: 200}
	require.NoError(t, q.Normalize(25, 50))
	assert.Equal(t, 50, q.Limit)
}

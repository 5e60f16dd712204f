package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"time"

	"github.com/dmehra2102/TodoVault/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ExportFormat string

const (
	ExportJSON ExportFormat = "json"
	ExportCSV  ExportFormat = "csv"
)

func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(s) {
	case "":
		return ExportJSON, nil
	case ExportJSON, ExportCSV:
		return ExportFormat(s), nil
	default:
		return "", &domain.ValidationError{Field: "format", Message: "must be json or csv"}
	}
}

// exportColumns fixes the field order of both export formats:
// id, name, description, priority, status, due_date, is_deleted,
// created_at, updated_at. Timestamps render as RFC 3339 UTC.
var exportColumns = []string{
	"id", "name", "description", "priority", "status",
	"due_date", "is_deleted", "created_at", "updated_at",
}

type exportRecord struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Priority    int        `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date"`
	IsDeleted   bool       `json:"is_deleted"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Export serializes a snapshot of all visible records, ordered by id,
// in the requested format. Returns the payload and its content type.
func (s *TodoService) Export(ctx context.Context, format ExportFormat, includeDeleted bool) ([]byte, string, error) {
	ctx, span := s.tracer.Start(ctx, "Export")
	defer span.End()

	span.SetAttributes(
		attribute.String("format", string(format)),
		attribute.Bool("include_deleted", includeDeleted),
	)

	todos, err := s.collectAll(ctx, includeDeleted)
	if err != nil {
		return nil, "", err
	}

	records := make([]exportRecord, len(todos))
	for i, t := range todos {
		records[i] = exportRecord{
			ID:          t.ID,
			Name:        t.Name,
			Description: t.Description,
			Priority:    t.Priority.Int(),
			Status:      string(t.Status),
			DueDate:     t.DueDate,
			IsDeleted:   t.IsDeleted,
			CreatedAt:   t.CreatedAt,
			UpdatedAt:   t.UpdatedAt,
		}
	}

	switch format {
	case ExportCSV:
		out, err := marshalCSV(records)
		if err != nil {
			return nil, "", err
		}
		return out, "text/csv", nil
	default:
		out, err := json.Marshal(records)
		if err != nil {
			return nil, "", err
		}
		return out, "application/json", nil
	}
}

// collectAll pages through the store in id order until the reported
// total is exhausted, so the snapshot is not capped by the page limit.
func (s *TodoService) collectAll(ctx context.Context, includeDeleted bool) ([]*domain.Todo, error) {
	all := make([]*domain.Todo, 0)

	for {
		q := &domain.ListQuery{
			IncludeDeleted: includeDeleted,
			SortBy:         "id",
			Offset:         len(all),
		}
		if err := q.Normalize(s.maxLimit, s.maxLimit); err != nil {
			return nil, err
		}

		page, total, err := s.repo.List(ctx, q)
		if err != nil {
			s.logger.Error("failed to export todos", zap.Error(err))
			return nil, err
		}

		all = append(all, page...)
		if int64(len(all)) >= total || len(page) == 0 {
			return all, nil
		}
	}
}

func marshalCSV(records []exportRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportColumns); err != nil {
		return nil, err
	}

	for _, r := range records {
		due := ""
		if r.DueDate != nil {
			due = r.DueDate.UTC().Format(time.RFC3339)
		}
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.Name,
			r.Description,
			strconv.Itoa(r.Priority),
			r.Status,
			due,
			strconv.FormatBool(r.IsDeleted),
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

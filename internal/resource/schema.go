package resource

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EnumField constrains one column to a fixed allowed-value set.
type EnumField struct {
	Field   string
	Allowed []string
}

// Schema describes one resource collection: its table, validation
// rules, defaults and list behaviour. The HTTP layer instantiates one
// generic handler pair per schema instead of five hand-written routers.
type Schema struct {
	Name       string
	Table      string
	Columns    []string
	Required   []string
	Enums      []EnumField
	Defaults   map[string]any
	Filters    []string
	OrderBy    string
	Descending bool
}

// All returns the schema for every resource collection the gateway serves.
func All() []Schema {
	return []Schema{
		{
			Name:     "tasks",
			Table:    "tasks",
			Columns:  []string{"id", "title", "description", "status", "priority", "labels", "project_id", "created_at", "updated_at"},
			Required: []string{"title"},
			Enums: []EnumField{
				{Field: "status", Allowed: []string{"backlog", "todo", "in_progress", "done", "cancelled"}},
				{Field: "priority", Allowed: []string{"none", "low", "medium", "high", "urgent"}},
			},
			Defaults: map[string]any{
				"status":      "backlog",
				"priority":    "none",
				"description": "",
				"labels":      []any{},
			},
			Filters:    []string{"project_id", "status"},
			OrderBy:    "updated_at",
			Descending: true,
		},
		{
			Name:     "calendar",
			Table:    "calendar_events",
			Columns:  []string{"id", "title", "type", "status", "start_date", "end_date", "project_id", "created_at", "updated_at"},
			Required: []string{"title", "type", "start_date", "end_date"},
			Enums: []EnumField{
				{Field: "type", Allowed: []string{"task", "meeting", "deployment", "reminder", "milestone"}},
				{Field: "status", Allowed: []string{"scheduled", "in_progress", "completed", "cancelled"}},
			},
			Defaults: map[string]any{
				"status": "scheduled",
			},
			Filters: []string{"project_id", "status", "type"},
			OrderBy: "start_date",
		},
		{
			Name:     "content",
			Table:    "content_items",
			Columns:  []string{"id", "title", "stage", "platform", "media_urls", "project_id", "created_at", "updated_at"},
			Required: []string{"title"},
			Enums: []EnumField{
				{Field: "stage", Allowed: []string{"idea", "draft", "review", "scheduled", "published"}},
			},
			Defaults: map[string]any{
				"stage":      "idea",
				"media_urls": []any{},
			},
			Filters:    []string{"project_id", "stage", "platform"},
			OrderBy:    "updated_at",
			Descending: true,
		},
		{
			Name:     "memories",
			Table:    "memories",
			Columns:  []string{"id", "title", "content", "category", "source", "project_id", "created_at", "updated_at"},
			Required: []string{"title", "content", "category"},
			Enums: []EnumField{
				{Field: "category", Allowed: []string{"decision", "learning", "context", "reference"}},
			},
			Defaults: map[string]any{
				"source": "",
			},
			Filters:    []string{"project_id", "category"},
			OrderBy:    "created_at",
			Descending: true,
		},
		{
			Name:     "team",
			Table:    "team_members",
			Columns:  []string{"id", "name", "role", "status", "task_history", "project_id", "created_at", "updated_at"},
			Required: []string{"name", "role"},
			Enums: []EnumField{
				{Field: "status", Allowed: []string{"active", "idle", "offline"}},
			},
			Defaults: map[string]any{
				"status":       "idle",
				"task_history": []any{},
			},
			Filters:    []string{"project_id", "status"},
			OrderBy:    "created_at",
			Descending: true,
		},
	}
}

// ValidateCreate checks required fields in declaration order, then enum
// fields. The first violation is returned; errors are not aggregated.
func (s Schema) ValidateCreate(body map[string]any) error {
	for _, field := range s.Required {
		if isUnset(body[field]) {
			return fmt.Errorf("%s is required", field)
		}
	}
	return s.validateEnums(body)
}

// ValidateUpdate checks enum fields present in a partial body.
func (s Schema) ValidateUpdate(body map[string]any) error {
	return s.validateEnums(body)
}

func (s Schema) validateEnums(body map[string]any) error {
	for _, enum := range s.Enums {
		value, ok := body[enum.Field]
		if !ok || value == nil {
			continue
		}
		str, isStr := value.(string)
		if !isStr || !contains(enum.Allowed, str) {
			return fmt.Errorf("%s must be one of: %s", enum.Field, strings.Join(enum.Allowed, ", "))
		}
	}
	return nil
}

// BuildRow produces the row to insert: declared columns only, server
// generated id when absent, defaults for unset fields and epoch-ms
// creation/update timestamps.
func (s Schema) BuildRow(body map[string]any, now time.Time) map[string]any {
	row := make(map[string]any, len(s.Columns))
	for _, col := range s.Columns {
		if value, ok := body[col]; ok && value != nil {
			row[col] = coerceEpoch(col, value)
		}
	}
	if isUnset(row["id"]) {
		row["id"] = uuid.NewString()
	}
	for field, value := range s.Defaults {
		if _, ok := row[field]; !ok {
			row[field] = value
		}
	}
	if _, ok := row["created_at"]; !ok {
		row["created_at"] = now.UnixMilli()
	}
	row["updated_at"] = row["created_at"]
	return row
}

// BuildPatch restricts a partial body to declared columns and refreshes
// the update timestamp. Identifiers and creation times are immutable.
func (s Schema) BuildPatch(body map[string]any, now time.Time) map[string]any {
	patch := make(map[string]any, len(body)+1)
	for _, col := range s.Columns {
		if col == "id" || col == "created_at" {
			continue
		}
		if value, ok := body[col]; ok {
			patch[col] = coerceEpoch(col, value)
		}
	}
	patch["updated_at"] = now.UnixMilli()
	return patch
}

func isUnset(value any) bool {
	if value == nil {
		return true
	}
	str, ok := value.(string)
	return ok && str == ""
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// coerceEpoch converts JSON numbers for timestamp columns into int64
// epoch milliseconds so they bind cleanly to bigint columns.
func coerceEpoch(col string, value any) any {
	if col != "created_at" && col != "updated_at" {
		return value
	}
	if f, ok := value.(float64); ok {
		return int64(f)
	}
	return value
}

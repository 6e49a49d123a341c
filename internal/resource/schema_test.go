package resource

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func schemaByName(t *testing.T, name string) Schema {
	t.Helper()
	for _, s := range All() {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("no schema named %q", name)
	return Schema{}
}

func TestValidateCreateRequiredFieldsFirst(t *testing.T) {
	tasks := schemaByName(t, "tasks")

	err := tasks.ValidateCreate(map[string]any{"status": "bogus"})
	if err == nil || err.Error() != "title is required" {
		t.Fatalf("expected missing-title error before enum check, got %v", err)
	}

	err = tasks.ValidateCreate(map[string]any{"title": ""})
	if err == nil || err.Error() != "title is required" {
		t.Fatalf("expected empty title to fail presence check, got %v", err)
	}
}

func TestValidateCreateEnumMessageListsAllowedValues(t *testing.T) {
	tasks := schemaByName(t, "tasks")

	err := tasks.ValidateCreate(map[string]any{"title": "Fix bug", "status": "bogus"})
	want := "status must be one of: backlog, todo, in_progress, done, cancelled"
	if err == nil || err.Error() != want {
		t.Fatalf("expected %q, got %v", want, err)
	}

	if err := tasks.ValidateCreate(map[string]any{"title": "Fix bug", "status": "todo"}); err != nil {
		t.Fatalf("valid status rejected: %v", err)
	}
}

func TestValidateCreateOrderFollowsDeclaration(t *testing.T) {
	calendar := schemaByName(t, "calendar")

	err := calendar.ValidateCreate(map[string]any{"type": "meeting"})
	if err == nil || err.Error() != "title is required" {
		t.Fatalf("expected title violation first, got %v", err)
	}

	err = calendar.ValidateCreate(map[string]any{"title": "Standup"})
	if err == nil || err.Error() != "type is required" {
		t.Fatalf("expected type violation second, got %v", err)
	}
}

func TestValidateUpdateChecksOnlyPresentEnums(t *testing.T) {
	team := schemaByName(t, "team")

	if err := team.ValidateUpdate(map[string]any{"role": "engineer"}); err != nil {
		t.Fatalf("patch without enum fields must pass: %v", err)
	}
	err := team.ValidateUpdate(map[string]any{"status": "away"})
	want := "status must be one of: active, idle, offline"
	if err == nil || err.Error() != want {
		t.Fatalf("expected %q, got %v", want, err)
	}
}

func TestBuildRowAppliesDefaultsAndTimestamps(t *testing.T) {
	tasks := schemaByName(t, "tasks")
	now := time.Date(2025, time.November, 5, 12, 0, 0, 0, time.UTC)

	row := tasks.BuildRow(map[string]any{"title": "Fix bug"}, now)

	if row["status"] != "backlog" || row["priority"] != "none" {
		t.Fatalf("expected enum defaults, got status=%v priority=%v", row["status"], row["priority"])
	}
	if row["description"] != "" {
		t.Fatalf("expected empty description default, got %v", row["description"])
	}
	if labels, ok := row["labels"].([]any); !ok || len(labels) != 0 {
		t.Fatalf("expected empty labels default, got %v", row["labels"])
	}
	id, ok := row["id"].(string)
	if !ok {
		t.Fatalf("expected generated id, got %v", row["id"])
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("generated id is not a UUID: %v", err)
	}
	if row["created_at"] != now.UnixMilli() {
		t.Fatalf("expected created_at %d, got %v", now.UnixMilli(), row["created_at"])
	}
	if row["updated_at"] != row["created_at"] {
		t.Fatalf("expected matching creation timestamps, got %v / %v", row["created_at"], row["updated_at"])
	}
}

func TestBuildRowKeepsClientValues(t *testing.T) {
	tasks := schemaByName(t, "tasks")
	now := time.Now()

	row := tasks.BuildRow(map[string]any{
		"id":         "11111111-2222-3333-4444-555555555555",
		"title":      "Fix bug",
		"status":     "todo",
		"created_at": float64(1_700_000_000_000),
		"unknown":    "dropped",
	}, now)

	if row["id"] != "11111111-2222-3333-4444-555555555555" {
		t.Fatalf("client id must be preserved, got %v", row["id"])
	}
	if row["status"] != "todo" {
		t.Fatalf("client status must be preserved, got %v", row["status"])
	}
	if row["created_at"] != int64(1_700_000_000_000) {
		t.Fatalf("expected epoch coercion to int64, got %T %v", row["created_at"], row["created_at"])
	}
	if _, ok := row["unknown"]; ok {
		t.Fatal("undeclared columns must not reach the store")
	}
}

func TestBuildPatchRefreshesUpdatedAt(t *testing.T) {
	tasks := schemaByName(t, "tasks")
	now := time.Date(2025, time.November, 5, 12, 0, 0, 0, time.UTC)

	patch := tasks.BuildPatch(map[string]any{
		"status":     "done",
		"id":         "should-be-ignored",
		"created_at": float64(1),
	}, now)

	if patch["status"] != "done" {
		t.Fatalf("expected status in patch, got %v", patch["status"])
	}
	if patch["updated_at"] != now.UnixMilli() {
		t.Fatalf("expected refreshed updated_at, got %v", patch["updated_at"])
	}
	if _, ok := patch["id"]; ok {
		t.Fatal("id must not be patchable")
	}
	if _, ok := patch["created_at"]; ok {
		t.Fatal("created_at must not be patchable")
	}
}

package taskcache

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
	"time"
)

// Payload is a raw task record as delivered by a push event, a REST
// response or a local mutation. Its shape varies between sources.
type Payload map[string]any

// ID returns "id", falling back to "taskId". It is empty when neither holds
// a usable value.
func (payload Payload) ID() string {
	return payloadID(payload)
}

// Task is one cached record. Fields holds every attribute except the ID
// and the hydration flag and is never mutated once stored.
type Task struct {
	ID             string
	NeedsHydration bool
	Fields         map[string]any
}

// Partial is a normalized delta. A nil NeedsHydration leaves the flag of
// the record it is merged into unchanged.
type Partial struct {
	ID             string
	NeedsHydration *bool
	Fields         map[string]any
}

func (task Task) Text(key string) string {
	value, _ := task.Fields[key].(string)
	return value
}

func (task Task) Status() string {
	return task.Text("status")
}

func (task Task) AssignedTo() string {
	return task.Text("assigned_to")
}

// AssignedToIDs splits the comma-separated assignee list.
func (task Task) AssignedToIDs() []string {
	var ids []string
	for _, id := range strings.Split(task.AssignedTo(), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func (task Task) CreatedByName() string {
	return task.Text("created_by_name")
}

func (task Task) Time(key string) (time.Time, bool) {
	value, ok := task.Fields[key].(time.Time)
	return value, ok
}

func (task Task) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(task.Fields)+2)
	maps.Copy(flat, task.Fields)
	flat["id"] = task.ID
	flat["needsHydration"] = task.NeedsHydration
	return json.Marshal(flat)
}

var reservedKeys = map[string]bool{
	"id":             true,
	"taskId":         true,
	"needsHydration": true,
}

var dateKeys = map[string]bool{
	"scheduled_for":         true,
	"next_occurrence":       true,
	"recurrence_start_date": true,
	"deadline":              true,
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Normalize extracts the ID from either "id" or "taskId" and copies the
// fields the payload actually carries. Date-like strings become time.Time.
// It reports false when the payload has no usable ID.
func Normalize(payload Payload, needsHydration bool) (Partial, bool) {
	return normalizeAt(payload, needsHydration, time.Now())
}

func normalizeAt(payload Payload, needsHydration bool, now time.Time) (Partial, bool) {
	id := payloadID(payload)
	if id == "" {
		slog.Warn("cannot normalize task without id", "keys", len(payload))
		return Partial{}, false
	}

	partial := Partial{
		ID:             id,
		NeedsHydration: &needsHydration,
		Fields:         copyFields(payload, present),
	}
	if _, ok := partial.Fields["receivedAt"]; !ok && needsHydration {
		partial.Fields["receivedAt"] = now
	}
	return partial, true
}

// copyFields copies the non-reserved keys whose values pass keep.
func copyFields(payload Payload, keep func(any) bool) map[string]any {
	fields := make(map[string]any, len(payload))
	for key, value := range payload {
		if reservedKeys[key] || !keep(value) {
			continue
		}
		if text, ok := value.(string); ok && isDateKey(key) {
			if parsed, ok := parseDate(text); ok {
				fields[key] = parsed
				continue
			}
		}
		fields[key] = value
	}
	return fields
}

// Merge overlays incoming on existing. The hydration flag is only replaced
// when incoming states one.
func Merge(existing Task, incoming Partial) Task {
	fields := make(map[string]any, len(existing.Fields)+len(incoming.Fields))
	maps.Copy(fields, existing.Fields)
	maps.Copy(fields, incoming.Fields)

	merged := Task{
		ID:             existing.ID,
		NeedsHydration: existing.NeedsHydration,
		Fields:         fields,
	}
	if incoming.NeedsHydration != nil {
		merged.NeedsHydration = *incoming.NeedsHydration
	}
	return merged
}

// IsCompleteTaskPayload reports whether a payload looks like a full task
// row rather than a delta: it must carry an assignee, a status and the
// reporter name together.
func IsCompleteTaskPayload(payload Payload) bool {
	return present(payload["assigned_to"]) &&
		present(payload["status"]) &&
		present(payload["created_by_name"])
}

func payloadID(payload Payload) string {
	for _, key := range []string{"id", "taskId"} {
		switch value := payload[key].(type) {
		case string:
			if value != "" {
				return value
			}
		case float64:
			return strconv.FormatFloat(value, 'f', -1, 64)
		case int:
			return strconv.Itoa(value)
		case int64:
			return strconv.FormatInt(value, 10)
		case json.Number:
			return value.String()
		case fmt.Stringer:
			if text := value.String(); text != "" {
				return text
			}
		}
	}
	return ""
}

func anyValue(any) bool { return true }

func present(value any) bool {
	switch value := value.(type) {
	case nil:
		return false
	case string:
		return value != ""
	}
	return true
}

func isDateKey(key string) bool {
	return dateKeys[key] || strings.HasSuffix(key, "_at") || strings.HasSuffix(key, "At")
}

func parseDate(text string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

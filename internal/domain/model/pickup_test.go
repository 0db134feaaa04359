package model

import (
	"encoding/json"
	"testing"
)

func TestAssignedReceiver_Unmarshal(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantID     string
		structured bool
	}{
		{"строка", `"u1"`, "u1", false},
		{"объект с id", `{"id": "u1", "name": "Recv"}`, "u1", true},
		{"объект с _id", `{"_id": "u1"}`, "u1", true},
		{"id важнее _id", `{"id": "u1", "_id": "u2"}`, "u1", true},
		{"extended JSON", `{"_id": {"$oid": "65a1f0c2b3d4e5f601234567"}}`, "65a1f0c2b3d4e5f601234567", true},
		{"null", `null`, "", false},
		{"число", `42`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a AssignedReceiver
			if err := json.Unmarshal([]byte(tt.raw), &a); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if a.ID != tt.wantID {
				t.Errorf("ID = %q, хотели %q", a.ID, tt.wantID)
			}
			if a.Structured != tt.structured {
				t.Errorf("Structured = %v, хотели %v", a.Structured, tt.structured)
			}
		})
	}
}

func TestPickupRequest_PreservesAssignedReceiverShape(t *testing.T) {
	raw := `{"_id":"r1","status":"pending","assignedReceiver":{"id":"u1","name":"Recv"}}`

	var req PickupRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	out, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var back map[string]any
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	ref, ok := back["assignedReceiver"].(map[string]any)
	if !ok {
		t.Fatalf("assignedReceiver = %v, ожидается объект", back["assignedReceiver"])
	}
	if ref["name"] != "Recv" {
		t.Errorf("assignedReceiver.name = %v, хотели Recv", ref["name"])
	}
}

func TestNewAssignedReceiver_Marshal(t *testing.T) {
	out, err := json.Marshal(NewAssignedReceiver("u1"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `"u1"` {
		t.Errorf("Marshal = %s, хотели \"u1\"", out)
	}
}

package pickup

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/recycleit/receiver-portal/internal/domain/model"
)

// decodeRequests разбирает JSON-массив заявок так же, как клиент API.
func decodeRequests(t *testing.T, raw string) []model.PickupRequest {
	t.Helper()
	var reqs []model.PickupRequest
	if err := json.Unmarshal([]byte(raw), &reqs); err != nil {
		t.Fatalf("ошибка разбора заявок: %v", err)
	}
	return reqs
}

func TestValidRequestID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"65a1f0c2b3d4e5f601234567", true},
		{"65A1F0C2B3D4E5F601234567", true},
		{"not-a-valid-id", false},
		{"", false},
		{"65a1f0c2b3d4e5f60123456", false},
		{"65a1f0c2b3d4e5f6012345678", false},
		{"65a1f0c2b3d4e5f60123456z", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := ValidRequestID(tt.id); got != tt.want {
				t.Errorf("ValidRequestID(%q) = %v, хотели %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestAssignedTo(t *testing.T) {
	reqs := decodeRequests(t, `[
		{"_id": "a", "assignedReceiver": "u1"},
		{"_id": "b", "assignedReceiver": {"id": "u1", "name": "Recv"}},
		{"_id": "c", "assignedReceiver": {"_id": "u1"}},
		{"_id": "d", "assignedReceiver": "u2"},
		{"_id": "e", "assignedReceiver": null},
		{"_id": "f"},
		{"_id": "g", "assignedReceiver": {"id": "u2", "_id": "u1"}},
		{"_id": "h", "assignedReceiver": 42},
		{"_id": "i", "assignedReceiver": " u1"},
		{"_id": "j", "assignedReceiver": {"id": "u1 "}}
	]`)

	got := AssignedTo(reqs, "u1")

	wantIDs := []string{"a", "b", "c"}
	if len(got) != len(wantIDs) {
		t.Fatalf("AssignedTo вернул %d заявок, хотели %d", len(got), len(wantIDs))
	}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Errorf("заявка [%d] = %q, хотели %q", i, got[i].ID, id)
		}
	}
}

func TestAssignedTo_EmptyUser(t *testing.T) {
	reqs := decodeRequests(t, `[{"_id": "a", "assignedReceiver": ""}, {"_id": "b"}]`)

	if got := AssignedTo(reqs, ""); len(got) != 0 {
		t.Errorf("AssignedTo с пустым userID вернул %d заявок, хотели 0", len(got))
	}
}

func TestAttachNames(t *testing.T) {
	reqs := []model.PickupRequest{
		{ID: "a", UserID: "owner1"},
		{ID: "b", UserID: "owner2"},
		{ID: "c", UserID: ""},
	}
	users := []model.DirectoryUser{
		{ID: "owner1", Name: "Alice"},
		{ID: "owner1", Name: "Alice duplicate"},
	}

	got := AttachNames(reqs, DirectoryLookup(users))

	want := []string{"Alice", UnknownName, UnknownName}
	for i, name := range want {
		if got[i].FullName != name {
			t.Errorf("fullName [%d] = %q, хотели %q", i, got[i].FullName, name)
		}
	}
	if reqs[0].FullName != "" {
		t.Error("AttachNames изменил исходный срез")
	}
}

func TestAttachNames_NilLookup(t *testing.T) {
	got := AttachNames([]model.PickupRequest{{ID: "a", UserID: "x", FullName: "stale"}}, nil)
	if got[0].FullName != UnknownName {
		t.Errorf("fullName = %q, хотели %q", got[0].FullName, UnknownName)
	}
}

func TestDisplayCategory(t *testing.T) {
	tests := []struct {
		name string
		req  model.PickupRequest
		want string
	}{
		{"явная категория", model.PickupRequest{Category: "A", RecycleItem: "Unknown", RecycleItemFromForm: "Laptop"}, "A"},
		{"unknown с категорией формы", model.PickupRequest{RecycleItem: "Unknown", RecycleItemFromForm: "Laptop"}, "Laptop"},
		{"unknown в другом регистре", model.PickupRequest{RecycleItem: "UNKNOWN", RecycleItemFromForm: "Tablet"}, "Tablet"},
		{"unknown без категории формы", model.PickupRequest{RecycleItem: "unknown"}, "Unknown"},
		{"предмет как есть", model.PickupRequest{RecycleItem: "Phone"}, "Phone"},
		{"пустой предмет", model.PickupRequest{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayCategory(tt.req); got != tt.want {
				t.Errorf("DisplayCategory() = %q, хотели %q", got, tt.want)
			}
		})
	}
}

func TestDisplayPhone(t *testing.T) {
	tests := []struct {
		name string
		req  model.PickupRequest
		want string
	}{
		{"предпочтительный номер", model.PickupRequest{PreferredContactNumber: "111", ReceiverPhone: "222"}, "111"},
		{"телефон получателя", model.PickupRequest{ReceiverPhone: "222"}, "222"},
		{"заглушка", model.PickupRequest{ReceiverPhone: PhonePlaceholder}, NotAvailable},
		{"пусто", model.PickupRequest{}, NotAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayPhone(tt.req); got != tt.want {
				t.Errorf("DisplayPhone() = %q, хотели %q", got, tt.want)
			}
		})
	}
}

func TestIsTerminalStatus(t *testing.T) {
	for _, s := range []string{"collected", "received", "received by recycler"} {
		if !IsTerminalStatus(s) {
			t.Errorf("IsTerminalStatus(%q) = false, хотели true", s)
		}
	}
	for _, s := range []string{"", "pending", "assigned", "Received"} {
		if IsTerminalStatus(s) {
			t.Errorf("IsTerminalStatus(%q) = true, хотели false", s)
		}
	}
}

func TestCollected_MergesOriginal(t *testing.T) {
	original := &model.PickupRequest{
		ID:          "65a1f0c2b3d4e5f601234567",
		UserEmail:   "owner@example.com",
		RecycleItem: "Laptop",
		Status:      model.StatusPending,
		FullName:    "Alice",
	}

	got := Collected(original, original.ID, "left at door", "data:image/png;base64,AAA", time.Now())

	if got.Status != model.StatusReceived {
		t.Errorf("Status = %q, хотели %q", got.Status, model.StatusReceived)
	}
	if got.CollectionNotes != "left at door" {
		t.Errorf("CollectionNotes = %q", got.CollectionNotes)
	}
	if got.CollectionProof != "data:image/png;base64,AAA" {
		t.Errorf("CollectionProof = %q", got.CollectionProof)
	}
	if got.UserEmail != "owner@example.com" || got.FullName != "Alice" {
		t.Error("поля исходной заявки потеряны")
	}
	if original.Status != model.StatusPending {
		t.Error("Collected изменил исходную заявку")
	}
}

func TestCollected_StandIn(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	got := Collected(nil, "65a1f0c2b3d4e5f601234567", "", "data:image/jpeg;base64,BBB", now)

	if got.ID != "65a1f0c2b3d4e5f601234567" {
		t.Errorf("ID = %q", got.ID)
	}
	if got.Status != model.StatusReceived || got.CollectionNotes != "" || got.CollectionProof == "" {
		t.Errorf("минимальная запись некорректна: %+v", got)
	}
	if got.CreatedAt != "2026-03-01T10:00:00Z" {
		t.Errorf("CreatedAt = %q", got.CreatedAt)
	}
}

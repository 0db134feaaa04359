package service

import (
	"testing"
	"time"

	"github.com/recycleit/receiver-portal/internal/domain/model"
)

func TestDirectory_FillLookup(t *testing.T) {
	d := NewDirectory(10, time.Hour)
	d.Fill([]model.DirectoryUser{
		{ID: "owner1", Name: "Alice"},
		{ID: "owner1", Name: "Duplicate"},
		{ID: "", Name: "No id"},
		{ID: "owner2", Name: "Bob"},
	})

	if d.Len() != 2 {
		t.Errorf("Len() = %d, хотели 2", d.Len())
	}
	if name, ok := d.Lookup("owner1"); !ok || name != "Alice" {
		t.Errorf("Lookup(owner1) = %q, %v", name, ok)
	}
	if _, ok := d.Lookup("missing"); ok {
		t.Error("Lookup(missing) нашёл запись")
	}
}

func TestDirectory_Expires(t *testing.T) {
	d := NewDirectory(10, 50*time.Millisecond)
	d.Fill([]model.DirectoryUser{{ID: "owner1", Name: "Alice"}})

	time.Sleep(200 * time.Millisecond)

	if _, ok := d.Lookup("owner1"); ok {
		t.Error("запись справочника не истекла после TTL")
	}
}

package lsp

import "testing"

func TestDocumentStore_SetAnalyzes(t *testing.T) {
	store := NewDocumentStore()

	result := store.Set("file:///trainer.hcl", 1, validConfig)
	if result == nil || len(result.Diagnostics) != 0 {
		t.Fatalf("Set() result = %+v, want a clean analysis", result)
	}

	doc, ok := store.Get("file:///trainer.hcl")
	if !ok {
		t.Fatal("document not found after Set")
	}
	if doc.Text != validConfig || doc.Version != 1 || doc.Result != result {
		t.Errorf("stored document = %+v", doc)
	}
}

func TestDocumentStore_Update(t *testing.T) {
	store := NewDocumentStore()
	store.Set("file:///trainer.hcl", 1, validConfig)

	result := store.Set("file:///trainer.hcl", 2, "preset \"x\" {")
	if len(result.Diagnostics) == 0 {
		t.Error("expected diagnostics for the broken update")
	}
	doc, _ := store.Get("file:///trainer.hcl")
	if doc.Version != 2 || doc.Text != "preset \"x\" {" {
		t.Errorf("document not updated: %+v", doc)
	}
}

func TestDocumentStore_StaleVersionIgnored(t *testing.T) {
	store := NewDocumentStore()
	store.Set("file:///trainer.hcl", 5, validConfig)

	result := store.Set("file:///trainer.hcl", 4, "preset \"x\" {")
	if len(result.Diagnostics) != 0 {
		t.Error("stale update should return the current analysis")
	}
	doc, _ := store.Get("file:///trainer.hcl")
	if doc.Version != 5 || doc.Text != validConfig {
		t.Errorf("stale update replaced the document: %+v", doc)
	}
}

func TestDocumentStore_Close(t *testing.T) {
	store := NewDocumentStore()
	store.Set("file:///trainer.hcl", 1, validConfig)
	store.Close("file:///trainer.hcl")

	if _, ok := store.Get("file:///trainer.hcl"); ok {
		t.Error("document still present after Close")
	}
}

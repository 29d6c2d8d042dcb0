package database

import (
	"path/filepath"
	"reflect"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "libs.db"), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetEnabledBeforeSync(t *testing.T) {
	s := openTestStore(t)

	if err := s.SetEnabled("lib-b", true); err != nil {
		t.Fatal(err)
	}
	if err := s.SetEnabled("lib-a", true); err != nil {
		t.Fatal(err)
	}
	if err := s.SetEnabled("lib-b", false); err != nil {
		t.Fatal(err)
	}

	got, err := s.EnabledUUIDs()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"lib-a"}) {
		t.Fatalf("EnabledUUIDs = %v", got)
	}
}

func TestSetEnabledRejectsEmpty(t *testing.T) {
	s := openTestStore(t)
	if err := s.SetEnabled("  ", true); err == nil {
		t.Fatal("expected error for empty uuid")
	}
}

func TestSyncLibsKeepsEnabledFlag(t *testing.T) {
	s := openTestStore(t)

	if err := s.SetEnabled("cats", true); err != nil {
		t.Fatal(err)
	}
	libs := []MemeLib{
		{UUID: "cats", Name: "Cats", Version: "1.0", Tags: []string{"cat", "cute"}, Timestamp: 10},
		{UUID: "dogs", Name: "Dogs", Version: "2.1"},
		{UUID: "", Name: "ignored"},
	}
	if err := s.SyncLibs(libs); err != nil {
		t.Fatalf("SyncLibs: %v", err)
	}

	libs[0].Version = "1.1"
	if err := s.SyncLibs(libs[:1]); err != nil {
		t.Fatal(err)
	}

	all, err := s.ListLibs()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("ListLibs = %+v, want 2 entries", all)
	}
	cats := all[0]
	if cats.UUID != "cats" || !cats.Enabled || cats.Version != "1.1" {
		t.Fatalf("cats = %+v", cats)
	}
	if !reflect.DeepEqual(cats.Tags, []string{"cat", "cute"}) {
		t.Fatalf("tags = %v", cats.Tags)
	}
	if all[1].Enabled {
		t.Fatal("dogs enabled without request")
	}
}

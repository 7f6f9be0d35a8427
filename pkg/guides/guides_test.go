package guides

import "testing"

func TestAll(t *testing.T) {
	lib := NewLibrary()

	all, err := lib.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) == 0 {
		t.Fatal("embedded library should not be empty")
	}
	for _, g := range all {
		if g.Slug == "" || g.Title == "" || g.Body == "" {
			t.Errorf("guide %+v missing required fields", g)
		}
	}

	// All returns a copy; mutating it must not affect the library.
	all[0].Title = "mutated"
	again, _ := lib.All()
	if again[0].Title == "mutated" {
		t.Error("All should return a copy")
	}
}

func TestGet(t *testing.T) {
	lib := NewLibrary()

	g, ok, err := lib.Get("applying-for-tribal-grants")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatal("known slug should be found")
	}
	if g.Slug != "applying-for-tribal-grants" {
		t.Errorf("Slug = %q", g.Slug)
	}

	if _, ok, err := lib.Get("no-such-guide"); err != nil || ok {
		t.Errorf("Get(missing) = ok=%v err=%v, want not found without error", ok, err)
	}
}

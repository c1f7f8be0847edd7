package theme

import "testing"

func TestGet(t *testing.T) {
	for _, name := range []string{Noir, Model} {
		doc := Get(name)
		if doc == nil {
			t.Fatalf("theme %q missing", name)
		}
		if doc["backgroundColor"] != "transparent" {
			t.Fatalf("theme %q background = %v", name, doc["backgroundColor"])
		}
	}
	if Get("nope") != nil {
		t.Fatal("unknown theme should be nil")
	}
	if len(Names()) != 2 {
		t.Fatalf("names = %v", Names())
	}
}

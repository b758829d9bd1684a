package util

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Getting Started", "getting-started"},
		{"punctuation collapses", "Hello, World!", "hello-world"},
		{"already slug", "release-notes", "release-notes"},
		{"mixed separators", "Q3 -- Roadmap (draft)", "q3-roadmap-draft"},
		{"unicode letters kept", "Café Menü", "café-menü"},
		{"empty falls back", "", DefaultSlug},
		{"symbols only fall back", "!!!", DefaultSlug},
		{"trailing separator trimmed", "Notes: ", "notes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSlugWithShortID(t *testing.T) {
	got := SlugWithShortID("Getting Started", "a1b2c3d4")
	if got != "getting-started-a1b2c3d4" {
		t.Errorf("SlugWithShortID = %q", got)
	}
}

func TestShortIDFromSegment(t *testing.T) {
	tests := []struct {
		segment string
		want    string
		ok      bool
	}{
		{"getting-started-a1b2c3d4", "a1b2c3d4", true},
		{"a1b2c3d4", "", false}, // no hyphen, treated as a custom link
		{"getting-started", "", false},
		{"notes-A1B2C3D4", "", false}, // uppercase is not a short id
		{"notes-", "", false},
	}

	for _, tt := range tests {
		got, ok := ShortIDFromSegment(tt.segment)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ShortIDFromSegment(%q) = (%q, %v), want (%q, %v)",
				tt.segment, got, ok, tt.want, tt.ok)
		}
	}
}

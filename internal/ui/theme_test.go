package ui

import (
	"testing"

	"github.com/five82/scribe/internal/notes"
)

func TestGetThemeFallsBack(t *testing.T) {
	if got := GetTheme("Kanagawa").Name; got != "Kanagawa" {
		t.Fatalf("GetTheme(Kanagawa) = %q", got)
	}
	if got := GetTheme("nope").Name; got != "Nightfox" {
		t.Fatalf("GetTheme unknown = %q, want Nightfox", got)
	}
}

func TestNextThemeCycles(t *testing.T) {
	names := ThemeNames()
	seen := map[string]bool{}
	current := names[0]
	for range names {
		seen[current] = true
		current = NextTheme(current)
	}
	if current != names[0] {
		t.Fatalf("cycle ended at %q, want %q", current, names[0])
	}
	if len(seen) != len(names) {
		t.Fatalf("visited %d themes, want %d", len(seen), len(names))
	}
	if got := NextTheme("unknown"); got != names[0] {
		t.Fatalf("NextTheme(unknown) = %q, want %q", got, names[0])
	}
}

func TestThemeNamesReturnsCopy(t *testing.T) {
	names := ThemeNames()
	names[0] = "changed"
	if ThemeNames()[0] == "changed" {
		t.Fatal("ThemeNames exposed internal slice")
	}
}

func TestSyncColor(t *testing.T) {
	th := GetTheme("Nightfox")
	cases := map[notes.SyncStatus]string{
		notes.SyncConfirmed: th.Success,
		notes.SyncPending:   th.Warning,
		notes.SyncFailed:    th.Danger,
	}
	for status, want := range cases {
		if got := th.SyncColor(status); got != want {
			t.Fatalf("SyncColor(%s) = %q, want %q", status, got, want)
		}
	}
}

func TestLevelColor(t *testing.T) {
	th := GetTheme("Slate")
	if got := th.LevelColor("WARNING"); got != th.Warning {
		t.Fatalf("LevelColor(WARNING) = %q", got)
	}
	if got := th.LevelColor("error"); got != th.Danger {
		t.Fatalf("LevelColor(error) = %q", got)
	}
	if got := th.LevelColor("other"); got != th.Text {
		t.Fatalf("LevelColor(other) = %q", got)
	}
}

func TestBgStyleSpaces(t *testing.T) {
	b := NewBgStyle("#000000")
	if b.Spaces(0) != "" {
		t.Fatal("Spaces(0) should be empty")
	}
	if b.Render("", GetTheme("").Styles().Text) != "" {
		t.Fatal("Render of empty text should be empty")
	}
}

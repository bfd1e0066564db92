package normalize

import (
	"reflect"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/driftwatch/radar/internal/feeds"
)

func day(d int) time.Time {
	return time.Date(2026, 1, d, 12, 0, 0, 0, time.UTC)
}

func rawItem(uid string, d int, title string) feeds.RawItem {
	return feeds.RawItem{
		EventUID:   uid,
		Date:       day(d),
		Title:      title,
		URL:        "https://example.com/" + uid,
		RawText:    "text for " + title,
		SourceName: "Test Source",
		SourceTier: 2,
		Signal:     feeds.SignalResearch,
	}
}

func TestRunOrdering(t *testing.T) {
	raw := []feeds.RawItem{
		rawItem("c", 3, "third"),
		rawItem("a", 1, "first"),
		rawItem("b", 2, "second"),
	}

	items, rejected := Run(raw)
	if len(rejected) != 0 {
		t.Fatalf("expected no rejections, got %d", len(rejected))
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	got := []string{items[0].EventUID, items[1].EventUID, items[2].EventUID}
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected date-ascending order %v, got %v", want, got)
	}
}

func TestRunOrderingTieBreak(t *testing.T) {
	// Same date: ties break by event uid
	raw := []feeds.RawItem{
		rawItem("z", 1, "zed"),
		rawItem("a", 1, "ay"),
	}

	items, _ := Run(raw)
	if items[0].EventUID != "a" || items[1].EventUID != "z" {
		t.Errorf("expected uid tie-break a,z got %s,%s", items[0].EventUID, items[1].EventUID)
	}
}

func TestRunDedupLastSeenWins(t *testing.T) {
	raw := []feeds.RawItem{
		rawItem("a", 1, "old title"),
		rawItem("a", 1, "new title"),
	}

	items, rejected := Run(raw)
	if len(rejected) != 0 {
		t.Fatalf("expected no rejections, got %d", len(rejected))
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item after dedup, got %d", len(items))
	}
	if items[0].Title != "new title" {
		t.Errorf("expected last-seen item to win, got title %q", items[0].Title)
	}
}

func TestRunRejectsMalformed(t *testing.T) {
	tests := []struct {
		name  string
		item  feeds.RawItem
		field string
	}{
		{
			name:  "missing date",
			item:  feeds.RawItem{EventUID: "x", Title: "t", URL: "u", SourceName: "s"},
			field: "date",
		},
		{
			name:  "missing title",
			item:  feeds.RawItem{EventUID: "x", Date: day(1), URL: "u", SourceName: "s"},
			field: "title",
		},
		{
			name:  "missing uid and no fallback fields",
			item:  feeds.RawItem{Date: day(1), Title: "t"},
			field: "event_uid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, rejected := Run([]feeds.RawItem{tt.item, rawItem("ok", 2, "valid")})
			if len(items) != 1 || items[0].EventUID != "ok" {
				t.Fatalf("expected only the valid item to survive, got %d items", len(items))
			}
			if len(rejected) != 1 {
				t.Fatalf("expected 1 rejection, got %d", len(rejected))
			}
			if rejected[0].Field != tt.field {
				t.Errorf("expected rejection field %q, got %q", tt.field, rejected[0].Field)
			}
		})
	}
}

func TestRunCanonicalUIDFallback(t *testing.T) {
	item := feeds.RawItem{
		Date:       day(1),
		Title:      "no uid supplied",
		URL:        "https://example.com/x",
		SourceName: "Test Source",
	}

	items, rejected := Run([]feeds.RawItem{item})
	if len(rejected) != 0 {
		t.Fatalf("expected fallback uid, got rejection: %v", rejected[0])
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}

	want := CanonicalUID("Test Source", item.URL, item.Title, item.Date)
	if items[0].EventUID != want {
		t.Errorf("expected canonical uid %s, got %s", want, items[0].EventUID)
	}

	// Same identifying fields always derive the same uid
	again, _ := Run([]feeds.RawItem{item})
	if again[0].EventUID != items[0].EventUID {
		t.Error("canonical uid not stable across runs")
	}
}

func TestRunSummaryDerivation(t *testing.T) {
	item := rawItem("a", 1, "title")
	item.RawText = "  some   text\twith   odd\n\nspacing  "

	items, _ := Run([]feeds.RawItem{item})
	if items[0].Summary != "some text with odd spacing" {
		t.Errorf("expected collapsed whitespace, got %q", items[0].Summary)
	}

	// Summary falls back to title when raw text is empty
	item.RawText = ""
	items, _ = Run([]feeds.RawItem{item})
	if items[0].Summary != "title" {
		t.Errorf("expected title fallback, got %q", items[0].Summary)
	}
}

func TestRunSummaryCapKeepsValidUTF8(t *testing.T) {
	item := rawItem("a", 1, "title")
	// A two-byte rune straddling the cap byte must not be split
	item.RawText = strings.Repeat("a", 239) + "étt and more text to push past the cap"

	items, _ := Run([]feeds.RawItem{item})
	s := items[0].Summary
	if len(s) > 240 {
		t.Fatalf("summary exceeds cap: %d bytes", len(s))
	}
	if !utf8.ValidString(s) {
		t.Errorf("summary is not valid UTF-8: %q", s[len(s)-4:])
	}
	if len(s) != 239 {
		t.Errorf("expected cut before the straddling rune at 239 bytes, got %d", len(s))
	}
}

func TestRunIdempotent(t *testing.T) {
	raw := []feeds.RawItem{
		rawItem("b", 2, "second"),
		rawItem("a", 1, "first"),
		rawItem("a", 1, "first dup"),
	}

	first, _ := Run(raw)

	// Feed the normalized output back through as raw items
	back := make([]feeds.RawItem, len(first))
	for i, it := range first {
		back[i] = feeds.RawItem{
			EventUID:   it.EventUID,
			Date:       it.Date,
			Title:      it.Title,
			URL:        it.URL,
			RawText:    it.RawText,
			SourceName: it.SourceName,
			SourceTier: it.SourceTier,
			Signal:     it.Signal,
		}
	}

	second, rejected := Run(back)
	if len(rejected) != 0 {
		t.Fatalf("re-normalization rejected items: %v", rejected)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("re-normalizing an already-normalized set changed it")
	}
}

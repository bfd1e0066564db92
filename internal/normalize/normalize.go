// Package normalize canonicalizes raw items before clustering.
//
// Normalization deduplicates by event uid (last seen wins), rejects items
// missing required fields, and returns a deterministic ordering. Normalized
// items are build-local: they are discarded after clustering and never
// persisted on their own.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/driftwatch/radar/internal/feeds"
	"github.com/driftwatch/radar/internal/logging"
)

// summaryLen caps the derived summary at a fixed width so summaries are
// deterministic regardless of where the text came from.
const summaryLen = 240

// MalformedItemError reports a raw item that cannot enter the pipeline.
// Malformed items are logged and skipped; they never abort the batch.
type MalformedItemError struct {
	EventUID string // may be empty when the uid itself is missing
	Index    int    // position in the raw input
	Field    string // the missing/invalid field
}

func (e *MalformedItemError) Error() string {
	if e.EventUID != "" {
		return fmt.Sprintf("malformed item %s (index %d): missing %s", e.EventUID, e.Index, e.Field)
	}
	return fmt.Sprintf("malformed item at index %d: missing %s", e.Index, e.Field)
}

// Item is a normalized item: a raw item plus derived fields.
// One-to-one with the raw item that produced it.
type Item struct {
	EventUID   string
	Date       time.Time // always UTC
	Title      string
	URL        string
	Summary    string // whitespace-collapsed, capped at summaryLen
	RawText    string
	SourceName string
	SourceTier int
	Signal     feeds.SignalType
}

// CanonicalUID derives a stable uid for items that arrive without one.
// Matches the dedup key used by upstream connectors.
func CanonicalUID(sourceName, url, title string, date time.Time) string {
	base := fmt.Sprintf("%s|%s|%s|%s",
		sourceName,
		strings.TrimSpace(url),
		strings.TrimSpace(title),
		date.UTC().Format(time.RFC3339))
	sum := sha256.Sum256([]byte(base))
	return hex.EncodeToString(sum[:])[:32]
}

// Run normalizes a batch of raw items. It returns the normalized items in
// deterministic order (date ascending, ties broken by event uid) along with
// the rejections. Exact-duplicate uids resolve last-seen-wins.
func Run(raw []feeds.RawItem) ([]Item, []*MalformedItemError) {
	var rejected []*MalformedItemError

	byUID := make(map[string]Item, len(raw))
	for i, r := range raw {
		item, err := one(r, i)
		if err != nil {
			rejected = append(rejected, err)
			logging.Warn("normalize: skipping malformed item",
				"index", err.Index, "event_uid", err.EventUID, "field", err.Field)
			continue
		}
		byUID[item.EventUID] = item
	}

	items := make([]Item, 0, len(byUID))
	for _, item := range byUID {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.Before(items[j].Date)
		}
		return items[i].EventUID < items[j].EventUID
	})

	logging.Info("normalize: batch complete",
		"raw", len(raw), "normalized", len(items), "rejected", len(rejected))
	return items, rejected
}

// one normalizes a single raw item
func one(r feeds.RawItem, index int) (Item, *MalformedItemError) {
	uid := strings.TrimSpace(r.EventUID)
	title := strings.TrimSpace(r.Title)
	url := strings.TrimSpace(r.URL)

	if r.Date.IsZero() {
		return Item{}, &MalformedItemError{EventUID: uid, Index: index, Field: "date"}
	}
	if title == "" {
		return Item{}, &MalformedItemError{EventUID: uid, Index: index, Field: "title"}
	}
	if uid == "" {
		// Fall back to a canonical uid when the item is otherwise addressable.
		if r.SourceName == "" || url == "" {
			return Item{}, &MalformedItemError{Index: index, Field: "event_uid"}
		}
		uid = CanonicalUID(r.SourceName, url, title, r.Date)
	}

	rawText := strings.TrimSpace(r.RawText)
	summary := rawText
	if summary == "" {
		summary = title
	}
	summary = strings.Join(strings.Fields(summary), " ")
	if len(summary) > summaryLen {
		// Cut on a rune boundary so the cap never leaves invalid UTF-8
		cut := summaryLen
		for cut > 0 && !utf8.RuneStart(summary[cut]) {
			cut--
		}
		summary = summary[:cut]
	}

	tier := r.SourceTier
	if tier < 1 || tier > 3 {
		tier = 3
	}

	return Item{
		EventUID:   uid,
		Date:       r.Date.UTC(),
		Title:      title,
		URL:        url,
		Summary:    summary,
		RawText:    rawText,
		SourceName: r.SourceName,
		SourceTier: tier,
		Signal:     r.Signal,
	}, nil
}

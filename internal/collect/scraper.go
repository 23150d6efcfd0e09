package collect

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"tempo/internal/catalog"
	"tempo/internal/logging"
)

// Snapshot is one scraped observation of an item.
type Snapshot struct {
	ItemName       string
	ArtistName     string
	CollectionName string
	// Counters holds the successfully extracted counter values; a missing
	// key means the page did not yield that counter.
	Counters map[string]float64
}

// Scraper extracts a Snapshot for one item of a source.
type Scraper interface {
	Scrape(ctx context.Context, itemID string) (*Snapshot, error)
}

// NewScraper builds the scraper declared by the source's scraper type.
func NewScraper(logger *slog.Logger, fetcher *Fetcher, name string, source catalog.Source, counters []string) (Scraper, error) {
	base := &cssScraper{
		fetcher:  fetcher,
		source:   source,
		counters: counters,
		logger:   logging.NewComponentLogger(logger, "scrape").With(slog.String(logging.FieldSource, name)),
	}
	switch source.ScraperType() {
	case "css":
		return base, nil
	case "genie":
		return &genieScraper{cssScraper: base}, nil
	default:
		return nil, fmt.Errorf("source %s: unknown scraper type %q", name, source.Scraper)
	}
}

// cssScraper extracts every field through the catalog's CSS selectors.
type cssScraper struct {
	fetcher  *Fetcher
	source   catalog.Source
	counters []string
	logger   *slog.Logger
}

func (s *cssScraper) Scrape(ctx context.Context, itemID string) (*Snapshot, error) {
	doc, err := s.fetchDocument(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return s.extract(doc, itemID), nil
}

func (s *cssScraper) fetchDocument(ctx context.Context, itemID string) (*goquery.Document, error) {
	pageURL := strings.ReplaceAll(s.source.URL, "{id}", url.QueryEscape(itemID))
	body, err := s.fetcher.Get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page for item %s: %w", itemID, err)
	}
	return doc, nil
}

func (s *cssScraper) extract(doc *goquery.Document, itemID string) *Snapshot {
	snap := &Snapshot{
		ItemName:       s.selectText(doc, "item_name"),
		ArtistName:     s.selectText(doc, "artist_name"),
		CollectionName: s.selectText(doc, "collection_name"),
		Counters:       make(map[string]float64, len(s.counters)),
	}
	for _, counter := range s.counters {
		selector := s.source.Selectors[counter]
		if selector == "" {
			continue
		}
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if value, ok := ParseCount(text); ok {
			snap.Counters[counter] = value
		} else {
			s.logger.Debug("selector yielded no count",
				slog.String("item_id", itemID),
				slog.String("counter", counter),
				slog.String("text", text))
		}
	}
	return snap
}

func (s *cssScraper) selectText(doc *goquery.Document, field string) string {
	selector := s.source.Selectors[field]
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

// genieScraper extends the CSS scraper with the GENIE page's labelled-row
// fallbacks, which survive the periodic markup reshuffles that break
// selectors.
type genieScraper struct {
	*cssScraper
}

// genieKeywords maps counters to the row labels on GENIE song detail pages.
var genieKeywords = map[string]string{
	"total_plays":     "전체 재생수",
	"total_listeners": "전체 청취자수",
}

// maxLabelRowLength bounds the node text considered a labelled row, so
// container elements wrapping the whole page never match.
const maxLabelRowLength = 120

func (g *genieScraper) Scrape(ctx context.Context, itemID string) (*Snapshot, error) {
	doc, err := g.fetchDocument(ctx, itemID)
	if err != nil {
		return nil, err
	}
	snap := g.extract(doc, itemID)

	for _, counter := range g.counters {
		if _, ok := snap.Counters[counter]; ok {
			continue
		}
		keyword, ok := genieKeywords[counter]
		if !ok {
			continue
		}
		if value, ok := findLabelledCount(doc, keyword); ok {
			g.logger.Debug("selector missed, used labelled row",
				slog.String("item_id", itemID),
				slog.String("counter", counter))
			snap.Counters[counter] = value
		}
	}
	return snap, nil
}

func findLabelledCount(doc *goquery.Document, keyword string) (float64, bool) {
	var value float64
	var found bool
	doc.Find("li, dd, tr, p, div, span").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if len(text) > maxLabelRowLength || !strings.Contains(text, keyword) {
			return true
		}
		if v, ok := extractCount(strings.ReplaceAll(text, keyword, " ")); ok {
			value, found = v, true
			return false
		}
		return true
	})
	return value, found
}

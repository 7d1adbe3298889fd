package maps

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"MedReportAgent/internal/config"
	"MedReportAgent/internal/domain"
	"MedReportAgent/internal/ports"
)

const (
	userAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	maxResults = 20
)

var (
	ratingExpr  = regexp.MustCompile(`\d\.\d|\d`)
	reviewsExpr = regexp.MustCompile(`\((\d[\d,]*)\)`)
	// Single spaces only: newlines would let a match bridge the review
	// count and address lines into the phone line.
	phoneExpr = regexp.MustCompile(`\+?\d[\d ().-]{7,}\d`)
)

// Scraper pulls doctor and clinic listings off a maps search results page.
type Scraper struct {
	baseURL string
	client  *http.Client
}

var _ ports.CandidateSearcher = (*Scraper)(nil)

// NewScraper wires an HTTP client; a nil client gets a 20 second timeout.
func NewScraper(cfg config.SearchConfig, client *http.Client) *Scraper {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Scraper{baseURL: cfg.BaseURL, client: client}
}

// Search fetches the results page for "<specialty> in <city>" and extracts
// raw listings. Missing ratings and review counts stay "N/A"; the ranking
// engine decides what to do with them.
func (s *Scraper) Search(ctx context.Context, specialty, city string) ([]domain.CandidateListing, error) {
	pageURL, err := s.buildSearchURL(specialty, city)
	if err != nil {
		return nil, err
	}

	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	listings := extractListings(doc)
	if len(listings) == 0 {
		return nil, fmt.Errorf("no listings found for %q in %q", specialty, city)
	}
	return listings, nil
}

func (s *Scraper) buildSearchURL(specialty, city string) (string, error) {
	parsed, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid search base url %s: %w", s.baseURL, err)
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/") + "/search/" + url.PathEscape(specialty+" in "+city)
	return parsed.String(), nil
}

func (s *Scraper) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request results page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}
	return doc, nil
}

func extractListings(doc *goquery.Document) []domain.CandidateListing {
	var listings []domain.CandidateListing
	seen := map[string]struct{}{}

	doc.Find(`a[href*="/maps/place/"]`).EachWithBreak(func(i int, link *goquery.Selection) bool {
		if len(listings) >= maxResults {
			return false
		}

		name := strings.TrimSpace(link.AttrOr("aria-label", ""))
		if name == "" {
			name = strings.TrimSpace(link.Text())
		}
		if name == "" {
			return true
		}
		if _, ok := seen[name]; ok {
			return true
		}
		seen[name] = struct{}{}

		card := link.Closest(`div[role="article"]`)
		if card.Length() == 0 {
			card = link.Parent()
		}

		listings = append(listings, parseCard(name, card))
		return true
	})

	return listings
}

func parseCard(name string, card *goquery.Selection) domain.CandidateListing {
	listing := domain.CandidateListing{
		Name:    name,
		Address: "N/A",
		Phone:   "N/A",
		Rating:  "N/A",
		Reviews: "N/A",
	}

	ratingLabel := card.Find(`span[role="img"]`).First().AttrOr("aria-label", "")
	if m := ratingExpr.FindString(ratingLabel); m != "" {
		listing.Rating = m
	}

	cardText := card.Text()
	if m := reviewsExpr.FindStringSubmatch(cardText); m != nil {
		listing.Reviews = m[1]
	}
	if m := phoneExpr.FindString(cardText); m != "" {
		listing.Phone = strings.TrimSpace(m)
	}

	if addr := strings.TrimSpace(card.Find(`span[data-field="address"]`).First().Text()); addr != "" {
		listing.Address = addr
	}

	return listing
}

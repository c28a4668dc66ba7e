package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nova-hq/nova/internal/config"
)

// LinkPreview is scraped display metadata for a service's website.
type LinkPreview struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// LinkPreviewService fetches page metadata with a small TTL cache so the
// integration hub does not hammer third-party sites.
type LinkPreviewService struct {
	httpClient *http.Client
	ttl        time.Duration

	mu    sync.Mutex
	cache map[string]LinkPreview
}

func NewLinkPreviewService() *LinkPreviewService {
	return &LinkPreviewService{
		httpClient: &http.Client{Timeout: config.PreviewTimeout},
		ttl:        config.PreviewCacheDuration,
		cache:      make(map[string]LinkPreview),
	}
}

func (s *LinkPreviewService) Fetch(ctx context.Context, url string) (*LinkPreview, error) {
	s.mu.Lock()
	if cached, ok := s.cache[url]; ok && time.Since(cached.FetchedAt) < s.ttl {
		s.mu.Unlock()
		out := cached
		return &out, nil
	}
	s.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "nova-link-preview/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("page returned %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	preview := LinkPreview{
		URL:         url,
		Title:       extractTitle(doc),
		Description: extractDescription(doc),
		FetchedAt:   time.Now(),
	}

	s.mu.Lock()
	s.cache[url] = preview
	s.mu.Unlock()

	return &preview, nil
}

func extractTitle(doc *goquery.Document) string {
	if v, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

func extractDescription(doc *goquery.Document) string {
	if v, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	if v, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

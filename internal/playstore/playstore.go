// Package playstore scrapes Google Play app pages for metadata and the
// reviews embedded in the public details page.
package playstore

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/driftline/revmine/pkg/revmine/config"
	"github.com/driftline/revmine/pkg/revmine/review"
	"github.com/driftline/revmine/pkg/revmine/scrape"
)

const detailsURL = "https://play.google.com/store/apps/details?id=%s&hl=en&gl=us&showAllReviews=true"

// AppInfo is the metadata scraped from an app's details page.
type AppInfo struct {
	PackageID string  `json:"package_id"`
	Title     string  `json:"title"`
	Developer string  `json:"developer"`
	Genre     string  `json:"genre"`
	Rating    float64 `json:"rating"`
	URL       string  `json:"url"`
	ScrapedAt string  `json:"scraped_at"`
}

// Client scrapes the public Play Store web pages.
type Client struct {
	httpClient *http.Client
	limiter    *scrape.Limiter
	retry      scrape.RetryPolicy
	userAgent  string
	logger     *log.Logger
	now        func() time.Time
}

// NewClient builds a Play Store client from the scrape settings.
// Logger may be nil.
func NewClient(cfg config.Scrape, logger *log.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    scrape.NewLimiter(cfg.RequestDelay),
		retry:      scrape.RetryPolicy{MaxAttempts: cfg.MaxRetries, Backoff: cfg.RetryBackoff},
		userAgent:  cfg.UserAgent,
		logger:     logger,
		now:        time.Now,
	}
}

// Platform implements scrape.Scraper.
func (c *Client) Platform() string { return "play_store" }

// ValidateConfig requires a name and a package ID.
func (c *Client) ValidateConfig(app config.App) error {
	if app.Name == "" {
		return fmt.Errorf("app has no name")
	}
	if app.PackageID == "" {
		return fmt.Errorf("app %s has no package_id", app.Name)
	}
	return nil
}

// Scrape fetches the app's details page and extracts up to limit
// reviews from it.
func (c *Client) Scrape(ctx context.Context, app config.App, limit int) ([]review.Review, error) {
	if err := c.ValidateConfig(app); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	doc, err := c.fetchPage(ctx, app.PackageID)
	if err != nil {
		return nil, err
	}

	reviews := c.parseReviews(doc, app)
	if len(reviews) > limit {
		reviews = reviews[:limit]
	}
	c.logf("scraped %d play store reviews for %s", len(reviews), app.Name)
	return reviews, nil
}

// AppMetadata fetches and parses the app's details page metadata.
func (c *Client) AppMetadata(ctx context.Context, packageID string) (AppInfo, error) {
	doc, err := c.fetchPage(ctx, packageID)
	if err != nil {
		return AppInfo{}, err
	}

	info := AppInfo{
		PackageID: packageID,
		URL:       "https://play.google.com/store/apps/details?id=" + url.QueryEscape(packageID),
		ScrapedAt: c.now().UTC().Format(review.TimeLayout),
	}
	info.Title = strings.TrimSpace(doc.Find(`h1[itemprop="name"]`).First().Text())
	info.Developer = strings.TrimSpace(doc.Find(`a[href*="/store/apps/dev"]`).First().Text())
	info.Genre = strings.TrimSpace(doc.Find(`a[itemprop="genre"]`).First().Text())
	if v, ok := doc.Find(`div[itemprop="starRating"]`).First().Attr("aria-label"); ok {
		info.Rating = parseLeadingFloat(v)
	}
	if info.Title == "" {
		return info, fmt.Errorf("app %s: details page had no title", packageID)
	}
	return info, nil
}

func (c *Client) fetchPage(ctx context.Context, packageID string) (*goquery.Document, error) {
	u := fmt.Sprintf(detailsURL, url.QueryEscape(packageID))

	var doc *goquery.Document
	err := c.retry.Do(ctx, func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("GET %s: HTTP %d", u, resp.StatusCode)
		}

		doc, err = goquery.NewDocumentFromReader(resp.Body)
		return err
	})
	return doc, err
}

// parseReviews extracts the review blocks present on the details page.
// Play Store reviews carry no title, and the platform marks them all
// as verified purchases.
func (c *Client) parseReviews(doc *goquery.Document, app config.App) []review.Review {
	scrapedAt := c.now().UTC().Format(review.TimeLayout)
	sourceURL := "https://play.google.com/store/apps/details?id=" + url.QueryEscape(app.PackageID)

	var reviews []review.Review
	doc.Find("div[data-review-id]").Each(func(_ int, sel *goquery.Selection) {
		id, _ := sel.Attr("data-review-id")
		if id == "" {
			return
		}

		content := strings.TrimSpace(sel.Find(`span[jsname]`).Last().Text())
		if content == "" {
			content = strings.TrimSpace(sel.Text())
		}

		r := review.Review{
			ReviewID:  "playstore_" + id,
			Platform:  "play_store",
			AppName:   app.Name,
			AppID:     app.PackageID,
			Content:   content,
			UserID:    id,
			Username:  "Anonymous",
			Verified:  true,
			ScrapedAt: scrapedAt,
			SourceURL: sourceURL,
		}
		if name := strings.TrimSpace(sel.Find("div > div > span").First().Text()); name != "" {
			r.Username = name
		}
		if v, ok := sel.Find("div[role=img]").First().Attr("aria-label"); ok {
			if stars := parseLeadingInt(v); stars >= 1 && stars <= 5 {
				r.Rating = &stars
			}
		}
		if date := strings.TrimSpace(sel.Find("span.bp9Aid").First().Text()); date != "" {
			if t, err := time.Parse("January 2, 2006", date); err == nil {
				r.ReviewDate = t.Format(review.TimeLayout)
			}
		}
		reviews = append(reviews, r)
	})
	return reviews
}

// parseLeadingFloat pulls the first decimal number out of a label like
// "Rated 4.5 stars out of five stars".
func parseLeadingFloat(s string) float64 {
	for _, field := range strings.Fields(s) {
		if v, err := strconv.ParseFloat(field, 64); err == nil {
			return v
		}
	}
	return 0
}

func parseLeadingInt(s string) int {
	for _, field := range strings.Fields(s) {
		if v, err := strconv.Atoi(field); err == nil {
			return v
		}
	}
	return 0
}

func (c *Client) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

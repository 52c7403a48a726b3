// Package reddit scrapes app mentions from Reddit's public JSON
// listings, turning posts and comments into review records.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/driftline/revmine/pkg/revmine/config"
	"github.com/driftline/revmine/pkg/revmine/review"
	"github.com/driftline/revmine/pkg/revmine/scrape"
)

const (
	apiBase          = "https://www.reddit.com"
	commentsPerPost  = 5
	minCommentLength = 20
)

// generalSubreddits are searched for every app on top of the
// per-category mapping.
var generalSubreddits = []string{"apps", "AppHookup", "androidapps", "software"}

// sentiment word lists used only to derive a star-rating proxy for
// unrated posts. The pipeline reclassifies sentiment properly later.
var (
	positiveWords = []string{"good", "great", "excellent", "amazing", "love", "best", "perfect", "awesome", "fantastic"}
	negativeWords = []string{"bad", "terrible", "awful", "hate", "worst", "horrible", "disgusting", "useless", "broken"}
)

// Client scrapes Reddit without authentication, within the public API
// rate limits.
type Client struct {
	httpClient *http.Client
	limiter    *scrape.Limiter
	retry      scrape.RetryPolicy
	userAgent  string
	subreddits map[string][]string
	logger     *log.Logger
	now        func() time.Time
}

// NewClient builds a Reddit client from the scrape settings and the
// app-to-subreddit mapping. Logger may be nil.
func NewClient(cfg config.Scrape, subreddits map[string][]string, logger *log.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    scrape.NewLimiter(cfg.RequestDelay),
		retry:      scrape.RetryPolicy{MaxAttempts: cfg.MaxRetries, Backoff: cfg.RetryBackoff},
		userAgent:  cfg.UserAgent,
		subreddits: subreddits,
		logger:     logger,
		now:        time.Now,
	}
}

// Platform implements scrape.Scraper.
func (c *Client) Platform() string { return "reddit" }

// ValidateConfig requires a name and at least one search keyword.
func (c *Client) ValidateConfig(app config.App) error {
	if app.Name == "" {
		return fmt.Errorf("app has no name")
	}
	if len(app.Keywords) == 0 {
		return fmt.Errorf("app %s has no search keywords", app.Name)
	}
	return nil
}

// Scrape searches the relevant subreddits for posts mentioning the app
// and collects matching posts plus their top comments, up to limit.
func (c *Client) Scrape(ctx context.Context, app config.App, limit int) ([]review.Review, error) {
	if err := c.ValidateConfig(app); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	subs := c.relevantSubreddits(app)
	perSub := limit / len(subs)
	if perSub < 1 {
		perSub = 1
	}

	var reviews []review.Review
	for _, sub := range subs {
		if len(reviews) >= limit {
			break
		}
		posts, err := c.searchSubreddit(ctx, sub, app.Keywords, perSub)
		if err != nil {
			if ctx.Err() != nil {
				return reviews, ctx.Err()
			}
			c.logf("search r/%s failed: %v", sub, err)
			continue
		}
		for _, post := range posts {
			if len(reviews) >= limit {
				break
			}
			if r, ok := c.postReview(post, app); ok {
				reviews = append(reviews, r)
			}
			comments, err := c.fetchComments(ctx, post, app)
			if err != nil {
				c.logf("fetch comments for %s failed: %v", post.ID, err)
				continue
			}
			reviews = append(reviews, comments...)
		}
	}

	if len(reviews) > limit {
		reviews = reviews[:limit]
	}
	c.logf("scraped %d reddit posts/comments for %s", len(reviews), app.Name)
	return reviews, nil
}

// relevantSubreddits combines the app mapping, the app's own name, and
// the general app-discussion subreddits, deduplicated in that order.
func (c *Client) relevantSubreddits(app config.App) []string {
	seen := make(map[string]struct{})
	var subs []string
	add := func(name string) {
		name = strings.ToLower(name)
		if _, ok := seen[name]; ok || name == "" {
			return
		}
		seen[name] = struct{}{}
		subs = append(subs, name)
	}

	key := strings.ToLower(app.Name)
	for _, s := range c.subreddits[key] {
		add(s)
	}
	add(app.Name)
	for _, s := range generalSubreddits {
		add(s)
	}
	return subs
}

// listing mirrors the subset of Reddit's JSON listing envelope we use.
type listing struct {
	Data struct {
		Children []struct {
			Kind string `json:"kind"`
			Data thing  `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type thing struct {
	ID          string  `json:"id"`
	Subreddit   string  `json:"subreddit"`
	Author      string  `json:"author"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Body        string  `json:"body"`
	CreatedUTC  float64 `json:"created_utc"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Permalink   string  `json:"permalink"`
}

func (c *Client) searchSubreddit(ctx context.Context, sub string, keywords []string, limit int) ([]thing, error) {
	query := strings.Join(keywords, " OR ")
	u := fmt.Sprintf("%s/r/%s/search.json?q=%s&restrict_sr=1&sort=relevance&limit=%d",
		apiBase, url.PathEscape(sub), url.QueryEscape(query), limit)

	var result listing
	if err := c.getJSON(ctx, u, &result); err != nil {
		return nil, err
	}

	var posts []thing
	for _, child := range result.Data.Children {
		if child.Kind == "t3" {
			posts = append(posts, child.Data)
		}
	}
	return posts, nil
}

func (c *Client) fetchComments(ctx context.Context, post thing, app config.App) ([]review.Review, error) {
	u := fmt.Sprintf("%s%s.json?limit=%d", apiBase, post.Permalink, commentsPerPost)

	var pages []listing
	if err := c.getJSON(ctx, u, &pages); err != nil {
		return nil, err
	}
	if len(pages) < 2 {
		return nil, nil
	}

	var reviews []review.Review
	for _, child := range pages[1].Data.Children {
		if child.Kind != "t1" {
			continue
		}
		if r, ok := c.commentReview(child.Data, post, app); ok {
			reviews = append(reviews, r)
		}
		if len(reviews) >= commentsPerPost {
			break
		}
	}
	return reviews, nil
}

// getJSON fetches a URL with rate limiting and retries, decoding the
// response body into out.
func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	return c.retry.Do(ctx, func() error {
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
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("GET %s: HTTP %d", u, resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})
}

func (c *Client) postReview(post thing, app config.App) (review.Review, bool) {
	text := post.Title + " " + post.SelfText
	if !mentionsAny(text, app.Keywords) {
		return review.Review{}, false
	}

	content := stripHTML(post.SelfText)
	sentiment := simpleSentiment(post.Title + " " + content)
	rating := sentimentRating(sentiment)

	return review.Review{
		ReviewID:     "reddit_post_" + post.ID,
		Platform:     "reddit",
		AppName:      app.Name,
		Content:      content,
		Title:        post.Title,
		Rating:       &rating,
		UserID:       authorOrDeleted(post.Author),
		Username:     authorOrDeleted(post.Author),
		ReviewDate:   time.Unix(int64(post.CreatedUTC), 0).UTC().Format(review.TimeLayout),
		ScrapedAt:    c.now().UTC().Format(review.TimeLayout),
		HelpfulCount: post.Score,
		ReplyCount:   post.NumComments,
		SourceURL:    "https://reddit.com" + post.Permalink,
	}, true
}

func (c *Client) commentReview(comment, post thing, app config.App) (review.Review, bool) {
	if len(comment.Body) <= minCommentLength || !mentionsAny(comment.Body, app.Keywords) {
		return review.Review{}, false
	}

	content := stripHTML(comment.Body)
	sentiment := simpleSentiment(content)
	rating := sentimentRating(sentiment)

	title := post.Title
	if len(title) > 50 {
		title = title[:50]
	}

	return review.Review{
		ReviewID:     "reddit_comment_" + comment.ID,
		Platform:     "reddit",
		AppName:      app.Name,
		Content:      content,
		Title:        "Comment on: " + title + "...",
		Rating:       &rating,
		UserID:       authorOrDeleted(comment.Author),
		Username:     authorOrDeleted(comment.Author),
		ReviewDate:   time.Unix(int64(comment.CreatedUTC), 0).UTC().Format(review.TimeLayout),
		ScrapedAt:    c.now().UTC().Format(review.TimeLayout),
		HelpfulCount: comment.Score,
		SourceURL:    "https://reddit.com" + comment.Permalink,
	}, true
}

func authorOrDeleted(author string) string {
	if author == "" {
		return "deleted"
	}
	return author
}

func mentionsAny(text string, keywords []string) bool {
	lowered := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// simpleSentiment is a crude [-1,1] score used only to synthesize a
// star rating for sources that have none.
func simpleSentiment(text string) float64 {
	lowered := strings.ToLower(text)
	positive, negative := 0, 0
	for _, w := range positiveWords {
		if strings.Contains(lowered, w) {
			positive++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lowered, w) {
			negative++
		}
	}

	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	sentiment := float64(positive-negative) / float64(words) * 10
	if sentiment > 1 {
		sentiment = 1
	}
	if sentiment < -1 {
		sentiment = -1
	}
	return sentiment
}

// sentimentRating maps a [-1,1] sentiment score onto 1..5 stars.
func sentimentRating(score float64) int {
	switch {
	case score >= 0.5:
		return 5
	case score >= 0.2:
		return 4
	case score >= -0.2:
		return 3
	case score >= -0.5:
		return 2
	default:
		return 1
	}
}

// stripHTML extracts the text content from HTML-laced bodies. Parse
// failures fall back to the raw string.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			extractText(child)
		}
	}
	extractText(doc)
	return buf.String()
}

func (c *Client) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	}
}

// Package elibrary talks to the Supreme Court eLibrary archive. The
// archive is plain HTML: a bookshelf index of year/month pages, month
// pages listing decisions, and decision pages carrying the full text.
package elibrary

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/jurisearch/backend/internal/domain/apperr"
	"github.com/jurisearch/backend/internal/domain/entity"
)

const (
	indexPath = "/thebookshelf/1"
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

var (
	docIDRe = regexp.MustCompile(`/(\d+)(?:\?|$)`)
	monthRe = regexp.MustCompile(`(?i)^(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)$`)

	// markers the archive serves instead of content when it blocks a
	// client
	blockMarkers = []string{"captcha", "access denied", "unusual traffic", "temporarily blocked"}
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	minDelay   time.Duration
	logger     *zap.Logger

	mu          sync.Mutex
	lastRequest time.Time
}

func NewClient(baseURL string, minDelay time.Duration, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		minDelay:   minDelay,
		logger:     logger,
	}
}

// ListMonths scrapes the bookshelf index: <h2> year headings followed
// by month anchors until the next heading.
func (c *Client) ListMonths(ctx context.Context, yearFrom, yearTo int) ([]entity.MonthRef, error) {
	doc, err := c.getDocument(ctx, c.baseURL+indexPath)
	if err != nil {
		return nil, err
	}

	var months []entity.MonthRef
	doc.Find("h2").Each(func(_ int, heading *goquery.Selection) {
		year, err := strconv.Atoi(strings.TrimSpace(heading.Text()))
		if err != nil || year < yearFrom || year > yearTo {
			return
		}
		heading.NextUntil("h2").Each(func(_ int, sibling *goquery.Selection) {
			if goquery.NodeName(sibling) != "a" {
				return
			}
			label := strings.TrimSpace(sibling.Text())
			href, ok := sibling.Attr("href")
			if !ok || !monthRe.MatchString(label) {
				return
			}
			months = append(months, entity.MonthRef{
				Year:  year,
				Month: label,
				URL:   c.absoluteURL(href),
			})
		})
	})
	return months, nil
}

// ListDecisions scrapes one month page for decision entries: docket
// number in <strong>, title in <small>, doc id as the trailing numeric
// path segment of the link.
func (c *Client) ListDecisions(ctx context.Context, monthURL string, max int) ([]entity.PendingDecision, error) {
	doc, err := c.getDocument(ctx, monthURL)
	if err != nil {
		return nil, err
	}

	var decisions []entity.PendingDecision
	doc.Find("div#left ul li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
		if max > 0 && len(decisions) >= max {
			return false
		}
		anchor := li.Find("a[href]").First()
		href, ok := anchor.Attr("href")
		if !ok {
			return true
		}
		idMatch := docIDRe.FindStringSubmatch(href)
		if idMatch == nil {
			return true
		}
		decisions = append(decisions, entity.PendingDecision{
			DocID:     idMatch[1],
			DocketNo:  strings.TrimSpace(anchor.Find("strong").First().Text()),
			Title:     strings.Join(strings.Fields(anchor.Find("small").First().Text()), " "),
			SourceURL: c.absoluteURL(href),
		})
		return true
	})
	return decisions, nil
}

// FetchDecisionText retrieves the decision body. The archive serves
// decisions as HTML; the content pane is div#left.
func (c *Client) FetchDecisionText(ctx context.Context, url string) (string, error) {
	doc, err := c.getDocument(ctx, url)
	if err != nil {
		return "", err
	}

	content := doc.Find("div#left").First()
	if content.Length() == 0 {
		content = doc.Selection
	}
	var lines []string
	content.Find("p, h1, h2, h3, li, blockquote").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text != "" {
			lines = append(lines, text)
		}
	})
	if len(lines) == 0 {
		text := strings.TrimSpace(content.Text())
		if text == "" {
			return "", apperr.Newf(apperr.KindConnector, "decision page %s has no content", url)
		}
		return text, nil
	}
	return strings.Join(lines, "\n"), nil
}

func (c *Client) getDocument(ctx context.Context, url string) (*goquery.Document, error) {
	c.waitPoliteness()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConnector, "build request", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConnector, "fetch "+url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, apperr.Newf(apperr.KindRateLimited, "archive rate-limited request to %s", url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperr.Newf(apperr.KindConnector, "fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConnector, "read response body", err)
	}
	if marker := detectBlockPage(body); marker != "" {
		c.logger.Warn("block page detected", zap.String("url", url), zap.String("marker", marker))
		return nil, apperr.Newf(apperr.KindBlocked, "archive served a block page (%q) for %s", marker, url)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConnector, "parse HTML", err)
	}
	return doc, nil
}

// waitPoliteness spaces requests at least minDelay apart across all
// goroutines sharing the client.
func (c *Client) waitPoliteness() {
	c.mu.Lock()
	wait := c.minDelay - time.Since(c.lastRequest)
	if wait > 0 {
		c.lastRequest = c.lastRequest.Add(c.minDelay)
	} else {
		c.lastRequest = time.Now()
	}
	c.mu.Unlock()

	if wait > 0 {
		time.Sleep(wait)
	}
}

func (c *Client) absoluteURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return c.baseURL + href
}

func detectBlockPage(body []byte) string {
	if len(body) > 64<<10 {
		// block pages are small; do not scan megabytes of decisions
		return ""
	}
	lower := strings.ToLower(string(body))
	for _, marker := range blockMarkers {
		if strings.Contains(lower, marker) {
			return marker
		}
	}
	return ""
}

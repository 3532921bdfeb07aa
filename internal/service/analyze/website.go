package analyze

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/aegatekeeper/backend/internal/apperr"
	"github.com/aegatekeeper/backend/internal/service/ai"
)

const (
	maxBodyBytes    = 2 << 20
	maxPreviewChars = 2000
	maxHeadings     = 5
	maxParagraphs   = 10

	// Below this there is not enough text to be worth an LLM call.
	summaryMinChars = 50
)

// WebsiteReport is what the doorkeeper learns about a guest's site. Error
// carries a transport classification instead of an HTTP error status, so a
// dead link degrades the conversation rather than breaking it.
type WebsiteReport struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	RawHTML     string `json:"rawHtml,omitempty"`
	Error       string `json:"error,omitempty"`
}

// WebsiteAnalyzer fetches a guest-supplied URL and condenses it into a
// title and a short description. The AI service is optional; without it the
// description falls back to the page's own metadata.
type WebsiteAnalyzer struct {
	aiService  *ai.Service
	httpClient *http.Client
}

// NewWebsiteAnalyzer builds an analyzer with the given fetch timeout.
// aiService may be nil.
func NewWebsiteAnalyzer(aiService *ai.Service, timeout time.Duration) *WebsiteAnalyzer {
	return &WebsiteAnalyzer{
		aiService:  aiService,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Analyze fetches and summarizes the page at url. Fetch failures are
// reported inside the result, never as a Go error.
func (a *WebsiteAnalyzer) Analyze(ctx context.Context, url string, includeRaw bool) WebsiteReport {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "https://" + url
	}

	body, err := a.fetch(ctx, url)
	if err != nil {
		classified := apperr.ClassifyTransport(err)
		log.Printf("[analyze] website fetch failed: url=%s kind=%v", url, classified.Kind)
		return WebsiteReport{Error: classified.Error()}
	}

	page := parsePage(body)
	report := WebsiteReport{
		Title:       page.title,
		Description: page.metaDescription,
	}
	if includeRaw {
		report.RawHTML = body
	}

	if preview := page.preview(); len(preview) > summaryMinChars && a.aiService != nil {
		summary, err := a.aiService.Summarize(ctx, websiteSummaryPrompt(page.title, preview), 200)
		if err != nil {
			log.Printf("[analyze] website summary failed, using metadata: %v", err)
		} else if summary != "" {
			report.Description = summary
		}
	}
	if report.Description == "" {
		report.Description = page.title
	}
	return report
}

func (a *WebsiteAnalyzer) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; gatekeeper/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

func websiteSummaryPrompt(title, preview string) string {
	return fmt.Sprintf(
		"Summarize what this website is about in 2-3 sentences. Be concrete and factual.\n\nTitle: %s\n\nContent:\n%s",
		title, preview,
	)
}

// pageContent holds the pieces of a parsed page the analyzer cares about.
type pageContent struct {
	title           string
	metaDescription string
	headings        []string
	paragraphs      []string
}

// preview joins the first headings and paragraphs into a capped text block
// for the summary prompt.
func (p pageContent) preview() string {
	var parts []string
	parts = append(parts, p.headings...)
	parts = append(parts, p.paragraphs...)
	joined := strings.Join(parts, "\n")
	if len(joined) > maxPreviewChars {
		joined = joined[:maxPreviewChars]
	}
	return strings.TrimSpace(joined)
}

func parsePage(rawHTML string) pageContent {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		// html.Parse recovers from almost anything; an error means the
		// reader failed, which cannot happen with a strings.Reader.
		return pageContent{}
	}

	var page pageContent
	walkPage(doc, &page, 0)
	return page
}

func walkPage(n *html.Node, page *pageContent, depth int) {
	if depth > 50 {
		return
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "iframe", "svg":
			return
		case "title":
			if page.title == "" {
				page.title = strings.TrimSpace(nodeText(n))
			}
			return
		case "meta":
			if getAttr(n, "name") == "description" && page.metaDescription == "" {
				page.metaDescription = strings.TrimSpace(getAttr(n, "content"))
			}
			return
		case "h1", "h2", "h3", "h4", "h5", "h6":
			if len(page.headings) < maxHeadings {
				if text := strings.TrimSpace(nodeText(n)); text != "" {
					page.headings = append(page.headings, text)
				}
			}
			return
		case "p":
			if len(page.paragraphs) < maxParagraphs {
				if text := strings.TrimSpace(nodeText(n)); text != "" {
					page.paragraphs = append(page.paragraphs, text)
				}
			}
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkPage(c, page, depth+1)
	}
}

// nodeText flattens the text content under a node.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

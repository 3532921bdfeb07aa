package analyze

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
<title>Chaos Computer Collective</title>
<meta name="description" content="A Berlin collective building generative art installations.">
<style>body { color: red }</style>
<script>console.log("ignored")</script>
</head>
<body>
<h1>We make machines dream</h1>
<h2>Upcoming shows</h2>
<p>Our installations have toured twelve cities.</p>
<p>Founded in 2019 by three friends with a soldering iron.</p>
<noscript>enable javascript</noscript>
</body>
</html>`

func TestParsePage(t *testing.T) {
	page := parsePage(samplePage)

	if page.title != "Chaos Computer Collective" {
		t.Errorf("title = %q", page.title)
	}
	if page.metaDescription != "A Berlin collective building generative art installations." {
		t.Errorf("meta description = %q", page.metaDescription)
	}
	if len(page.headings) != 2 || page.headings[0] != "We make machines dream" {
		t.Errorf("headings = %v", page.headings)
	}
	if len(page.paragraphs) != 2 {
		t.Errorf("paragraphs = %v", page.paragraphs)
	}
	preview := page.preview()
	if strings.Contains(preview, "console.log") || strings.Contains(preview, "enable javascript") {
		t.Errorf("preview leaked script/noscript content: %q", preview)
	}
}

func TestParsePageCapsCollection(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("<html><body>")
	for i := 0; i < 20; i++ {
		sb.WriteString("<h2>heading</h2><p>")
		sb.WriteString(strings.Repeat("words and more words ", 20))
		sb.WriteString("</p>")
	}
	sb.WriteString("</body></html>")

	page := parsePage(sb.String())
	if len(page.headings) > maxHeadings {
		t.Errorf("collected %d headings, cap is %d", len(page.headings), maxHeadings)
	}
	if len(page.paragraphs) > maxParagraphs {
		t.Errorf("collected %d paragraphs, cap is %d", len(page.paragraphs), maxParagraphs)
	}
	if got := len(page.preview()); got > maxPreviewChars {
		t.Errorf("preview length %d exceeds cap %d", got, maxPreviewChars)
	}
}

func TestWebsiteAnalyzeWithoutModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	analyzer := NewWebsiteAnalyzer(nil, 5*time.Second)
	report := analyzer.Analyze(context.Background(), srv.URL, false)

	if report.Error != "" {
		t.Fatalf("unexpected error: %s", report.Error)
	}
	if report.Title != "Chaos Computer Collective" {
		t.Errorf("title = %q", report.Title)
	}
	// Without a model the description falls back to page metadata.
	if report.Description != "A Berlin collective building generative art installations." {
		t.Errorf("description = %q", report.Description)
	}
	if report.RawHTML != "" {
		t.Error("rawHtml should be omitted unless requested")
	}
}

func TestWebsiteAnalyzeIncludeRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	report := NewWebsiteAnalyzer(nil, 5*time.Second).Analyze(context.Background(), srv.URL, true)
	if !strings.Contains(report.RawHTML, "<title>Chaos Computer Collective</title>") {
		t.Error("rawHtml missing from report")
	}
}

func TestWebsiteAnalyzeUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	report := NewWebsiteAnalyzer(nil, 2*time.Second).Analyze(context.Background(), url, false)
	if report.Error == "" {
		t.Fatal("expected a classified error for a closed server")
	}
	if !strings.Contains(report.Error, "connection-refused") {
		t.Errorf("error should carry the transport category, got %q", report.Error)
	}
}

func TestWebsiteAnalyzeHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	report := NewWebsiteAnalyzer(nil, 2*time.Second).Analyze(context.Background(), srv.URL, false)
	if report.Error == "" {
		t.Error("expected error field for a 404 page")
	}
}

func TestWebsiteAnalyzeSchemePrefix(t *testing.T) {
	// A bare hostname gets https:// prepended; the resulting lookup fails
	// but must come back classified, not panic.
	report := NewWebsiteAnalyzer(nil, 1*time.Second).Analyze(context.Background(), "definitely-not-a-real-host.invalid", false)
	if report.Error == "" {
		t.Error("expected error for unresolvable host")
	}
}

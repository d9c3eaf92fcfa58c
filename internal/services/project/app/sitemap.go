package app

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"github.com/inkhorn/inkhorn/internal/platform/id"
	"github.com/inkhorn/inkhorn/internal/services/project/domain"
	"github.com/inkhorn/inkhorn/internal/services/worker/queue"
	"golang.org/x/net/html"
)

// maxSitemapPages bounds how many pages one ingestion run discovers.
const maxSitemapPages = 50

// IngestSitemap discovers project pages and queues per-page scans. The
// sitemap URL is tried first; when the project has none, links are pulled
// from the scraped homepage markup instead.
func (a *App) IngestSitemap(ctx context.Context, projectID string) error {
	project, err := a.store.GetProjectByID(ctx, projectID)
	if err != nil {
		return err
	}

	var pageURLs []string
	if strings.TrimSpace(project.SitemapURL) != "" {
		page, err := a.reader.Fetch(ctx, project.SitemapURL)
		if err != nil {
			return fmt.Errorf("fetch sitemap: %w", err)
		}
		pageURLs = ParseSitemap(page.Markdown)
	}
	if len(pageURLs) == 0 && project.Scraped.Markdown != "" {
		pageURLs = ExtractLinks(project.Scraped.Markdown, project.URL)
	}
	if len(pageURLs) > maxSitemapPages {
		pageURLs = pageURLs[:maxSitemapPages]
	}

	now := a.now()
	for _, pageURL := range pageURLs {
		normalized, err := domain.NormalizeURL(pageURL)
		if err != nil || normalized == project.URL {
			continue
		}
		page, err := a.store.UpsertPage(ctx, domain.Page{
			ID:        id.MustNewID(),
			ProjectID: project.ID,
			URL:       normalized,
			Source:    domain.PageSourceSitemap,
			TypeGuess: string(domain.GuessPageType(normalized)),
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		if page.Scraped.ScrapedAt.IsZero() {
			if _, err := a.queue.Enqueue(ctx, queue.EnqueueInput{
				Type:      TaskPageScan,
				Payload:   PagePayload{PageID: page.ID},
				DedupeKey: TaskPageScan + ":" + page.ID,
			}); err != nil {
				return fmt.Errorf("queue page scan: %w", err)
			}
		}
	}
	return nil
}

type sitemapURLSet struct {
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// ParseSitemap extracts page URLs from sitemap XML. Nested sitemap index
// entries are returned alongside page URLs; callers may fetch them in a later
// run. Non-XML input yields no URLs.
func ParseSitemap(content string) []string {
	var parsed sitemapURLSet
	if err := xml.Unmarshal([]byte(content), &parsed); err != nil {
		return nil
	}
	urls := make([]string, 0, len(parsed.URLs)+len(parsed.Sitemaps))
	for _, entry := range parsed.URLs {
		if loc := strings.TrimSpace(entry.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}
	for _, entry := range parsed.Sitemaps {
		if loc := strings.TrimSpace(entry.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}
	return urls
}

// ExtractLinks pulls same-host links out of an HTML or markdown document.
func ExtractLinks(content, baseURL string) []string {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var links []string
	appendLink := func(href string) {
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "mailto:") {
			return
		}
		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		if resolved.Host != base.Host {
			return
		}
		resolved.Fragment = ""
		link := strings.TrimSuffix(resolved.String(), "/")
		if link == "" || seen[link] {
			return
		}
		seen[link] = true
		links = append(links, link)
	}

	doc, err := html.Parse(strings.NewReader(content))
	if err == nil {
		var walk func(*html.Node)
		walk = func(node *html.Node) {
			if node.Type == html.ElementNode && node.Data == "a" {
				for _, attr := range node.Attr {
					if attr.Key == "href" {
						appendLink(attr.Val)
					}
				}
			}
			for child := node.FirstChild; child != nil; child = child.NextSibling {
				walk(child)
			}
		}
		walk(doc)
	}

	// Markdown links survive the HTML parse as text; pick them up too.
	for _, match := range markdownLinks(content) {
		appendLink(match)
	}
	return links
}

func markdownLinks(content string) []string {
	var links []string
	rest := content
	for {
		start := strings.Index(rest, "](")
		if start < 0 {
			break
		}
		rest = rest[start+2:]
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			break
		}
		links = append(links, rest[:end])
		rest = rest[end+1:]
	}
	return links
}

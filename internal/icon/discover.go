package icon

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// maxPageBytes bounds how much of a page is read while looking for
// icon links.
const maxPageBytes = 512 * 1024

// Discoverer finds favicon candidates for a page URL.
type Discoverer struct {
	httpClient *http.Client
}

// NewDiscoverer creates a discoverer with its own HTTP client.
func NewDiscoverer(timeout time.Duration) *Discoverer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Discoverer{httpClient: &http.Client{Timeout: timeout}}
}

// Discover fetches pageURL and returns icon candidates in preference
// order: every <link rel="icon" | "shortcut icon" | "apple-touch-icon">
// resolved against the page URL, then the /favicon.ico root fallback.
// The root fallback is returned even when the page fetch fails, so a
// dead page still yields a usable guess.
func (d *Discoverer) Discover(ctx context.Context, pageURL string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	rootIcon := base.Scheme + "://" + base.Host + "/favicon.ico"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return []string{rootIcon}, nil
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return []string{rootIcon}, nil
	}

	candidates := extractIconLinks(io.LimitReader(resp.Body, maxPageBytes), base)

	seen := map[string]bool{}
	var out []string
	for _, c := range append(candidates, rootIcon) {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out, nil
}

// extractIconLinks walks the HTML and collects <link> icon hrefs
// resolved against base. Parse errors yield whatever was found before
// the error.
func extractIconLinks(r io.Reader, base *url.URL) []string {
	doc, err := html.Parse(r)
	if err != nil {
		return nil
	}

	var links []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "link" {
			if href := iconHref(n); href != "" {
				if resolved, err := base.Parse(href); err == nil {
					links = append(links, resolved.String())
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links
}

// iconHref returns the href of a <link> whose rel marks it as an icon.
func iconHref(n *html.Node) string {
	var rel, href string
	for _, attr := range n.Attr {
		switch strings.ToLower(attr.Key) {
		case "rel":
			rel = strings.ToLower(attr.Val)
		case "href":
			href = attr.Val
		}
	}
	switch rel {
	case "icon", "shortcut icon", "apple-touch-icon":
		return href
	}
	return ""
}

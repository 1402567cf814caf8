package crawl

import (
	"net/url"
	"strings"
)

// normalizeURL ensures a scheme and a path so homepage URLs from the record
// store ("examplevet.com") parse consistently.
func normalizeURL(raw string) (string, error) {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment = ""
	return u.String(), nil
}

// parseLinks extracts href attributes from HTML, resolves them against base,
// and keeps only same-host links. External domains are never followed.
func parseLinks(html string, base *url.URL) []string {
	var links []string
	seen := make(map[string]bool)

	idx := 0
	for {
		pos := strings.Index(html[idx:], `href="`)
		if pos == -1 {
			break
		}
		idx += pos + 6

		end := strings.Index(html[idx:], `"`)
		if end == -1 {
			break
		}

		href := html[idx : idx+end]
		idx += end + 1

		if strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "javascript:") ||
			strings.HasPrefix(href, "mailto:") ||
			strings.HasPrefix(href, "tel:") {
			continue
		}

		resolved, err := url.Parse(href)
		if err != nil {
			continue
		}
		absolute := base.ResolveReference(resolved)

		if absolute.Host != base.Host {
			continue
		}

		absolute.Fragment = ""
		normalized := absolute.String()
		if !seen[normalized] {
			seen[normalized] = true
			links = append(links, normalized)
		}
	}

	return links
}

package crawl

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

const (
	userAgent   = "Mozilla/5.0 (compatible; VetEnrichBot/1.0)"
	maxBodySize = 512 * 1024
)

// fetchedPage holds a successfully fetched page before role classification.
// HTML is retained only for link discovery on the homepage.
type fetchedPage struct {
	Title      string
	Text       string
	HTML       string
	StatusCode int
}

// fetchPage fetches one URL with its own timeout and converts it to plaintext.
// All failure modes (network, block, status, empty body) come back as errors;
// the caller records them on the PageFetchResult.
func (c *Crawler) fetchPage(ctx context.Context, targetURL string) (*fetchedPage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.pageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "crawl: create request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "crawl: fetch")
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, eris.Wrap(err, "crawl: read body")
	}

	if blocked, blockType := detectBlock(resp, body); blocked {
		return nil, eris.Errorf("crawl: blocked (%s)", blockType)
	}

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("crawl: status %d", resp.StatusCode)
	}

	text := stripHTML(string(body))
	if len(strings.TrimSpace(text)) == 0 {
		return nil, eris.New("crawl: empty page")
	}

	return &fetchedPage{
		Title:      extractTitle(body),
		Text:       text,
		HTML:       string(body),
		StatusCode: resp.StatusCode,
	}, nil
}

var titleRe = regexp.MustCompile(`(?i)<title[^>]*>(.*?)</title>`)

// extractTitle pulls the <title> from HTML.
func extractTitle(body []byte) string {
	m := titleRe.FindSubmatch(body)
	if len(m) > 1 {
		return strings.TrimSpace(string(m[1]))
	}
	return ""
}

var (
	dropTagRes = func() []*regexp.Regexp {
		var res []*regexp.Regexp
		for _, tag := range []string{"script", "style", "nav", "footer", "noscript"} {
			res = append(res, regexp.MustCompile(`(?is)<`+tag+`[^>]*>.*?</`+tag+`>`))
		}
		return res
	}()
	tagRe   = regexp.MustCompile(`<[^>]+>`)
	spaceRe = regexp.MustCompile(`[ \t]+`)
	nlRe    = regexp.MustCompile(`\n{3,}`)
)

// stripHTML removes scripts/styles/nav/footer, strips tags, decodes entities,
// and collapses whitespace into plaintext suitable for extraction.
func stripHTML(html string) string {
	for _, re := range dropTagRes {
		html = re.ReplaceAllString(html, "")
	}

	html = tagRe.ReplaceAllString(html, " ")

	html = strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	).Replace(html)

	html = spaceRe.ReplaceAllString(html, " ")
	html = nlRe.ReplaceAllString(html, "\n\n")

	return strings.TrimSpace(html)
}

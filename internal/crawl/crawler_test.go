package crawl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/vet-enrich/internal/model"
)

func testCrawler(opts Options) *Crawler {
	if opts.PageTimeout == 0 {
		opts.PageTimeout = 5 * time.Second
	}
	return New(opts)
}

func TestCrawler_HomepagePlusSubPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Lakeside Vet</title></head>
<body><p>Welcome to Lakeside Veterinary Clinic.</p>
<a href="/about">About Us</a>
<a href="/our-team">Meet the Team</a>
<a href="/services">Services</a>
<a href="/blog/post-1">Blog</a>
</body></html>`))
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>About</title></head><body><p>Founded in 1998.</p></body></html>`))
	})
	mux.HandleFunc("/our-team", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Team</title></head><body><p>Dr. Sarah Lee, DVM.</p></body></html>`))
	})
	mux.HandleFunc("/services", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Services</title></head><body><p>Dental and surgery.</p></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testCrawler(Options{MaxPages: 5, MaxDepth: 1})
	pages, err := c.FetchTarget(context.Background(), srv.URL)
	require.NoError(t, err)

	// Homepage + about + team + services. The blog link is not followable.
	require.Len(t, pages, 4)
	roles := map[model.PageRole]bool{}
	for _, p := range pages {
		assert.True(t, p.Succeeded, "page %s should succeed", p.URL)
		roles[p.Role] = true
	}
	assert.True(t, roles[model.RoleHomepage])
	assert.True(t, roles[model.RoleAbout])
	assert.True(t, roles[model.RoleTeam])
	assert.True(t, roles[model.RoleServices])

	// Sorted by role priority: team first.
	assert.Equal(t, model.RoleTeam, pages[0].Role)
	assert.Contains(t, pages[0].Text, "Dr. Sarah Lee")
}

func TestCrawler_MaxPagesBound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><p>Home page content here.</p>
<a href="/about">a</a><a href="/team">b</a><a href="/services">c</a><a href="/contact">d</a>
</body></html>`))
	})
	for _, path := range []string{"/about", "/team", "/services", "/contact"} {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body><p>Some page content.</p></body></html>`))
		})
	}
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testCrawler(Options{MaxPages: 2, MaxDepth: 1})
	pages, err := c.FetchTarget(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, pages, 2)
}

func TestCrawler_SubPageFailureDoesNotAbortTarget(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><p>Home page content.</p>
<a href="/about">About</a></body></html>`))
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testCrawler(Options{MaxPages: 5, MaxDepth: 1})
	pages, err := c.FetchTarget(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.True(t, AnySucceeded(pages))
	var about model.PageFetchResult
	for _, p := range pages {
		if p.Role == model.RoleAbout {
			about = p
		}
	}
	assert.False(t, about.Succeeded)
	assert.NotEmpty(t, about.Error)
}

func TestCrawler_HomepageFailureReturnsFailedResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testCrawler(Options{})
	pages, err := c.FetchTarget(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.False(t, pages[0].Succeeded)
	assert.False(t, AnySucceeded(pages))
}

func TestCrawler_PageTimeoutIsPerPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><p>Home content is fine.</p>
<a href="/team">Team</a></body></html>`))
	})
	mux.HandleFunc("/team", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`<html><body><p>Too slow.</p></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testCrawler(Options{MaxPages: 5, MaxDepth: 1, PageTimeout: 100 * time.Millisecond})
	pages, err := c.FetchTarget(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	// Homepage succeeded even though the team page timed out.
	assert.True(t, AnySucceeded(pages))
	for _, p := range pages {
		if p.Role == model.RoleTeam {
			assert.False(t, p.Succeeded)
		}
	}
}

func TestCrawler_ExternalLinksSkipped(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><p>Home content.</p>
<a href="https://facebook.com/about">FB</a>
<a href="mailto:info@example.com">Mail</a>
<a href="/contact">Contact</a></body></html>`))
	})
	mux.HandleFunc("/contact", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><p>Call us.</p></body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testCrawler(Options{MaxPages: 5, MaxDepth: 1})
	pages, err := c.FetchTarget(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	for _, p := range pages {
		assert.NotContains(t, p.URL, "facebook")
	}
}

func TestRoleForURL(t *testing.T) {
	cases := []struct {
		url  string
		role model.PageRole
	}{
		{"https://vet.example.com/", model.RoleHomepage},
		{"https://vet.example.com/index.html", model.RoleHomepage},
		{"https://vet.example.com/about-us", model.RoleAbout},
		{"https://vet.example.com/our-story", model.RoleAbout},
		{"https://vet.example.com/our-team", model.RoleTeam},
		{"https://vet.example.com/meet-the-doctors", model.RoleTeam},
		{"https://vet.example.com/staff", model.RoleTeam},
		{"https://vet.example.com/services", model.RoleServices},
		{"https://vet.example.com/contact", model.RoleContact},
		{"https://vet.example.com/blog/post", model.RoleOther},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.role, RoleForURL(tc.url), tc.url)
	}
}

func TestAllocateBudget_PriorityOrderAndMarkers(t *testing.T) {
	pages := []model.PageFetchResult{
		{Role: model.RoleHomepage, Text: "homepage content", Succeeded: true},
		{Role: model.RoleTeam, Text: "team content", Succeeded: true},
		{Role: model.RoleAbout, Text: "about content", Succeeded: true},
	}

	out := AllocateBudget(pages)
	assert.Contains(t, out, "=== TEAM PAGE ===")
	assert.Contains(t, out, "=== ABOUT PAGE ===")
	assert.Contains(t, out, "=== HOMEPAGE PAGE ===")

	teamIdx := strings.Index(out, "=== TEAM PAGE ===")
	aboutIdx := strings.Index(out, "=== ABOUT PAGE ===")
	homeIdx := strings.Index(out, "=== HOMEPAGE PAGE ===")
	assert.Less(t, teamIdx, aboutIdx)
	assert.Less(t, aboutIdx, homeIdx)
}

func TestAllocateBudget_PerRoleCaps(t *testing.T) {
	long := strings.Repeat("word ", 2000) // 10000 chars
	pages := []model.PageFetchResult{
		{Role: model.RoleTeam, Text: long, Succeeded: true},
		{Role: model.RoleContact, Text: long, Succeeded: true},
	}

	out := AllocateBudget(pages)
	sections := strings.Split(out, "=== CONTACT PAGE ===")
	require.Len(t, sections, 2)

	teamSection := strings.TrimPrefix(sections[0], "=== TEAM PAGE ===")
	assert.LessOrEqual(t, len(strings.TrimSpace(teamSection)), 3000)
	assert.LessOrEqual(t, len(strings.TrimSpace(sections[1])), 500)
}

func TestAllocateBudget_TotalCap(t *testing.T) {
	long := strings.Repeat("word ", 2000)
	var pages []model.PageFetchResult
	for _, role := range model.AllPageRoles() {
		pages = append(pages, model.PageFetchResult{Role: role, Text: long, Succeeded: true})
	}

	out := AllocateBudget(pages)
	// Markers are overhead on top of the content cap; allow a small margin.
	assert.LessOrEqual(t, len(out), maxTotalChars+200)
}

func TestAllocateBudget_SkipsFailedAndEmptyPages(t *testing.T) {
	pages := []model.PageFetchResult{
		{Role: model.RoleTeam, Text: "real content", Succeeded: true},
		{Role: model.RoleAbout, Text: "ignored", Succeeded: false},
		{Role: model.RoleServices, Text: "   ", Succeeded: true},
	}

	out := AllocateBudget(pages)
	assert.Contains(t, out, "real content")
	assert.NotContains(t, out, "ignored")
	assert.NotContains(t, out, "=== SERVICES PAGE ===")
}

func TestAllocateBudget_TruncationKeepsValidUTF8(t *testing.T) {
	// Unbroken multibyte text forces a mid-text cut; it must land on a
	// rune boundary, not inside one.
	pages := []model.PageFetchResult{
		{Role: model.RoleContact, Text: strings.Repeat("診", 400), Succeeded: true},
	}

	out := AllocateBudget(pages)
	assert.True(t, utf8.ValidString(out))
	assert.LessOrEqual(t, len(out), len("=== CONTACT PAGE ===\n")+roleCharCaps[model.RoleContact])
}

func TestDetectBlock_Cloudflare(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cf-Ray", "abc123")
		w.WriteHeader(403)
		_, _ = w.Write([]byte(`<html><body>Access denied</body></html>`))
	}))
	defer srv.Close()

	c := testCrawler(Options{})
	_, err := c.fetchPage(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "blocked")
}

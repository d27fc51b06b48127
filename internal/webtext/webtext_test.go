package webtext

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestIsURL(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"https://example.com/article", true},
		{"  http://example.com  \n", true},
		{"https://example.com/a?b=c#d", true},
		{"ftp://example.com/file", false},
		{"example.com", false},
		{"https://", false},
		{"read https://example.com please", false},
		{"just some words", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := IsURL(tt.text); got != tt.want {
				t.Errorf("IsURL(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

const articlePage = `<!DOCTYPE html>
<html>
<head><title>Ignored title</title><style>body { color: red }</style></head>
<body>
  <nav><a href="/">Home</a> <a href="/about">About</a></nav>
  <article>
    <h1>Slow   reading</h1>
    <p>The first <b>paragraph</b> of
       the story.</p>
    <script>track()</script>
    <p>The second paragraph.<br>After a break.</p>
  </article>
  <footer>Copyright</footer>
</body>
</html>`

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{
			name: "article",
			page: articlePage,
			want: "Slow reading\n\nThe first paragraph of the story.\n\nThe second paragraph.\n\nAfter a break.",
		},
		{
			name: "body without article",
			page: `<html><body><header>Site</header><div>One</div><div>Two <i>words</i></div><!-- note --></body></html>`,
			want: "One\n\nTwo words",
		},
		{
			name: "main preferred over body",
			page: `<body><aside>Ads</aside><p>Outside</p><main><p>Inside</p></main></body>`,
			want: "Inside",
		},
		{
			name: "list items",
			page: `<body><ul><li>alpha</li><li>beta</li></ul></body>`,
			want: "alpha\n\nbeta",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(strings.NewReader(tt.page))
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExtractNoText(t *testing.T) {
	_, err := Extract(strings.NewReader(`<html><body><script>x()</script><nav>Menu</nav></body></html>`))
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func newTestServer(t *testing.T, contentType string, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != userAgent {
			t.Errorf("unexpected user agent %q", r.Header.Get("User-Agent"))
		}
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		status      int
		body        string
		want        string
		wantErr     error
		anyErr      bool
	}{
		{
			name:        "html page",
			contentType: "text/html; charset=utf-8",
			status:      http.StatusOK,
			body:        articlePage,
			want:        "Slow reading\n\nThe first paragraph of the story.\n\nThe second paragraph.\n\nAfter a break.",
		},
		{
			name:        "plain text",
			contentType: "text/plain",
			status:      http.StatusOK,
			body:        "  Just text.\n",
			want:        "Just text.",
		},
		{
			name:        "latin1 page",
			contentType: "text/html; charset=iso-8859-1",
			status:      http.StatusOK,
			body:        "<p>caf\xe9</p>",
			want:        "café",
		},
		{
			name:        "empty plain text",
			contentType: "text/plain",
			status:      http.StatusOK,
			body:        " ",
			wantErr:     ErrNoText,
		},
		{
			name:        "binary",
			contentType: "application/pdf",
			status:      http.StatusOK,
			body:        "%PDF",
			wantErr:     ErrUnsupportedType,
		},
		{
			name:        "not found",
			contentType: "text/html",
			status:      http.StatusNotFound,
			body:        "<p>missing</p>",
			anyErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.contentType, tt.status, tt.body)
			f := NewWithClient(srv.Client(), zerolog.Nop())

			got, err := f.Fetch(context.Background(), srv.URL+"/page")
			if tt.wantErr != nil || tt.anyErr {
				if err == nil {
					t.Fatalf("expected an error, got text %q", got)
				}
				if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFetchCancelled(t *testing.T) {
	srv := newTestServer(t, "text/plain", http.StatusOK, "hello")
	f := New(zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Fetch(ctx, srv.URL); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

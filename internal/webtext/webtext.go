// Package webtext fetches a web page and reduces it to the text a listener
// wants to hear: the article body without navigation, scripts or styling.
package webtext

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

var (
	// ErrNoText is returned when a page has nothing readable in it.
	ErrNoText = errors.New("page has no readable text")
	// ErrUnsupportedType is returned for responses that are neither HTML nor
	// plain text.
	ErrUnsupportedType = errors.New("unsupported content type")
)

const (
	defaultTimeout = 20 * time.Second
	maxBodySize    = 5 << 20
	userAgent      = "readaloud-tray (+https://github.com/petems/readaloud-tray)"
)

// IsURL reports whether text is a single absolute http or https URL.
func IsURL(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || strings.ContainsAny(text, " \t\r\n") {
		return false
	}
	u, err := url.Parse(text)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

type Fetcher struct {
	client *http.Client
	log    zerolog.Logger
}

// New returns a Fetcher using its own client with a request timeout.
func New(log zerolog.Logger) *Fetcher {
	return NewWithClient(&http.Client{Timeout: defaultTimeout}, log)
}

func NewWithClient(client *http.Client, log zerolog.Logger) *Fetcher {
	return &Fetcher{client: client, log: log}
}

// Fetch downloads rawURL and returns its readable text. Bodies beyond 5 MiB
// are truncated.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9")

	f.log.Info().Str("url", rawURL).Msg("Fetching page")
	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: HTTP %d", rawURL, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType := "text/html"
	if contentType != "" {
		if mediaType, _, err = mime.ParseMediaType(contentType); err != nil {
			return "", fmt.Errorf("fetch %s: %w", rawURL, err)
		}
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodySize), contentType)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", rawURL, err)
	}

	var text string
	switch mediaType {
	case "text/html", "application/xhtml+xml":
		text, err = Extract(body)
	case "text/plain":
		text, err = plainText(body)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mediaType)
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rawURL, err)
	}

	f.log.Debug().Str("url", rawURL).Int("chars", len(text)).Msg("Extracted page text")
	return text, nil
}

func plainText(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

// Elements whose content is never read.
var skipped = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Nav:      true,
	atom.Header:   true,
	atom.Footer:   true,
	atom.Aside:    true,
	atom.Form:     true,
	atom.Button:   true,
	atom.Iframe:   true,
}

// Elements that end a paragraph.
var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Section: true, atom.Article: true, atom.Main: true, atom.Blockquote: true,
	atom.Pre: true, atom.Tr: true, atom.Dt: true, atom.Dd: true, atom.Figcaption: true,
}

// Extract parses an HTML document and returns its readable text, one
// paragraph per block element. The first <article>, else <main>, else <body>
// is read.
func Extract(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	root := doc
	for _, a := range []atom.Atom{atom.Article, atom.Main, atom.Body} {
		if n := findFirst(doc, a); n != nil {
			root = n
			break
		}
	}

	var w textWriter
	w.walk(root)
	text := w.String()
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

type textWriter struct {
	paragraphs []string
	cur        strings.Builder
}

func (w *textWriter) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		w.cur.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		if skipped[n.DataAtom] {
			return
		}
	}

	block := n.Type == html.ElementNode && blocks[n.DataAtom]
	if block {
		w.flush()
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
	if block {
		w.flush()
	}
}

func (w *textWriter) flush() {
	if line := strings.Join(strings.Fields(w.cur.String()), " "); line != "" {
		w.paragraphs = append(w.paragraphs, line)
	}
	w.cur.Reset()
}

func (w *textWriter) String() string {
	w.flush()
	return strings.Join(w.paragraphs, "\n\n")
}

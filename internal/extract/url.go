package extract

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shoshlabs/shoshchat/internal/domain"
)

// DefaultFetchTimeout bounds HTTP fetches for url sources.
const DefaultFetchTimeout = 10 * time.Second

// URLExtractor fetches a web page and flattens it to plain text with
// script/style content removed and whitespace runs collapsed.
type URLExtractor struct {
	client *http.Client
}

func NewURLExtractor(client *http.Client) *URLExtractor {
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	return &URLExtractor{client: client}
}

func (e *URLExtractor) Extract(ctx context.Context, p Payload) (string, error) {
	if p.URL == "" {
		return "", domain.NewExtractionError("no extractable content for url source", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return "", domain.NewExtractionError("invalid URL "+p.URL, err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", domain.NewExtractionError("unable to fetch URL "+p.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", domain.NewExtractionError(
			fmt.Sprintf("unable to fetch URL %s: status %d", p.URL, resp.StatusCode), nil)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", domain.NewExtractionError("unable to parse HTML from "+p.URL, err)
	}

	doc.Find("script,style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " "), nil
}

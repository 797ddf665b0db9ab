package ingest

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// An Xtream panel link carries its credentials in the query string.
var xtreamPattern = regexp.MustCompile(`(https?://[^/]+)/.*username=([^&]+).*password=([^&]+)`)

const (
	// Panels whitelist player user agents; plain Go UA strings get 403s.
	xtreamUserAgent  = "IPTVSmarters"
	genericUserAgent = "VLC/3.0.18"

	categoryTimeout = 60 * time.Second
	streamTimeout   = 120 * time.Second
	downloadTimeout = 600 * time.Second

	fetchAttempts = 3
	fetchBackoff  = 2 * time.Second
)

// Fetcher retrieves raw playlist text for a source URL, either as a
// direct M3U download or synthesized from an Xtream-Codes panel API.
// Failures never yield partial results.
type Fetcher struct {
	client   *http.Client
	attempts uint
	delay    time.Duration
}

// NewFetcher builds a fetcher. TLS verification is disabled on purpose:
// self-signed panel certificates are the norm, not the exception.
func NewFetcher() *Fetcher {
	transport := &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
	}
	return &Fetcher{
		client:   &http.Client{Transport: transport},
		attempts: fetchAttempts,
		delay:    fetchBackoff,
	}
}

// Fetch classifies the URL and returns the playlist document text.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if m := xtreamPattern.FindStringSubmatch(rawURL); m != nil {
		return f.fetchXtream(ctx, m[1], m[2], m[3])
	}
	return f.fetchDirect(ctx, rawURL)
}

// flexID tolerates panels that send ids as numbers or strings.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

type xtreamCategory struct {
	ID   flexID `json:"category_id"`
	Name string `json:"category_name"`
}

type xtreamStream struct {
	Name       string `json:"name"`
	StreamID   flexID `json:"stream_id"`
	Icon       string `json:"stream_icon"`
	CategoryID flexID `json:"category_id"`
}

// fetchXtream synthesizes an M3U document from the panel's player API.
// The category listing is best effort; the stream listing is mandatory.
func (f *Fetcher) fetchXtream(ctx context.Context, host, user, pass string) (string, error) {
	base := fmt.Sprintf("%s/player_api.php?username=%s&password=%s", host, user, pass)

	categories := map[string]string{}
	if body, err := f.get(ctx, base+"&action=get_live_categories", xtreamUserAgent, categoryTimeout); err != nil {
		log.Printf("[ingest] category listing failed, grouping under %q: %v", DefaultGroup, err)
	} else {
		var cats []xtreamCategory
		if err := json.Unmarshal(body, &cats); err != nil {
			log.Printf("[ingest] category listing unparsable, grouping under %q: %v", DefaultGroup, err)
		} else {
			for _, c := range cats {
				categories[string(c.ID)] = c.Name
			}
		}
	}

	var streams []xtreamStream
	err := retry.Do(func() error {
		body, err := f.get(ctx, base+"&action=get_live_streams", xtreamUserAgent, streamTimeout)
		if err != nil {
			return err
		}
		return json.Unmarshal(body, &streams)
	}, retry.Attempts(f.attempts), retry.Delay(f.delay), retry.Context(ctx), retry.LastErrorOnly(true))
	if err != nil {
		return "", fmt.Errorf("xtream stream listing: %w", err)
	}

	var b strings.Builder
	b.WriteString("#EXTM3U")
	for _, s := range streams {
		name := s.Name
		if name == "" {
			name = "?"
		}
		group, ok := categories[string(s.CategoryID)]
		if !ok || group == "" {
			group = DefaultGroup
		}
		fmt.Fprintf(&b, "\n#EXTINF:-1 tvg-logo=\"%s\" group-title=\"%s\",%s", s.Icon, group, name)
		fmt.Fprintf(&b, "\n%s/live/%s/%s/%s.m3u8", host, user, pass, s.StreamID)
	}
	return b.String(), nil
}

// fetchDirect downloads a plain M3U document. Bytes that do not decode
// as UTF-8 are dropped rather than failing the whole playlist.
func (f *Fetcher) fetchDirect(ctx context.Context, url string) (string, error) {
	var body []byte
	err := retry.Do(func() error {
		var err error
		body, err = f.get(ctx, url, genericUserAgent, downloadTimeout)
		return err
	}, retry.Attempts(f.attempts), retry.Delay(f.delay), retry.Context(ctx), retry.LastErrorOnly(true))
	if err != nil {
		return "", fmt.Errorf("download playlist: %w", err)
	}
	return strings.ToValidUTF8(string(body), ""), nil
}

func (f *Fetcher) get(ctx context.Context, url, userAgent string, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

package sentinel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/paulmach/orb"

	"github.com/AgyeDark/galamsey-sentinel/internal/log"
)

// searchPageLimit is the page size requested from the STAC API.
const searchPageLimit = 100

// maxSearchPages bounds pagination against servers that keep handing out
// next links.
const maxSearchPages = 50

// Asset is one downloadable file of a catalog item.
type Asset struct {
	Href  string `json:"href"`
	Type  string `json:"type,omitempty"`
	Title string `json:"title,omitempty"`
}

// SceneDescriptor identifies one acquisition and where its bands live.
type SceneDescriptor struct {
	ID         string
	AcquiredAt time.Time
	CloudCover float64
	Assets     map[string]Asset
}

type stacLink struct {
	Rel    string          `json:"rel"`
	Href   string          `json:"href"`
	Method string          `json:"method,omitempty"`
	Body   json.RawMessage `json:"body,omitempty"`
	Merge  bool            `json:"merge,omitempty"`
}

type stacItemProperties struct {
	Datetime   string  `json:"datetime"`
	CloudCover float64 `json:"eo:cloud_cover"`
}

type stacItem struct {
	ID         string             `json:"id"`
	Properties stacItemProperties `json:"properties"`
	Assets     map[string]Asset   `json:"assets"`
}

type searchResponse struct {
	Type     string     `json:"type"`
	Features []stacItem `json:"features"`
	Links    []stacLink `json:"links"`
}

// CatalogConfig configures a Catalog. A nil HTTPClient falls back to a
// plain client with a sane timeout.
type CatalogConfig struct {
	Endpoint   string
	Collection string
	HTTPClient *http.Client
}

// Catalog searches a STAC API for scenes over an extent. Results carry
// unsigned asset hrefs, signing happens at read time so cached searches
// never hold expired tokens.
type Catalog struct {
	endpoint   string
	collection string
	client     *http.Client
}

func NewCatalog(cfg CatalogConfig) *Catalog {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Catalog{
		endpoint:   cfg.Endpoint,
		collection: cfg.Collection,
		client:     client,
	}
}

// Search returns every scene of the collection intersecting extent during
// year with cloud cover strictly below maxCloud, sorted by acquisition
// time ascending. An empty result is not an error. Transport and protocol
// failures wrap ErrCatalogUnavailable.
func (c *Catalog) Search(ctx context.Context, extent orb.Bound, year int, maxCloud float64) ([]SceneDescriptor, error) {
	request := map[string]any{
		"collections": []string{c.collection},
		"bbox":        []float64{extent.Min[0], extent.Min[1], extent.Max[0], extent.Max[1]},
		"datetime":    fmt.Sprintf("%d-01-01T00:00:00Z/%d-12-31T23:59:59Z", year, year),
		"query": map[string]any{
			"eo:cloud_cover": map[string]any{"lt": maxCloud},
		},
		"limit": searchPageLimit,
	}

	searchURL := c.endpoint + "/search"
	var scenes []SceneDescriptor
	for page := 0; page < maxSearchPages; page++ {
		resp, err := c.postSearch(ctx, searchURL, request)
		if err != nil {
			return nil, err
		}
		for _, item := range resp.Features {
			desc, err := descriptorFromItem(item)
			if err != nil {
				log.Warnf("skipping malformed catalog item %s: %v", item.ID, err)
				continue
			}
			scenes = append(scenes, desc)
		}

		next := nextLink(resp.Links)
		if next == nil {
			break
		}
		request, searchURL, err = followLink(request, searchURL, next)
		if err != nil {
			return nil, fmt.Errorf("%w: bad pagination link: %w", ErrCatalogUnavailable, err)
		}
	}

	// Tiles of one overpass share a timestamp; ties order by ID.
	sort.SliceStable(scenes, func(i, j int) bool {
		if scenes[i].AcquiredAt.Equal(scenes[j].AcquiredAt) {
			return scenes[i].ID < scenes[j].ID
		}
		return scenes[i].AcquiredAt.Before(scenes[j].AcquiredAt)
	})
	return scenes, nil
}

func (c *Catalog) postSearch(ctx context.Context, url string, request map[string]any) (*searchResponse, error) {
	payload, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("%w: encode search request: %w", ErrCatalogUnavailable, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: search returned %s: %s", ErrCatalogUnavailable, resp.Status, bytes.TrimSpace(body))
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode search response: %w", ErrCatalogUnavailable, err)
	}
	return &parsed, nil
}

func descriptorFromItem(item stacItem) (SceneDescriptor, error) {
	if item.ID == "" {
		return SceneDescriptor{}, fmt.Errorf("item has no id")
	}
	acquired, err := time.Parse(time.RFC3339Nano, item.Properties.Datetime)
	if err != nil {
		return SceneDescriptor{}, fmt.Errorf("parse datetime %q: %w", item.Properties.Datetime, err)
	}
	return SceneDescriptor{
		ID:         item.ID,
		AcquiredAt: acquired.UTC(),
		CloudCover: item.Properties.CloudCover,
		Assets:     item.Assets,
	}, nil
}

func nextLink(links []stacLink) *stacLink {
	for i := range links {
		if links[i].Rel == "next" {
			return &links[i]
		}
	}
	return nil
}

// followLink derives the next page's request. POST links replace or merge
// the request body, GET links just change the URL.
func followLink(request map[string]any, url string, link *stacLink) (map[string]any, string, error) {
	nextURL := url
	if link.Href != "" {
		nextURL = link.Href
	}
	if link.Method != "" && link.Method != http.MethodPost {
		return nil, "", fmt.Errorf("unsupported pagination method %s", link.Method)
	}
	if len(link.Body) == 0 {
		return request, nextURL, nil
	}
	var body map[string]any
	if err := json.Unmarshal(link.Body, &body); err != nil {
		return nil, "", fmt.Errorf("decode link body: %w", err)
	}
	if !link.Merge {
		return body, nextURL, nil
	}
	merged := make(map[string]any, len(request)+len(body))
	for k, v := range request {
		merged[k] = v
	}
	for k, v := range body {
		merged[k] = v
	}
	return merged, nextURL, nil
}

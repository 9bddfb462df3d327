package sentinel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paulmach/orb"
)

var testExtent = orb.Bound{Min: orb.Point{-1.58, 5.55}, Max: orb.Point{-1.52, 5.65}}

func TestCatalogSearch(t *testing.T) {
	var requests []map[string]any
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/search" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			http.NotFound(w, r)
			return
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}
		requests = append(requests, body)

		if _, paged := body["token"]; paged {
			fmt.Fprint(w, `{"type":"FeatureCollection","features":[
				{"id":"S2_JAN","properties":{"datetime":"2023-01-05T10:34:21.024Z","eo:cloud_cover":12.5},
				 "assets":{"B04":{"href":"https://storage.example/jan/B04.tif"}}}
			],"links":[]}`)
			return
		}
		fmt.Fprint(w, `{"type":"FeatureCollection","features":[
			{"id":"S2_MAR","properties":{"datetime":"2023-03-10T10:34:21.024Z","eo:cloud_cover":3.1},
			 "assets":{"B04":{"href":"https://storage.example/mar/B04.tif"}}},
			{"id":"S2_BAD","properties":{"datetime":"not-a-date","eo:cloud_cover":1.0},"assets":{}}
		],"links":[{"rel":"next","href":"`+server.URL+`/search","method":"POST","merge":true,"body":{"token":"page-2"}}]}`)
	}))
	defer server.Close()

	catalog := NewCatalog(CatalogConfig{
		Endpoint:   server.URL,
		Collection: "sentinel-2-l2a",
		HTTPClient: server.Client(),
	})

	scenes, err := catalog.Search(context.Background(), testExtent, 2023, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(scenes) != 2 {
		t.Fatalf("expected 2 scenes after skipping the malformed one, got %d", len(scenes))
	}
	if scenes[0].ID != "S2_JAN" || scenes[1].ID != "S2_MAR" {
		t.Errorf("scenes not sorted by date: %s, %s", scenes[0].ID, scenes[1].ID)
	}
	if scenes[0].CloudCover != 12.5 {
		t.Errorf("expected cloud cover 12.5, got %v", scenes[0].CloudCover)
	}
	want := time.Date(2023, time.January, 5, 10, 34, 21, 24000000, time.UTC)
	if !scenes[0].AcquiredAt.Equal(want) {
		t.Errorf("expected %s, got %s", want, scenes[0].AcquiredAt)
	}
	if scenes[1].Assets["B04"].Href != "https://storage.example/mar/B04.tif" {
		t.Errorf("asset href lost: %+v", scenes[1].Assets)
	}

	if len(requests) != 2 {
		t.Fatalf("expected 2 requests for 2 pages, got %d", len(requests))
	}
	first := requests[0]
	if got := first["datetime"]; got != "2023-01-01T00:00:00Z/2023-12-31T23:59:59Z" {
		t.Errorf("unexpected datetime interval %v", got)
	}
	collections, _ := first["collections"].([]any)
	if len(collections) != 1 || collections[0] != "sentinel-2-l2a" {
		t.Errorf("unexpected collections %v", first["collections"])
	}
	bbox, _ := first["bbox"].([]any)
	if len(bbox) != 4 || bbox[0] != -1.58 || bbox[3] != 5.65 {
		t.Errorf("unexpected bbox %v", first["bbox"])
	}
	query, _ := first["query"].(map[string]any)
	cloud, _ := query["eo:cloud_cover"].(map[string]any)
	if cloud["lt"] != float64(30) {
		t.Errorf("cloud filter should use lt, got %v", query)
	}

	second := requests[1]
	if second["token"] != "page-2" {
		t.Errorf("pagination token not carried, got %v", second["token"])
	}
	if _, ok := second["collections"]; !ok {
		t.Errorf("merge link should keep the original request fields")
	}
}

func TestCatalogSearchOrdersTiesByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"type":"FeatureCollection","features":[
			{"id":"S2_TILE_B","properties":{"datetime":"2023-06-01T10:30:00Z","eo:cloud_cover":5.0},"assets":{}},
			{"id":"S2_TILE_A","properties":{"datetime":"2023-06-01T10:30:00Z","eo:cloud_cover":7.0},"assets":{}},
			{"id":"S2_MAY","properties":{"datetime":"2023-05-20T10:30:00Z","eo:cloud_cover":2.0},"assets":{}}
		],"links":[]}`)
	}))
	defer server.Close()

	catalog := NewCatalog(CatalogConfig{Endpoint: server.URL, Collection: "sentinel-2-l2a", HTTPClient: server.Client()})
	scenes, err := catalog.Search(context.Background(), testExtent, 2023, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scenes) != 3 {
		t.Fatalf("expected 3 scenes, got %d", len(scenes))
	}

	got := make([]string, len(scenes))
	for i, s := range scenes {
		got[i] = s.ID
	}
	want := []string{"S2_MAY", "S2_TILE_A", "S2_TILE_B"}
	for i, id := range want {
		if got[i] != id {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestCatalogSearchEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"type":"FeatureCollection","features":[],"links":[]}`)
	}))
	defer server.Close()

	catalog := NewCatalog(CatalogConfig{Endpoint: server.URL, Collection: "sentinel-2-l2a", HTTPClient: server.Client()})
	scenes, err := catalog.Search(context.Background(), testExtent, 2023, 30)
	if err != nil {
		t.Fatalf("an empty season is not an error, got %v", err)
	}
	if len(scenes) != 0 {
		t.Errorf("expected no scenes, got %d", len(scenes))
	}
}

func TestCatalogSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	catalog := NewCatalog(CatalogConfig{Endpoint: server.URL, Collection: "sentinel-2-l2a", HTTPClient: server.Client()})
	_, err := catalog.Search(context.Background(), testExtent, 2023, 30)
	if !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
}

func TestCatalogSearchUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := server.Client()
	server.Close()

	catalog := NewCatalog(CatalogConfig{Endpoint: server.URL, Collection: "sentinel-2-l2a", HTTPClient: client})
	_, err := catalog.Search(context.Background(), testExtent, 2023, 30)
	if !errors.Is(err, ErrCatalogUnavailable) {
		t.Fatalf("expected ErrCatalogUnavailable, got %v", err)
	}
}

package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/AgyeDark/galamsey-sentinel/internal/cache"
	"github.com/AgyeDark/galamsey-sentinel/internal/log"
)

const archiveURL = "https://archive-api.open-meteo.com/v1/archive"

const retryDelay = 10 * time.Second

type dailyData struct {
	Time          []string  `json:"time"`
	Precipitation []float64 `json:"precipitation_sum"`
}

type archiveResponse struct {
	Daily dailyData `json:"daily"`
}

// MonthlyRainfall is one month's precipitation total at the basin
// centroid. Storm runoff muddies rivers too, so the rainfall context
// helps separate weather from mining when reading a spike.
type MonthlyRainfall struct {
	Month   string  `json:"month"`
	TotalMM float64 `json:"total_mm"`
}

// FetchMonthlyRainfall totals daily precipitation at a point into
// calendar months across one year. The archive is keyless and history
// never changes, so entries cache without expiry.
func FetchMonthlyRainfall(ctx context.Context, latitude, longitude float64, year int, retries int) ([]MonthlyRainfall, error) {
	fc := cache.NewFileCache[[]MonthlyRainfall]("weather", 0)
	key := fc.GenerateKey(fmt.Sprintf("%.4f", latitude), fmt.Sprintf("%.4f", longitude), year)
	if cached, ok := fc.Get(key); ok {
		return cached, nil
	}

	url := fmt.Sprintf("%s?latitude=%f&longitude=%f&start_date=%d-01-01&end_date=%d-12-31&daily=precipitation_sum",
		archiveURL, latitude, longitude, year, year)

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			lastErr = err
			log.Warnf("rainfall fetch failed: %v, retrying (%d/%d)", err, attempt+1, retries)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("archive returned %s", resp.Status)
			log.Warnf("rainfall fetch returned %s, retrying (%d/%d)", resp.Status, attempt+1, retries)
			continue
		}

		var parsed archiveResponse
		err = json.NewDecoder(resp.Body).Decode(&parsed)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to parse response: %v", err)
		}

		months, err := totalByMonth(parsed.Daily)
		if err != nil {
			return nil, err
		}
		if err := fc.Set(key, months); err != nil {
			log.Warnf("storing rainfall cache failed: %v", err)
		}
		return months, nil
	}
	return nil, fmt.Errorf("failed to retrieve rainfall after %d attempts: %w", retries, lastErr)
}

func totalByMonth(daily dailyData) ([]MonthlyRainfall, error) {
	totals := map[string]float64{}
	for i, day := range daily.Time {
		if i >= len(daily.Precipitation) {
			break
		}
		t, err := time.Parse("2006-01-02", day)
		if err != nil {
			return nil, fmt.Errorf("failed to parse date: %v", err)
		}
		totals[t.Format("2006-01")] += daily.Precipitation[i]
	}

	months := make([]MonthlyRainfall, 0, len(totals))
	for month, total := range totals {
		months = append(months, MonthlyRainfall{Month: month, TotalMM: total})
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Month < months[j].Month })
	return months, nil
}

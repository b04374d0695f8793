// Package airports provides IATA code lookup and nearest-airport
// search over an embedded dataset of major international airports.
package airports

import (
	"embed"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gulguluu/travel-agent/internal/geo"
)

//go:embed data/airports.csv
var dataFS embed.FS

// Airport is one entry in the embedded dataset.
type Airport struct {
	IATA    string  `json:"iata"`
	Name    string  `json:"name"`
	City    string  `json:"city"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// NearbyAirport is an Airport annotated with distance from a query point.
type NearbyAirport struct {
	Airport
	DistanceKm float64 `json:"distance_km"`
}

var (
	loadOnce sync.Once
	loaded   []Airport
	loadErr  error
)

// All returns the embedded airport dataset, loading it on first use.
func All() ([]Airport, error) {
	loadOnce.Do(func() {
		loaded, loadErr = parseDataset()
	})
	return loaded, loadErr
}

func parseDataset() ([]Airport, error) {
	f, err := dataFS.Open("data/airports.csv")
	if err != nil {
		return nil, fmt.Errorf("open airport dataset: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)

	// Skip header.
	if _, err := r.Read(); err != nil {
		return nil, fmt.Errorf("read airport dataset header: %w", err)
	}

	var airports []Airport
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read airport dataset: %w", err)
		}
		if len(rec) != 6 {
			continue
		}
		lat, latErr := strconv.ParseFloat(rec[4], 64)
		lon, lonErr := strconv.ParseFloat(rec[5], 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		airports = append(airports, Airport{
			IATA:    rec[0],
			Name:    rec[1],
			City:    rec[2],
			Country: rec[3],
			Lat:     lat,
			Lon:     lon,
		})
	}
	return airports, nil
}

// clampLimit bounds a result count to [1, 10].
func clampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > 10 {
		return 10
	}
	return limit
}

// Lookup guesses IATA codes from a city name, airport name, country
// code, or exact IATA code. Matches are ranked: exact code first, then
// city, then airport name, then country.
func Lookup(term string, limit int) ([]Airport, error) {
	all, err := All()
	if err != nil {
		return nil, err
	}

	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil, fmt.Errorf("empty lookup term")
	}

	type scored struct {
		score int
		ap    Airport
	}
	var matches []scored
	for _, ap := range all {
		var score int
		switch {
		case strings.ToLower(ap.IATA) == term:
			score = 100
		case strings.Contains(strings.ToLower(ap.City), term):
			score = 50
		case strings.Contains(strings.ToLower(ap.Name), term):
			score = 40
		case strings.Contains(strings.ToLower(ap.Country), term):
			score = 10
		}
		if score > 0 {
			matches = append(matches, scored{score, ap})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	limit = clampLimit(limit)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]Airport, len(matches))
	for i, m := range matches {
		out[i] = m.ap
	}
	return out, nil
}

// Nearest returns the airports closest to a coordinate, ordered by
// great-circle distance.
func Nearest(lat, lon float64, limit int) ([]NearbyAirport, error) {
	all, err := All()
	if err != nil {
		return nil, err
	}

	nearby := make([]NearbyAirport, len(all))
	for i, ap := range all {
		nearby[i] = NearbyAirport{
			Airport:    ap,
			DistanceKm: geo.Haversine(lat, lon, ap.Lat, ap.Lon),
		}
	}
	sort.Slice(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})

	limit = clampLimit(limit)
	if len(nearby) > limit {
		nearby = nearby[:limit]
	}
	for i := range nearby {
		// One decimal is plenty for airport distances.
		nearby[i].DistanceKm = float64(int(nearby[i].DistanceKm*10+0.5)) / 10
	}
	return nearby, nil
}

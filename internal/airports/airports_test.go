package airports

import (
	"strings"
	"testing"
)

func TestAllLoadsDataset(t *testing.T) {
	all, err := All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) < 100 {
		t.Errorf("dataset has %d airports, want at least 100", len(all))
	}
	for _, ap := range all {
		if len(ap.IATA) != 3 {
			t.Errorf("bad IATA code %q", ap.IATA)
		}
		if ap.Lat < -90 || ap.Lat > 90 || ap.Lon < -180 || ap.Lon > 180 {
			t.Errorf("%s: coords out of range: %v,%v", ap.IATA, ap.Lat, ap.Lon)
		}
	}
}

func TestLookupExactCode(t *testing.T) {
	got, err := Lookup("nrt", 5)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(got) == 0 || got[0].IATA != "NRT" {
		t.Fatalf("Lookup(nrt) = %+v, want NRT first", got)
	}
}

func TestLookupCityBeatsName(t *testing.T) {
	got, err := Lookup("tokyo", 5)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(got) < 2 {
		t.Fatalf("Lookup(tokyo) = %d results, want both Tokyo airports", len(got))
	}
	for _, ap := range got[:2] {
		if ap.City != "Tokyo" {
			t.Errorf("top results include non-Tokyo airport %s (%s)", ap.IATA, ap.City)
		}
	}
}

func TestLookupByAirportName(t *testing.T) {
	got, err := Lookup("heathrow", 3)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(got) != 1 || got[0].IATA != "LHR" {
		t.Errorf("Lookup(heathrow) = %+v, want LHR only", got)
	}
}

func TestLookupClampsLimit(t *testing.T) {
	got, err := Lookup("us", 500)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(got) > 10 {
		t.Errorf("limit not clamped: got %d results", len(got))
	}

	got, err = Lookup("london", 0)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("limit 0 should clamp to 1, got %d", len(got))
	}
}

func TestLookupEmptyTerm(t *testing.T) {
	if _, err := Lookup("  ", 5); err == nil {
		t.Fatal("expected error for empty term")
	}
}

func TestNearest(t *testing.T) {
	// Downtown San Francisco.
	got, err := Nearest(37.7749, -122.4194, 3)
	if err != nil {
		t.Fatalf("Nearest: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d results, want 3", len(got))
	}
	if got[0].IATA != "SFO" {
		t.Errorf("nearest to SF = %s, want SFO", got[0].IATA)
	}
	for i := 1; i < len(got); i++ {
		if got[i].DistanceKm < got[i-1].DistanceKm {
			t.Errorf("results not sorted by distance: %v", got)
		}
	}
	if got[0].DistanceKm <= 0 || got[0].DistanceKm > 30 {
		t.Errorf("SFO distance from downtown SF = %.1f km, want within 30", got[0].DistanceKm)
	}

	bayArea := map[string]bool{"SFO": true, "OAK": true, "SJC": true}
	for _, ap := range got {
		if !bayArea[ap.IATA] {
			t.Errorf("unexpected airport %s in SF top 3", ap.IATA)
		}
	}
}

func TestLookupCaseInsensitive(t *testing.T) {
	lower, err := Lookup("paris", 5)
	if err != nil {
		t.Fatal(err)
	}
	upper, err := Lookup("PARIS", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(lower) != len(upper) {
		t.Errorf("case sensitivity in lookup: %d vs %d results", len(lower), len(upper))
	}
	var codes []string
	for _, ap := range lower {
		codes = append(codes, ap.IATA)
	}
	joined := strings.Join(codes, ",")
	if !strings.Contains(joined, "CDG") || !strings.Contains(joined, "ORY") {
		t.Errorf("Lookup(paris) = %s, want CDG and ORY", joined)
	}
}

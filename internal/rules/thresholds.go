package rules

import (
	"errors"
	"fmt"
)

// Thresholds are the numeric limits the catalog checks against.
type Thresholds struct {
	AdultAge int64 `yaml:"adult_age"`

	MaxWalkingDistanceKm float64 `yaml:"max_walking_distance_km"`
	MaxWalkingSpeedKmh   float64 `yaml:"max_walking_speed_kmh"`
	MaxCyclingDistanceKm float64 `yaml:"max_cycling_distance_km"`
	MaxCyclingSpeedKmh   float64 `yaml:"max_cycling_speed_kmh"`
	FreeTravelCost       float64 `yaml:"free_travel_cost"`

	FreezingPointC float64 `yaml:"freezing_point_c"`

	// A small city has fewer than SmallCityMaxPopulation inhabitants, a large
	// one at least LargeCityMinPopulation; medium cities sit in between.
	SmallCityMaxPopulation int64 `yaml:"small_city_max_population"`
	LargeCityMinPopulation int64 `yaml:"large_city_min_population"`
}

// DefaultThresholds returns the stock limits.
func DefaultThresholds() Thresholds {
	return Thresholds{
		AdultAge:               18,
		MaxWalkingDistanceKm:   20,
		MaxWalkingSpeedKmh:     6,
		MaxCyclingDistanceKm:   50,
		MaxCyclingSpeedKmh:     25,
		FreeTravelCost:         0,
		FreezingPointC:         0,
		SmallCityMaxPopulation: 100000,
		LargeCityMinPopulation: 1000000,
	}
}

// Validate rejects limits that would make rules meaningless.
func (t Thresholds) Validate() error {
	var errs []error
	if t.AdultAge <= 0 {
		errs = append(errs, fmt.Errorf("adult_age must be positive, got %d", t.AdultAge))
	}
	limits := []struct {
		name string
		v    float64
	}{
		{"max_walking_distance_km", t.MaxWalkingDistanceKm},
		{"max_walking_speed_kmh", t.MaxWalkingSpeedKmh},
		{"max_cycling_distance_km", t.MaxCyclingDistanceKm},
		{"max_cycling_speed_kmh", t.MaxCyclingSpeedKmh},
	}
	for _, l := range limits {
		if l.v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", l.name, l.v))
		}
	}
	if t.FreeTravelCost < 0 {
		errs = append(errs, fmt.Errorf("free_travel_cost must not be negative, got %v", t.FreeTravelCost))
	}
	if t.SmallCityMaxPopulation <= 0 || t.LargeCityMinPopulation <= t.SmallCityMaxPopulation {
		errs = append(errs, fmt.Errorf("city size bounds must satisfy 0 < small (%d) < large (%d)",
			t.SmallCityMaxPopulation, t.LargeCityMinPopulation))
	}
	return errors.Join(errs...)
}

package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Quality grades offered by the harvest form.
var QualityGrades = []string{"A+", "A", "B", "C"}

// Harvest is one harvest entry captured in the field.
type Harvest struct {
	ID       string  `json:"id,omitempty"`
	ParcelID string  `json:"parcel_id"`
	CropType string  `json:"crop_type"`
	Quantity float64 `json:"quantity"` // tonnes
	Quality  string  `json:"quality"`
	Notes    string  `json:"notes,omitempty"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	Date time.Time `json:"date,omitzero"`
}

// NewHarvest returns an empty form with the default grade.
func NewHarvest() Harvest {
	return Harvest{Quality: "A"}
}

// Stamp sets the record identity and capture time.
func (h Harvest) Stamp(id string, at time.Time) Harvest {
	h.ID = id
	h.Date = at.UTC()
	return h
}

// Validate checks the form rules. All failing fields are reported, joined.
func (h Harvest) Validate() error {
	var errs []error
	if strings.TrimSpace(h.ParcelID) == "" {
		errs = append(errs, fieldErr("parcel", "select a parcel"))
	}
	if len([]rune(strings.TrimSpace(h.CropType))) < 2 {
		errs = append(errs, fieldErr("crop", "crop type is required"))
	}
	if h.Quantity < 0.1 {
		errs = append(errs, fieldErr("quantity", "quantity must be at least 0.1 t"))
	}
	if h.Quality == "" {
		errs = append(errs, fieldErr("quality", "rate the quality"))
	} else if !isGrade(h.Quality) {
		errs = append(errs, fieldErr("quality", fmt.Sprintf("unknown grade %q", h.Quality)))
	}
	switch {
	case (h.Latitude == nil) != (h.Longitude == nil):
		errs = append(errs, fieldErr("gps", "latitude and longitude go together"))
	case h.Latitude != nil:
		if *h.Latitude < -90 || *h.Latitude > 90 {
			errs = append(errs, fieldErr("lat", "out of range"))
		}
		if *h.Longitude < -180 || *h.Longitude > 180 {
			errs = append(errs, fieldErr("lon", "out of range"))
		}
	}
	return errors.Join(errs...)
}

func isGrade(q string) bool {
	for _, g := range QualityGrades {
		if g == q {
			return true
		}
	}
	return false
}

// HarvestFields are the settable harvest form fields.
var HarvestFields = Fields[Harvest]{
	"parcel": func(h *Harvest, v string) error { h.ParcelID = v; return nil },
	"crop":   func(h *Harvest, v string) error { h.CropType = v; return nil },
	"quantity": func(h *Harvest, v string) error {
		f, err := parseFloat(v)
		if err != nil {
			return err
		}
		h.Quantity = f
		return nil
	},
	"quality": func(h *Harvest, v string) error { h.Quality = strings.ToUpper(v); return nil },
	"notes":   func(h *Harvest, v string) error { h.Notes = v; return nil },
	// gps takes "lat,lon"; an empty value clears the position
	"gps": func(h *Harvest, v string) error {
		if v == "" {
			h.Latitude, h.Longitude = nil, nil
			return nil
		}
		parts := strings.Split(v, ",")
		if len(parts) != 2 {
			return fmt.Errorf("%w: expected lat,lon", ErrIncorrectFieldValue)
		}
		lat, err := parseFloat(strings.TrimSpace(parts[0]))
		if err != nil {
			return err
		}
		lon, err := parseFloat(strings.TrimSpace(parts[1]))
		if err != nil {
			return err
		}
		h.Latitude, h.Longitude = &lat, &lon
		return nil
	},
}

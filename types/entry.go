package types

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrAmbiguousMeasurement is returned when an entry item on the wire does
// not carry exactly one measurement field.
var ErrAmbiguousMeasurement = errors.New("entry item must carry exactly one measurement")

// Entry is one user-submitted record of measurements against one or more
// taxonomy nodes at a point in time. Entries are immutable except for
// deletion.
type Entry struct {
	// ID is the unique identifier of the entry, assigned by the server.
	ID string `json:"id"`

	// Timestamp is the server-assigned creation time.
	Timestamp time.Time `json:"timestamp"`

	// UserID identifies the owner. It is always taken from the
	// authenticated principal, never from the request body.
	UserID string `json:"userId"`

	// CategoryID references the taxonomy category the measurements
	// were recorded under.
	CategoryID string `json:"categoryId"`

	// Items are the individual measurements of this entry.
	Items []EntryItem `json:"items"`

	// Notes is optional free text attached by the user.
	Notes string `json:"notes,omitempty"`
}

// Measurement is a tagged union of the scale kind and its numeric value.
// Modelling the pair explicitly (rather than four optional fields) keeps
// the "exactly one value" invariant out of every consumer.
type Measurement struct {
	Kind  ScaleType `json:"kind"`
	Value float64   `json:"value"`
}

// EntryItem binds a measurement to a taxonomy node. The referenced id may
// point at an item or a sub-item; dangling references are tolerated and
// fall back to the raw id on display.
type EntryItem struct {
	ItemID  string
	Measure Measurement
}

// entryItemWire is the JSON shape of an entry item: the measurement
// occupies exactly one of the four optional fields, selected by the scale
// type. Intensity shares the rating field, the numeric domain being
// identical.
type entryItemWire struct {
	ItemID string   `json:"itemId"`
	Rating *float64 `json:"rating,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
	Count  *float64 `json:"count,omitempty"`
	Volume *float64 `json:"volume,omitempty"`
}

// MarshalJSON encodes the measurement into its scale-specific wire field.
func (e EntryItem) MarshalJSON() ([]byte, error) {
	wire := entryItemWire{ItemID: e.ItemID}
	v := e.Measure.Value
	switch e.Measure.Kind {
	case ScaleWeight:
		wire.Weight = &v
	case ScaleCount:
		wire.Count = &v
	case ScaleVolume:
		wire.Volume = &v
	case ScaleRating, ScaleIntensity:
		wire.Rating = &v
	default:
		return nil, ErrAmbiguousMeasurement
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes the wire shape, requiring exactly one measurement
// field. A rating field decodes as ScaleRating; whether the node actually
// uses the intensity scale is resolved against the taxonomy at creation.
func (e *EntryItem) UnmarshalJSON(data []byte) error {
	var wire entryItemWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	set := 0
	for _, field := range []*float64{wire.Rating, wire.Weight, wire.Count, wire.Volume} {
		if field != nil {
			set++
		}
	}
	if set != 1 {
		return ErrAmbiguousMeasurement
	}

	e.ItemID = wire.ItemID
	switch {
	case wire.Weight != nil:
		e.Measure = Measurement{Kind: ScaleWeight, Value: *wire.Weight}
	case wire.Count != nil:
		e.Measure = Measurement{Kind: ScaleCount, Value: *wire.Count}
	case wire.Volume != nil:
		e.Measure = Measurement{Kind: ScaleVolume, Value: *wire.Volume}
	default:
		e.Measure = Measurement{Kind: ScaleRating, Value: *wire.Rating}
	}
	return nil
}

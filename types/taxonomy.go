package types

// CategoryType determines the default scale semantics for items created
// inside a category and how the client composes entries against it.
type CategoryType string

// Supported category types.
const (
	// CategoryFood marks categories tracking food intake. New items
	// default to the weight scale.
	CategoryFood CategoryType = "food"

	// CategorySelf marks categories tracking subjective self-observations.
	// New items default to the rating scale.
	CategorySelf CategoryType = "self"
)

// Valid reports whether the category type is a known member of the enum.
func (c CategoryType) Valid() bool {
	switch c {
	case CategoryFood, CategorySelf:
		return true
	default:
		return false
	}
}

// DefaultScaleType returns the scale assigned to items created under a
// category of this type when the caller does not supply one.
func (c CategoryType) DefaultScaleType() ScaleType {
	if c == CategoryFood {
		return ScaleWeight
	}
	return ScaleRating
}

// ScaleType is the numeric domain assigned to an item and inherited by its
// sub-items. It determines the input widget on the client and which wire
// field carries the measurement in an entry.
type ScaleType string

// Supported scale types.
const (
	ScaleRating    ScaleType = "rating"
	ScaleWeight    ScaleType = "weight"
	ScaleCount     ScaleType = "count"
	ScaleVolume    ScaleType = "volume"
	ScaleIntensity ScaleType = "intensity"
)

// Valid reports whether the scale type is a known member of the enum.
func (s ScaleType) Valid() bool {
	switch s {
	case ScaleRating, ScaleWeight, ScaleCount, ScaleVolume, ScaleIntensity:
		return true
	default:
		return false
	}
}

// ScaleDomain describes the numeric range and step size of a scale.
type ScaleDomain struct {
	// Min is the smallest accepted value.
	Min float64 `json:"min"`

	// Max is the largest accepted value.
	Max float64 `json:"max"`

	// Step is the granularity of accepted values.
	Step float64 `json:"step"`
}

// Contains reports whether v lies inside the domain on a step boundary.
func (d ScaleDomain) Contains(v float64) bool {
	if v < d.Min || v > d.Max {
		return false
	}
	steps := (v - d.Min) / d.Step
	return steps == float64(int64(steps))
}

// Domain returns the numeric domain of the scale: rating and intensity run
// 1-5 in steps of 1, weight 0-500 grams in steps of 10, count 0-10 in steps
// of 1, volume 0-1000 millilitres in steps of 50.
func (s ScaleType) Domain() ScaleDomain {
	switch s {
	case ScaleWeight:
		return ScaleDomain{Min: 0, Max: 500, Step: 10}
	case ScaleCount:
		return ScaleDomain{Min: 0, Max: 10, Step: 1}
	case ScaleVolume:
		return ScaleDomain{Min: 0, Max: 1000, Step: 50}
	default:
		return ScaleDomain{Min: 1, Max: 5, Step: 1}
	}
}

// Category is the root level of the taxonomy tree.
type Category struct {
	// ID is the unique identifier of the category.
	ID string `json:"id"`

	// Name is the display name of the category.
	Name string `json:"name"`

	// CategoryType controls default scale semantics for new items and
	// the entry composer layout on the client.
	CategoryType CategoryType `json:"categoryType"`

	// Items are the trackable items belonging to this category. An empty
	// list is a valid, permanent state; such a category is rated directly.
	Items []Item `json:"items"`
}

// Item is the middle level of the taxonomy tree. It belongs to exactly
// one category.
type Item struct {
	// ID is the unique identifier of the item.
	ID string `json:"id"`

	// Name is the display name of the item.
	Name string `json:"name"`

	// ScaleType is the numeric domain used when an entry is recorded
	// against this item or one of its sub-items.
	ScaleType ScaleType `json:"scaleType"`

	// SubItems are the leaf nodes under this item. They inherit its
	// scale type.
	SubItems []SubItem `json:"subItems"`
}

// SubItem is a leaf of the taxonomy tree.
type SubItem struct {
	// ID is the unique identifier of the sub-item.
	ID string `json:"id"`

	// Name is the display name of the sub-item.
	Name string `json:"name"`
}

// ScaleTypeFor resolves the scale of a taxonomy node id within the
// category: an item's own scale, or the parent item's scale for a sub-item.
// The second return value is false when the id is not part of this category.
func (c Category) ScaleTypeFor(nodeID string) (ScaleType, bool) {
	for _, item := range c.Items {
		if item.ID == nodeID {
			return item.ScaleType, true
		}
		for _, sub := range item.SubItems {
			if sub.ID == nodeID {
				return item.ScaleType, true
			}
		}
	}
	return "", false
}

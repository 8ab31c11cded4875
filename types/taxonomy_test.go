package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultScaleType(t *testing.T) {
	assert.Equal(t, ScaleWeight, CategoryFood.DefaultScaleType())
	assert.Equal(t, ScaleRating, CategorySelf.DefaultScaleType())
}

func TestScaleDomains(t *testing.T) {
	assert.Equal(t, ScaleDomain{Min: 1, Max: 5, Step: 1}, ScaleRating.Domain())
	assert.Equal(t, ScaleDomain{Min: 1, Max: 5, Step: 1}, ScaleIntensity.Domain())
	assert.Equal(t, ScaleDomain{Min: 0, Max: 500, Step: 10}, ScaleWeight.Domain())
	assert.Equal(t, ScaleDomain{Min: 0, Max: 10, Step: 1}, ScaleCount.Domain())
	assert.Equal(t, ScaleDomain{Min: 0, Max: 1000, Step: 50}, ScaleVolume.Domain())
}

func TestScaleDomainContains(t *testing.T) {
	weight := ScaleWeight.Domain()
	assert.True(t, weight.Contains(0))
	assert.True(t, weight.Contains(500))
	assert.False(t, weight.Contains(505))
	assert.False(t, weight.Contains(-10))
	assert.False(t, weight.Contains(15), "off the step grid")

	rating := ScaleRating.Domain()
	assert.False(t, rating.Contains(0))
	assert.True(t, rating.Contains(3))
	assert.False(t, rating.Contains(3.5))
}

func TestCategoryScaleTypeFor(t *testing.T) {
	category := Category{
		ID:           "feelings",
		CategoryType: CategorySelf,
		Items: []Item{
			{
				ID:        "physical",
				ScaleType: ScaleIntensity,
				SubItems:  []SubItem{{ID: "headache"}},
			},
		},
	}

	scale, ok := category.ScaleTypeFor("physical")
	assert.True(t, ok)
	assert.Equal(t, ScaleIntensity, scale)

	scale, ok = category.ScaleTypeFor("headache")
	assert.True(t, ok, "sub-items inherit the parent item scale")
	assert.Equal(t, ScaleIntensity, scale)

	_, ok = category.ScaleTypeFor("unknown")
	assert.False(t, ok)
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, CategoryFood.Valid())
	assert.True(t, CategorySelf.Valid())
	assert.False(t, CategoryType("mood").Valid())

	for _, s := range []ScaleType{ScaleRating, ScaleWeight, ScaleCount, ScaleVolume, ScaleIntensity} {
		assert.True(t, s.Valid())
	}
	assert.False(t, ScaleType("percent").Valid())
}

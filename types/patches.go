package types

// CategoryPatch carries the fields of a category update. Nil fields are
// left untouched (shallow merge).
type CategoryPatch struct {
	Name         *string       `json:"name"`
	CategoryType *CategoryType `json:"categoryType"`
}

// ItemPatch carries the fields of an item update. Nil fields are left
// untouched.
type ItemPatch struct {
	Name      *string    `json:"name"`
	ScaleType *ScaleType `json:"scaleType"`
}

// SubItemPatch carries the fields of a sub-item update. Nil fields are
// left untouched.
type SubItemPatch struct {
	Name *string `json:"name"`
}

package models

// Tag is a category an experience can be filtered by.
type Tag struct {
	TagName     string `json:"tag_name"`
	Description string `json:"description,omitempty"`
}

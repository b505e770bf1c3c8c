package models

type Category struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Slug          string   `json:"slug"`
	Count         int      `json:"count"`
	Subcategories []string `json:"subcategories,omitempty"`
}

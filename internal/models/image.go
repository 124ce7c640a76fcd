package models

import "time"

type Image struct {
	ID          int64     `json:"id"`
	PropertyID  int64     `json:"property_id"`
	URL         string    `json:"url"`
	LastUpdated time.Time `json:"last_updated"`
}

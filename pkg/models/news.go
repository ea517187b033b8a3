package models

import "time"

// NewsItem represents single news article attached to an instrument
type NewsItem struct {
	PublishedAt time.Time `json:"published_at" db:"published_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	Symbol      string    `json:"symbol" db:"symbol"`
	Title       string    `json:"title" db:"title"`
	URL         string    `json:"url" db:"url"`
	Source      string    `json:"source" db:"source"`
	ID          int64     `json:"id" db:"id"`
}

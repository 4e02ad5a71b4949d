package news

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("slug already in use")
	ErrInvalid   = errors.New("invalid input")
)

type Category struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type Entry struct {
	ID      int64     `json:"id"`
	Title   string    `json:"title"`
	Slug    string    `json:"slug"`
	Excerpt string    `json:"excerpt"`
	Body    string    `json:"body"`
	Author  string    `json:"author"`
	PubDate time.Time `json:"pubDate"`

	// Storage name of the attached image, empty when unset
	Image string `json:"image,omitempty"`

	Categories []Category `json:"categories"`
}

// ListOptions mirrors the entry admin listing: free text search over
// title, excerpt and body, a category filter and a date drill down.
type ListOptions struct {
	Query    string
	Category string // category slug
	Year     int
	Month    int // 1-12, only used together with Year
	Limit    int
	Offset   int
}

package domain

import "strings"

// Chapter holds one chapter's content for a work. Only posted chapters
// contribute to the work's derived word count.
type Chapter struct {
	Syncable
	WorkID   string `json:"work_id"`
	Position int    `json:"position"`
	Title    string `json:"title,omitempty"`
	Content  string `json:"content"`
	Posted   bool   `json:"posted"`
}

// WordCount returns the number of whitespace-separated tokens in the
// chapter content.
func (c *Chapter) WordCount() int {
	return len(strings.Fields(c.Content))
}

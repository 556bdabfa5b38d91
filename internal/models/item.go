// Package models defines the records produced by extraction and the API payloads built from them.
package models

// ExtractedItem is one qualifying data row: the text of its title and solution cells.
// At least one of the two fields is non-empty.
type ExtractedItem struct {
	Title    string `json:"title"`
	Solution string `json:"solution"`
}

// ExtractResponse is the body returned by the extract endpoint.
type ExtractResponse struct {
	ID        string          `json:"id"`
	FileName  string          `json:"file_name,omitempty"`
	Format    string          `json:"format"`
	ContentID string          `json:"content_id"`
	Count     int             `json:"count"`
	Items     []ExtractedItem `json:"items"`
}

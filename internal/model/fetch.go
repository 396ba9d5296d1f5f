package model

// FetchMeta contains HTTP metadata from a page fetch
type FetchMeta struct {
	StatusCode   int               `json:"status_code"`
	ContentType  string            `json:"content_type,omitempty"`
	LastModified string            `json:"last_modified,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
	FromCache    bool              `json:"from_cache,omitempty"`
}

// Page is a fetched HTML document
type Page struct {
	URL      string
	FinalURL string
	HTML     string
	Meta     FetchMeta
}

package models

// ZipListing holds archive entry paths in archive order.
type ZipListing struct {
	Entries []string `json:"entries"`
}

// ExtractResult describes a completed archive extraction.
type ExtractResult struct {
	Path  string `json:"path"`
	Files int    `json:"files"`
}

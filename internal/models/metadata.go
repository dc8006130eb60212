package models

// Metadata is the metadata.json file written next to the ranking files on publish
type Metadata struct {
	LastUpdated string `json:"last_updated"` // RFC 3339
	UpdateDate  string `json:"update_date"`  // 2006-01-02
	UpdateTime  string `json:"update_time"`  // 15:04:05
}

// DivisionStat is the per-division summary shown on the overview and API
type DivisionStat struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Count *int   `json:"count"` // nil when the division failed to load
}

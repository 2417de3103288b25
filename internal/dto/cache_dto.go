package dto

type CacheStatsResponse struct {
	Backend string  `json:"backend"`
	Entries int64   `json:"entries"`
	Hits    int64   `json:"hits"`
	HitRate float64 `json:"hit_rate"`
}

package dispatch

// Config defines dispatcher settings.
type Config struct {
	// Concurrency bounds how many objectives are partitioned or run at once.
	// Zero or negative means one per objective.
	Concurrency int `json:"concurrency"`
	// StoreQPS throttles record store calls when positive.
	StoreQPS   float64 `json:"store_qps"`
	StoreBurst int     `json:"store_burst"`
}

package dedup

// Key layout in the dedup KV store.
//
//	alert:<symbol>:<type>                 last price, exact-match family
//	pattern_alert:<symbol>:<patternType>  last price, percentage-move family
//	latest_alert:<symbol>                 JSON display-cache entry
const (
	exactKeyPrefix   = "alert:"
	patternKeyPrefix = "pattern_alert:"
	latestKeyPrefix  = "latest_alert:"
)

// ExactKey is the dedup fingerprint for the exact-match family (legacy P&F
// and RSI alerts), keyed by the alert's display type.
func ExactKey(symbol, alertType string) string {
	return exactKeyPrefix + symbol + ":" + alertType
}

// PatternKey is the dedup fingerprint for the percentage-move family,
// keyed by the stable pattern identifier.
func PatternKey(symbol, patternType string) string {
	return patternKeyPrefix + symbol + ":" + patternType
}

// LatestKey is the per-symbol display-cache key.
func LatestKey(symbol string) string {
	return latestKeyPrefix + symbol
}

package model

// Instrument is a watchlist entry: a display symbol plus the provider's
// opaque instrument identifier used for candle lookups.
type Instrument struct {
	Symbol        string `json:"symbol"`
	InstrumentKey string `json:"instrument_key"`
}

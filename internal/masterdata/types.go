package masterdata

import "time"

// Kind names one logical dataset.
type Kind string

const (
	KindDomestic Kind = "domestic"
	KindForeign  Kind = "foreign"
)

// Market is the domestic listing board.
type Market string

const (
	MarketKOSPI  Market = "KOSPI"
	MarketKOSDAQ Market = "KOSDAQ"
)

// Venue is the foreign exchange a ticker trades on.
type Venue string

const (
	VenueNASDAQ Venue = "NASDAQ"
	VenueNYSE   Venue = "NYSE"
	VenueAMEX   Venue = "AMEX"
)

// Record is one instrument from a vendor master file. Domestic records
// carry Market; foreign records carry Venue and optionally a LocalName.
// Records are immutable after parsing and superseded wholesale on the next
// full refresh.
type Record struct {
	Symbol    string `json:"symbol"`
	Name      string `json:"name"`
	Market    Market `json:"market,omitempty"`
	LocalName string `json:"localName,omitempty"`
	Venue     Venue  `json:"venue,omitempty"`
}

// Dataset is one deduplicated master list. Records are keyed by symbol,
// last-parsed-wins, and the whole value is replaced atomically on refresh —
// never patched field by field.
type Dataset struct {
	Records   map[string]Record `json:"records"`
	CreatedAt time.Time         `json:"createdAt"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// Fresh reports whether the dataset is inside its freshness window.
func (d *Dataset) Fresh(now time.Time) bool {
	return d != nil && now.Before(d.ExpiresAt)
}

// Status describes one dataset's cache state for the status endpoint.
type Status struct {
	Exists    bool       `json:"exists"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Count     int        `json:"count"`
}

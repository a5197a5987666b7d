package masterdata

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/stockboard/marketdata-go/internal/config"
)

// Domestic master lines are fixed-width: a short-code column, a standard
// (ISIN) column, the display name, then a flag block of single-width fields
// counted from the end of the line.
const (
	domesticCodeWidth   = 9   // short code column, 6-digit code left-aligned
	domesticISINWidth   = 12  // standard code column
	domesticTailWidth   = 228 // trailing fixed-width flag block
	domesticNameOffset  = domesticCodeWidth + domesticISINWidth
	domesticMinLineSize = domesticNameOffset + domesticTailWidth
)

var domesticCodePattern = regexp.MustCompile(`^\d{6}$`)

// nameMarkers are vendor metadata suffixes stripped from display names, in
// order: the security-group code tail first, then administrative notices.
// Order matters — the group code sits outermost on the line.
var nameMarkers = []*regexp.Regexp{
	regexp.MustCompile(`\s+(ST|MF|RT|SC|IF|DR|SW|SR|EW|EF|BC|FE|FS)\d*$`),
	regexp.MustCompile(`\((관리종목|거래정지|정리매매|투자주의)\)`),
	regexp.MustCompile(`\s+ETN\s*$`),
}

// Parser turns decoded master-file text into records. The foreign column
// layout comes from versioned configuration because the vendor has shifted
// columns between feed revisions.
type Parser struct {
	schema config.ForeignSchemaConfig
}

func NewParser(schema config.ForeignSchemaConfig) *Parser {
	return &Parser{schema: schema}
}

// ParseDomestic parses a fixed-width domestic segment. Malformed lines are
// skipped, never fatal: one bad line must not poison the batch.
func (p *Parser) ParseDomestic(text string, market Market) []Record {
	var records []Record
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		runes := []rune(line)
		if len(runes) < domesticMinLineSize {
			continue
		}

		symbol := strings.TrimSpace(string(runes[:domesticCodeWidth]))
		if !domesticCodePattern.MatchString(symbol) {
			continue
		}

		// Everything between the code columns and the trailing flag block
		// is the display-name region.
		name := cleanName(string(runes[domesticNameOffset : len(runes)-domesticTailWidth]))
		if name == "" {
			continue
		}

		records = append(records, Record{
			Symbol: symbol,
			Name:   name,
			Market: market,
		})
	}
	return records
}

// ParseForeign parses a tab-delimited foreign segment using the configured
// column schema. A line with fewer fields than the schema demands is a
// schema-drift signal, logged loudly (once per segment) and rejected rather
// than silently read with shifted columns.
func (p *Parser) ParseForeign(text string, venue Venue) []Record {
	var records []Record
	warned := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < p.schema.MinFields {
			if !warned {
				logrus.WithFields(logrus.Fields{
					"venue":          venue,
					"schema_version": p.schema.Version,
					"want_fields":    p.schema.MinFields,
					"got_fields":     len(fields),
				}).Error("foreign master line does not match configured schema, possible upstream column drift")
				warned = true
			}
			continue
		}

		symbol := strings.TrimSpace(fields[p.schema.SymbolIndex])
		if symbol == "" {
			continue
		}

		name := cleanName(fields[p.schema.EnglishNameIndex])
		if name == "" {
			continue
		}

		records = append(records, Record{
			Symbol:    symbol,
			Name:      name,
			LocalName: cleanName(fields[p.schema.LocalNameIndex]),
			Venue:     venue,
		})
	}
	return records
}

// cleanName strips vendor metadata suffixes by ordered pattern removal,
// then collapses runs of whitespace. An empty result means the record
// carried nothing but markers and is discarded by the caller.
func cleanName(raw string) string {
	name := strings.TrimSpace(raw)
	for _, marker := range nameMarkers {
		name = marker.ReplaceAllString(name, "")
	}
	return strings.Join(strings.Fields(name), " ")
}

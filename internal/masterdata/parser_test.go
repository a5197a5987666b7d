package masterdata

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockboard/marketdata-go/internal/config"
)

var testSchema = config.ForeignSchemaConfig{
	Version:          2,
	MinFields:        8,
	SymbolIndex:      4,
	LocalNameIndex:   6,
	EnglishNameIndex: 7,
}

// makeDomesticLine builds a well-formed fixed-width master line: short-code
// column, standard-code column, name region, then the trailing flag block.
func makeDomesticLine(code, nameRegion string) string {
	return fmt.Sprintf("%-9s%-12s%s%s", code, "KR7005930003", nameRegion, strings.Repeat("0", domesticTailWidth))
}

func makeForeignLine(fields ...string) string {
	return strings.Join(fields, "\t")
}

func TestParseDomestic_WellFormedLine(t *testing.T) {
	p := NewParser(testSchema)

	line := makeDomesticLine("005930", "삼성전자보통주 ST10")
	records := p.ParseDomestic(line, MarketKOSPI)

	require.Len(t, records, 1)
	assert.Equal(t, "005930", records[0].Symbol)
	assert.Equal(t, "삼성전자보통주", records[0].Name)
	assert.Equal(t, MarketKOSPI, records[0].Market)
}

func TestParseDomestic_MalformedLineTolerance(t *testing.T) {
	p := NewParser(testSchema)

	var lines []string
	for i := 0; i < 100; i++ {
		lines = append(lines, makeDomesticLine(fmt.Sprintf("%06d", i), fmt.Sprintf("종목%d", i)))
	}
	// One invalid line in the middle must not abort the batch
	lines = append(lines[:50], append([]string{"garbage line"}, lines[50:]...)...)

	records := p.ParseDomestic(strings.Join(lines, "\n"), MarketKOSDAQ)
	assert.Len(t, records, 100)
}

func TestParseDomestic_RejectsNonNumericCode(t *testing.T) {
	p := NewParser(testSchema)

	records := p.ParseDomestic(makeDomesticLine("ABC930", "이상한종목"), MarketKOSPI)
	assert.Empty(t, records)
}

func TestParseDomestic_ShortLineSkipped(t *testing.T) {
	p := NewParser(testSchema)

	records := p.ParseDomestic("005930 too short", MarketKOSPI)
	assert.Empty(t, records)
}

func TestParseDomestic_EmptyNameAfterCleanupDiscarded(t *testing.T) {
	p := NewParser(testSchema)

	// The name region holds nothing but a vendor marker
	records := p.ParseDomestic(makeDomesticLine("005930", "(관리종목)"), MarketKOSPI)
	assert.Empty(t, records)
}

func TestParseDomestic_CRLFLines(t *testing.T) {
	p := NewParser(testSchema)

	text := makeDomesticLine("005930", "삼성전자") + "\r\n" + makeDomesticLine("000660", "SK하이닉스") + "\r\n"
	records := p.ParseDomestic(text, MarketKOSPI)

	require.Len(t, records, 2)
	assert.Equal(t, "005930", records[0].Symbol)
	assert.Equal(t, "000660", records[1].Symbol)
}

func TestParseForeign_WellFormedLine(t *testing.T) {
	p := NewParser(testSchema)

	line := makeForeignLine("US", "512", "NAS", "NASDAQ", "AAPL", "AAPL.O", "애플", "Apple Inc")
	records := p.ParseForeign(line, VenueNASDAQ)

	require.Len(t, records, 1)
	assert.Equal(t, "AAPL", records[0].Symbol)
	assert.Equal(t, "Apple Inc", records[0].Name)
	assert.Equal(t, "애플", records[0].LocalName)
	assert.Equal(t, VenueNASDAQ, records[0].Venue)
}

func TestParseForeign_SchemaDriftRejected(t *testing.T) {
	p := NewParser(testSchema)

	// A feed revision with fewer columns must be rejected, not read with
	// shifted indices
	text := strings.Join([]string{
		makeForeignLine("US", "512", "NAS", "AAPL", "Apple Inc"),
		makeForeignLine("US", "512", "NAS", "NASDAQ", "MSFT", "MSFT.O", "마이크로소프트", "Microsoft Corp"),
	}, "\n")

	records := p.ParseForeign(text, VenueNASDAQ)
	require.Len(t, records, 1)
	assert.Equal(t, "MSFT", records[0].Symbol)
}

func TestParseForeign_EmptySymbolSkipped(t *testing.T) {
	p := NewParser(testSchema)

	line := makeForeignLine("US", "512", "NAS", "NASDAQ", "  ", "X", "이름", "Name")
	assert.Empty(t, p.ParseForeign(line, VenueNASDAQ))
}

func TestParseForeign_WhitespaceCollapsed(t *testing.T) {
	p := NewParser(testSchema)

	line := makeForeignLine("US", "512", "NYS", "NYSE", "BRK.B", "BRKb", "버크셔", "Berkshire   Hathaway  Inc")
	records := p.ParseForeign(line, VenueNYSE)

	require.Len(t, records, 1)
	assert.Equal(t, "Berkshire Hathaway Inc", records[0].Name)
}

func TestCleanName_OrderedMarkerRemoval(t *testing.T) {
	cases := map[string]string{
		"삼성전자보통주 ST10":   "삼성전자보통주",
		"KODEX 200 EF":    "KODEX 200",
		"어떤종목(거래정지) ST":  "어떤종목",
		"  spaced   name ": "spaced name",
		"(관리종목)":          "",
	}
	for input, want := range cases {
		assert.Equal(t, want, cleanName(input), "input %q", input)
	}
}

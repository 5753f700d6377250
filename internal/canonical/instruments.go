package canonical

import "strings"

// instrumentCatalog covers the CME futures contracts the builder supports.
// Tick values are per contract per tick.
var instrumentCatalog = map[string]Instrument{
	"ES":  {Symbol: "ES", Name: "E-mini S&P 500", TickSize: 0.25, TickValue: 12.50},
	"MES": {Symbol: "MES", Name: "Micro E-mini S&P 500", TickSize: 0.25, TickValue: 1.25},
	"NQ":  {Symbol: "NQ", Name: "E-mini Nasdaq-100", TickSize: 0.25, TickValue: 5.00},
	"MNQ": {Symbol: "MNQ", Name: "Micro E-mini Nasdaq-100", TickSize: 0.25, TickValue: 0.50},
	"YM":  {Symbol: "YM", Name: "E-mini Dow", TickSize: 1.00, TickValue: 5.00},
	"MYM": {Symbol: "MYM", Name: "Micro E-mini Dow", TickSize: 1.00, TickValue: 0.50},
	"RTY": {Symbol: "RTY", Name: "E-mini Russell 2000", TickSize: 0.10, TickValue: 5.00},
	"M2K": {Symbol: "M2K", Name: "Micro E-mini Russell 2000", TickSize: 0.10, TickValue: 0.50},
	"CL":  {Symbol: "CL", Name: "Crude Oil", TickSize: 0.01, TickValue: 10.00},
	"MCL": {Symbol: "MCL", Name: "Micro Crude Oil", TickSize: 0.01, TickValue: 1.00},
	"GC":  {Symbol: "GC", Name: "Gold", TickSize: 0.10, TickValue: 10.00},
	"MGC": {Symbol: "MGC", Name: "Micro Gold", TickSize: 0.10, TickValue: 1.00},
	"SI":  {Symbol: "SI", Name: "Silver", TickSize: 0.005, TickValue: 25.00},
	"ZB":  {Symbol: "ZB", Name: "30-Year T-Bond", TickSize: 0.03125, TickValue: 31.25},
}

// LookupInstrument resolves a symbol (any case, surrounding noise trimmed)
// against the supported catalog.
func LookupInstrument(symbol string) (Instrument, bool) {
	inst, ok := instrumentCatalog[strings.ToUpper(strings.TrimSpace(symbol))]
	return inst, ok
}

// SupportedSymbols lists the catalog symbols, for question options and
// validation messages.
func SupportedSymbols() []string {
	return []string{"ES", "MES", "NQ", "MNQ", "YM", "MYM", "RTY", "M2K", "CL", "MCL", "GC", "MGC", "SI", "ZB"}
}

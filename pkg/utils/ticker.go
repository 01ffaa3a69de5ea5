package utils

import (
	"sort"
	"strings"
)

// NormalizeTicker upper-cases a symbol and strips whitespace and a leading "$".
func NormalizeTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	return strings.TrimPrefix(t, "$")
}

// ParseTickers splits a comma or space separated list, normalizes each symbol
// and drops blanks and repeats while keeping the input order.
func ParseTickers(list ...string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, item := range list {
		for _, f := range strings.FieldsFunc(item, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' }) {
			t := NormalizeTicker(f)
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// Sectors maps sector names to representative tickers.
var Sectors = map[string][]string{
	"tech":       {"AAPL", "MSFT", "GOOGL", "META", "AMZN"},
	"retail":     {"WMT", "TGT", "COST", "HD", "LOW"},
	"financial":  {"JPM", "BAC", "GS", "MS", "WFC"},
	"healthcare": {"JNJ", "PFE", "MRK", "UNH", "ABBV"},
	"energy":     {"XOM", "CVX", "COP", "EOG", "SLB"},
	"telecom":    {"T", "VZ", "TMUS", "CMCSA", "CHTR"},
}

// SectorNames returns the known sector names in sorted order.
func SectorNames() []string {
	names := make([]string, 0, len(Sectors))
	for k := range Sectors {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// companyNames are used to match market-wide headlines that mention a
// company by name rather than by symbol.
var companyNames = map[string][]string{
	"AAPL":  {"apple", "iphone"},
	"MSFT":  {"microsoft", "azure"},
	"GOOGL": {"google", "alphabet"},
	"GOOG":  {"google", "alphabet"},
	"META":  {"meta platforms", "facebook", "instagram"},
	"AMZN":  {"amazon", "aws"},
	"TSLA":  {"tesla"},
	"NVDA":  {"nvidia"},
	"WMT":   {"walmart"},
	"TGT":   {"target corp"},
	"COST":  {"costco"},
	"HD":    {"home depot"},
	"LOW":   {"lowe's"},
	"JPM":   {"jpmorgan", "jp morgan"},
	"BAC":   {"bank of america"},
	"GS":    {"goldman sachs"},
	"MS":    {"morgan stanley"},
	"WFC":   {"wells fargo"},
	"JNJ":   {"johnson & johnson"},
	"PFE":   {"pfizer"},
	"MRK":   {"merck"},
	"UNH":   {"unitedhealth"},
	"ABBV":  {"abbvie"},
	"XOM":   {"exxon"},
	"CVX":   {"chevron"},
	"COP":   {"conocophillips"},
	"EOG":   {"eog resources"},
	"SLB":   {"schlumberger"},
	"T":     {"at&t"},
	"VZ":    {"verizon"},
	"TMUS":  {"t-mobile"},
	"CMCSA": {"comcast"},
	"CHTR":  {"charter communications"},
}

// TickerKeywords returns the lower-case terms that identify ticker in free text.
func TickerKeywords(ticker string) []string {
	t := NormalizeTicker(ticker)
	kw := []string{strings.ToLower(t), "$" + strings.ToLower(t)}
	return append(kw, companyNames[t]...)
}

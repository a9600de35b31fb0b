package domain

import "strings"

// Rule maps a case-insensitive substring of an exchange position symbol to a
// signal-source asset identifier. Rules are evaluated in slice order; the
// first match wins.
type Rule struct {
	Substring string
	Asset     string
}

// DefaultRules covers the contracts the account is expected to trade. The
// table is data so deployments can extend it from config without code
// changes.
func DefaultRules() []Rule {
	return []Rule{
		{Substring: "xbt", Asset: "BTCUSDT"},
		{Substring: "btc", Asset: "BTCUSDT"},
		{Substring: "eth", Asset: "ETHUSDT"},
		{Substring: "sol", Asset: "SOLUSDT"},
		{Substring: "xrp", Asset: "XRPUSDT"},
		{Substring: "ada", Asset: "ADAUSDT"},
		{Substring: "doge", Asset: "DOGEUSDT"},
	}
}

// Resolver bridges the exchange symbol namespace and the signal-source asset
// namespace.
type Resolver struct {
	rules []Rule
}

func NewResolver(rules []Rule) *Resolver {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		sub := strings.ToLower(strings.TrimSpace(r.Substring))
		asset := strings.TrimSpace(r.Asset)
		if sub == "" || asset == "" {
			continue
		}
		out = append(out, Rule{Substring: sub, Asset: asset})
	}
	return &Resolver{rules: out}
}

// Asset returns the signal-source asset identifier for an exchange position
// symbol, or "" when no rule matches.
func (r *Resolver) Asset(positionSymbol string) string {
	sym := strings.ToLower(positionSymbol)
	for _, rule := range r.rules {
		if strings.Contains(sym, rule.Substring) {
			return rule.Asset
		}
	}
	return ""
}

// Resolve maps a position symbol to its signal value within one signal set.
// Unmappable symbols and assets absent from the set degrade to 0; Resolve
// never fails.
func (r *Resolver) Resolve(positionSymbol string, signals map[string]Signal) int {
	asset := r.Asset(positionSymbol)
	if asset == "" {
		return 0
	}
	sig, ok := signals[asset]
	if !ok {
		return 0
	}
	return sig.Value
}

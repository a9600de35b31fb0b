package domain

import (
	"testing"
	"time"
)

func TestResolveKnownSymbol(t *testing.T) {
	r := NewResolver(nil)
	signals := map[string]Signal{
		"BTCUSDT": {Timeframe: "15m", Value: 1, UpdatedAt: time.Now()},
	}
	if got := r.Resolve("ff_xbtusd", signals); got != 1 {
		t.Errorf("Resolve(ff_xbtusd) = %d, want 1", got)
	}
	if got := r.Resolve("PF_XBTUSD", signals); got != 1 {
		t.Errorf("matching must be case-insensitive, got %d", got)
	}
}

func TestResolveUnknownSymbol(t *testing.T) {
	r := NewResolver(nil)
	signals := map[string]Signal{"BTCUSDT": {Timeframe: "15m", Value: 1}}
	if got := r.Resolve("unknown_sym", signals); got != 0 {
		t.Errorf("Resolve(unknown_sym) = %d, want 0", got)
	}
}

func TestResolveAssetAbsentFromSet(t *testing.T) {
	r := NewResolver(nil)
	signals := map[string]Signal{"ETHUSDT": {Timeframe: "15m", Value: -1}}
	if got := r.Resolve("pf_xbtusd", signals); got != 0 {
		t.Errorf("mapped asset missing from set must yield 0, got %d", got)
	}
}

func TestResolveNilSet(t *testing.T) {
	r := NewResolver(nil)
	if got := r.Resolve("pf_xbtusd", nil); got != 0 {
		t.Errorf("Resolve with nil set = %d, want 0", got)
	}
}

func TestResolverRuleOrderWins(t *testing.T) {
	r := NewResolver([]Rule{
		{Substring: "xbt", Asset: "FIRST"},
		{Substring: "usd", Asset: "SECOND"},
	})
	if got := r.Asset("pf_xbtusd"); got != "FIRST" {
		t.Errorf("first matching rule must win, got %q", got)
	}
}

func TestResolverCustomRules(t *testing.T) {
	r := NewResolver([]Rule{{Substring: "ltc", Asset: "LTCUSDT"}})
	if got := r.Asset("pf_ltcusd"); got != "LTCUSDT" {
		t.Errorf("custom rule not applied, got %q", got)
	}
	if got := r.Asset("pf_xbtusd"); got != "" {
		t.Errorf("custom table replaces defaults, got %q", got)
	}
}

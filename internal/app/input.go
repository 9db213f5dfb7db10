package app

import (
	"strconv"
	"strings"
)

// DefaultOnBlank is the value used for blank or unparseable numeric fields.
const DefaultOnBlank = 0

// amountReplacer strips currency formatting accepted in budget fields.
var amountReplacer = strings.NewReplacer("$", "", ",", "", "_", "", " ", "")

// ParseDay parses one whole-day field. Blank or unparseable input yields DefaultOnBlank and false.
func ParseDay(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultOnBlank, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return DefaultOnBlank, false
	}
	return value, true
}

// ParseAmount parses one whole-currency field, accepting "$" and thousands separators.
func ParseAmount(raw string) (int64, bool) {
	raw = amountReplacer.Replace(strings.TrimSpace(raw))
	if raw == "" {
		return DefaultOnBlank, false
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return DefaultOnBlank, false
	}
	return value, true
}

// ParseDays parses each field with ParseDay.
func ParseDays(raws []string) []int {
	out := make([]int, len(raws))
	for idx, raw := range raws {
		out[idx], _ = ParseDay(raw)
	}
	return out
}

// ClampBuffer bounds a buffer value to [lo, hi].
func ClampBuffer(value, lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return min(max(value, lo), hi)
}

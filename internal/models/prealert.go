// Scadenza - Multi-User Deadline Tracking with Live Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/scadenza

package models

// Pre-alert thresholds are a fixed vocabulary of lead times before a
// deadline's due moment, expressed in whole minutes. The names are the wire
// values stored in Deadline.Prealert.
var prealertMinutes = map[string]int{
	"15minuti": 15,
	"30minuti": 30,
	"1ora":     60,
	"1giorno":  24 * 60,
	"7giorni":  7 * 24 * 60,
	"15giorni": 15 * 24 * 60,
	"20giorni": 20 * 24 * 60,
	"1mese":    30 * 24 * 60,
	"3mesi":    90 * 24 * 60,
}

// prealertOrder lists thresholds from shortest to longest lead time.
var prealertOrder = []string{
	"15minuti", "30minuti", "1ora", "1giorno",
	"7giorni", "15giorni", "20giorni", "1mese", "3mesi",
}

// PrealertMinutes returns the lead time in minutes for a threshold name.
func PrealertMinutes(name string) (int, bool) {
	m, ok := prealertMinutes[name]
	return m, ok
}

// PrealertThresholds returns the threshold vocabulary ordered by lead time.
func PrealertThresholds() []string {
	out := make([]string, len(prealertOrder))
	copy(out, prealertOrder)
	return out
}

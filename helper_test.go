package binnaculum

// EUR is a helper for test to create euro money from const
func EUR(v float64) Money { return M(v, "EUR") }

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

// day is a helper for test to parse a canonical timestamp.
func day(s string) DateTime { return MustParseDateTime(s) }

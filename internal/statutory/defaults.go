package statutory

import "github.com/shopspring/decimal"

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

// defaultSSSBrackets is a condensed monthly contribution table used when a
// tenant computes payroll before an administrator has loaded one. The open
// top row carries the statutory maximum.
func defaultSSSBrackets() []ContributionBracket {
	rows := []struct {
		min, max string
		ee, er   string
	}{
		{"0", "4250", "180.00", "390.00"},
		{"4250", "8250", "292.50", "637.50"},
		{"8250", "12250", "472.50", "1027.50"},
		{"12250", "16250", "652.50", "1417.50"},
		{"16250", "20250", "832.50", "1807.50"},
		{"20250", "24250", "1012.50", "2197.50"},
		{"24250", "28250", "1192.50", "2587.50"},
		{"28250", "", "1350.00", "2930.00"},
	}

	brackets := make([]ContributionBracket, 0, len(rows))
	for _, row := range rows {
		b := ContributionBracket{
			Scheme:          SchemeSSS,
			CompensationMin: dec(row.min),
			EmployeeAmount:  dec(row.ee),
			EmployerAmount:  dec(row.er),
		}
		if row.max != "" {
			b.CompensationMax = decPtr(row.max)
		}
		brackets = append(brackets, b)
	}
	return brackets
}

// defaultTaxBrackets returns the progressive withholding tables for both pay
// frequencies (TRAIN schedule, 2023 onwards).
func defaultTaxBrackets() map[string][]TaxBracket {
	monthly := []struct{ threshold, base, rate string }{
		{"0", "0", "0"},
		{"20833", "0", "0.15"},
		{"33333", "1875.00", "0.20"},
		{"66667", "8541.80", "0.25"},
		{"166667", "33541.80", "0.30"},
		{"666667", "183541.80", "0.35"},
	}
	semiMonthly := []struct{ threshold, base, rate string }{
		{"0", "0", "0"},
		{"10417", "0", "0.15"},
		{"16667", "937.50", "0.20"},
		{"33333", "4270.70", "0.25"},
		{"83333", "16770.70", "0.30"},
		{"333333", "91770.70", "0.35"},
	}

	tables := map[string][]TaxBracket{}
	for _, row := range monthly {
		tables[FrequencyMonthly] = append(tables[FrequencyMonthly], TaxBracket{
			PayFrequency: FrequencyMonthly,
			Threshold:    dec(row.threshold),
			BaseTax:      dec(row.base),
			Rate:         dec(row.rate),
		})
	}
	for _, row := range semiMonthly {
		tables[FrequencySemiMonthly] = append(tables[FrequencySemiMonthly], TaxBracket{
			PayFrequency: FrequencySemiMonthly,
			Threshold:    dec(row.threshold),
			BaseTax:      dec(row.base),
			Rate:         dec(row.rate),
		})
	}
	return tables
}

package adjustment

// Category is the closed set of adjustment classifications. Aggregation is
// steered by the traits table below, never by string comparisons in logic.
type Category string

const (
	CategoryEarning       Category = "EARNING"
	CategoryOvertime      Category = "OVERTIME"
	CategoryAllowance     Category = "ALLOWANCE"
	CategoryDeMinimis     Category = "DE_MINIMIS"
	CategoryBenefit       Category = "BENEFIT"
	CategoryDeduction     Category = "DEDUCTION"
	CategoryReimbursement Category = "REIMBURSEMENT"
)

// Traits describe how a category participates in the pay equation.
// Sign is the category's effect on net pay. Exemptible categories count
// toward gross but are taxable only above the annual exemption ceiling.
type Traits struct {
	AffectsGross   bool
	AffectsTaxable bool
	Exemptible     bool
	Sign           int
}

var categoryTraits = map[Category]Traits{
	CategoryEarning:       {AffectsGross: true, AffectsTaxable: true, Sign: +1},
	CategoryOvertime:      {AffectsGross: true, AffectsTaxable: true, Sign: +1},
	CategoryAllowance:     {AffectsGross: true, AffectsTaxable: true, Sign: +1},
	CategoryDeMinimis:     {AffectsGross: true, Exemptible: true, Sign: +1},
	CategoryBenefit:       {AffectsGross: true, Exemptible: true, Sign: +1},
	CategoryDeduction:     {Sign: -1},
	CategoryReimbursement: {Sign: +1},
}

func (c Category) Valid() bool {
	_, ok := categoryTraits[c]
	return ok
}

func (c Category) Traits() Traits {
	return categoryTraits[c]
}

func Categories() []Category {
	return []Category{
		CategoryEarning,
		CategoryOvertime,
		CategoryAllowance,
		CategoryDeMinimis,
		CategoryBenefit,
		CategoryDeduction,
		CategoryReimbursement,
	}
}

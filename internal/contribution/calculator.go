// Package contribution computes Philippine statutory contributions and
// withholding tax. Everything here is pure: resolved tables and profile
// parameters in, amounts out, no persistence.
package contribution

import (
	contributionerrors "go-payroll/internal/contribution/errors"
	"go-payroll/internal/shared/money"
	"go-payroll/internal/statutory"

	"github.com/shopspring/decimal"
)

// Profile carries the tenant's rate-based scheme parameters.
type Profile struct {
	PhilHealthRate    decimal.Decimal
	PhilHealthMinBase decimal.Decimal
	PhilHealthMaxBase decimal.Decimal

	PagIbigEmployeeRate decimal.Decimal
	PagIbigEmployerRate decimal.Decimal
	PagIbigMaxBase      decimal.Decimal
}

// Result is the full set of per-scheme amounts for one employee.
type Result struct {
	SSSEmployee        decimal.Decimal
	SSSEmployer        decimal.Decimal
	PhilHealthEmployee decimal.Decimal
	PhilHealthEmployer decimal.Decimal
	PagIbigEmployee    decimal.Decimal
	PagIbigEmployer    decimal.Decimal
}

// EmployeeTotal is the mandatory employee-side deduction, which also reduces
// taxable income.
func (r Result) EmployeeTotal() decimal.Decimal {
	return r.SSSEmployee.Add(r.PhilHealthEmployee).Add(r.PagIbigEmployee)
}

func (r Result) EmployerTotal() decimal.Decimal {
	return r.SSSEmployer.Add(r.PhilHealthEmployer).Add(r.PagIbigEmployer)
}

// Compute derives all scheme amounts from monthly compensation. Bracket-based
// amounts come straight off the matched row; rate-based amounts are
// round(clampedBase * rate), rounded once per amount.
func Compute(compensation decimal.Decimal, brackets []statutory.ContributionBracket, profile Profile) (Result, error) {
	if compensation.IsNegative() {
		return Result{}, contributionerrors.ErrInvalidCompensation
	}

	bracket, err := statutory.BracketFor(brackets, compensation)
	if err != nil {
		return Result{}, err
	}

	philHealthBase := money.Clamp(compensation, profile.PhilHealthMinBase, profile.PhilHealthMaxBase)
	half := money.Round(philHealthBase.Mul(profile.PhilHealthRate).Div(decimal.NewFromInt(2)))

	pagIbigBase := money.Clamp(compensation, decimal.Zero, profile.PagIbigMaxBase)

	return Result{
		SSSEmployee:        bracket.EmployeeAmount,
		SSSEmployer:        bracket.EmployerAmount,
		PhilHealthEmployee: half,
		PhilHealthEmployer: half,
		PagIbigEmployee:    money.Round(pagIbigBase.Mul(profile.PagIbigEmployeeRate)),
		PagIbigEmployer:    money.Round(pagIbigBase.Mul(profile.PagIbigEmployerRate)),
	}, nil
}

// Withholding computes progressive withholding tax over taxable income:
// bracket base tax plus the marginal rate on the excess over the bracket
// threshold. Income below the lowest threshold owes nothing.
func Withholding(taxable decimal.Decimal, brackets []statutory.TaxBracket) decimal.Decimal {
	if taxable.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	bracket, ok := statutory.TaxBracketFor(brackets, taxable)
	if !ok {
		return decimal.Zero
	}

	excess := taxable.Sub(bracket.Threshold)
	return money.Round(bracket.BaseTax.Add(excess.Mul(bracket.Rate)))
}

package saidnumber

// CenturyPolicy resolves the two-digit birth year of an identity number to a
// full year.
type CenturyPolicy interface {
	FullYear(yy int) int
}

// DefaultPivot maps 00-49 to the 2000s and 50-99 to the 1900s.
const DefaultPivot FixedPivot = 50

// FixedPivot places two-digit years below the pivot in the 2000s and the rest
// in the 1900s.
type FixedPivot int

func (p FixedPivot) FullYear(yy int) int {
	if yy < int(p) {
		return 2000 + yy
	}
	return 1900 + yy
}

// RollingWindow maps a two-digit year to the latest year that is not after
// referenceYear, i.e. a 100-year window ending at referenceYear.
//
// The reference year is fixed when the policy is built. Callers that want the
// window to follow the calendar must rebuild the validator themselves.
func RollingWindow(referenceYear int) CenturyPolicy {
	return rollingWindow{reference: referenceYear}
}

type rollingWindow struct {
	reference int
}

func (w rollingWindow) FullYear(yy int) int {
	year := w.reference - w.reference%100 + yy
	if year > w.reference {
		year -= 100
	}
	return year
}

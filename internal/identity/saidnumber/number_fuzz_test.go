package saidnumber

import (
	"testing"
)

// FuzzValidate checks that arbitrary input never panics and that every
// accepted number satisfies the Luhn rule over all 13 digits.
func FuzzValidate(f *testing.F) {
	f.Add("")
	f.Add(maleCitizen1980)
	f.Add("800101-5009-087")
	f.Add("8013015009087")
	f.Add("8001015009088")
	f.Add("'; DROP TABLE verifications;--")
	f.Add(string([]byte{0x00, 0xff, 0x2d}))
	f.Add("８００１０１５００９０８７")

	f.Fuzz(func(t *testing.T, input string) {
		result := Validate(input)
		id, err := Parse(input)

		if result.Valid != (err == nil) {
			t.Fatalf("Validate and Parse disagree for %q: valid=%v err=%v", input, result.Valid, err)
		}
		if !result.Valid {
			if result.Error == "" {
				t.Fatalf("invalid result without error kind for %q", input)
			}
			return
		}

		digits := id.String()
		if len(digits) != Length || !allDigits(digits) {
			t.Fatalf("accepted %q normalised to %q", input, digits)
		}
		if !luhnValid(digits) {
			t.Fatalf("accepted %q fails the full Luhn check", input)
		}
		if again := Validate(digits); !equalResults(again, result) {
			t.Fatalf("normalised form validates differently: %+v vs %+v", again, result)
		}
	})
}

// luhnValid is the textbook right-to-left Luhn check over the whole string.
func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		d := int(number[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func equalResults(a, b Result) bool {
	if a.Valid != b.Valid || a.Error != b.Error || a.Gender != b.Gender || a.Citizenship != b.Citizenship {
		return false
	}
	if (a.DateOfBirth == nil) != (b.DateOfBirth == nil) {
		return false
	}
	return a.DateOfBirth == nil || *a.DateOfBirth == *b.DateOfBirth
}

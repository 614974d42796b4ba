package saidnumber

import (
	"fmt"
	"strings"
	"time"
)

// Length is the number of digits in a normalised identity number.
const Length = 13

// maleSequenceFloor is the first gender sequence value assigned to males.
const maleSequenceFloor = 5000

// Gender derived from the sequence digits.
type Gender string

const (
	Female Gender = "Female"
	Male   Gender = "Male"
)

// Citizenship derived from digit 10.
type Citizenship string

const (
	Citizen           Citizenship = "Citizen"
	PermanentResident Citizenship = "PermanentResident"
)

// Identity is a checksum-valid identity number together with its derived
// attributes. The zero value is not a valid identity; use Parse.
type Identity struct {
	digits      string
	dateOfBirth Date
	sequence    int
	gender      Gender
	citizenship Citizenship
}

// String returns the normalised 13 digits.
func (id Identity) String() string {
	return id.digits
}

// Masked keeps the date of birth and hides the rest, for logs and listings.
func (id Identity) Masked() string {
	if id.digits == "" {
		return ""
	}
	return Mask(id.digits)
}

func (id Identity) IsZero() bool {
	return id.digits == ""
}

func (id Identity) DateOfBirth() Date {
	return id.dateOfBirth
}

func (id Identity) Gender() Gender {
	return id.gender
}

func (id Identity) Citizenship() Citizenship {
	return id.citizenship
}

// Sequence returns the four gender sequence digits as a number.
func (id Identity) Sequence() int {
	return id.sequence
}

// Age returns the completed years between the date of birth and on.
func (id Identity) Age(on Date) int {
	dob := id.dateOfBirth
	age := on.Year - dob.Year
	if on.Before(Date{Year: on.Year, Month: dob.Month, Day: dob.Day}) {
		age--
	}
	return age
}

// Validator parses identity numbers under a fixed century policy. A Validator
// is immutable and safe for concurrent use.
type Validator struct {
	century        CenturyPolicy
	strictCalendar bool
}

// Option configures a Validator.
type Option func(*Validator)

// WithCenturyPolicy replaces the default fixed pivot.
func WithCenturyPolicy(p CenturyPolicy) Option {
	return func(v *Validator) {
		if p != nil {
			v.century = p
		}
	}
}

// WithStrictCalendar rejects dates that do not exist, such as 31 April or
// 29 February outside a leap year, as InvalidDate.
func WithStrictCalendar() Option {
	return func(v *Validator) {
		v.strictCalendar = true
	}
}

// New returns a Validator using DefaultPivot unless configured otherwise.
func New(opts ...Option) *Validator {
	v := &Validator{century: DefaultPivot}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

var defaultValidator = New()

// Policy names the rules v applies, e.g. "pivot50/range" or "rolling2026/strict".
// Two validators with the same Policy give the same Result for every input.
func (v *Validator) Policy() string {
	var century string
	switch p := v.century.(type) {
	case FixedPivot:
		century = fmt.Sprintf("pivot%d", int(p))
	case rollingWindow:
		century = fmt.Sprintf("rolling%d", p.reference)
	default:
		century = fmt.Sprintf("%T%v", p, p)
	}
	if v.strictCalendar {
		return century + "/strict"
	}
	return century + "/range"
}

// Parse validates raw with the default validator.
func Parse(raw string) (Identity, error) {
	return defaultValidator.Parse(raw)
}

// Validate checks raw with the default validator.
func Validate(raw string) Result {
	return defaultValidator.Validate(raw)
}

// Validate checks raw and reports the outcome as a Result.
func (v *Validator) Validate(raw string) Result {
	id, err := v.Parse(raw)
	if err != nil {
		return failure(err.(*ValidationError).Kind)
	}
	return ResultOf(id)
}

// Parse normalises raw and returns the Identity it encodes. The returned error
// is always a *ValidationError.
func (v *Validator) Parse(raw string) (Identity, error) {
	digits := Normalize(raw)
	if len(digits) != Length {
		return Identity{}, newError(InvalidLength, "got %d characters, want %d", len(digits), Length)
	}
	if !allDigits(digits) {
		return Identity{}, newError(InvalidLength, "contains non-digit characters")
	}

	yy := twoDigits(digits, 0)
	month := twoDigits(digits, 2)
	day := twoDigits(digits, 4)
	if month < 1 || month > 12 {
		return Identity{}, newError(InvalidDate, "month %02d out of range", month)
	}
	if day < 1 || day > 31 {
		return Identity{}, newError(InvalidDate, "day %02d out of range", day)
	}
	year := v.century.FullYear(yy)
	if v.strictCalendar && day > daysIn(year, time.Month(month)) {
		return Identity{}, newError(InvalidDate, "%04d-%02d has no day %02d", year, month, day)
	}

	want := checkDigit(digits)
	if got := int(digits[12] - '0'); got != want {
		return Identity{}, newError(InvalidChecksum, "check digit %d, want %d", got, want)
	}

	sequence := twoDigits(digits, 6)*100 + twoDigits(digits, 8)
	gender := Female
	if sequence >= maleSequenceFloor {
		gender = Male
	}
	citizenship := Citizen
	if digits[10] != '0' {
		citizenship = PermanentResident
	}

	return Identity{
		digits:      digits,
		dateOfBirth: Date{Year: year, Month: time.Month(month), Day: day},
		sequence:    sequence,
		gender:      gender,
		citizenship: citizenship,
	}, nil
}

// Normalize removes spaces, tabs and hyphens. Every other character is kept so
// that stray letters or punctuation fail the length check.
func Normalize(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '-':
			return -1
		}
		return r
	}, raw)
}

// Mask renders the first six characters of a normalised number followed by
// asterisks for the remainder. Inputs of six characters or fewer are fully
// masked. Characters are runes, so malformed input still masks to valid UTF-8.
func Mask(digits string) string {
	runes := []rune(digits)
	if len(runes) <= 6 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:6]) + strings.Repeat("*", len(runes)-6)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func twoDigits(s string, at int) int {
	return int(s[at]-'0')*10 + int(s[at+1]-'0')
}

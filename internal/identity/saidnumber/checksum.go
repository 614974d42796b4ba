package saidnumber

// checkDigit computes the Luhn check digit for the first 12 digits of an
// ASCII digit string. The digit at position 11 is doubled, then every second
// digit walking left.
func checkDigit(digits string) int {
	sum := 0
	double := true
	for i := 11; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return (10 - sum%10) % 10
}

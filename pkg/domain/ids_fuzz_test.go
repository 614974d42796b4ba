package domain

import (
	"slices"
	"testing"
)

func FuzzParseIDs(f *testing.F) {
	for _, seed := range []string{
		"",
		"550e8400-e29b-41d4-a716-446655440000",
		"00000000-0000-0000-0000-000000000000",
		"{550e8400-e29b-41d4-a716-446655440000}",
		"8001015009087",
		"'; DROP TABLE identity_verifications;--",
		"\x00\x01\x02",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, input string) {
		vid, vErr := ParseVerificationID(input)
		oid, oErr := ParseOperatorID(input)
		if (vErr == nil) != (oErr == nil) {
			t.Fatalf("verification and operator IDs disagree on %q", input)
		}
		if vErr != nil {
			return
		}
		if vid.IsNil() || oid.IsNil() {
			t.Fatalf("nil UUID accepted from %q", input)
		}
		again, err := ParseVerificationID(vid.String())
		if err != nil || again != vid {
			t.Fatalf("canonical form %q does not parse back", vid.String())
		}
	})
}

func FuzzParseAPIVersion(f *testing.F) {
	f.Add("v1")
	f.Add("V1")
	f.Add("v1 ")
	f.Add("v2")

	f.Fuzz(func(t *testing.T, input string) {
		v, err := ParseAPIVersion(input)
		supported := slices.Contains(SupportedVersions(), APIVersion(input))
		if supported != (err == nil) {
			t.Fatalf("ParseAPIVersion(%q) err=%v, supported=%v", input, err, supported)
		}
		if err == nil && v.String() != input {
			t.Fatalf("parsed %q as %q", input, v)
		}
	})
}

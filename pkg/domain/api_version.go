package domain

import (
	"fmt"
	"slices"
)

// APIVersion names a URL version prefix and the version claim minted into
// operator tokens. Only values listed in supportedVersions parse.
type APIVersion string

const APIVersionV1 APIVersion = "v1"

// supportedVersions is ordered oldest first; position is the rank used by IsAtLeast.
var supportedVersions = []APIVersion{APIVersionV1}

func ParseAPIVersion(s string) (APIVersion, error) {
	v := APIVersion(s)
	if v.rank() < 0 {
		return "", fmt.Errorf("unsupported API version %q", s)
	}
	return v, nil
}

func (v APIVersion) String() string { return string(v) }

func (v APIVersion) IsNil() bool { return v == "" }

func (v APIVersion) rank() int { return slices.Index(supportedVersions, v) }

// IsAtLeast reports whether v is as new as other. An unsupported v is never at
// least anything; any supported v is at least an unsupported other.
func (v APIVersion) IsAtLeast(other APIVersion) bool {
	mine := v.rank()
	if mine < 0 {
		return false
	}
	return mine >= other.rank()
}

// SupportedVersions lists the accepted versions, oldest first.
func SupportedVersions() []APIVersion {
	return slices.Clone(supportedVersions)
}

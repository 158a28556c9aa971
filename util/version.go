package util

import (
	"strings"

	"golang.org/x/mod/semver"
)

var InvalidVersionError = NewError("invalid version found")

// Version is the semver of the binary; "v" prefix is optional.
type Version string

func (vs Version) String() string {
	return string(vs)
}

// GO returns golang style semver string. It does not check IsValid().
func (vs Version) GO() string {
	s := string(vs)
	if strings.HasPrefix(s, "v") {
		return s
	}

	return "v" + s
}

func (vs Version) IsValid([]byte) error {
	if !semver.IsValid(vs.GO()) {
		return InvalidVersionError.Errorf("version=%q", vs)
	}

	return nil
}

package bundle

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is the format version stamped into every bundle header.
type Version struct {
	Major    uint8
	Minor    uint8
	Revision uint16
}

// EngineVersion is the newest format this package reads and the version it writes.
var EngineVersion = Version{Major: 1, Minor: 1, Revision: 0}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Revision)
}

// Compare returns -1 if v < o, 0 if v == o, 1 if v > o
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		return cmpInt(int(v.Major), int(o.Major))
	case v.Minor != o.Minor:
		return cmpInt(int(v.Minor), int(o.Minor))
	default:
		return cmpInt(int(v.Revision), int(o.Revision))
	}
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// ParseVersion parses "major.minor[.revision]" (e.g., "1.1.0")
func ParseVersion(version string) (Version, error) {
	if version == "" {
		return Version{}, fmt.Errorf("version string cannot be empty")
	}

	parts := strings.Split(version, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return Version{}, fmt.Errorf("invalid version format: %s (expected major.minor[.revision])", version)
	}

	major, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return Version{}, fmt.Errorf("invalid major version: %s", parts[0])
	}

	minor, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return Version{}, fmt.Errorf("invalid minor version: %s", parts[1])
	}

	var revision uint64
	if len(parts) == 3 && parts[2] != "" {
		revision, err = strconv.ParseUint(parts[2], 10, 16)
		if err != nil {
			return Version{}, fmt.Errorf("invalid revision: %s", parts[2])
		}
	}

	return Version{
		Major:    uint8(major),
		Minor:    uint8(minor),
		Revision: uint16(revision),
	}, nil
}

// checkVersion applies the compatibility policy: the major version must
// match and the minor version must not be newer. A newer revision is
// readable; ahead reports it so the caller can warn.
func checkVersion(v Version) (ahead bool, err error) {
	if v.Major != EngineVersion.Major || v.Minor > EngineVersion.Minor {
		return false, fmt.Errorf("%w: bundle %s, engine %s", ErrVersionMismatch, v, EngineVersion)
	}
	return v.Revision > EngineVersion.Revision, nil
}

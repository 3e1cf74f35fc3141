// Package priority packs and unpacks a role identifier into the
// priority field of a container request, so that a container handed
// back by the allocator carries its role with it.
package priority

import "fmt"

// MaxRoleID bounds what fits in the priority field alongside the
// reserved high bit used by EncodeUnique.
const MaxRoleID = 1<<16 - 1

const uniqueBit int32 = 1 << 30

// ConfigurationError reports a role id that cannot be represented as a
// priority. This package does not detect duplicate role ids; the
// engine's BuildInstance does.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string { return e.Message }

// Encode packs roleID into a priority value. roleID must satisfy
// 1 <= roleID <= MaxRoleID.
func Encode(roleID int) (int32, error) {
	if roleID < 1 || roleID > MaxRoleID {
		return 0, &ConfigurationError{Message: fmt.Sprintf("role id %d out of range [1,%d]", roleID, MaxRoleID)}
	}
	return int32(roleID), nil
}

// EncodeUnique packs roleID with the high bit set, reserving a
// priority bucket that cannot collide with a non-unique request for
// the same role. Roles opting into exclusive priorities (one container
// at a time, e.g. a singleton coordinator role) use this.
func EncodeUnique(roleID int) (int32, error) {
	p, err := Encode(roleID)
	if err != nil {
		return 0, err
	}
	return p | uniqueBit, nil
}

// Extract returns the role id carried by a priority value produced by
// Encode or EncodeUnique.
func Extract(p int32) int {
	return int(p &^ uniqueBit)
}

// IsUnique reports whether the priority was produced by EncodeUnique.
func IsUnique(p int32) bool {
	return p&uniqueBit != 0
}

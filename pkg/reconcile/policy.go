package reconcile

import (
	"slices"

	"github.com/agentstation/authmatch/pkg/errors"
)

// Policy decides whether normalized local values agree with the
// normalized authority values of the same subfield.
type Policy interface {
	// Name returns the policy name
	Name() string

	// Consistent reports whether local agrees with authority
	Consistent(local, authority []string) bool
}

// PolicyType identifies a built-in policy.
type PolicyType string

const (
	// PolicyTypeContainment requires every local value to appear among the
	// authority values.
	PolicyTypeContainment PolicyType = "containment"
	// PolicyTypeStrict requires a single local value equal to the first
	// authority value, with matching counts.
	PolicyTypeStrict PolicyType = "strict"
)

// containmentPolicy is the default policy.
type containmentPolicy struct{}

// PolicyContainment returns the containment policy.
func PolicyContainment() Policy { return containmentPolicy{} }

func (containmentPolicy) Name() string { return string(PolicyTypeContainment) }

func (containmentPolicy) Consistent(local, authority []string) bool {
	for _, v := range local {
		if !slices.Contains(authority, v) {
			return false
		}
	}
	return true
}

type strictPolicy struct{}

// PolicyStrict returns the strict equality policy.
func PolicyStrict() Policy { return strictPolicy{} }

func (strictPolicy) Name() string { return string(PolicyTypeStrict) }

func (strictPolicy) Consistent(local, authority []string) bool {
	if len(local) != len(authority) || len(local) == 0 {
		return len(local) == 0 && len(authority) == 0
	}
	return len(local) == 1 && local[0] == authority[0]
}

// NewPolicy returns the built-in policy for t.
func NewPolicy(t PolicyType) (Policy, error) {
	switch t {
	case PolicyTypeContainment, "":
		return PolicyContainment(), nil
	case PolicyTypeStrict:
		return PolicyStrict(), nil
	}
	return nil, errors.NewValidationError("policy", string(t), "must be containment or strict")
}

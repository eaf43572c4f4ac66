package paths

import (
	"fmt"
	"strings"
)

// PrefixRule decides the parent prefix of a run from its recoil element
// prefix. Sibling recoils share files only when the rule maps them to the
// same prefix.
type PrefixRule interface {
	ParentPrefix(elementPrefix string) string
}

// PrefixFunc adapts a function to PrefixRule.
type PrefixFunc func(elementPrefix string) string

func (f PrefixFunc) ParentPrefix(elementPrefix string) string { return f(elementPrefix) }

var (
	// ParentEmpty names shared files "-<name>.*"; every recoil of the
	// simulation shares one target, detector and foils file.
	ParentEmpty PrefixRule = PrefixFunc(func(string) string { return "" })

	// ParentFromElement gives every recoil element its own shared files.
	ParentFromElement PrefixRule = PrefixFunc(func(p string) string { return p })
)

// ParentFixed uses the same prefix for every recoil element.
func ParentFixed(prefix string) PrefixRule {
	return PrefixFunc(func(string) string { return prefix })
}

// ParseRule maps "empty", "element" or "fixed:<prefix>" to a rule.
func ParseRule(s string) (PrefixRule, error) {
	switch {
	case s == "" || s == "empty":
		return ParentEmpty, nil
	case s == "element":
		return ParentFromElement, nil
	case strings.HasPrefix(s, "fixed:"):
		return ParentFixed(strings.TrimPrefix(s, "fixed:")), nil
	default:
		return nil, fmt.Errorf("unknown prefix rule: %s", s)
	}
}

// NewIdentity builds an identity, deriving the parent prefix with rule.
// An empty recoilName falls back to name.
func NewIdentity(dir, name, recoilName, elementPrefix string, seed int, rule PrefixRule) Identity {
	if rule == nil {
		rule = ParentEmpty
	}
	return Identity{
		Name:          name,
		RecoilName:    recoilName,
		ElementPrefix: elementPrefix,
		ParentPrefix:  rule.ParentPrefix(elementPrefix),
		Seed:          seed,
		Directory:     dir,
	}
}

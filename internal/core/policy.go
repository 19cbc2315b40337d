package core

import "github.com/git-pkgs/packument/internal/scanner"

// fieldPolicy says how the extractor treats a top-level member.
type fieldPolicy uint8

const (
	// policySkip members are stepped over without decoding.
	policySkip fieldPolicy = iota
	// policyRequired members are materialized; construction fails without them.
	policyRequired
	// policyMaterialize members are decoded; a type mismatch leaves them absent.
	policyMaterialize
	// policyIndex members are walked one level deep, recording spans only.
	policyIndex
)

func (p fieldPolicy) String() string {
	switch p {
	case policyRequired:
		return "required"
	case policyMaterialize:
		return "optional-materialize"
	case policyIndex:
		return "optional-index"
	}
	return "skip"
}

// fieldRule binds a top-level key to its policy and extractor. extract must
// consume exactly the member's value and reports whether the field ended up
// present.
type fieldRule struct {
	key     string
	policy  fieldPolicy
	extract func(b *indexBuilder, s *scanner.Scanner) (bool, error)
}

var fieldRules = []fieldRule{
	{key: "name", policy: policyRequired, extract: extractName},
	{key: "description", policy: policyMaterialize, extract: extractDescription},
	{key: "readme", policy: policyMaterialize, extract: extractReadme},
	{key: "time", policy: policyMaterialize, extract: extractTime},
	{key: "dist-tags", policy: policyMaterialize, extract: extractDistTags},
	{key: "versions", policy: policyIndex, extract: indexVersions},
}

// ruleFor returns the rule for key, or nil for keys that are skipped.
func ruleFor(key string) *fieldRule {
	for i := range fieldRules {
		if fieldRules[i].key == key {
			return &fieldRules[i]
		}
	}
	return nil
}

// policyFor returns the policy applied to key.
func policyFor(key string) fieldPolicy {
	if r := ruleFor(key); r != nil {
		return r.policy
	}
	return policySkip
}

package techniques

// Action is what a Rule does to a matching material value key.
type Action int

const (
	// ActionRename renames the key and keeps resolving it against the
	// technique uniforms under the new name.
	ActionRename Action = iota
	// ActionSyntheticUniform renames the key to a uniform that may not exist in
	// the technique, declares that uniform with the rule's type, and stops.
	ActionSyntheticUniform
)

func (a Action) String() string {
	switch a {
	case ActionRename:
		return "rename"
	case ActionSyntheticUniform:
		return "synthetic_uniform"
	default:
		return "unknown"
	}
}

// Rule rewrites a material value key that cannot be resolved by uniform
// lookup alone. Rules run in order before the lookup.
type Rule struct {
	Match  string
	Action Action
	Target string
	// Type is the GL type code declared for synthetic uniforms.
	Type int
}

// TypeSampler2D is the GL SAMPLER_2D type code.
const TypeSampler2D = 35678

// DefaultRules returns the rewrite table for quirks seen in exported
// KHR_technique_webgl assets.
func DefaultRules() []Rule {
	return []Rule{
		{Match: "tranparency", Action: ActionRename, Target: "transparency"},
		{Match: "EMISSION", Action: ActionSyntheticUniform, Target: "u_emissionTexture", Type: TypeSampler2D},
	}
}

func syntheticUniforms(rules []Rule) map[string]struct{} {
	out := make(map[string]struct{})
	for _, r := range rules {
		if r.Action == ActionSyntheticUniform {
			out[r.Target] = struct{}{}
		}
	}
	return out
}

package metadata

import "strings"

// PolicyTypeSet is the default ODRL policy type.
const PolicyTypeSet = "Set"

// Policy is an ODRL-style ruleset. Stores persist and return it whole; its
// semantics are never evaluated here.
type Policy struct {
	Type         string `json:"@type,omitempty" yaml:"type,omitempty"`
	Assigner     string `json:"assigner,omitempty" yaml:"assigner,omitempty"`
	Target       string `json:"target,omitempty" yaml:"target,omitempty"`
	Permissions  []Rule `json:"permission,omitempty" yaml:"permissions,omitempty"`
	Prohibitions []Rule `json:"prohibition,omitempty" yaml:"prohibitions,omitempty"`
	Obligations  []Rule `json:"obligation,omitempty" yaml:"obligations,omitempty"`
}

// Rule is a permission, prohibition or obligation.
type Rule struct {
	Action      string       `json:"action,omitempty" yaml:"action,omitempty"`
	Constraints []Constraint `json:"constraint,omitempty" yaml:"constraints,omitempty"`
	Duties      []Rule       `json:"duty,omitempty" yaml:"duties,omitempty"`
}

// Constraint restricts a rule, e.g. purpose eq research.
type Constraint struct {
	LeftOperand  string `json:"leftOperand" yaml:"leftOperand"`
	Operator     string `json:"operator" yaml:"operator"`
	RightOperand any    `json:"rightOperand" yaml:"rightOperand"`
}

// IsEmpty reports whether the policy carries no rules at all, i.e. permits everything.
func (p Policy) IsEmpty() bool {
	return len(p.Permissions) == 0 && len(p.Prohibitions) == 0 && len(p.Obligations) == 0
}

func (p Policy) Clone() Policy {
	p.Permissions = cloneRules(p.Permissions)
	p.Prohibitions = cloneRules(p.Prohibitions)
	p.Obligations = cloneRules(p.Obligations)
	return p
}

func cloneRules(rules []Rule) []Rule {
	if rules == nil {
		return nil
	}
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = Rule{Action: r.Action, Duties: cloneRules(r.Duties)}
		if r.Constraints != nil {
			out[i].Constraints = make([]Constraint, len(r.Constraints))
			for j, c := range r.Constraints {
				c.RightOperand = cloneValue(c.RightOperand)
				out[i].Constraints[j] = c
			}
		}
	}
	return out
}

// PolicyDefinition is a named, storable policy.
type PolicyDefinition struct {
	ID                string         `json:"id" yaml:"id"`
	Policy            Policy         `json:"policy" yaml:"policy"`
	PrivateProperties map[string]any `json:"privateProperties,omitempty" yaml:"privateProperties,omitempty"`
}

func (d PolicyDefinition) EntityID() string { return d.ID }

// Property resolves against the definition's private properties.
func (d PolicyDefinition) Property(key string) (any, bool) {
	return lookupProperty(d.PrivateProperties, key)
}

func (d PolicyDefinition) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return invalid("policy definition id must not be empty")
	}
	return nil
}

func (d PolicyDefinition) Clone() PolicyDefinition {
	return PolicyDefinition{
		ID:                d.ID,
		Policy:            d.Policy.Clone(),
		PrivateProperties: cloneProperties(d.PrivateProperties),
	}
}

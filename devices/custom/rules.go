package custom

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// UnitRule assigns Unit to every field whose name satisfies When. When is an
// expr-language boolean expression over the variable name, for example
// `lower(name) contains "pressure"`.
type UnitRule struct {
	When string `yaml:"when" json:"when"`
	Unit string `yaml:"unit" json:"unit"`
}

type compiledRule struct {
	source  string
	unit    string
	program *vm.Program
}

// ruleSet evaluates compiled unit rules in declaration order. Evaluation
// errors are kept so the caller can fail the expansion afterwards.
type ruleSet struct {
	rules []compiledRule
	err   error
}

func ruleEnv(name string) map[string]interface{} {
	return map[string]interface{}{"name": name}
}

func compileRules(rules []UnitRule) (*ruleSet, error) {
	set := &ruleSet{rules: make([]compiledRule, 0, len(rules))}
	for i, rule := range rules {
		if rule.When == "" {
			return nil, fmt.Errorf("unit rule %d: when must not be empty", i)
		}
		if rule.Unit == "" {
			return nil, fmt.Errorf("unit rule %d: unit must not be empty", i)
		}
		program, err := expr.Compile(rule.When, expr.Env(ruleEnv("")), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("unit rule %d (%q): %w", i, rule.When, err)
		}
		set.rules = append(set.rules, compiledRule{source: rule.When, unit: rule.Unit, program: program})
	}
	return set, nil
}

func (s *ruleSet) resolve(name string) (string, bool) {
	if s == nil || s.err != nil {
		return "", false
	}
	for _, rule := range s.rules {
		out, err := vm.Run(rule.program, ruleEnv(name))
		if err != nil {
			s.err = fmt.Errorf("unit rule %q on %q: %w", rule.source, name, err)
			return "", false
		}
		if matched, ok := out.(bool); ok && matched {
			return rule.unit, true
		}
	}
	return "", false
}

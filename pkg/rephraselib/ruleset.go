package rephraselib

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Rule describes a single term substitution. An empty Domains list applies the
// rule to every fetched page; an empty Attributes list falls back to the
// default human-readable attribute set.
type Rule struct {
	From       string   `yaml:"from" validate:"required"`
	To         string   `yaml:"to" validate:"required"`
	Domains    []string `yaml:"domains,omitempty"`
	Attributes []string `yaml:"attributes,omitempty"`
}

type RuleSet []Rule

var validate = validator.New()

// LoadRuleset reads rewrite rules from a semicolon-separated list of YAML files
// or directories. A missing path is an error; an empty path string yields an
// empty set.
func LoadRuleset(rulePaths string) (RuleSet, error) {
	if rulePaths == "" {
		return RuleSet{}, nil
	}

	var ruleSet RuleSet

	for _, rulePath := range strings.Split(rulePaths, ";") {
		trimmedPath := strings.TrimSpace(rulePath)
		if trimmedPath == "" {
			continue
		}

		err := filepath.Walk(trimmedPath, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || !(strings.HasSuffix(path, ".yml") || strings.HasSuffix(path, ".yaml")) {
				return nil
			}
			yamlFile, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read rules file '%s': %w", path, err)
			}
			var rules RuleSet
			if err := yaml.Unmarshal(yamlFile, &rules); err != nil {
				return fmt.Errorf("syntax error in rules file '%s': %w", path, err)
			}
			ruleSet = append(ruleSet, rules...)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load rules from '%s': %w", trimmedPath, err)
		}
	}

	if err := ruleSet.Validate(); err != nil {
		return nil, err
	}

	return ruleSet, nil
}

// Validate checks every rule for required fields and rejects multi-word source
// terms, which the whole-word matcher cannot express.
func (rs RuleSet) Validate() error {
	for i, rule := range rs {
		if err := validate.Struct(rule); err != nil {
			return fmt.Errorf("invalid rule #%d: %w", i+1, err)
		}
		if len(strings.Fields(rule.From)) != 1 {
			return fmt.Errorf("invalid rule #%d: 'from' must be a single word, got %q", i+1, rule.From)
		}
	}
	return nil
}

// For returns the rules that apply to the given domain, matching exact hosts
// and subdomains.
func (rs RuleSet) For(domain string) RuleSet {
	var matched RuleSet
	for _, rule := range rs {
		if len(rule.Domains) == 0 {
			matched = append(matched, rule)
			continue
		}
		for _, ruleDomain := range rule.Domains {
			if ruleDomain == domain || strings.HasSuffix(domain, "."+ruleDomain) {
				matched = append(matched, rule)
				break
			}
		}
	}
	return matched
}

func (rs RuleSet) Domains() []string {
	var domains []string
	for _, rule := range rs {
		domains = append(domains, rule.Domains...)
	}
	return domains
}

func (rs RuleSet) Count() int {
	return len(rs)
}

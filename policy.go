package models

import (
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// sniffPolicyFile is the YAML wire form of a SniffPolicy. Signature prefixes
// are hex-encoded so the file stays editable by hand.
type sniffPolicyFile struct {
	Signatures []struct {
		Name   string `yaml:"name"`
		Prefix string `yaml:"prefix"`
	} `yaml:"signatures"`
	DenialPhrases []string         `yaml:"denial_phrases"`
	MinSizes      map[string]int64 `yaml:"min_sizes"`
}

// LoadSniffPolicy reads a YAML sniff policy file. The file fully replaces the
// built-in sets; start from SaveSniffPolicy's output of the defaults when
// only extending them.
func LoadSniffPolicy(path string) (SniffPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SniffPolicy{}, fmt.Errorf("%w: reading policy file: %v", ErrInvalidPolicy, err)
	}

	var file sniffPolicyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return SniffPolicy{}, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}

	policy := SniffPolicy{
		DenialPhrases: file.DenialPhrases,
		MinSizes:      make(map[Role]int64, len(file.MinSizes)),
	}

	for _, sig := range file.Signatures {
		prefix, err := hex.DecodeString(sig.Prefix)
		if err != nil {
			return SniffPolicy{}, fmt.Errorf("%w: signature %q: prefix is not hex: %v", ErrInvalidPolicy, sig.Name, err)
		}
		if len(prefix) == 0 {
			return SniffPolicy{}, fmt.Errorf("%w: signature %q: empty prefix", ErrInvalidPolicy, sig.Name)
		}
		policy.Signatures = append(policy.Signatures, Signature{Name: sig.Name, Prefix: prefix})
	}

	for roleName, size := range file.MinSizes {
		role, err := ParseRole(roleName)
		if err != nil {
			return SniffPolicy{}, fmt.Errorf("%w: min_sizes: %v", ErrInvalidPolicy, err)
		}
		policy.MinSizes[role] = size
	}

	if len(policy.Signatures) == 0 {
		return SniffPolicy{}, fmt.Errorf("%w: no signatures defined", ErrInvalidPolicy)
	}

	return policy, nil
}

// SaveSniffPolicy writes the policy as YAML, suitable for later editing and
// loading with LoadSniffPolicy.
func SaveSniffPolicy(path string, policy SniffPolicy) error {
	var file sniffPolicyFile

	for _, sig := range policy.Signatures {
		file.Signatures = append(file.Signatures, struct {
			Name   string `yaml:"name"`
			Prefix string `yaml:"prefix"`
		}{Name: sig.Name, Prefix: hex.EncodeToString(sig.Prefix)})
	}
	file.DenialPhrases = policy.DenialPhrases
	file.MinSizes = make(map[string]int64, len(policy.MinSizes))
	for role, size := range policy.MinSizes {
		file.MinSizes[string(role)] = size
	}

	data, err := yaml.Marshal(file)
	if err != nil {
		return fmt.Errorf("%w: marshaling policy: %v", ErrStorage, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%w: writing policy file: %v", ErrStorage, err)
	}
	return nil
}

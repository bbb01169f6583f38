package config

import (
	"path/filepath"
	"strings"
)

// Filter reports whether subprogram should be patched.
//
//  1. If include patterns are set, the name must match at least one.
//  2. A name matching any exclude pattern is skipped.
//  3. Otherwise it is patched.
func (c *Config) Filter(subprogram string) bool {
	if c == nil {
		c = DefaultConfig()
	}
	sp := c.Subprograms

	if len(sp.Include) > 0 {
		matched := false
		for _, pattern := range sp.Include {
			if matchGlob(pattern, subprogram) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	for _, pattern := range sp.Exclude {
		if matchGlob(pattern, subprogram) {
			return false
		}
	}
	return true
}

// matchGlob matches a subprogram name against a glob. Besides
// filepath.Match syntax it accepts scope patterns such as "ns::**",
// matching everything declared inside ns.
func matchGlob(pattern, name string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "::**"); ok {
		return name == prefix || strings.HasPrefix(name, prefix+"::")
	}

	matched, err := filepath.Match(pattern, name)
	if err != nil {
		return false
	}
	if matched {
		return true
	}

	// Unscoped patterns also match the bare member name, so "init*"
	// matches "Driver::initBus".
	if !strings.Contains(pattern, "::") {
		if i := strings.LastIndex(name, "::"); i >= 0 {
			matched, err = filepath.Match(pattern, name[i+2:])
			return err == nil && matched
		}
	}
	return false
}

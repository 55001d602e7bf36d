package config

import "strings"

// Parse reads JSONC configuration content over the supplied base config.
// Empty content yields the validated base.
func Parse(content string, base Config) (Config, []Warning, error) {
	if strings.TrimSpace(content) == "" {
		validatedWarnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, validatedWarnings, nil
	}
	return parseJSONC(content, base)
}

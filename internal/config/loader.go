package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "MEETINGD_"

// Load reads configuration from the YAML file at configPath, then overrides
// with MEETINGD_* environment variables, applies defaults, and validates.
//
// Precedence (highest to lowest):
//  1. Environment variables (MEETINGD_SERVER_PORT, MEETINGD_LLM_TOKEN, ...)
//  2. YAML config file
//  3. Defaults
//
// A missing config file is not an error; environment and defaults alone are
// enough for a working daemon. Environment variables map section-first:
//
//	MEETINGD_SERVER_PORT        -> server.port
//	MEETINGD_LLM_BASE_URL       -> llm.base_url
//	MEETINGD_CHAT_NATS_URL      -> chat.nats_url
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		} else if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// envTransform maps MEETINGD_SECTION_FIELD_NAME to section.field_name. The
// first underscore separates the section; the rest stay in the field. Nested
// provider keys get a second split (providers.github.token).
func envTransform(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}

	section, field := parts[0], parts[1]
	if section == "providers" {
		sub := strings.SplitN(field, "_", 2)
		if len(sub) == 2 {
			return section + "." + sub[0] + "." + sub[1]
		}
	}
	return section + "." + field
}

package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"mediasort/internal/classify"
	"mediasort/internal/rules"
)

// scanConfigFile is the on-disk shape of a per-source scan configuration:
// [[directories]] profile tables plus [[groups.<name>]] rule arrays.
type scanConfigFile struct {
	Directories []classify.Profile      `toml:"directories"`
	Groups      map[string][]rules.Rule `toml:"groups"`
}

// SourceSnapshot is one source directory with its profiles and pattern
// groups resolved.
type SourceSnapshot struct {
	Path           string
	ScanConfigPath string
	Profiles       []classify.Profile
	Groups         map[string][]rules.Rule
}

// RulesFor returns the concatenated rule lists for the named pattern groups,
// in group order then declaration order.
func (s SourceSnapshot) RulesFor(groups []string) []rules.Rule {
	var out []rules.Rule
	for _, group := range groups {
		out = append(out, s.Groups[group]...)
	}
	return out
}

// Snapshot is the complete configuration for one scan run. It is built
// fresh for every run; the daemon re-reads everything between cycles so
// edits take effect without a restart.
type Snapshot struct {
	Config  *Config
	Sources []SourceSnapshot
}

// LoadSnapshot resolves every source's scan configuration against the
// already-validated main config. Unknown pattern-group references and
// broken scan config files are configuration errors.
func LoadSnapshot(cfg *Config) (*Snapshot, error) {
	snapshot := &Snapshot{Config: cfg, Sources: make([]SourceSnapshot, 0, len(cfg.Sources))}
	for _, source := range cfg.Sources {
		resolved := SourceSnapshot{
			Path:           source.Path,
			ScanConfigPath: source.ScanConfig,
			Groups:         map[string][]rules.Rule{},
		}
		if source.ScanConfig != "" {
			parsed, err := loadScanConfig(source.ScanConfig)
			if err != nil {
				return nil, err
			}
			resolved.Profiles = parsed.Directories
			if parsed.Groups != nil {
				resolved.Groups = parsed.Groups
			}
		}
		if err := checkGroupReferences(resolved); err != nil {
			return nil, err
		}
		snapshot.Sources = append(snapshot.Sources, resolved)
	}
	return snapshot, nil
}

func loadScanConfig(path string) (*scanConfigFile, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scan config %s: %w", path, err)
	}
	defer file.Close()

	var parsed scanConfigFile
	decoder := toml.NewDecoder(file)
	if err := decoder.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("parse scan config %s: %w", path, err)
	}

	for i, profile := range parsed.Directories {
		if profile.Path == "" {
			return nil, fmt.Errorf("scan config %s: directories[%d].path must be set", path, i)
		}
		if profile.MediaType != "" {
			if _, ok := classify.ParseMediaType(profile.MediaType); !ok {
				return nil, fmt.Errorf("scan config %s: directories[%d].media_type %q is not movie or tv",
					path, i, profile.MediaType)
			}
		}
	}
	for name, ruleList := range parsed.Groups {
		for i, rule := range ruleList {
			if rule.Regex == "" && rule.HasAction() {
				return nil, fmt.Errorf("scan config %s: groups.%s[%d] has actions but no regex", path, name, i)
			}
		}
	}
	return &parsed, nil
}

// checkGroupReferences rejects profiles naming pattern groups that do not
// exist, so a typo surfaces at load instead of silently disabling rules.
func checkGroupReferences(source SourceSnapshot) error {
	for _, profile := range source.Profiles {
		for _, group := range profile.PatternGroups {
			if group == classify.DefaultPatternGroup {
				continue
			}
			if _, ok := source.Groups[group]; !ok {
				return fmt.Errorf("scan config %s: directory %s references unknown pattern group %q",
					source.ScanConfigPath, profile.Path, group)
			}
		}
	}
	return nil
}

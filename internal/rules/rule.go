package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Rule is one filename-rewrite rule from a pattern group. A single rule may
// combine an episode-range gate with any of the three actions; actions are
// evaluated in the fixed order ignore, substitution, year.
type Rule struct {
	Name  string `toml:"name,omitempty" json:"name,omitempty"`
	Regex string `toml:"regex" json:"regex"`

	// Actions.
	Ignore       bool   `toml:"ignore,omitempty" json:"ignore,omitempty"`
	Substitution string `toml:"substitution,omitempty" json:"substitution,omitempty"`
	Year         int    `toml:"year,omitempty" json:"year,omitempty"`

	// Episode-range gate. A rule carrying either bound applies only when an
	// episode number can be extracted and falls inside [from, to]; the
	// missing bound defaults to 1 and unbounded respectively.
	FromEpisode *int `toml:"from_episode,omitempty" json:"from_episode,omitempty"`
	ToEpisode   *int `toml:"to_episode,omitempty" json:"to_episode,omitempty"`

	// Substitution modifiers.
	FolderRegex    string `toml:"folder_regex,omitempty" json:"folder_regex,omitempty"`
	SeasonNumber   *int   `toml:"season_number,omitempty" json:"season_number,omitempty"`
	SeasonOffset   int    `toml:"season_offset,omitempty" json:"season_offset,omitempty"`
	SeasonPadding  *int   `toml:"season_padding,omitempty" json:"season_padding,omitempty"`
	EpisodeOffset  int    `toml:"episode_offset,omitempty" json:"episode_offset,omitempty"`
	EpisodePadding *int   `toml:"episode_padding,omitempty" json:"episode_padding,omitempty"`
}

// ID derives a stable identifier from the rule's content so that ledger
// records survive rule reordering and renaming of unrelated rules.
func (r Rule) ID() string {
	encoded, err := json.Marshal(r)
	if err != nil {
		// Rule is a plain value type; Marshal cannot fail on it.
		return ""
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}

// Label returns a human-readable name for logs and ledger records.
func (r Rule) Label() string {
	if r.Name != "" {
		return r.Name
	}
	if r.Regex != "" {
		return r.Regex
	}
	return "unnamed"
}

func (r Rule) hasRange() bool {
	return r.FromEpisode != nil || r.ToEpisode != nil
}

// HasAction reports whether the rule does anything when it applies.
func (r Rule) HasAction() bool {
	return r.Ignore || r.Substitution != "" || r.Year != 0
}

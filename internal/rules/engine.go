package rules

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"mediasort/internal/classify"
	"mediasort/internal/logging"
	"mediasort/internal/services"
	"mediasort/internal/textutil"
)

// Outcome records one rule's effect on one file. Outcomes are produced only
// for rules that applied or errored; a rule whose regex never matched leaves
// no trace.
type Outcome struct {
	RuleID  string `json:"rule_id"`
	Rule    string `json:"rule"`
	Applied bool   `json:"applied"`
	Error   string `json:"error,omitempty"`
}

// Engine evaluates rules against files. It is stateless between files and
// safe to reuse across an entire scan run.
type Engine struct {
	seasonPadding  int
	episodePadding int
	logger         *slog.Logger
}

// NewEngine builds an Engine with the global padding widths used when a rule
// does not override them.
func NewEngine(seasonPadding, episodePadding int, logger *slog.Logger) *Engine {
	return &Engine{
		seasonPadding:  seasonPadding,
		episodePadding: episodePadding,
		logger:         logging.NewComponentLogger(logger, "rules"),
	}
}

// Apply runs the rule list against the file in order, mutating the file's
// stem, year, and ignore flag. Once the file is marked ignored no further
// rules run, including rules from later pattern groups when the caller chains
// Apply calls.
func (e *Engine) Apply(ctx context.Context, file *classify.FileInfo, ruleList []Rule) []Outcome {
	logger := logging.WithContext(ctx, e.logger)
	var outcomes []Outcome
	for _, rule := range ruleList {
		if file.Ignore {
			break
		}
		outcome, recorded := e.applyRule(logger, file, rule)
		if recorded {
			outcomes = append(outcomes, outcome)
		}
	}
	return outcomes
}

func (e *Engine) applyRule(logger *slog.Logger, file *classify.FileInfo, rule Rule) (Outcome, bool) {
	outcome := Outcome{RuleID: rule.ID(), Rule: rule.Label()}
	if rule.Regex == "" {
		return outcome, false
	}

	re, err := regexp.Compile(rule.Regex)
	if err != nil {
		return e.fail(logger, outcome, rule, services.Wrap(services.ErrRule, "rules", "compile", "invalid regular expression", err))
	}

	if rule.hasRange() {
		inRange, err := e.episodeInRange(file, rule, re)
		if err != nil {
			return e.fail(logger, outcome, rule, err)
		}
		if !inRange {
			return outcome, false
		}
	}

	if rule.Ignore && re.MatchString(file.Stem) {
		file.Ignore = true
		outcome.Applied = true
		logger.Debug("ignore rule matched", logging.String("rule", rule.Label()))
	}

	if rule.Substitution != "" {
		applied, err := e.substitute(file, rule, re)
		if err != nil {
			return e.fail(logger, outcome, rule, err)
		}
		if applied {
			outcome.Applied = true
			logger.Debug("substitution applied",
				logging.String("rule", rule.Label()),
				logging.String("stem", file.Stem))
		}
	}

	if rule.Year != 0 && re.MatchString(file.Stem) {
		file.Year = rule.Year
		outcome.Applied = true
		logger.Debug("year override applied",
			logging.String("rule", rule.Label()),
			logging.Int("year", rule.Year))
	}

	return outcome, outcome.Applied
}

func (e *Engine) fail(logger *slog.Logger, outcome Outcome, rule Rule, err error) (Outcome, bool) {
	outcome.Error = err.Error()
	logger.Warn("rule failed",
		logging.String("rule", rule.Label()),
		logging.Error(err))
	return outcome, true
}

// episodeInRange implements the from_episode/to_episode gate. The episode
// number comes only from the rule's own `episode` capture group against the
// current stem; rules run before parsing, so the file carries no episode of
// its own yet. A rule whose range cannot be evaluated is skipped silently,
// not errored.
func (e *Engine) episodeInRange(file *classify.FileInfo, rule Rule, re *regexp.Regexp) (bool, error) {
	idx := re.SubexpIndex("episode")
	if idx < 0 {
		e.logger.Warn("range rule has no episode capture group",
			logging.String("rule", rule.Label()))
		return false, nil
	}
	match := re.FindStringSubmatch(file.Stem)
	if match == nil || match[idx] == "" {
		return false, nil
	}
	episode, err := strconv.Atoi(match[idx])
	if err != nil {
		return false, nil
	}

	from := 1
	if rule.FromEpisode != nil {
		from = *rule.FromEpisode
	}
	if episode < from {
		return false, nil
	}
	if rule.ToEpisode != nil && episode > *rule.ToEpisode {
		return false, nil
	}
	return true, nil
}

// substitute rewrites every match of the rule's regex in the stem with the
// rendered substitution template. Capture groups from the match and from the
// folder regex feed the template; season and episode values are offset and
// zero-padded before rendering.
func (e *Engine) substitute(file *classify.FileInfo, rule Rule, re *regexp.Regexp) (bool, error) {
	if !re.MatchString(file.Stem) {
		return false, nil
	}

	folderValues, err := e.folderCaptures(file, rule)
	if err != nil {
		return false, err
	}

	var renderErr error
	rewritten := re.ReplaceAllStringFunc(file.Stem, func(segment string) string {
		if renderErr != nil {
			return segment
		}
		values := e.captureValues(re, segment)
		for key, value := range folderValues {
			if _, ok := values[key]; !ok {
				values[key] = value
			}
		}
		e.normalizeNumbers(values, rule)
		rendered, err := textutil.RenderTemplate(rule.Substitution, values)
		if err != nil {
			renderErr = err
			return segment
		}
		return rendered
	})
	if renderErr != nil {
		return false, services.Wrap(services.ErrRule, "rules", "substitute",
			fmt.Sprintf("rule %s", rule.Label()), renderErr)
	}
	if rewritten == file.Stem {
		return false, nil
	}
	file.Stem = rewritten
	return true, nil
}

func (e *Engine) captureValues(re *regexp.Regexp, segment string) map[string]string {
	values := map[string]string{}
	match := re.FindStringSubmatch(segment)
	if match == nil {
		return values
	}
	for idx, name := range re.SubexpNames() {
		if name == "" || idx >= len(match) {
			continue
		}
		values[name] = match[idx]
	}
	return values
}

// folderCaptures matches the rule's folder regex against the file's parent
// directory name. A folder regex that does not match contributes nothing;
// one that does not compile is a rule error.
func (e *Engine) folderCaptures(file *classify.FileInfo, rule Rule) (map[string]string, error) {
	if rule.FolderRegex == "" {
		return nil, nil
	}
	re, err := regexp.Compile(rule.FolderRegex)
	if err != nil {
		return nil, services.Wrap(services.ErrRule, "rules", "compile", "invalid folder regular expression", err)
	}
	match := re.FindStringSubmatch(file.ParentDirName())
	if match == nil {
		return nil, nil
	}
	values := map[string]string{}
	for idx, name := range re.SubexpNames() {
		if name == "" || idx >= len(match) {
			continue
		}
		values[name] = match[idx]
	}
	return values, nil
}

// normalizeNumbers applies the season and episode modifiers to captured
// values. season_number replaces the capture outright and wins over
// season_offset; padding falls back to the global widths.
func (e *Engine) normalizeNumbers(values map[string]string, rule Rule) {
	if rule.SeasonNumber != nil {
		values["season"] = strconv.Itoa(*rule.SeasonNumber)
	}
	if raw, ok := values["season"]; ok && raw != "" {
		if season, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			if rule.SeasonNumber == nil {
				season += rule.SeasonOffset
			}
			values["season"] = zeroPad(season, padding(rule.SeasonPadding, e.seasonPadding))
		}
	}
	if raw, ok := values["episode"]; ok && raw != "" {
		if episode, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			episode += rule.EpisodeOffset
			values["episode"] = zeroPad(episode, padding(rule.EpisodePadding, e.episodePadding))
		}
	}
}

func padding(override *int, fallback int) int {
	if override != nil {
		return *override
	}
	return fallback
}

func zeroPad(value, width int) string {
	if width <= 0 {
		return strconv.Itoa(value)
	}
	return fmt.Sprintf("%0*d", width, value)
}

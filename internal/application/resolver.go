package application

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bnema/roland/internal/domain"
	"github.com/xrash/smetrics"
)

const (
	DefaultMatchThreshold = 0.85
	DefaultMatchEpsilon   = 0.06

	jaroWinklerBoost  = 0.7
	jaroWinklerPrefix = 4
	scoreTolerance    = 1e-9

	// An alias spoken inside a longer utterance scores between
	// containedScoreBase and 1, growing with the share of the utterance it
	// covers. Scattered alias words score overlapScoreBase plus
	// overlapScoreSpan times the fraction of alias words present.
	containedScoreBase = 0.9
	overlapScoreBase   = 0.7
	overlapScoreSpan   = 0.2
)

type NamespaceSource interface {
	Namespace() *AliasNamespace
}

type ResolverOptions struct {
	Threshold float64
	Epsilon   float64
	WakeWord  string
}

type Resolver struct {
	source NamespaceSource
	opts   ResolverOptions
}

var (
	whenISayPattern    = regexp.MustCompile(`^(?:when|whenever|if) i say (.+?)(?: (?:then |you )?((?:press|tap|push|hit|hold|combo) .+))?$`)
	createMacroPattern = regexp.MustCompile(`^(?:create|make|add|define|new|record|teach you)(?: a| an)?(?: new)? macro(?: (?:called|named) (.+))?$`)
	listMacrosPattern  = regexp.MustCompile(`^(?:list|show|show me|what are)(?: my| all| all my| the)? macros$`)
	deleteMacroPattern = regexp.MustCompile(`^(?:delete|remove|forget|erase) (?:the |my )?(?:macro (?:called |named )?(.+)|(.+) macro)$`)
	renameMacroPattern = regexp.MustCompile(`^rename (?:the |my )?(?:macro )?(.+?)(?: macro)? to (.+)$`)
)

var (
	leadingFillers  = []string{"please ", "can you ", "could you ", "would you "}
	trailingFillers = []string{" please", " now"}
)

func NewResolver(source NamespaceSource, opts ResolverOptions) *Resolver {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultMatchThreshold
	}
	if opts.Epsilon <= 0 {
		opts.Epsilon = DefaultMatchEpsilon
	}

	return &Resolver{source: source, opts: opts}
}

// Normalize applies the transcript clean-up used before any matching.
func (r *Resolver) Normalize(transcript string) string {
	phrase := domain.StripWakeWord(domain.NormalizePhrase(transcript), r.opts.WakeWord)
	for changed := true; changed; {
		changed = false
		for _, filler := range leadingFillers {
			if rest, ok := strings.CutPrefix(phrase, filler); ok {
				phrase, changed = rest, true
			}
		}
		for _, filler := range trailingFillers {
			if rest, ok := strings.CutSuffix(phrase, filler); ok {
				phrase, changed = rest, true
			}
		}
	}

	return phrase
}

func (r *Resolver) Resolve(transcript string, suggestion *domain.Suggestion) domain.Intent {
	phrase := r.Normalize(transcript)
	label := suggestionLabel(suggestion)

	if label == domain.LabelRepeat || domain.IsRepeatPhrase(phrase) {
		return domain.RepeatLast{}
	}
	if phrase == "" {
		return domain.Unrecognized{Transcript: transcript}
	}
	if intent, ok := definitionIntent(phrase, label, suggestion); ok {
		return intent
	}
	if intent, ok := manageIntent(phrase, label, suggestion); ok {
		return intent
	}

	intent := r.matchAlias(phrase, transcript)
	if _, missed := intent.(domain.Unrecognized); missed && label == domain.LabelExecute {
		// The model may know a paraphrase the aliases do not; its pick still
		// has to land on a real alias.
		if name := r.Normalize(suggestion.Slot("name")); name != "" {
			if named := r.matchAlias(name, transcript); !isUnrecognized(named) {
				return named
			}
		}
	}

	return intent
}

func isUnrecognized(intent domain.Intent) bool {
	_, ok := intent.(domain.Unrecognized)
	return ok
}

func definitionIntent(phrase, label string, suggestion *domain.Suggestion) (domain.Intent, bool) {
	intent := domain.StartMacroDefinition{}
	matched := false

	if m := whenISayPattern.FindStringSubmatch(phrase); m != nil {
		intent.Trigger, intent.ActionText = m[1], m[2]
		matched = true
	} else if m := createMacroPattern.FindStringSubmatch(phrase); m != nil {
		intent.Trigger = m[1]
		matched = true
	}

	if label == domain.LabelCreateMacro {
		if trigger := firstNonEmpty(suggestion.Slot("trigger"), suggestion.Slot("name")); trigger != "" && intent.Trigger == "" {
			intent.Trigger = domain.NormalizePhrase(trigger)
		}
		if action := suggestion.Slot("action"); action != "" && intent.ActionText == "" {
			intent.ActionText = action
		}
		matched = true
	}

	return intent, matched
}

func manageIntent(phrase, label string, suggestion *domain.Suggestion) (domain.Intent, bool) {
	switch {
	case label == domain.LabelListMacros || listMacrosPattern.MatchString(phrase):
		return domain.ManageMacro{Op: domain.ManageList}, true
	case label == domain.LabelDeleteMacro:
		name := domain.NormalizePhrase(suggestion.Slot("name"))
		if name == "" {
			if m := deleteMacroPattern.FindStringSubmatch(phrase); m != nil {
				name = firstNonEmpty(m[1], m[2])
			}
		}
		return domain.ManageMacro{Op: domain.ManageDelete, Name: name}, true
	case label == domain.LabelRenameMacro:
		name := domain.NormalizePhrase(suggestion.Slot("name"))
		newName := domain.NormalizePhrase(suggestion.Slot("new_name"))
		if m := renameMacroPattern.FindStringSubmatch(phrase); m != nil {
			name = firstNonEmpty(name, m[1])
			newName = firstNonEmpty(newName, m[2])
		}
		return domain.ManageMacro{Op: domain.ManageRename, Name: name, NewName: newName}, true
	}

	if m := deleteMacroPattern.FindStringSubmatch(phrase); m != nil {
		return domain.ManageMacro{Op: domain.ManageDelete, Name: firstNonEmpty(m[1], m[2])}, true
	}
	if m := renameMacroPattern.FindStringSubmatch(phrase); m != nil {
		return domain.ManageMacro{Op: domain.ManageRename, Name: m[1], NewName: m[2]}, true
	}

	return nil, false
}

type scoredTarget struct {
	owner     AliasOwner
	alias     string
	score     float64
	createdAt time.Time
}

func (t scoredTarget) isMacro() bool {
	return t.owner.Kind == domain.OwnerMacro
}

func (t scoredTarget) key() string {
	if t.isMacro() {
		return "macro:" + string(t.owner.MacroID)
	}
	return "builtin:" + t.owner.Name
}

// matchAlias scores every alias with aliasScore (exact hits score 1).
// Targets within epsilon of the best score contend; macros beat built-ins,
// and among exactly tied scores the newest macro and then the longer alias
// win. Anything still ambiguous is unrecognized.
func (r *Resolver) matchAlias(phrase, transcript string) domain.Intent {
	ns := r.source.Namespace()

	best := map[string]scoredTarget{}
	for _, candidate := range ns.Candidates() {
		score := aliasScore(phrase, candidate.Alias)
		if score+scoreTolerance < r.opts.Threshold {
			continue
		}

		target := scoredTarget{owner: candidate.Owner, alias: candidate.Alias, score: score}
		if target.isMacro() {
			if macro, ok := ns.Macro(candidate.Owner.MacroID); ok {
				target.createdAt = macro.CreatedAt
			}
		}

		current, seen := best[target.key()]
		if !seen || score > current.score || (score == current.score && len(target.alias) > len(current.alias)) {
			best[target.key()] = target
		}
	}

	if len(best) == 0 {
		return domain.Unrecognized{Transcript: transcript}
	}

	targets := make([]scoredTarget, 0, len(best))
	for _, target := range best {
		targets = append(targets, target)
	}
	sort.Slice(targets, func(i, j int) bool { return rankBefore(targets[i], targets[j]) })

	top := targets[0].score
	contenders := make([]scoredTarget, 0, len(targets))
	hasMacro := false
	for _, target := range targets {
		if top-target.score > r.opts.Epsilon+scoreTolerance {
			break
		}
		contenders = append(contenders, target)
		hasMacro = hasMacro || target.isMacro()
	}
	if hasMacro {
		macros := contenders[:0]
		for _, target := range contenders {
			if target.isMacro() {
				macros = append(macros, target)
			}
		}
		contenders = macros
	}

	if len(contenders) > 1 && !decisiveTie(contenders[0], contenders[1]) {
		return domain.Unrecognized{Transcript: transcript, Candidates: contenderNames(contenders)}
	}

	winner := contenders[0]
	if winner.isMacro() {
		macro, ok := ns.Macro(winner.owner.MacroID)
		if !ok {
			return domain.Unrecognized{Transcript: transcript}
		}
		return domain.ExecuteMacro{Macro: macro, Alias: winner.alias}
	}

	action, ok := ns.Builtin(winner.owner)
	if !ok {
		return domain.Unrecognized{Transcript: transcript}
	}
	return domain.ExecuteBuiltin{Action: action, Alias: winner.alias}
}

// aliasScore takes the best of Jaro-Winkler over the whole phrase, the alias
// appearing word-aligned inside the phrase, and plain word overlap.
func aliasScore(phrase, alias string) float64 {
	if phrase == alias {
		return 1
	}

	score := smetrics.JaroWinkler(phrase, alias, jaroWinklerBoost, jaroWinklerPrefix)
	phraseWords := strings.Fields(phrase)
	aliasWords := strings.Fields(alias)
	if len(aliasWords) == 0 || len(phraseWords) == 0 {
		return score
	}

	if strings.Contains(" "+phrase+" ", " "+alias+" ") {
		coverage := float64(len(aliasWords)) / float64(len(phraseWords))
		score = max(score, containedScoreBase+(1-containedScoreBase)*coverage)
	}

	present := make(map[string]struct{}, len(phraseWords))
	for _, word := range phraseWords {
		present[word] = struct{}{}
	}
	common := 0
	for _, word := range aliasWords {
		if _, ok := present[word]; ok {
			common++
		}
	}
	overlap := float64(common) / float64(len(aliasWords))
	score = max(score, overlapScoreBase+overlapScoreSpan*overlap)

	return score
}

// rankBefore orders by score, then macro over built-in, then newest macro,
// then longer alias.
func rankBefore(a, b scoredTarget) bool {
	if math.Abs(a.score-b.score) > scoreTolerance {
		return a.score > b.score
	}
	if a.isMacro() != b.isMacro() {
		return a.isMacro()
	}
	if a.isMacro() && !a.createdAt.Equal(b.createdAt) {
		return a.createdAt.After(b.createdAt)
	}
	if len(a.alias) != len(b.alias) {
		return len(a.alias) > len(b.alias)
	}
	return a.key() < b.key()
}

// decisiveTie reports whether the tie-break rules separate the two leading
// contenders. Only exactly equal scores are settled by recency or alias
// length; a score gap inside epsilon is treated as genuine ambiguity.
func decisiveTie(first, second scoredTarget) bool {
	if math.Abs(first.score-second.score) > scoreTolerance {
		return false
	}
	if first.isMacro() && second.isMacro() && !first.createdAt.Equal(second.createdAt) {
		return true
	}
	return len(first.alias) != len(second.alias)
}

func contenderNames(targets []scoredTarget) []string {
	names := make([]string, 0, len(targets))
	for _, target := range targets {
		names = append(names, target.alias)
	}
	return names
}

func suggestionLabel(suggestion *domain.Suggestion) string {
	if suggestion == nil {
		return ""
	}
	label := strings.ToLower(strings.TrimSpace(suggestion.Label))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(label)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

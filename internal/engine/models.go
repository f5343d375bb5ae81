package engine

import "time"

// MaterialVariant selects which per-material price delta an option charges.
type MaterialVariant string

const (
	MaterialGold   MaterialVariant = "gold"
	MaterialSilver MaterialVariant = "silver"
)

// PriceVariant selects which base-price table applies (e.g. diamond origin).
type PriceVariant string

const (
	PriceVariantNatural  PriceVariant = "natural"
	PriceVariantLabGrown PriceVariant = "lab_grown"
)

type ActionType string

const (
	ActionExcludeOptions     ActionType = "exclude_options"
	ActionIncludeOnly        ActionType = "include_only"
	ActionExcludeSetting     ActionType = "exclude_setting"
	ActionSetRequired        ActionType = "set_required"
	ActionSetOptional        ActionType = "set_optional"
	ActionAutoSelect         ActionType = "auto_select"
	ActionProposeSelection   ActionType = "propose_selection"
	ActionSetPriceMultiplier ActionType = "set_price_multiplier"
)

func (a ActionType) Valid() bool {
	switch a {
	case ActionExcludeOptions, ActionIncludeOnly, ActionExcludeSetting,
		ActionSetRequired, ActionSetOptional, ActionAutoSelect,
		ActionProposeSelection, ActionSetPriceMultiplier:
		return true
	}
	return false
}

// Option is one selectable value within a Setting. PriceDeltas holds the
// signed surcharge in minor currency units per material variant;
// DefaultPriceDelta applies when no variant-specific entry exists.
type Option struct {
	ID                  string
	Name                string
	DefaultPriceDelta   int64
	PriceDeltas         map[MaterialVariant]int64
	AffectsImageVariant bool
	FilenameSlug        string
	Active              bool
}

// PriceDelta returns the option's surcharge for the given material variant.
func (o Option) PriceDelta(material MaterialVariant) int64 {
	if delta, ok := o.PriceDeltas[material]; ok {
		return delta
	}
	return o.DefaultPriceDelta
}

// Setting is one configurable axis of a product (e.g. metal, stone, chain).
type Setting struct {
	ID           string
	Title        string
	Required     bool
	DisplayOrder int
	Options      []Option
}

// Option returns the setting's option with the given id, active or not.
func (s Setting) Option(id string) (Option, bool) {
	for _, opt := range s.Options {
		if opt.ID == id {
			return opt, true
		}
	}
	return Option{}, false
}

// LogicRule is one condition→action statement. The rule fires when the
// selection maps ConditionSettingID to ConditionOptionID, or — when
// ConditionExpression is set — when that CEL expression over the selection
// evaluates to true. Rules apply in ascending Sequence within each round.
type LogicRule struct {
	ID                  string
	Active              bool
	Sequence            int
	ConditionSettingID  string
	ConditionOptionID   string
	ConditionExpression string
	ActionType          ActionType
	TargetSettingID     string
	TargetOptionIDs     []string
	PriceMultiplier     float64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Model is the immutable per-product configuration snapshot the engine
// resolves against. Settings are ordered by display order; Rules by
// sequence. Callers load a Model once per session and never mutate it.
type Model struct {
	ProductID    string
	Title        string
	Currency     string
	BasePrices   map[PriceVariant]int64
	BasePrice    int64 // fallback when BasePrices has no entry for the variant
	Settings     []Setting
	Rules        []LogicRule
	GeneratedAt  time.Time
	settingIndex map[string]int
}

// Setting returns the setting with the given id.
func (m *Model) Setting(id string) (Setting, bool) {
	if m.settingIndex != nil {
		if i, ok := m.settingIndex[id]; ok {
			return m.Settings[i], true
		}
		return Setting{}, false
	}
	for _, s := range m.Settings {
		if s.ID == id {
			return s, true
		}
	}
	return Setting{}, false
}

// BasePriceFor returns the product base price for the given price variant.
func (m *Model) BasePriceFor(variant PriceVariant) int64 {
	if price, ok := m.BasePrices[variant]; ok {
		return price
	}
	return m.BasePrice
}

// BuildIndex precomputes the setting lookup table. Safe to call once after
// assembly; the resulting Model must not be mutated afterwards.
func (m *Model) BuildIndex() {
	m.settingIndex = make(map[string]int, len(m.Settings))
	for i, s := range m.Settings {
		m.settingIndex[s.ID] = i
	}
}

// Selection maps setting id to the chosen option id. Treated as an
// immutable value: every resolution step copies before writing.
type Selection map[string]string

func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func (s Selection) Equal(other Selection) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		if other[k] != v {
			return false
		}
	}
	return true
}

// SettingView is the engine's computed state for one setting.
type SettingView struct {
	SettingID            string   `json:"setting_id"`
	VisibleOptionIDs     []string `json:"visible_option_ids"`
	Required             bool     `json:"required"`
	AutoSelectedOptionID string   `json:"auto_selected_option_id,omitempty"`
	ProposedOptionID     string   `json:"proposed_option_id,omitempty"`
	PriceMultiplier      float64  `json:"price_multiplier"`
	Hidden               bool     `json:"hidden"`
}

func (v SettingView) visible(optionID string) bool {
	for _, id := range v.VisibleOptionIDs {
		if id == optionID {
			return true
		}
	}
	return false
}

// View holds one SettingView per setting, keyed by setting id.
type View map[string]*SettingView

// DiagnosticKind classifies non-fatal resolution findings.
type DiagnosticKind string

const (
	DiagnosticMalformedRule  DiagnosticKind = "malformed_rule"
	DiagnosticNonConvergence DiagnosticKind = "non_convergence"
)

type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	RuleID  string         `json:"rule_id,omitempty"`
	Message string         `json:"message"`
}

// Result is the outcome of one resolution. AdjustedSelection reflects
// auto-selects and clearing of no-longer-visible choices; callers should
// treat it as the new canonical selection.
type Result struct {
	View              View         `json:"view"`
	AdjustedSelection Selection    `json:"adjusted_selection"`
	Diagnostics       []Diagnostic `json:"diagnostics,omitempty"`
	Converged         bool         `json:"converged"`
	Rounds            int          `json:"rounds"`
}

package catalog

import (
	"fmt"
	"sort"

	"github.com/tributary-ai/llm-decision-engine/internal/types"
)

// Roles names the fixed model assignments the override layer and the
// fallback path depend on. Every role must resolve to a roster model.
type Roles struct {
	SafeDefault   string `yaml:"safe_default" json:"safe_default"`
	Workhorse     string `yaml:"workhorse" json:"workhorse"`
	DeepReasoning string `yaml:"deep_reasoning" json:"deep_reasoning"`
	VisionLight   string `yaml:"vision_light" json:"vision_light"`
	VisionHeavy   string `yaml:"vision_heavy" json:"vision_heavy"`
	Classifier    string `yaml:"classifier" json:"classifier"`
}

// Catalog is the static capability table: one profile per model, one
// weight profile per task category, plus the role assignments. Loaded
// once at process start and read-only afterwards, so concurrent lookups
// need no locking.
type Catalog struct {
	models  map[string]types.ModelProfile
	order   []string
	weights map[types.TaskCategory]types.TaskWeightProfile
	roles   Roles
}

// New builds a catalog and fail-fast validates it. Editing scores is a
// deployment-time operation; there is no runtime mutation path.
func New(profiles []types.ModelProfile, weights map[types.TaskCategory]types.TaskWeightProfile, roles Roles) (*Catalog, error) {
	c := &Catalog{
		models:  make(map[string]types.ModelProfile, len(profiles)),
		weights: weights,
		roles:   roles,
	}

	for _, p := range profiles {
		if p.ID == "" {
			return nil, fmt.Errorf("model profile with empty identifier")
		}
		if _, dup := c.models[p.ID]; dup {
			return nil, fmt.Errorf("duplicate model profile: %s", p.ID)
		}
		for _, d := range types.Dimensions() {
			v := p.Capabilities.Get(d)
			if v < 0 || v > 1 {
				return nil, fmt.Errorf("model %s: %s capability %.2f outside [0,1]", p.ID, d, v)
			}
		}
		c.models[p.ID] = p
		c.order = append(c.order, p.ID)
	}

	if len(c.models) == 0 {
		return nil, fmt.Errorf("catalog requires at least one model profile")
	}

	for cat, w := range weights {
		if !cat.IsValid() {
			return nil, fmt.Errorf("weight profile for unknown category: %s", cat)
		}
		for _, d := range types.Dimensions() {
			if w.Get(d) < 0 {
				return nil, fmt.Errorf("category %s: negative weight on %s", cat, d)
			}
		}
	}

	if err := c.validateRoles(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Catalog) validateRoles() error {
	assignments := map[string]string{
		"safe_default":   c.roles.SafeDefault,
		"workhorse":      c.roles.Workhorse,
		"deep_reasoning": c.roles.DeepReasoning,
		"vision_light":   c.roles.VisionLight,
		"vision_heavy":   c.roles.VisionHeavy,
		"classifier":     c.roles.Classifier,
	}
	for role, id := range assignments {
		if id == "" {
			return fmt.Errorf("role %s is unassigned", role)
		}
		if _, ok := c.models[id]; !ok {
			return fmt.Errorf("role %s references unknown model %s", role, id)
		}
	}
	if !c.models[c.roles.VisionLight].Vision {
		return fmt.Errorf("vision_light model %s is not vision-capable", c.roles.VisionLight)
	}
	if !c.models[c.roles.VisionHeavy].Vision {
		return fmt.Errorf("vision_heavy model %s is not vision-capable", c.roles.VisionHeavy)
	}
	return nil
}

// Capabilities returns the capability vector for a model. An unknown
// identifier is a configuration error, caught at startup; per-request
// callers treat it as fatal.
func (c *Catalog) Capabilities(modelID string) (types.CapabilityVector, error) {
	p, ok := c.models[modelID]
	if !ok {
		return types.CapabilityVector{}, fmt.Errorf("unknown model identifier: %s", modelID)
	}
	return p.Capabilities, nil
}

// Profile returns the full model profile for an identifier.
func (c *Catalog) Profile(modelID string) (types.ModelProfile, error) {
	p, ok := c.models[modelID]
	if !ok {
		return types.ModelProfile{}, fmt.Errorf("unknown model identifier: %s", modelID)
	}
	return p, nil
}

// Has reports whether the model identifier is in the catalog.
func (c *Catalog) Has(modelID string) bool {
	_, ok := c.models[modelID]
	return ok
}

// TaskWeights returns the weight profile for a category. Categories
// without an explicit profile fall back to the general profile.
func (c *Catalog) TaskWeights(category types.TaskCategory) types.TaskWeightProfile {
	if w, ok := c.weights[category]; ok {
		return w
	}
	return c.weights[types.CategoryGeneral]
}

// Models returns all model identifiers in registration order.
func (c *Catalog) Models() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Profiles returns every model profile, sorted by identifier.
func (c *Catalog) Profiles() []types.ModelProfile {
	out := make([]types.ModelProfile, 0, len(c.models))
	for _, p := range c.models {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// VisionModels returns the identifiers of vision-capable models.
func (c *Catalog) VisionModels() []string {
	var out []string
	for _, id := range c.order {
		if c.models[id].Vision {
			out = append(out, id)
		}
	}
	return out
}

// Roles returns the fixed role assignments.
func (c *Catalog) Roles() Roles {
	return c.roles
}

// ValidateRoster checks that every identifier the provider roster allows
// has exactly one profile. A mismatch is fatal at startup, never a
// per-request condition.
func (c *Catalog) ValidateRoster(roster []string) error {
	if len(roster) == 0 {
		return fmt.Errorf("provider roster is empty")
	}
	for _, id := range roster {
		if _, ok := c.models[id]; !ok {
			return fmt.Errorf("roster model %s has no capability profile", id)
		}
	}
	return nil
}

// Package registry holds the model catalog: which models each tier
// provisions and which model serves each request category on each tier.
package registry

import (
	"sort"
	"strings"

	"assistd/internal/config"
	"assistd/internal/hardware"
)

// FallbackModel is the last resort when the catalog has no usable entry.
const FallbackModel = "phi3:3.8b"

// Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	routes map[string]map[hardware.Tier]string
	models map[hardware.Tier][]string
}

// New copies routes and models into a Catalog. Category keys are
// lower-cased; blank model names are dropped.
func New(routes map[string]map[hardware.Tier]string, models map[hardware.Tier][]string) *Catalog {
	c := &Catalog{
		routes: make(map[string]map[hardware.Tier]string, len(routes)),
		models: make(map[hardware.Tier][]string, len(models)),
	}
	for cat, row := range routes {
		key := normalizeCategory(cat)
		cp := make(map[hardware.Tier]string, len(row))
		for tier, m := range row {
			if m = strings.TrimSpace(m); m != "" {
				cp[tier] = m
			}
		}
		c.routes[key] = cp
	}
	for tier, list := range models {
		var cp []string
		for _, m := range list {
			if m = strings.TrimSpace(m); m != "" {
				cp = append(cp, m)
			}
		}
		c.models[tier] = cp
	}
	return c
}

// FromConfig builds the catalog from the routing and models sections.
func FromConfig(cfg config.Config) *Catalog {
	routes := make(map[string]map[hardware.Tier]string, len(cfg.Routing))
	for cat, row := range cfg.Routing {
		routes[cat] = map[hardware.Tier]string{
			hardware.Light:  row.Light,
			hardware.Medium: row.Medium,
			hardware.Heavy:  row.Heavy,
			hardware.NPU:    row.NPU,
		}
	}
	return New(routes, map[hardware.Tier][]string{
		hardware.Light:  cfg.Models.LightTier,
		hardware.Medium: cfg.Models.MediumTier,
		hardware.Heavy:  cfg.Models.HeavyTier,
		hardware.NPU:    cfg.Models.NPUTier,
	})
}

// Default returns the built-in catalog.
func Default() *Catalog { return FromConfig(config.Default()) }

// Select picks the model for a request. A non-empty override always wins.
// Otherwise the category row is used, unknown categories fall back to the
// chat row, then to the tier's first provisioned model, then to the light
// chat model. The result is never empty.
func (c *Catalog) Select(tier hardware.Tier, category, override string) string {
	if o := strings.TrimSpace(override); o != "" {
		return o
	}
	if m := c.routes[normalizeCategory(category)][tier]; m != "" {
		return m
	}
	if m := c.routes[config.CategoryChat][tier]; m != "" {
		return m
	}
	if list := c.models[tier]; len(list) > 0 {
		return list[0]
	}
	if m := c.routes[config.CategoryChat][hardware.Light]; m != "" {
		return m
	}
	return FallbackModel
}

// ModelsFor returns a copy of the provisioning list for tier.
func (c *Catalog) ModelsFor(tier hardware.Tier) []string {
	return append([]string(nil), c.models[tier]...)
}

// Categories lists known categories in sorted order.
func (c *Catalog) Categories() []string {
	out := make([]string, 0, len(c.routes))
	for cat := range c.routes {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

// AllModels returns every model named anywhere in the catalog, deduplicated
// and sorted.
func (c *Catalog) AllModels() []string {
	seen := make(map[string]struct{})
	for _, row := range c.routes {
		for _, m := range row {
			seen[m] = struct{}{}
		}
	}
	for _, list := range c.models {
		for _, m := range list {
			seen[m] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

func normalizeCategory(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"trinogate/internal/domain"
)

// Bundle is the YAML document format policies are imported from.
type Bundle struct {
	Service           string                 `yaml:"service"`
	AccessPolicies    []BundleAccessPolicy   `yaml:"access_policies"`
	RowFilterPolicies []BundleRowFilter      `yaml:"row_filter_policies"`
	DataMaskPolicies  []BundleDataMask       `yaml:"data_mask_policies"`
	Groups            []BundleGroup          `yaml:"groups"`
}

// BundleAccessPolicy is one access policy entry in a bundle.
type BundleAccessPolicy struct {
	Name     string            `yaml:"name"`
	Resource map[string]string `yaml:"resource"`
	Accesses []string          `yaml:"accesses"`
	Users    []string          `yaml:"users"`
	Groups   []string          `yaml:"groups"`
}

// BundleRowFilter is one row filter policy entry in a bundle.
type BundleRowFilter struct {
	Name    string   `yaml:"name"`
	Catalog string   `yaml:"catalog"`
	Schema  string   `yaml:"schema"`
	Table   string   `yaml:"table"`
	Filter  string   `yaml:"filter"`
	Users   []string `yaml:"users"`
	Groups  []string `yaml:"groups"`
}

// BundleDataMask is one data mask policy entry in a bundle.
type BundleDataMask struct {
	Name        string   `yaml:"name"`
	Catalog     string   `yaml:"catalog"`
	Schema      string   `yaml:"schema"`
	Table       string   `yaml:"table"`
	Column      string   `yaml:"column"`
	MaskType    string   `yaml:"mask_type"`
	MaskedValue *string  `yaml:"masked_value"`
	Users       []string `yaml:"users"`
	Groups      []string `yaml:"groups"`
}

// BundleGroup is one group membership entry in a bundle.
type BundleGroup struct {
	Name    string   `yaml:"name"`
	Members []string `yaml:"members"`
}

// ParseBundle decodes and validates a YAML policy bundle.
func ParseBundle(data []byte) (*Bundle, error) {
	var b Bundle
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse policy bundle: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

// LoadBundleFile reads and parses a YAML policy bundle from disk.
func LoadBundleFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound("policy bundle %s does not exist", path)
		}
		return nil, fmt.Errorf("read policy bundle: %w", err)
	}
	return ParseBundle(data)
}

// Validate checks structural requirements of the bundle.
func (b *Bundle) Validate() error {
	for _, p := range b.AccessPolicies {
		if p.Name == "" {
			return domain.ErrValidation("access policy without a name")
		}
		if len(p.Resource) == 0 {
			return domain.ErrValidation("access policy %q has no resource", p.Name)
		}
		if len(p.Accesses) == 0 {
			return domain.ErrValidation("access policy %q has no accesses", p.Name)
		}
		if len(p.Users) == 0 && len(p.Groups) == 0 {
			return domain.ErrValidation("access policy %q names no users or groups", p.Name)
		}
		for _, a := range p.Accesses {
			if _, err := domain.ParseAccessType(a); err != nil {
				return domain.ErrValidation("access policy %q: %v", p.Name, err)
			}
		}
	}
	for _, p := range b.RowFilterPolicies {
		if p.Name == "" || p.Filter == "" {
			return domain.ErrValidation("row filter policy %q needs a name and a filter", p.Name)
		}
	}
	for _, p := range b.DataMaskPolicies {
		if p.Name == "" || p.Column == "" || p.MaskType == "" {
			return domain.ErrValidation("data mask policy %q needs a name, column, and mask_type", p.Name)
		}
	}
	return nil
}

// AccessPolicyList converts the bundle's access policy entries into
// evaluator policies. IDs are left zero; they are assigned on persist.
func (b *Bundle) AccessPolicyList() []AccessPolicy {
	out := make([]AccessPolicy, 0, len(b.AccessPolicies))
	for _, p := range b.AccessPolicies {
		accesses := make([]domain.AccessType, 0, len(p.Accesses))
		for _, a := range p.Accesses {
			access, err := domain.ParseAccessType(a)
			if err != nil {
				continue // rejected by Validate; unreachable after parse
			}
			accesses = append(accesses, access)
		}
		out = append(out, AccessPolicy{
			Name:     p.Name,
			Resource: expandHierarchy(p.Resource),
			Accesses: accesses,
			Users:    p.Users,
			Groups:   p.Groups,
		})
	}
	return out
}

// expandHierarchy fills the finer hierarchy levels of a catalog-scoped
// resource with wildcards, so a bundle entry naming only a catalog (or
// catalog and schema) covers everything beneath it. Flat resources and
// explicitly set levels pass through unchanged.
func expandHierarchy(resource map[string]string) map[string]string {
	out := make(map[string]string, len(resource))
	for k, v := range resource {
		out[k] = v
	}
	if _, ok := out[domain.KeyCatalog]; !ok {
		return out
	}
	// Procedure and session property policies name their keys explicitly.
	if _, ok := out[domain.KeyProcedure]; ok {
		return out
	}
	if _, ok := out[domain.KeySessionProperty]; ok {
		return out
	}
	for _, key := range []string{domain.KeySchema, domain.KeyTable, domain.KeyColumn} {
		if _, ok := out[key]; !ok {
			out[key] = Wildcard
		}
	}
	return out
}

// RowFilterPolicyList converts the bundle's row filter entries.
func (b *Bundle) RowFilterPolicyList() []RowFilterPolicy {
	out := make([]RowFilterPolicy, 0, len(b.RowFilterPolicies))
	for _, p := range b.RowFilterPolicies {
		out = append(out, RowFilterPolicy{
			Name:       p.Name,
			Catalog:    defaultWildcard(p.Catalog),
			Schema:     defaultWildcard(p.Schema),
			Table:      defaultWildcard(p.Table),
			FilterExpr: p.Filter,
			Users:      p.Users,
			Groups:     p.Groups,
		})
	}
	return out
}

// DataMaskPolicyList converts the bundle's data mask entries.
func (b *Bundle) DataMaskPolicyList() []DataMaskPolicy {
	out := make([]DataMaskPolicy, 0, len(b.DataMaskPolicies))
	for _, p := range b.DataMaskPolicies {
		out = append(out, DataMaskPolicy{
			Name:        p.Name,
			Catalog:     defaultWildcard(p.Catalog),
			Schema:      defaultWildcard(p.Schema),
			Table:       defaultWildcard(p.Table),
			Column:      p.Column,
			MaskType:    p.MaskType,
			MaskedValue: p.MaskedValue,
			Users:       p.Users,
			Groups:      p.Groups,
		})
	}
	return out
}

func defaultWildcard(s string) string {
	if s == "" {
		return Wildcard
	}
	return s
}

package policy

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trinogate/internal/domain"
)

const sampleBundle = `
service: trino
access_policies:
  - name: analysts-sales
    resource:
      catalog: sales
    accesses: [use, select, show]
    groups: [analysts]
row_filter_policies:
  - name: orders-eu-only
    catalog: sales
    schema: web
    table: orders
    filter: "region = 'EU'"
    groups: [analysts]
data_mask_policies:
  - name: orders-email-hash
    catalog: sales
    schema: web
    table: orders
    column: email
    mask_type: MASK_HASH
    groups: [analysts]
groups:
  - name: analysts
    members: [alice, carol]
`

func TestParseBundle(t *testing.T) {
	b, err := ParseBundle([]byte(sampleBundle))
	require.NoError(t, err)
	assert.Equal(t, "trino", b.Service)
	require.Len(t, b.AccessPolicies, 1)
	require.Len(t, b.RowFilterPolicies, 1)
	require.Len(t, b.DataMaskPolicies, 1)
	require.Len(t, b.Groups, 1)
	assert.Equal(t, []string{"alice", "carol"}, b.Groups[0].Members)
}

func TestAccessPolicyListDefaultsMissingKeysToWildcard(t *testing.T) {
	b, err := ParseBundle([]byte(sampleBundle))
	require.NoError(t, err)

	policies := b.AccessPolicyList()
	require.Len(t, policies, 1)
	p := policies[0]
	assert.Equal(t, "sales", p.Resource[domain.KeyCatalog])
	assert.Equal(t, []domain.AccessType{domain.AccessUse, domain.AccessSelect, domain.AccessShow}, p.Accesses)

	// A catalog-only bundle entry covers the whole hierarchy beneath it.
	assert.True(t, p.MatchesResource(domain.NewTableResource("sales", "web", "orders")))
}

func TestRowFilterAndMaskLists(t *testing.T) {
	b, err := ParseBundle([]byte(sampleBundle))
	require.NoError(t, err)

	filters := b.RowFilterPolicyList()
	require.Len(t, filters, 1)
	assert.Equal(t, "region = 'EU'", filters[0].FilterExpr)

	masks := b.DataMaskPolicyList()
	require.Len(t, masks, 1)
	assert.Equal(t, "MASK_HASH", masks[0].MaskType)
	assert.Equal(t, "email", masks[0].Column)
}

func TestParseBundleRejectsInvalidEntries(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"unnamed access policy", `
access_policies:
  - resource: {catalog: sales}
    accesses: [select]
    groups: [analysts]
`},
		{"no accesses", `
access_policies:
  - name: p
    resource: {catalog: sales}
    groups: [analysts]
`},
		{"no principals", `
access_policies:
  - name: p
    resource: {catalog: sales}
    accesses: [select]
`},
		{"bad access type", `
access_policies:
  - name: p
    resource: {catalog: sales}
    accesses: [obliterate]
    groups: [analysts]
`},
		{"row filter without filter", `
row_filter_policies:
  - name: p
    catalog: sales
`},
		{"mask without column", `
data_mask_policies:
  - name: p
    catalog: sales
    mask_type: MASK_NULL
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseBundle([]byte(tc.yaml))
			var validation *domain.ValidationError
			require.ErrorAs(t, err, &validation)
		})
	}
}

func TestLoadBundleFileMissing(t *testing.T) {
	_, err := LoadBundleFile(filepath.Join(t.TempDir(), "absent.yaml"))
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestParseBundleMalformedYAML(t *testing.T) {
	_, err := ParseBundle([]byte("access_policies: [what"))
	require.Error(t, err)
}

package rules_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/namefix/pkg/program"
	"github.com/Sumatoshi-tech/namefix/pkg/rules"
	"github.com/Sumatoshi-tech/namefix/pkg/syntax"
)

type stubRule struct {
	descriptor rules.Descriptor
}

func (s stubRule) Descriptor() rules.Descriptor           { return s.descriptor }
func (s stubRule) SupportsDialect(_ syntax.Dialect) bool { return true }
func (s stubRule) Apply(_ context.Context, snap *program.Snapshot, _ program.DocumentID) (*program.Snapshot, error) {
	return snap, nil
}

func ids(rs []rules.Rule) []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.Descriptor().ID)
	}

	return out
}

func TestNewDescriptor_NormalizesName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "variable-names", rules.NewDescriptor("VariableNames", "", 0).ID)
	assert.Equal(t, "constant-field-names", rules.NewDescriptor("ConstantFieldNames", "", 0).ID)
	assert.Equal(t, "interface-naming", rules.NewDescriptor("InterfaceNaming", "", 0).ID)
	assert.Equal(t, "parameters-naming", rules.NewDescriptor(" ParametersNaming ", "", 0).ID)
}

func TestRegistry_OrderedByRuleOrder(t *testing.T) {
	t.Parallel()

	registry, err := rules.NewRegistry(rules.NewParametersNaming(), rules.NewVariableNames(),
		rules.NewInterfaceNaming(), rules.NewConstantFieldNames())
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"variable-names", "constant-field-names", "interface-naming", "parameters-naming"},
		ids(registry.All()))

	descriptors := registry.Descriptors()
	require.Len(t, descriptors, 4)
	assert.Equal(t, 5, descriptors[0].Order)
	assert.Equal(t, "Write variable names in camelCase", descriptors[0].Description)
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	t.Parallel()

	_, err := rules.NewRegistry(rules.NewVariableNames(), rules.NewVariableNames())
	require.ErrorIs(t, err, rules.ErrDuplicateRuleID)
}

func TestRegistry_Select(t *testing.T) {
	t.Parallel()

	registry, err := rules.NewRegistry(rules.Builtin()...)
	require.NoError(t, err)

	tests := []struct {
		name     string
		enabled  []string
		disabled []string
		want     []string
	}{
		{name: "all by default", want: []string{"variable-names", "constant-field-names", "interface-naming", "parameters-naming"}},
		{name: "exact id", enabled: []string{"interface-naming"}, want: []string{"interface-naming"}},
		{name: "glob", enabled: []string{"*-names"}, want: []string{"variable-names", "constant-field-names"}},
		{name: "disabled glob", disabled: []string{"*-naming"}, want: []string{"variable-names", "constant-field-names"}},
		{name: "run order wins over pattern order", enabled: []string{"parameters-naming", "variable-names"}, want: []string{"variable-names", "parameters-naming"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			selected, selectErr := registry.Select(tt.enabled, tt.disabled)
			require.NoError(t, selectErr)
			assert.Equal(t, tt.want, ids(selected))
		})
	}
}

func TestRegistry_SelectErrors(t *testing.T) {
	t.Parallel()

	registry, err := rules.NewRegistry(rules.Builtin()...)
	require.NoError(t, err)

	_, err = registry.Select([]string{"nope"}, nil)
	require.ErrorIs(t, err, rules.ErrUnknownRuleID)

	_, err = registry.Select([]string{"zzz*"}, nil)
	require.ErrorIs(t, err, rules.ErrUnknownRuleID)

	_, err = registry.Select([]string{"[a"}, nil)
	require.ErrorIs(t, err, rules.ErrInvalidRuleGlob)

	_, err = registry.Select(nil, []string{" "})
	require.ErrorIs(t, err, rules.ErrUnknownRuleID)
}

func TestRegistry_StubRulesSortByIDWithinOrder(t *testing.T) {
	t.Parallel()

	registry, err := rules.NewRegistry(
		stubRule{descriptor: rules.Descriptor{ID: "b", Order: 1}},
		stubRule{descriptor: rules.Descriptor{ID: "a", Order: 1}},
		stubRule{descriptor: rules.Descriptor{ID: "c", Order: 0}},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "a", "b"}, ids(registry.All()))

	rule, ok := registry.Rule("a")
	require.True(t, ok)
	assert.Equal(t, "a", rule.Descriptor().ID)
}

package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/segmend/internal/manifest"
	"github.com/hupe1980/segmend/internal/segment"
	"github.com/hupe1980/segmend/schema"
	"github.com/hupe1980/segmend/value"
)

func mustSchema(t *testing.T, fields ...schema.FieldSpec) *schema.Schema {
	t.Helper()
	s, err := schema.New("events", fields...)
	require.NoError(t, err)
	return s
}

func autoColumn(f schema.FieldSpec) manifest.ColumnDescriptor {
	return manifest.ColumnDescriptor{
		Name:          f.Name,
		DataType:      f.DataType,
		SingleValue:   f.SingleValue,
		Role:          f.Role,
		Defaults:      f.Defaults,
		Encoding:      manifest.EncodingDictionary,
		Cardinality:   1,
		HasDictionary: true,
		TotalDocs:     10,
		AutoGenerated: true,
	}
}

func TestClassify(t *testing.T) {
	region := schema.Dimension("region", value.TypeString, value.String("UNKNOWN"))
	score := schema.Metric("score", value.TypeInt, value.Int(-1))
	stale := schema.Dimension("stale", value.TypeLong, value.Long(0))
	user := schema.Dimension("user", value.TypeString, value.String("x"))
	legacy := schema.Dimension("legacy", value.TypeString, value.String("x"))

	m := manifest.New("seg", 10, segment.V1)
	m.SetColumn(autoColumn(score))
	m.SetColumn(autoColumn(stale))

	userDesc := autoColumn(user)
	userDesc.AutoGenerated = false
	m.SetColumn(userDesc)
	legacyDesc := autoColumn(legacy)
	legacyDesc.AutoGenerated = false
	m.SetColumn(legacyDesc)

	newScore := schema.Metric("score", value.TypeInt, value.Int(0))
	drifted := schema.Dimension("user", value.TypeLong, value.Long(1))
	s := mustSchema(t, region, newScore, drifted)

	plan := Classify(s, schema.DefaultIndexingConfig(), m)
	require.Equal(t, 5, plan.Len())

	names := make([]string, 0, plan.Len())
	for _, d := range plan.Decisions() {
		names = append(names, d.Column)
	}
	assert.Equal(t, []string{"region", "score", "user", "legacy", "stale"}, names)

	assert.Equal(t, ActionAdd, plan.Action("region"))
	assert.Equal(t, ActionUpdate, plan.Action("score"))
	assert.Equal(t, ActionNoOp, plan.Action("user"))
	assert.Equal(t, ActionNoOp, plan.Action("legacy"))
	assert.Equal(t, ActionRemove, plan.Action("stale"))
	assert.Equal(t, ActionNoOp, plan.Action("missing"))

	ud, ok := plan.Decision("user")
	require.True(t, ok)
	assert.Contains(t, ud.Warning, "data type")
	require.Len(t, plan.Warnings(), 1)

	pending := plan.Pending()
	require.Len(t, pending, 3)
	assert.Equal(t, "default value changed", pending[1].Reason)
}

func TestClassify_UpdateTriggers(t *testing.T) {
	base := schema.Dimension("city", value.TypeString, value.Value{})

	tests := []struct {
		name  string
		field schema.FieldSpec
		cfg   schema.IndexingConfig
		want  Action
	}{
		{"unchanged", base, schema.IndexingConfig{}, ActionNoOp},
		{"type", schema.Dimension("city", value.TypeJSON, value.Value{}), schema.IndexingConfig{}, ActionUpdate},
		{"arity", base.MultiValue(), schema.IndexingConfig{}, ActionUpdate},
		{"default", schema.Dimension("city", value.TypeString, value.String("x")), schema.IndexingConfig{}, ActionUpdate},
		{"text index", base, schema.IndexingConfig{TextIndexColumns: []string{"city"}}, ActionUpdate},
		{"null handling", base, schema.IndexingConfig{NullHandlingEnabled: true}, ActionUpdate},
		{"role", schema.Metric("city", value.TypeString, value.Value{}), schema.IndexingConfig{}, ActionUpdate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := manifest.New("seg", 10, segment.V1)
			m.SetColumn(autoColumn(base))

			plan := Classify(mustSchema(t, tt.field), tt.cfg, m)
			assert.Equal(t, tt.want, plan.Action("city"))
		})
	}
}

func TestClassify_RealColumnTextIndexDrift(t *testing.T) {
	f := schema.Dimension("body", value.TypeString, value.Value{})
	desc := autoColumn(f)
	desc.AutoGenerated = false

	m := manifest.New("seg", 10, segment.V1)
	m.SetColumn(desc)

	plan := Classify(mustSchema(t, f), schema.IndexingConfig{TextIndexColumns: []string{"body"}}, m)
	d, ok := plan.Decision("body")
	require.True(t, ok)
	assert.Equal(t, ActionNoOp, d.Action)
	assert.NotEmpty(t, d.Warning)
}

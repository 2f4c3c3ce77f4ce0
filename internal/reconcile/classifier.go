package reconcile

import (
	"fmt"
	"slices"

	"github.com/hupe1980/segmend/internal/manifest"
	"github.com/hupe1980/segmend/schema"
	"github.com/hupe1980/segmend/value"
)

// Decision is the classified action for one column.
type Decision struct {
	Column string
	Action Action
	// Field is the declared field. Zero for REMOVE.
	Field schema.FieldSpec
	// TextIndex is the column's text-index membership in the config.
	TextIndex bool
	// Reason explains an ADD, UPDATE or REMOVE in a few words.
	Reason string
	// Warning is set when a real data column disagrees with the schema.
	// Such columns are left as they are.
	Warning string
}

// Plan is the immutable classification of every column of one pass:
// schema fields in declaration order, then segment-only columns by name.
type Plan struct {
	decisions []Decision
}

// Classify computes the action for every column in the schema or the
// manifest.
func Classify(s *schema.Schema, cfg schema.IndexingConfig, m *manifest.Manifest) Plan {
	var p Plan
	for _, f := range s.Fields() {
		desc, ok := m.Column(f.Name)
		var existing *manifest.ColumnDescriptor
		if ok {
			existing = &desc
		}
		p.decisions = append(p.decisions, classifyField(f, cfg, existing))
	}
	for _, name := range m.ColumnNames() {
		if s.Has(name) {
			continue
		}
		desc, _ := m.Column(name)
		d := Decision{Column: name, Action: ActionNoOp}
		if desc.AutoGenerated {
			d.Action = ActionRemove
			d.Reason = "not in schema"
		}
		p.decisions = append(p.decisions, d)
	}
	return p
}

func classifyField(f schema.FieldSpec, cfg schema.IndexingConfig, desc *manifest.ColumnDescriptor) Decision {
	d := Decision{Column: f.Name, Field: f, TextIndex: cfg.IsTextIndexed(f.Name)}
	if desc == nil {
		d.Action = ActionAdd
		d.Reason = "not in segment"
		return d
	}

	reason := drift(f, cfg, d.TextIndex, desc)
	switch {
	case reason == "":
		d.Action = ActionNoOp
	case desc.AutoGenerated:
		d.Action = ActionUpdate
		d.Reason = reason
	default:
		d.Action = ActionNoOp
		d.Warning = reason
	}
	return d
}

// drift returns why desc no longer matches f, or "".
func drift(f schema.FieldSpec, cfg schema.IndexingConfig, textIndex bool, desc *manifest.ColumnDescriptor) string {
	switch {
	case desc.DataType != f.DataType:
		return fmt.Sprintf("data type %s -> %s", desc.DataType, f.DataType)
	case desc.SingleValue != f.SingleValue:
		return fmt.Sprintf("single value %t -> %t", desc.SingleValue, f.SingleValue)
	case desc.TextIndex != textIndex:
		return fmt.Sprintf("text index %t -> %t", desc.TextIndex, textIndex)
	}
	if !desc.AutoGenerated {
		// Defaults of real data columns are not materialized.
		return ""
	}
	switch {
	case !slices.EqualFunc(desc.Defaults, f.Defaults, value.Value.Equal):
		return "default value changed"
	case f.NullDefault() && desc.Role != f.Role:
		return fmt.Sprintf("role %s -> %s", desc.Role, f.Role)
	case f.NullDefault() && desc.HasNullVector != cfg.NullHandlingEnabled:
		return fmt.Sprintf("null handling %t -> %t", desc.HasNullVector, cfg.NullHandlingEnabled)
	}
	return ""
}

// Decisions returns every decision in plan order.
func (p Plan) Decisions() []Decision { return slices.Clone(p.decisions) }

// Len returns the number of columns in the plan.
func (p Plan) Len() int { return len(p.decisions) }

// Decision returns the decision for column.
func (p Plan) Decision(column string) (Decision, bool) {
	for _, d := range p.decisions {
		if d.Column == column {
			return d, true
		}
	}
	return Decision{}, false
}

// Action returns the action for column, ActionNoOp if it is unknown.
func (p Plan) Action(column string) Action {
	d, _ := p.Decision(column)
	return d.Action
}

// Pending returns the decisions that change the segment.
func (p Plan) Pending() []Decision {
	var out []Decision
	for _, d := range p.decisions {
		if !d.Action.IsNoOp() {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns the decisions that carry a warning.
func (p Plan) Warnings() []Decision {
	var out []Decision
	for _, d := range p.decisions {
		if d.Warning != "" {
			out = append(out, d)
		}
	}
	return out
}

package review

import (
	"fmt"
	"sort"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-pipewizard/pkg/apierr"
	"github.com/goliatone/go-pipewizard/pkg/draft"
	"github.com/goliatone/go-pipewizard/pkg/wizard"
)

const emptyValue = "-"

// Row is one label/value line of the review page.
type Row struct {
	Label string
	Value string
}

// Section lists the values collected by one step.
type Section struct {
	Number int
	Title  string
	Rows   []Row
}

// Summary is the review page model.
type Summary struct {
	Title    string
	Sections []Section
	Errors   []string
}

// Summarize builds the review model from the enabled steps and the draft.
// Hidden fields are skipped.
func Summarize(title string, steps []wizard.Step, d draft.Draft, errs map[string]string) Summary {
	out := Summary{Title: title}
	for i, step := range steps {
		section := Section{Number: i + 1, Title: pick(step.Title, step.Name)}
		for _, field := range step.VisibleFields(d) {
			section.Rows = append(section.Rows, Row{
				Label: pick(field.Label, field.Path),
				Value: formatValue(field, d),
			})
		}
		out.Sections = append(out.Sections, section)
	}
	if len(errs) > 0 {
		names := make([]string, 0, len(errs))
		for name := range errs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out.Errors = append(out.Errors, errs[name])
		}
	}
	return out
}

// Review renders the summary.
func (r *Renderer) Review(s Summary) (string, error) {
	width := 0
	sections := make([]map[string]any, 0, len(s.Sections))
	for _, section := range s.Sections {
		rows := make([]map[string]any, 0, len(section.Rows))
		for _, row := range section.Rows {
			if len(row.Label) > width {
				width = len(row.Label)
			}
			rows = append(rows, map[string]any{"label": row.Label, "value": row.Value})
		}
		sections = append(sections, map[string]any{
			"number": section.Number,
			"title":  section.Title,
			"rows":   rows,
		})
	}
	return r.Render(templateReview, pongo2.Context{
		"title":    s.Title,
		"sections": sections,
		"errors":   s.Errors,
		"width":    width,
	})
}

// Conflict renders the conflict dialog with its numbered actions, in the
// order returned by Decisions.
func (r *Renderer) Conflict(c wizard.Conflict) (string, error) {
	decisions := c.Decisions()
	actions := make([]string, 0, len(decisions))
	for _, d := range decisions {
		actions = append(actions, DecisionLabel(d))
	}
	return r.Render(templateConflict, pongo2.Context{
		"heading": ConflictHeading(c.Code),
		"message": c.Message,
		"force":   c.ShowContinue,
		"actions": actions,
	})
}

// ConflictHeading titles the dialog for code.
func ConflictHeading(code apierr.Code) string {
	switch code {
	case apierr.CodeDuplicatedIndexPrefix, apierr.CodeDuplicatedWithInactiveIndexPrefix:
		return "Index name already in use"
	case apierr.CodeOverlapIndexPrefix, apierr.CodeOverlapWithInactiveIndexPrefix:
		return "Index name overlaps an existing index"
	default:
		return "Pipeline could not be created"
	}
}

// DecisionLabel is the action text for d.
func DecisionLabel(d wizard.Decision) string {
	switch d {
	case wizard.DecisionCancel:
		return "Cancel"
	case wizard.DecisionEditIndex:
		return "Change index name"
	case wizard.DecisionForceCreate:
		return "Create anyway"
	default:
		return d.String()
	}
}

func formatValue(field wizard.Field, d draft.Draft) string {
	raw, ok := d.Get(field.Path)
	if !ok || raw == nil {
		return emptyValue
	}
	switch field.Kind {
	case wizard.FieldBool:
		if d.Bool(field.Path) {
			return "Yes"
		}
		return "No"
	case wizard.FieldTags:
		items := d.Slice(field.Path)
		pairs := make([]string, 0, len(items))
		for i := range items {
			base := fmt.Sprintf("%s.%d", field.Path, i)
			pairs = append(pairs, d.String(base+".key")+"="+d.String(base+".value"))
		}
		if len(pairs) == 0 {
			return emptyValue
		}
		return strings.Join(pairs, ", ")
	case wizard.FieldList, wizard.FieldMultiSelect:
		values := d.Strings(field.Path)
		if len(values) == 0 {
			return emptyValue
		}
		return strings.Join(values, ", ")
	default:
		if s := d.String(field.Path); s != "" {
			return s
		}
		return emptyValue
	}
}

func pick(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

package scorable

import (
	"net/url"
	"strconv"
	"time"
)

// ListParams are the pagination and search parameters shared by all list
// operations.
type ListParams struct {
	Cursor   string
	PageSize int
	Search   string
	Ordering string
}

// Values encodes the parameters. Zero fields are omitted.
func (p ListParams) Values() url.Values {
	q := query{}
	q.str("cursor", p.Cursor)
	q.integer("page_size", p.PageSize)
	q.str("search", p.Search)
	q.str("ordering", p.Ordering)
	return url.Values(q)
}

// EvaluatorListParams filters evaluator lists.
type EvaluatorListParams struct {
	ListParams
	IsPreset *bool
	IsPublic *bool
}

// Values encodes the parameters.
func (p EvaluatorListParams) Values() url.Values {
	q := query(p.ListParams.Values())
	q.boolPtr("is_preset", p.IsPreset)
	q.boolPtr("is_public", p.IsPublic)
	return url.Values(q)
}

// JudgeListParams filters judge lists.
type JudgeListParams = EvaluatorListParams

// ObjectiveListParams filters objective lists.
type ObjectiveListParams struct {
	ListParams
	HasValidators *bool
	Intent        string
}

// Values encodes the parameters.
func (p ObjectiveListParams) Values() url.Values {
	q := query(p.ListParams.Values())
	q.boolPtr("has_validators", p.HasValidators)
	q.str("intent", p.Intent)
	return url.Values(q)
}

// ModelListParams filters model lists.
type ModelListParams struct {
	ListParams
	Name   string
	Vendor string
}

// Values encodes the parameters.
func (p ModelListParams) Values() url.Values {
	q := query(p.ListParams.Values())
	q.str("name", p.Name)
	q.str("vendor", p.Vendor)
	return url.Values(q)
}

// ExecutionLogListParams filters execution log lists. Nil bounds are open.
type ExecutionLogListParams struct {
	ListParams
	SkillID         string
	EvaluatorID     string
	JudgeID         string
	CostMin         *float64
	CostMax         *float64
	ScoreMin        *float64
	ScoreMax        *float64
	CreatedAtAfter  time.Time
	CreatedAtBefore time.Time
	Model           string
	OwnerEmail      string
	Tags            string
}

// Values encodes the parameters. Times are sent as RFC 3339.
func (p ExecutionLogListParams) Values() url.Values {
	q := query(p.ListParams.Values())
	q.str("skill_id", p.SkillID)
	q.str("evaluator_id", p.EvaluatorID)
	q.str("judge_id", p.JudgeID)
	q.floatPtr("cost_min", p.CostMin)
	q.floatPtr("cost_max", p.CostMax)
	q.floatPtr("score_min", p.ScoreMin)
	q.floatPtr("score_max", p.ScoreMax)
	q.timestamp("created_at_after", p.CreatedAtAfter)
	q.timestamp("created_at_before", p.CreatedAtBefore)
	q.str("model", p.Model)
	q.str("owner__email", p.OwnerEmail)
	q.str("tags", p.Tags)
	return url.Values(q)
}

// DatasetListParams filters dataset lists.
type DatasetListParams struct {
	ListParams
	Type string // "reference" or "test"
}

// Values encodes the parameters.
func (p DatasetListParams) Values() url.Values {
	q := query(p.ListParams.Values())
	q.str("type", p.Type)
	return url.Values(q)
}

type query url.Values

func (q query) str(key, v string) {
	if v != "" {
		q[key] = []string{v}
	}
}

func (q query) integer(key string, v int) {
	if v > 0 {
		q[key] = []string{strconv.Itoa(v)}
	}
}

func (q query) boolPtr(key string, v *bool) {
	if v != nil {
		q[key] = []string{strconv.FormatBool(*v)}
	}
}

func (q query) floatPtr(key string, v *float64) {
	if v != nil {
		q[key] = []string{strconv.FormatFloat(*v, 'f', -1, 64)}
	}
}

func (q query) timestamp(key string, v time.Time) {
	if !v.IsZero() {
		q[key] = []string{v.UTC().Format(time.RFC3339)}
	}
}

// Bool returns a pointer to v, for optional filters.
func Bool(v bool) *bool { return &v }

// Float returns a pointer to v, for optional filters.
func Float(v float64) *float64 { return &v }

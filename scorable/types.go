package scorable

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/url"
	"time"
)

// Page is one page of a cursor-paginated list.
type Page[T any] struct {
	Results  []T    `json:"results"`
	Next     string `json:"next,omitempty"`
	Previous string `json:"previous,omitempty"`
	Count    int    `json:"count,omitempty"`
}

// HasNext reports whether a following page exists.
func (p *Page[T]) HasNext() bool {
	return p != nil && p.Next != ""
}

// Cursor returns the cursor of the next page, or "" on the last page.
func (p *Page[T]) Cursor() string {
	if !p.HasNext() {
		return ""
	}
	return cursorOf(p.Next)
}

// PreviousCursor returns the cursor of the previous page, or "".
func (p *Page[T]) PreviousCursor() string {
	if p == nil || p.Previous == "" {
		return ""
	}
	return cursorOf(p.Previous)
}

func cursorOf(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Query().Get("cursor")
}

// PageFunc fetches the page starting at cursor. An empty cursor is the first
// page.
type PageFunc[T any] func(ctx context.Context, cursor string) (*Page[T], error)

// All iterates every item across pages. Iteration stops at the first error,
// which is yielded with the zero value.
func All[T any](ctx context.Context, fetch PageFunc[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		cursor := ""
		for {
			page, err := fetch(ctx, cursor)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, item := range page.Results {
				if !yield(item, nil) {
					return
				}
			}
			next := page.Cursor()
			if next == "" || next == cursor {
				return
			}
			cursor = next
		}
	}
}

// Function is a tool definition passed to an evaluation.
type Function struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ExecutionPayload is the input of an evaluator run.
type ExecutionPayload struct {
	Request        string            `json:"request,omitempty"`
	Response       string            `json:"response,omitempty"`
	Contexts       []string          `json:"contexts,omitempty"`
	Functions      []Function        `json:"functions,omitempty"`
	ExpectedOutput string            `json:"expected_output,omitempty"`
	Reference      string            `json:"reference,omitempty"`
	Variables      map[string]string `json:"variables,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
}

// ExecutionResult is the outcome of one evaluator run. Score is normalized
// to [0, 1].
type ExecutionResult struct {
	EvaluatorName  string   `json:"evaluator_name,omitempty"`
	Score          float64  `json:"score"`
	Justification  string   `json:"justification,omitempty"`
	ExecutionLogID string   `json:"execution_log_id,omitempty"`
	Cost           *float64 `json:"cost,omitempty"`
}

// Evaluator is an evaluator definition.
type Evaluator struct {
	ID                     string     `json:"id"`
	Name                   string     `json:"name"`
	Intent                 string     `json:"intent,omitempty"`
	Prompt                 string     `json:"prompt,omitempty"`
	SystemMessage          string     `json:"system_message,omitempty"`
	ObjectiveID            string     `json:"objective_id,omitempty"`
	Models                 []string   `json:"models,omitempty"`
	Status                 string     `json:"status,omitempty"`
	IsPreset               bool       `json:"is_preset,omitempty"`
	RequiresContexts       bool       `json:"requires_contexts,omitempty"`
	RequiresExpectedOutput bool       `json:"requires_expected_output,omitempty"`
	RequiresFunctions      bool       `json:"requires_functions,omitempty"`
	CreatedAt              *time.Time `json:"created_at,omitempty"`

	svc *EvaluatorsService
}

// Execute runs this evaluator. It is available on evaluators returned by
// EvaluatorsService.
func (e *Evaluator) Execute(ctx context.Context, payload ExecutionPayload) (*ExecutionResult, error) {
	if e.svc == nil {
		return nil, fmt.Errorf("%w: evaluator %q is not bound to a client", ErrInvalidParams, e.ID)
	}
	return e.svc.Execute(ctx, e.ID, payload)
}

// EvaluatorRequest is the body of an evaluator creation.
type EvaluatorRequest struct {
	Name               string   `json:"name"`
	Prompt             string   `json:"prompt"`
	ObjectiveID        string   `json:"objective_id,omitempty"`
	ObjectiveVersionID string   `json:"objective_version_id,omitempty"`
	SystemMessage      string   `json:"system_message,omitempty"`
	Models             []string `json:"models,omitempty"`
	Status             string   `json:"status,omitempty"`
	ChangeNote         string   `json:"change_note,omitempty"`
	Overwrite          bool     `json:"overwrite"`
}

// CreateEvaluatorParams describes a new evaluator. Exactly one of Intent and
// ObjectiveID must be set; Intent creates a new objective first.
type CreateEvaluatorParams struct {
	Name               string
	Predicate          string
	Intent             string
	ObjectiveID        string
	ObjectiveVersionID string
	Models             []string
	SystemMessage      string
	ChangeNote         string
	Status             string
	Overwrite          bool
}

// EvaluatorReference points at an evaluator, optionally pinned to a version.
type EvaluatorReference struct {
	ID        string `json:"id"`
	VersionID string `json:"version_id,omitempty"`
}

// Judge is a named group of evaluators.
type Judge struct {
	ID                  string               `json:"id"`
	Name                string               `json:"name"`
	Intent              string               `json:"intent,omitempty"`
	Stage               string               `json:"stage,omitempty"`
	EvaluatorReferences []EvaluatorReference `json:"evaluator_references,omitempty"`
	CreatedAt           *time.Time           `json:"created_at,omitempty"`
}

// JudgeRequest is the body of a judge creation or partial update.
type JudgeRequest struct {
	Name                string               `json:"name,omitempty"`
	Intent              string               `json:"intent,omitempty"`
	Stage               string               `json:"stage,omitempty"`
	EvaluatorReferences []EvaluatorReference `json:"evaluator_references,omitempty"`
}

// JudgeExecutionPayload is the input of a judge run.
type JudgeExecutionPayload struct {
	Request        string     `json:"request,omitempty"`
	Response       string     `json:"response,omitempty"`
	Contexts       []string   `json:"contexts,omitempty"`
	Functions      []Function `json:"functions,omitempty"`
	ExpectedOutput string     `json:"expected_output,omitempty"`
	Tags           []string   `json:"tags,omitempty"`
}

// JudgeExecutionResult holds one result per evaluator of the judge.
type JudgeExecutionResult struct {
	EvaluatorResults []ExecutionResult `json:"evaluator_results"`
	Cost             *float64          `json:"cost,omitempty"`
}

// JudgeGeneration is the outcome of generating a judge from an intent.
type JudgeGeneration struct {
	JudgeID   string `json:"judge_id"`
	ErrorCode string `json:"error_code,omitempty"`
}

// JudgeRefinement is the server's proposal for improving a judge. Its shape
// is not stable, so it is kept as raw JSON.
type JudgeRefinement = json.RawMessage

// Validator pairs an evaluator with a passing threshold inside an objective.
type Validator struct {
	EvaluatorID   string  `json:"evaluator_id,omitempty"`
	EvaluatorName string  `json:"evaluator_name,omitempty"`
	Threshold     float64 `json:"threshold,omitempty"`
}

// Objective is a versioned statement of what an evaluation measures.
type Objective struct {
	ID            string      `json:"id"`
	Intent        string      `json:"intent,omitempty"`
	Status        string      `json:"status,omitempty"`
	Version       string      `json:"version,omitempty"`
	Validators    []Validator `json:"validators,omitempty"`
	TestDatasetID string      `json:"test_dataset_id,omitempty"`
	CreatedAt     *time.Time  `json:"created_at,omitempty"`
}

// ObjectiveRequest is the body of an objective creation or update.
type ObjectiveRequest struct {
	Intent        string      `json:"intent,omitempty"`
	Status        string      `json:"status,omitempty"`
	Validators    []Validator `json:"validators,omitempty"`
	ForceCreate   bool        `json:"force_create,omitempty"`
	TestDatasetID string      `json:"test_dataset_id,omitempty"`
}

// Model is an LLM available to evaluators.
type Model struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Model               string `json:"model,omitempty"`
	URL                 string `json:"url,omitempty"`
	Vendor              string `json:"vendor,omitempty"`
	MaxTokenCount       int    `json:"max_token_count,omitempty"`
	MaxOutputTokenCount int    `json:"max_output_token_count,omitempty"`
}

// ModelRequest is the body of a model creation or update.
type ModelRequest struct {
	Name                string `json:"name,omitempty"`
	Model               string `json:"model,omitempty"`
	URL                 string `json:"url,omitempty"`
	DefaultKey          string `json:"default_key,omitempty"`
	MaxTokenCount       int    `json:"max_token_count,omitempty"`
	MaxOutputTokenCount int    `json:"max_output_token_count,omitempty"`
}

// ExecutionLog records one evaluator or judge run.
type ExecutionLog struct {
	ID            string           `json:"id"`
	CreatedAt     *time.Time       `json:"created_at,omitempty"`
	ExecutedItem  map[string]any   `json:"executed_item,omitempty"`
	Score         *float64         `json:"score,omitempty"`
	Cost          *float64         `json:"cost,omitempty"`
	Model         string           `json:"model,omitempty"`
	Tags          []string         `json:"tags,omitempty"`
	Justification string           `json:"justification,omitempty"`
	Request       string           `json:"request,omitempty"`
	Response      string           `json:"response,omitempty"`
	Results       []map[string]any `json:"results,omitempty"`
}

// Dataset is a reference or test dataset.
type Dataset struct {
	ID        string     `json:"id"`
	Name      string     `json:"name,omitempty"`
	Type      string     `json:"type,omitempty"`
	Status    string     `json:"status,omitempty"`
	URL       string     `json:"url,omitempty"`
	Tags      []string   `json:"tags,omitempty"`
	HasHeader *bool      `json:"has_header,omitempty"`
	Content   []string   `json:"content,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// DatasetRequest is the body of a dataset creation from a URL.
type DatasetRequest struct {
	Name      string   `json:"name,omitempty"`
	Type      string   `json:"type,omitempty"`
	URL       string   `json:"url,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	HasHeader *bool    `json:"has_header,omitempty"`
}

// DatasetStatus is the result of a dataset status change.
type DatasetStatus struct {
	Status string `json:"status"`
}

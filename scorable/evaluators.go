package scorable

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"net/url"
)

// EvaluatorsService wraps the /v1/evaluators/ endpoints.
type EvaluatorsService struct {
	client *Client
}

const resourceEvaluators = "evaluators"

// List returns one page of accessible evaluators.
func (s *EvaluatorsService) List(ctx context.Context, params EvaluatorListParams) (*Page[*Evaluator], error) {
	var page Page[*Evaluator]
	req := &Request{
		Method: http.MethodGet, Path: "/v1/evaluators/", Query: params.Values(),
		Resource: resourceEvaluators, Action: "list",
	}
	if err := s.client.call(ctx, req, "LIST_EVALUATORS_FAILED", "failed to list evaluators", &page); err != nil {
		return nil, err
	}
	for _, e := range page.Results {
		e.svc = s
	}
	return &page, nil
}

// All iterates every evaluator matching params.
func (s *EvaluatorsService) All(ctx context.Context, params EvaluatorListParams) iter.Seq2[*Evaluator, error] {
	return All(ctx, func(ctx context.Context, cursor string) (*Page[*Evaluator], error) {
		p := params
		p.Cursor = cursor
		return s.List(ctx, p)
	})
}

// Get returns the evaluator with the given ID.
func (s *EvaluatorsService) Get(ctx context.Context, id string) (*Evaluator, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: evaluator id is required", ErrInvalidParams)
	}
	var out Evaluator
	req := &Request{
		Method: http.MethodGet, Path: "/v1/evaluators/" + url.PathEscape(id) + "/",
		Resource: resourceEvaluators, Action: "get",
	}
	if err := s.client.call(ctx, req, "GET_EVALUATOR_FAILED", "failed to get evaluator "+id, &out); err != nil {
		return nil, err
	}
	out.svc = s
	return &out, nil
}

// Execute runs the evaluator with the given ID.
func (s *EvaluatorsService) Execute(ctx context.Context, id string, payload ExecutionPayload) (*ExecutionResult, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: evaluator id is required", ErrInvalidParams)
	}
	var out ExecutionResult
	req := &Request{
		Method: http.MethodPost, Path: "/v1/evaluators/execute/" + url.PathEscape(id) + "/", Body: payload,
		Resource: resourceEvaluators, Action: "execute",
	}
	if err := s.client.call(ctx, req, "EXECUTE_EVALUATOR_FAILED", "failed to execute evaluator "+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExecuteByName runs the evaluator with the given name.
func (s *EvaluatorsService) ExecuteByName(ctx context.Context, name string, payload ExecutionPayload) (*ExecutionResult, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: evaluator name is required", ErrInvalidParams)
	}
	var out ExecutionResult
	req := &Request{
		Method: http.MethodPost, Path: "/v1/evaluators/execute/by-name/",
		Query: url.Values{"name": {name}}, Body: payload,
		Resource: resourceEvaluators, Action: "execute_by_name",
	}
	if err := s.client.call(ctx, req, "EXECUTE_EVALUATOR_BY_NAME_FAILED", "failed to execute evaluator by name: "+name, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Duplicate copies the evaluator with the given ID.
func (s *EvaluatorsService) Duplicate(ctx context.Context, id string) (*Evaluator, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: evaluator id is required", ErrInvalidParams)
	}
	var out Evaluator
	req := &Request{
		Method: http.MethodPost, Path: "/v1/evaluators/duplicate/" + url.PathEscape(id) + "/", Body: struct{}{},
		Resource: resourceEvaluators, Action: "duplicate",
	}
	if err := s.client.call(ctx, req, "DUPLICATE_EVALUATOR_FAILED", "failed to duplicate evaluator "+id, &out); err != nil {
		return nil, err
	}
	out.svc = s
	return &out, nil
}

// Create defines a new evaluator. With Intent set, an objective is created
// first and the evaluator is attached to it.
func (s *EvaluatorsService) Create(ctx context.Context, params CreateEvaluatorParams) (*Evaluator, error) {
	switch {
	case params.Intent != "" && params.ObjectiveID != "":
		return nil, fmt.Errorf("%w: objective id and intent cannot be used together", ErrInvalidParams)
	case params.Intent == "" && params.ObjectiveID == "":
		return nil, fmt.Errorf("%w: objective id or intent is required", ErrInvalidParams)
	case params.Name == "":
		return nil, fmt.Errorf("%w: evaluator name is required", ErrInvalidParams)
	}

	objectiveID := params.ObjectiveID
	if params.Intent != "" {
		objective, err := s.client.Objectives.Create(ctx, ObjectiveRequest{Intent: params.Intent})
		if err != nil {
			return nil, err
		}
		objectiveID = objective.ID
	}

	body := EvaluatorRequest{
		Name:               params.Name,
		Prompt:             params.Predicate,
		ObjectiveID:        objectiveID,
		ObjectiveVersionID: params.ObjectiveVersionID,
		SystemMessage:      params.SystemMessage,
		Models:             params.Models,
		Status:             params.Status,
		ChangeNote:         params.ChangeNote,
		Overwrite:          params.Overwrite,
	}
	var out Evaluator
	req := &Request{
		Method: http.MethodPost, Path: "/v1/evaluators/", Body: body,
		Resource: resourceEvaluators, Action: "create",
	}
	if err := s.client.call(ctx, req, "CREATE_EVALUATOR_FAILED", "failed to create evaluator", &out); err != nil {
		return nil, err
	}
	out.svc = s
	return &out, nil
}

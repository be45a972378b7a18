package scorable

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
)

// JudgesService wraps the /beta/judges/ endpoints.
type JudgesService struct {
	client *Client
}

const resourceJudges = "judges"

func judgePath(id string) string {
	return "/beta/judges/" + url.PathEscape(id) + "/"
}

func requireJudgeID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: judge id is required", ErrInvalidParams)
	}
	return nil
}

// List returns one page of accessible judges.
func (s *JudgesService) List(ctx context.Context, params JudgeListParams) (*Page[Judge], error) {
	var page Page[Judge]
	req := &Request{
		Method: http.MethodGet, Path: "/beta/judges/", Query: params.Values(),
		Resource: resourceJudges, Action: "list",
	}
	if err := s.client.call(ctx, req, "LIST_JUDGES_FAILED", "failed to list judges", &page); err != nil {
		return nil, err
	}
	if page.Count == 0 {
		page.Count = len(page.Results)
	}
	return &page, nil
}

// All iterates every judge matching params.
func (s *JudgesService) All(ctx context.Context, params JudgeListParams) iter.Seq2[Judge, error] {
	return All(ctx, func(ctx context.Context, cursor string) (*Page[Judge], error) {
		p := params
		p.Cursor = cursor
		return s.List(ctx, p)
	})
}

// Create defines a new judge.
func (s *JudgesService) Create(ctx context.Context, body JudgeRequest) (*Judge, error) {
	if body.Name == "" || body.Intent == "" {
		return nil, fmt.Errorf("%w: judge name and intent are required", ErrInvalidParams)
	}
	var out Judge
	req := &Request{
		Method: http.MethodPost, Path: "/beta/judges/", Body: body,
		Resource: resourceJudges, Action: "create",
	}
	if err := s.client.call(ctx, req, "CREATE_JUDGE_FAILED", "failed to create judge", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns the judge with the given ID.
func (s *JudgesService) Get(ctx context.Context, id string) (*Judge, error) {
	if err := requireJudgeID(id); err != nil {
		return nil, err
	}
	var out Judge
	req := &Request{Method: http.MethodGet, Path: judgePath(id), Resource: resourceJudges, Action: "get"}
	if err := s.client.call(ctx, req, "GET_JUDGE_FAILED", "failed to get judge "+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update partially updates a judge. Empty fields are left unchanged.
func (s *JudgesService) Update(ctx context.Context, id string, body JudgeRequest) (*Judge, error) {
	if err := requireJudgeID(id); err != nil {
		return nil, err
	}
	var out Judge
	req := &Request{Method: http.MethodPatch, Path: judgePath(id), Body: body, Resource: resourceJudges, Action: "update"}
	if err := s.client.call(ctx, req, "UPDATE_JUDGE_FAILED", "failed to update judge "+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a judge.
func (s *JudgesService) Delete(ctx context.Context, id string) error {
	if err := requireJudgeID(id); err != nil {
		return err
	}
	req := &Request{Method: http.MethodDelete, Path: judgePath(id), Resource: resourceJudges, Action: "delete"}
	return s.client.call(ctx, req, "DELETE_JUDGE_FAILED", "failed to delete judge "+id, nil)
}

// Execute runs every evaluator of a judge.
func (s *JudgesService) Execute(ctx context.Context, id string, payload JudgeExecutionPayload) (*JudgeExecutionResult, error) {
	if err := requireJudgeID(id); err != nil {
		return nil, err
	}
	var out JudgeExecutionResult
	req := &Request{
		Method: http.MethodPost, Path: judgePath(id) + "execute/", Body: payload,
		Resource: resourceJudges, Action: "execute",
	}
	if err := s.client.call(ctx, req, "EXECUTE_JUDGE_FAILED", "failed to execute judge "+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type judgeGenerateRequest struct {
	Intent     string `json:"intent"`
	Visibility string `json:"visibility"`
	Strict     bool   `json:"strict"`
}

// Generate asks the API to build an unlisted judge from intent.
func (s *JudgesService) Generate(ctx context.Context, intent string) (*JudgeGeneration, error) {
	if intent == "" {
		return nil, fmt.Errorf("%w: intent is required", ErrInvalidParams)
	}
	var out JudgeGeneration
	req := &Request{
		Method: http.MethodPost, Path: "/beta/judges/generate/",
		Body:     judgeGenerateRequest{Intent: intent, Visibility: "unlisted", Strict: true},
		Resource: resourceJudges, Action: "generate",
	}
	if err := s.client.call(ctx, req, "GENERATE_JUDGE_FAILED", "failed to generate judge", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Refine asks the API to improve a judge using the given example. The
// result is nil when the API has no proposal.
func (s *JudgesService) Refine(ctx context.Context, id string, payload JudgeExecutionPayload) (JudgeRefinement, error) {
	if err := requireJudgeID(id); err != nil {
		return nil, err
	}
	var out json.RawMessage
	req := &Request{
		Method: http.MethodPost, Path: judgePath(id) + "refine/", Body: payload,
		Resource: resourceJudges, Action: "refine",
	}
	if err := s.client.call(ctx, req, "REFINE_JUDGE_FAILED", "failed to refine judge "+id, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Duplicate copies a judge.
func (s *JudgesService) Duplicate(ctx context.Context, id string) (*Judge, error) {
	if err := requireJudgeID(id); err != nil {
		return nil, err
	}
	var out Judge
	req := &Request{
		Method: http.MethodPost, Path: judgePath(id) + "duplicate/",
		Resource: resourceJudges, Action: "duplicate",
	}
	if err := s.client.call(ctx, req, "DUPLICATE_JUDGE_FAILED", "failed to duplicate judge "+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

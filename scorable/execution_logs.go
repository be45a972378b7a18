package scorable

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ExecutionLogsService wraps the /v1/execution-logs/ endpoints. The ListBy
// helpers set one filter on top of params.
type ExecutionLogsService struct {
	client *Client
}

const resourceExecutionLogs = "execution_logs"

// List returns one page of execution logs matching params.
func (s *ExecutionLogsService) List(ctx context.Context, params ExecutionLogListParams) (*Page[ExecutionLog], error) {
	var page Page[ExecutionLog]
	req := &Request{
		Method: http.MethodGet, Path: "/v1/execution-logs/", Query: params.Values(),
		Resource: resourceExecutionLogs, Action: "list",
	}
	if err := s.client.call(ctx, req, "LIST_EXECUTION_LOGS_FAILED", "failed to list execution logs", &page); err != nil {
		return nil, err
	}
	if page.Count == 0 {
		page.Count = len(page.Results)
	}
	return &page, nil
}

// Get returns the details of one execution log.
func (s *ExecutionLogsService) Get(ctx context.Context, logID string) (*ExecutionLog, error) {
	if logID == "" {
		return nil, fmt.Errorf("%w: execution log id is required", ErrInvalidParams)
	}
	var out ExecutionLog
	req := &Request{
		Method: http.MethodGet, Path: "/v1/execution-logs/" + url.PathEscape(logID) + "/",
		Resource: resourceExecutionLogs, Action: "get",
	}
	if err := s.client.call(ctx, req, "GET_EXECUTION_LOG_FAILED", "failed to get execution log "+logID, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListBySkill lists logs of one skill.
func (s *ExecutionLogsService) ListBySkill(ctx context.Context, skillID string, params ExecutionLogListParams) (*Page[ExecutionLog], error) {
	params.SkillID = skillID
	return s.List(ctx, params)
}

// ListByEvaluator lists logs of one evaluator.
func (s *ExecutionLogsService) ListByEvaluator(ctx context.Context, evaluatorID string, params ExecutionLogListParams) (*Page[ExecutionLog], error) {
	params.EvaluatorID = evaluatorID
	return s.List(ctx, params)
}

// ListByJudge lists logs of one judge.
func (s *ExecutionLogsService) ListByJudge(ctx context.Context, judgeID string, params ExecutionLogListParams) (*Page[ExecutionLog], error) {
	params.JudgeID = judgeID
	return s.List(ctx, params)
}

// ListByModel lists logs produced by one model.
func (s *ExecutionLogsService) ListByModel(ctx context.Context, model string, params ExecutionLogListParams) (*Page[ExecutionLog], error) {
	params.Model = model
	return s.List(ctx, params)
}

// ListByTags lists logs carrying tags, a comma separated list.
func (s *ExecutionLogsService) ListByTags(ctx context.Context, tags string, params ExecutionLogListParams) (*Page[ExecutionLog], error) {
	params.Tags = tags
	return s.List(ctx, params)
}

// ListByCostRange lists logs whose cost lies in [minCost, maxCost].
func (s *ExecutionLogsService) ListByCostRange(ctx context.Context, minCost, maxCost float64, params ExecutionLogListParams) (*Page[ExecutionLog], error) {
	if minCost > maxCost {
		return nil, fmt.Errorf("%w: cost range %g > %g", ErrInvalidParams, minCost, maxCost)
	}
	params.CostMin, params.CostMax = Float(minCost), Float(maxCost)
	return s.List(ctx, params)
}

// ListByScoreRange lists logs whose score lies in [minScore, maxScore].
func (s *ExecutionLogsService) ListByScoreRange(ctx context.Context, minScore, maxScore float64, params ExecutionLogListParams) (*Page[ExecutionLog], error) {
	if minScore > maxScore {
		return nil, fmt.Errorf("%w: score range %g > %g", ErrInvalidParams, minScore, maxScore)
	}
	params.ScoreMin, params.ScoreMax = Float(minScore), Float(maxScore)
	return s.List(ctx, params)
}

// ListByDateRange lists logs created between start and end.
func (s *ExecutionLogsService) ListByDateRange(ctx context.Context, start, end time.Time, params ExecutionLogListParams) (*Page[ExecutionLog], error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: date range ends before it starts", ErrInvalidParams)
	}
	params.CreatedAtAfter, params.CreatedAtBefore = start, end
	return s.List(ctx, params)
}

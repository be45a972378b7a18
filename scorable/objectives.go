package scorable

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ObjectivesService wraps the /v1/objectives/ endpoints.
type ObjectivesService struct {
	client *Client
}

const resourceObjectives = "objectives"

func objectivePath(id string) string {
	return "/v1/objectives/" + url.PathEscape(id) + "/"
}

func requireObjectiveID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: objective id is required", ErrInvalidParams)
	}
	return nil
}

// List returns one page of objectives.
func (s *ObjectivesService) List(ctx context.Context, params ObjectiveListParams) (*Page[Objective], error) {
	var page Page[Objective]
	req := &Request{
		Method: http.MethodGet, Path: "/v1/objectives/", Query: params.Values(),
		Resource: resourceObjectives, Action: "list",
	}
	if err := s.client.call(ctx, req, "LIST_OBJECTIVES_FAILED", "failed to list objectives", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Create defines a new objective. The API answers with the ID only.
func (s *ObjectivesService) Create(ctx context.Context, body ObjectiveRequest) (*Objective, error) {
	var out Objective
	req := &Request{
		Method: http.MethodPost, Path: "/v1/objectives/", Body: body,
		Resource: resourceObjectives, Action: "create",
	}
	if err := s.client.call(ctx, req, "CREATE_OBJECTIVE_FAILED", "failed to create objective", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns the objective with the given ID.
func (s *ObjectivesService) Get(ctx context.Context, id string) (*Objective, error) {
	if err := requireObjectiveID(id); err != nil {
		return nil, err
	}
	var out Objective
	req := &Request{Method: http.MethodGet, Path: objectivePath(id), Resource: resourceObjectives, Action: "get"}
	if err := s.client.call(ctx, req, "GET_OBJECTIVE_FAILED", "failed to get objective "+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces an objective.
func (s *ObjectivesService) Update(ctx context.Context, id string, body ObjectiveRequest) (*Objective, error) {
	return s.write(ctx, http.MethodPut, "update", "UPDATE_OBJECTIVE_FAILED", id, body)
}

// Patch partially updates an objective. Empty fields are left unchanged.
func (s *ObjectivesService) Patch(ctx context.Context, id string, body ObjectiveRequest) (*Objective, error) {
	return s.write(ctx, http.MethodPatch, "patch", "PATCH_OBJECTIVE_FAILED", id, body)
}

func (s *ObjectivesService) write(ctx context.Context, method, action, op, id string, body ObjectiveRequest) (*Objective, error) {
	if err := requireObjectiveID(id); err != nil {
		return nil, err
	}
	var out Objective
	req := &Request{Method: method, Path: objectivePath(id), Body: body, Resource: resourceObjectives, Action: action}
	if err := s.client.call(ctx, req, op, "failed to "+action+" objective "+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes an objective.
func (s *ObjectivesService) Delete(ctx context.Context, id string) error {
	if err := requireObjectiveID(id); err != nil {
		return err
	}
	req := &Request{Method: http.MethodDelete, Path: objectivePath(id), Resource: resourceObjectives, Action: "delete"}
	return s.client.call(ctx, req, "DELETE_OBJECTIVE_FAILED", "failed to delete objective "+id, nil)
}

// Versions returns the version history of an objective.
func (s *ObjectivesService) Versions(ctx context.Context, id string) (*Page[Objective], error) {
	if err := requireObjectiveID(id); err != nil {
		return nil, err
	}
	var page Page[Objective]
	req := &Request{
		Method: http.MethodGet, Path: "/v1/objectives/versions/" + url.PathEscape(id) + "/",
		Resource: resourceObjectives, Action: "versions",
	}
	if err := s.client.call(ctx, req, "GET_OBJECTIVE_VERSIONS_FAILED", "failed to get objective versions for "+id, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

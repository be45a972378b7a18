package scorable

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// ModelsService wraps the /v1/models/ endpoints.
type ModelsService struct {
	client *Client
}

const resourceModels = "models"

func modelPath(id string) string {
	return "/v1/models/" + url.PathEscape(id) + "/"
}

func requireModelID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: model id is required", ErrInvalidParams)
	}
	return nil
}

// List returns one page of available models.
func (s *ModelsService) List(ctx context.Context, params ModelListParams) (*Page[Model], error) {
	var page Page[Model]
	req := &Request{
		Method: http.MethodGet, Path: "/v1/models/", Query: params.Values(),
		Resource: resourceModels, Action: "list",
	}
	if err := s.client.call(ctx, req, "LIST_MODELS_FAILED", "failed to list models", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Create registers a custom model.
func (s *ModelsService) Create(ctx context.Context, body ModelRequest) (*Model, error) {
	if body.Name == "" {
		return nil, fmt.Errorf("%w: model name is required", ErrInvalidParams)
	}
	var out Model
	req := &Request{
		Method: http.MethodPost, Path: "/v1/models/", Body: body,
		Resource: resourceModels, Action: "create",
	}
	if err := s.client.call(ctx, req, "CREATE_MODEL_FAILED", "failed to create model", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns the model with the given ID.
func (s *ModelsService) Get(ctx context.Context, id string) (*Model, error) {
	if err := requireModelID(id); err != nil {
		return nil, err
	}
	var out Model
	req := &Request{Method: http.MethodGet, Path: modelPath(id), Resource: resourceModels, Action: "get"}
	if err := s.client.call(ctx, req, "GET_MODEL_FAILED", "failed to get model "+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces a model. Name is required.
func (s *ModelsService) Update(ctx context.Context, id string, body ModelRequest) (*Model, error) {
	if body.Name == "" {
		return nil, fmt.Errorf("%w: model name is required", ErrInvalidParams)
	}
	return s.write(ctx, http.MethodPut, "update", "UPDATE_MODEL_FAILED", id, body)
}

// Patch partially updates a model. Empty fields are left unchanged.
func (s *ModelsService) Patch(ctx context.Context, id string, body ModelRequest) (*Model, error) {
	return s.write(ctx, http.MethodPatch, "patch", "PATCH_MODEL_FAILED", id, body)
}

func (s *ModelsService) write(ctx context.Context, method, action, op, id string, body ModelRequest) (*Model, error) {
	if err := requireModelID(id); err != nil {
		return nil, err
	}
	var out Model
	req := &Request{Method: method, Path: modelPath(id), Body: body, Resource: resourceModels, Action: action}
	if err := s.client.call(ctx, req, op, "failed to "+action+" model "+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a model.
func (s *ModelsService) Delete(ctx context.Context, id string) error {
	if err := requireModelID(id); err != nil {
		return err
	}
	req := &Request{Method: http.MethodDelete, Path: modelPath(id), Resource: resourceModels, Action: "delete"}
	return s.client.call(ctx, req, "DELETE_MODEL_FAILED", "failed to delete model "+id, nil)
}

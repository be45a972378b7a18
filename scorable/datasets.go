package scorable

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// DatasetsService wraps the /v1/datasets/ endpoints. File uploads are not
// supported; create datasets from a URL instead.
type DatasetsService struct {
	client *Client
}

const resourceDatasets = "datasets"

func requireDatasetID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: dataset id is required", ErrInvalidParams)
	}
	return nil
}

// List returns one page of datasets.
func (s *DatasetsService) List(ctx context.Context, params DatasetListParams) (*Page[Dataset], error) {
	var page Page[Dataset]
	req := &Request{
		Method: http.MethodGet, Path: "/v1/datasets/", Query: params.Values(),
		Resource: resourceDatasets, Action: "list",
	}
	if err := s.client.call(ctx, req, "LIST_DATASETS_FAILED", "failed to list datasets", &page); err != nil {
		return nil, err
	}
	if page.Count == 0 {
		page.Count = len(page.Results)
	}
	return &page, nil
}

// Get returns a dataset. With download set, the content is included.
func (s *DatasetsService) Get(ctx context.Context, id string, download bool) (*Dataset, error) {
	if err := requireDatasetID(id); err != nil {
		return nil, err
	}
	req := &Request{
		Method: http.MethodGet, Path: "/v1/datasets/" + url.PathEscape(id) + "/",
		Resource: resourceDatasets, Action: "get",
	}
	if download {
		req.Query = url.Values{"download": {"true"}}
		req.Action = "download"
		req.NoCache = true
	}
	var out Dataset
	if err := s.client.call(ctx, req, "GET_DATASET_FAILED", "failed to get dataset "+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Download returns a dataset with its content.
func (s *DatasetsService) Download(ctx context.Context, id string) (*Dataset, error) {
	return s.Get(ctx, id, true)
}

// Create registers a dataset from a URL.
func (s *DatasetsService) Create(ctx context.Context, body DatasetRequest) (*Dataset, error) {
	var out Dataset
	req := &Request{
		Method: http.MethodPost, Path: "/v1/datasets/", Body: body,
		Resource: resourceDatasets, Action: "create",
	}
	if err := s.client.call(ctx, req, "CREATE_DATASET_FAILED", "failed to create dataset", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a dataset.
func (s *DatasetsService) Delete(ctx context.Context, id string) error {
	if err := requireDatasetID(id); err != nil {
		return err
	}
	req := &Request{
		Method: http.MethodDelete, Path: "/v1/datasets/" + url.PathEscape(id) + "/",
		Resource: resourceDatasets, Action: "delete",
	}
	return s.client.call(ctx, req, "DELETE_DATASET_FAILED", "failed to delete dataset "+id, nil)
}

type datasetStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus changes the status of a dataset.
func (s *DatasetsService) UpdateStatus(ctx context.Context, id, status string) (*DatasetStatus, error) {
	if err := requireDatasetID(id); err != nil {
		return nil, err
	}
	if status == "" {
		return nil, fmt.Errorf("%w: status is required", ErrInvalidParams)
	}
	var out DatasetStatus
	req := &Request{
		Method: http.MethodPut, Path: "/v1/datasets/status/" + url.PathEscape(id) + "/",
		Body:     datasetStatusRequest{Status: status},
		Resource: resourceDatasets, Action: "update_status",
	}
	if err := s.client.call(ctx, req, "UPDATE_DATASET_STATUS_FAILED", "failed to update dataset status "+id, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

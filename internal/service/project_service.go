package service

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"taskflow-console/internal/model"
)

type projectAPI interface {
	Get(ctx context.Context, endpoint string, params url.Values, out any) error
}

type ProjectService struct {
	api projectAPI
}

func NewProjectService(api projectAPI) *ProjectService {
	return &ProjectService{api: api}
}

// List fetches the projects visible to the current session, ordered by key.
func (s *ProjectService) List(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	if err := s.api.Get(ctx, "/projects", nil, &projects); err != nil {
		return nil, err
	}

	sort.SliceStable(projects, func(i, j int) bool {
		return strings.ToLower(projects[i].Key) < strings.ToLower(projects[j].Key)
	})

	return projects, nil
}

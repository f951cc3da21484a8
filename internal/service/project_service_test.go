package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubProjectAPI struct {
	body string
	err  error
}

func (s stubProjectAPI) Get(_ context.Context, endpoint string, _ url.Values, out any) error {
	if endpoint != "/projects" {
		return errors.New("unexpected endpoint " + endpoint)
	}
	if s.err != nil {
		return s.err
	}
	return json.Unmarshal([]byte(s.body), out)
}

func TestProjectServiceList(t *testing.T) {
	t.Parallel()

	t.Run("orders projects by key", func(t *testing.T) {
		svc := NewProjectService(stubProjectAPI{body: `[
			{"id":"2","key":"web","name":"Website","members":[{"username":"alice"}]},
			{"id":"1","key":"API","name":"Backend"}
		]`})

		projects, err := svc.List(context.Background())
		require.NoError(t, err)
		require.Len(t, projects, 2)
		require.Equal(t, "API", projects[0].Key)
		require.Equal(t, "web", projects[1].Key)
		require.Len(t, projects[1].Members, 1)
	})

	t.Run("returns backend errors", func(t *testing.T) {
		failure := errors.New("backend down")
		svc := NewProjectService(stubProjectAPI{err: failure})

		_, err := svc.List(context.Background())
		require.ErrorIs(t, err, failure)
	})
}

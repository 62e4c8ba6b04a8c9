package app

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revdash/revdash/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestInitializeServices(t *testing.T) {
	cfg := config.Load()
	components := InitializeServices(cfg)

	require.NotNil(t, components.GitLab)
	require.NotNil(t, components.Jira)
	require.NotNil(t, components.Team)
	require.NotNil(t, components.MRs)
	require.NotNil(t, components.Manager)
	require.NotNil(t, components.GitLabBreaker)
	require.NotNil(t, components.JiraBreaker)

	assert.Len(t, components.ResultCaches, 3)

	stats := components.Manager.Stats()
	assert.Contains(t, stats, "gitlab_users")
	assert.Contains(t, stats, "gitlab_user")
	assert.Contains(t, stats, "gitlab_mrs")
	assert.Contains(t, stats, "jira_tickets")
	assert.Contains(t, stats, "jira_searches")
	assert.Contains(t, stats, "responses_too-old")
	assert.Contains(t, stats, "responses_not-updated")
	assert.Contains(t, stats, "responses_pending-review")
}

func TestInitializeApp_ServesHealth(t *testing.T) {
	cfg := config.Load()
	router := InitializeApp(cfg)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

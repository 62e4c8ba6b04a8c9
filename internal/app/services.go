package app

import (
	"github.com/revdash/revdash/config"
	"github.com/revdash/revdash/internal/cache"
	"github.com/revdash/revdash/internal/circuitbreaker"
	"github.com/revdash/revdash/internal/domain/model"
	"github.com/revdash/revdash/internal/gitlab"
	"github.com/revdash/revdash/internal/jira"
	"github.com/revdash/revdash/internal/service"
)

// ServiceComponents holds the upstream clients, business services, and the
// cache instances they share.
type ServiceComponents struct {
	GitLab  *gitlab.Client
	Jira    *jira.Client
	Team    *service.TeamService
	MRs     *service.MRService
	Manager *cache.Manager

	// ResultCaches hold classified hygiene responses, keyed by category name.
	ResultCaches map[string]*cache.TTL[model.HygieneResult]

	GitLabBreaker *circuitbreaker.CircuitBreaker
	JiraBreaker   *circuitbreaker.CircuitBreaker
}

// InitializeServices builds the clients and services and registers every
// cache instance with the manager so the admin endpoint can reach them.
func InitializeServices(cfg config.Config) *ServiceComponents {
	manager := cache.NewManager()

	gitlabBreaker := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.GitLab.CircuitBreakerFailureThreshold,
		SuccessThreshold: cfg.GitLab.CircuitBreakerSuccessThreshold,
		Timeout:          cfg.GitLab.CircuitBreakerTimeout,
		Name:             "gitlab",
		IsFailure:        gitlab.IsRetryable,
	})
	jiraBreaker := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.GitLab.CircuitBreakerFailureThreshold,
		SuccessThreshold: cfg.GitLab.CircuitBreakerSuccessThreshold,
		Timeout:          cfg.GitLab.CircuitBreakerTimeout,
		Name:             "jira",
		IsFailure:        jira.IsRetryable,
	})

	gitlabClient := gitlab.New(gitlab.Config{
		BaseURL:       cfg.GitLab.BaseURL,
		Token:         cfg.GitLab.Token,
		ParentGroupID: cfg.GitLab.ParentGroupID,
		MaxRetries:    cfg.GitLab.MaxRetries,
		RetryDelay:    cfg.GitLab.RetryDelay,
		Breaker:       gitlabBreaker,
	})

	usersCache := cache.NewAPI[[]model.TeamUser](cfg.Cache.GitLabTTL)
	userCache := cache.NewAPI[model.TeamUser](cfg.Cache.GitLabTTL)
	mrPagesCache := cache.NewAPI[[]model.MergeRequest](cfg.Cache.GitLabTTL)
	manager.Register("gitlab_users", cache.CategoryGitLab, usersCache)
	manager.Register("gitlab_user", cache.CategoryGitLab, userCache)
	manager.Register("gitlab_mrs", cache.CategoryGitLab, mrPagesCache)

	team := service.NewTeamService(gitlabClient, cfg.GitLab.TeamUserIDs, usersCache, userCache)
	mrs := service.NewMRService(gitlabClient, team, mrPagesCache, cfg.GitLab.GroupID, cfg.Cache.SingleFlight)

	ticketCache := cache.NewAPI[model.Ticket](cfg.Cache.APITTL)
	searchCache := cache.NewAPI[model.TicketSearchResult](cfg.Cache.APITTL)
	manager.Register("jira_tickets", cache.CategoryAPI, ticketCache)
	manager.Register("jira_searches", cache.CategoryAPI, searchCache)

	jiraClient := jira.New(jira.Config{
		BaseURL:    cfg.Jira.BaseURL,
		Token:      cfg.Jira.Token,
		MaxRetries: cfg.Jira.MaxRetries,
		RetryDelay: cfg.Jira.RetryDelay,
		Breaker:    jiraBreaker,
	}, ticketCache, searchCache)

	resultCaches := make(map[string]*cache.TTL[model.HygieneResult], 3)
	for _, category := range []string{
		service.CategoryTooOld,
		service.CategoryNotUpdated,
		service.CategoryPendingReview,
	} {
		c := cache.NewTTL[model.HygieneResult](cfg.Cache.ResponseTTL)
		resultCaches[category] = c
		manager.Register("responses_"+category, cache.CategoryClient, c)
	}

	return &ServiceComponents{
		GitLab:        gitlabClient,
		Jira:          jiraClient,
		Team:          team,
		MRs:           mrs,
		Manager:       manager,
		ResultCaches:  resultCaches,
		GitLabBreaker: gitlabBreaker,
		JiraBreaker:   jiraBreaker,
	}
}

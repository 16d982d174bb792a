package container

import (
	"github.com/cineloop/cineloop/cmd/cineloop/repository"
	"github.com/cineloop/cineloop/cmd/cineloop/service"
	"github.com/cineloop/cineloop/common/bootstrap"
	"github.com/cineloop/cineloop/common/clients"
	rediscommon "github.com/cineloop/cineloop/common/redis"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components
	Redis      *rediscommon.Client

	// Repositories
	ChainRepo *repository.ChainRepository

	// Clients
	TMDB *clients.TMDBClient

	// Services
	ChainService      *service.ChainService
	SubmissionService *service.SubmissionService
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	// Wrap the raw Redis connection for instrumentation and common operations.
	// Without Redis the service still works, just without live fan-out.
	var redisClient *rediscommon.Client
	var events service.EventPublisher
	if components.Redis != nil {
		redisClient = rediscommon.NewClient(components.Redis, components.Logger)
		events = redisClient
	}

	// Initialize repositories
	chainRepo := repository.NewChainRepository(components.DB)

	// Initialize clients
	tmdbClient := clients.NewTMDBClient(components.Config, components.Cache, components.Logger)

	// Initialize services (bottom-up: dependencies first)
	chainService := service.NewChainService(chainRepo, components.Logger)
	submissionService := service.NewSubmissionService(
		tmdbClient,
		chainRepo,
		events,
		components.Logger,
	)

	return &Container{
		Components:        components,
		Redis:             redisClient,
		ChainRepo:         chainRepo,
		TMDB:              tmdbClient,
		ChainService:      chainService,
		SubmissionService: submissionService,
	}, nil
}

package main

import (
	"context"
	"fmt"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/config"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/domain/assignment"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/domain/blooddonation"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/domain/facility"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/domain/identity"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/db"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/graphql"
)

// backend bundles the domain services over whichever store STORE_BACKEND
// selects.
type backend struct {
	identity   *identity.Service
	facility   *facility.Service
	donations  *blooddonation.Service
	assignment *assignment.Service
	checks     []db.Check
	close      func()
}

func (b *backend) Close() {
	if b.close != nil {
		b.close()
	}
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	mode, err := facility.ParseMode(cfg.ProvisioningMode)
	if err != nil {
		return nil, err
	}

	switch cfg.StoreBackend {
	case "postgres":
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		return &backend{
			identity:   identity.NewService(identity.NewPGStore(pool), cfg.AllowAdminSignup),
			facility:   facility.NewService(facility.NewPGStore(pool), mode),
			donations:  blooddonation.NewService(blooddonation.NewPGStore(pool)),
			assignment: assignment.NewService(assignment.NewPGStore(pool)),
			checks:     []db.Check{db.PoolCheck(pool)},
			close:      pool.Close,
		}, nil

	case "graphql":
		client, err := graphql.New(graphql.Config{
			Endpoint:     cfg.GraphQLEndpoint,
			TokenURL:     cfg.GraphQLTokenURL,
			ClientID:     cfg.GraphQLClientID,
			ClientSecret: cfg.GraphQLClientSecret,
			Scopes:       cfg.GraphQLScopes,
			Timeout:      cfg.UpstreamTimeout,
		})
		if err != nil {
			return nil, err
		}
		return &backend{
			identity:   identity.NewService(identity.NewGraphQLStore(client), cfg.AllowAdminSignup),
			facility:   facility.NewService(facility.NewGraphQLStore(client), mode),
			donations:  blooddonation.NewService(blooddonation.NewGraphQLStore(client)),
			assignment: assignment.NewService(assignment.NewGraphQLStore(client)),
		}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

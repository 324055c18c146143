//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/domain/identity"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/internal/platform/db"
	"github.com/SWATHYA-SETU/DASHBOARD-WEB-APP/migrations"
)

var pool *pgxpool.Pool

// TestMain uses TEST_DATABASE_URL when set and otherwise starts a container.
func TestMain(m *testing.M) {
	ctx := context.Background()

	connStr := os.Getenv("TEST_DATABASE_URL")
	cleanup := func() {}
	if connStr == "" {
		var err error
		connStr, cleanup, err = startPostgres(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start postgres: %v\n", err)
			os.Exit(1)
		}
	}

	p, err := db.NewPool(ctx, connStr, 10, 1)
	if err != nil {
		cleanup()
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	if _, err := db.NewMigrator(p, migrations.FS).Up(ctx); err != nil {
		p.Close()
		cleanup()
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
	pool = p

	code := m.Run()
	pool.Close()
	cleanup()
	os.Exit(code)
}

// reset empties every portal table between tests.
func reset(t *testing.T) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `TRUNCATE
		hospital_admin_associations, medical_shop_admin_associations,
		hospital_admins, medical_shop_admins, citizens, volunteers, admin_users,
		hospitals, medical_shops, blood_donation, assignments
		RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
}

func register(t *testing.T, svc *identity.Service, uid string, kind identity.RoleKind) *identity.Resolution {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.Register(ctx, uid, uid+"@example.org", &identity.Registration{Kind: kind, Username: uid}); err != nil {
		t.Fatalf("register %s: %v", uid, err)
	}
	res, err := svc.Resolver().Resolve(ctx, uid)
	if err != nil {
		t.Fatalf("resolve %s: %v", uid, err)
	}
	return res
}

package service_test

import (
	"testing"
	"time"

	"github.com/dom/courier-backend/internal/auth"
	"github.com/dom/courier-backend/internal/notify"
	"github.com/dom/courier-backend/internal/repository/postgres"
	"github.com/dom/courier-backend/internal/service"
	"github.com/dom/courier-backend/internal/testutil"
)

// newServices wires the full service stack against the test database, with a
// log-only email sender and a no-op notifier.
func newServices(t *testing.T, tdb *testutil.TestDB) *service.Services {
	t.Helper()

	cfg := testutil.TestConfig()
	factory := postgres.NewFactory(tdb.DB)
	credentials := auth.NewCredentialService(cfg.BcryptCost)
	tokens := auth.NewTokenService(
		cfg.JWTSecret,
		time.Duration(cfg.JWTExpirationHours)*time.Hour,
		time.Duration(cfg.RefreshTokenTTLHours)*time.Hour,
	)
	return service.NewServices(factory, credentials, tokens, notify.LogSender{}, notify.NopNotifier{}, nil, cfg)
}

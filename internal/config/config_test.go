package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landrent-backend/internal/domain"
)

const validYAML = `
server:
  host: 127.0.0.1
  port: 8080
jwt:
  secret: 0123456789abcdef0123456789abcdef
renting:
  fee_receiver: "0x00000000000000000000000000000000000000fe"
  hosting_address: "0x0000000000000000000000000000000000000405"
  admin_address: "0x00000000000000000000000000000000000000ad"
  custody_address: "0x00000000000000000000000000000000000000c0"
  collection_min_monthly_price:
    "0x000000000000000000000000000000000000a11d": 100
container:
  collection_address: "0x000000000000000000000000000000000000b0c5"
  land_collection_address: "0x000000000000000000000000000000000000a11d"
genesis:
  balances:
    - address: "0x0000000000000000000000000000000000000002"
      amount: 5000
  assets:
    - collection: "0x000000000000000000000000000000000000a11d"
      token_id: 1
      owner: "0x0000000000000000000000000000000000000001"
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage.Type)
	assert.Equal(t, 48*time.Hour, cfg.Renting.OffererGraceDelay)
	assert.Equal(t, 7*24*time.Hour, cfg.Renting.OfferValidityWindow)
	assert.Equal(t, 30*24*time.Hour, cfg.Renting.PeriodLength)
	require.NotNil(t, cfg.Renting.FeePercentage)
	assert.Equal(t, 10, *cfg.Renting.FeePercentage)
	assert.Equal(t, 50, cfg.Container.MaxMembers)
	assert.Equal(t, "0 */10 * * * *", cfg.Scheduler.ReleaseExpiredOffers)
	assert.Equal(t, 60, cfg.JWT.AccessTokenExpiry)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:8080", cfg.GetServerAddress())

	lands := domain.MustParseAddress("0x000000000000000000000000000000000000a11d")
	assert.Equal(t, map[domain.Address]domain.Amount{lands: 100}, cfg.Renting.CollectionMinMonthlyPrice)
	assert.Equal(t, lands, cfg.Genesis.Assets[0].Collection)
	assert.Equal(t, domain.Amount(5000), cfg.Genesis.Balances[0].Amount)
}

func TestParse_ExplicitValues(t *testing.T) {
	data := validYAML + `
storage:
  type: postgres
database:
  host: db
  user: landrent
  database: landrent
scheduler:
  release_expired_offers: "@every 1m"
`
	data = strings.Replace(data, "renting:\n", "renting:\n  offerer_grace_delay: 1h\n  offer_validity_window: 3h\n  fee_percentage: 0\n", 1)

	cfg, err := Parse([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, time.Hour, cfg.Renting.OffererGraceDelay)
	assert.Equal(t, 3*time.Hour, cfg.Renting.OfferValidityWindow)
	assert.Equal(t, 0, *cfg.Renting.FeePercentage)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "postgres://landrent:@db:0/landrent?sslmode=disable", cfg.GetDatabaseConnectionString())
	assert.Equal(t, "@every 1m", cfg.Scheduler.ReleaseExpiredOffers)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			name:    "Grace Not Shorter Than Validity",
			mutate:  func(s string) string { return strings.Replace(s, "renting:\n", "renting:\n  offerer_grace_delay: 200h\n", 1) },
			wantErr: "grace delay",
		},
		{
			name:    "Fee Out Of Range",
			mutate:  func(s string) string { return strings.Replace(s, "renting:\n", "renting:\n  fee_percentage: 101\n", 1) },
			wantErr: "fee percentage",
		},
		{
			name:    "Bad Address",
			mutate:  func(s string) string { return strings.Replace(s, "0x00000000000000000000000000000000000000fe", "0xnothex", 1) },
			wantErr: "fee_receiver",
		},
		{
			name:    "Short Secret",
			mutate:  func(s string) string { return strings.Replace(s, "0123456789abcdef0123456789abcdef", "short", 1) },
			wantErr: "JWT secret",
		},
		{
			name:    "Unknown Storage",
			mutate:  func(s string) string { return s + "storage:\n  type: mongo\n" },
			wantErr: "storage type",
		},
		{
			name:    "Postgres Without Host",
			mutate:  func(s string) string { return s + "storage:\n  type: postgres\n" },
			wantErr: "database host",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.mutate(validYAML)))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o600))

	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("FEE_PERCENTAGE", "5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5, *cfg.Renting.FeePercentage)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

// Package importer seeds the local member registry from the provider's
// company roster at startup.
package importer

import (
	"context"
	"errors"
	"log/slog"

	"github.com/signgate/signgate/internal/auth"
	"github.com/signgate/signgate/internal/eformsign"
	"github.com/signgate/signgate/internal/store"
)

// defaultPassword is assigned to every imported member. Members are
// expected to change it after first login.
const defaultPassword = "password"

// syncSetting is the store key that disables the sync when set to "off".
const syncSetting = "sync.members"

// Importer performs a one-shot sync of provider-side company members into
// the local registry. Failures never block startup: a failed fetch is
// logged and skipped, and so is each individual member that cannot be
// created.
type Importer struct {
	store   *store.Store
	authSvc *auth.Service
	client  *eformsign.Client
	admin   string
	logger  *slog.Logger
}

// New creates an Importer. admin is the provider-side acting subject used
// to fetch the roster.
func New(st *store.Store, authSvc *auth.Service, client *eformsign.Client, admin string, logger *slog.Logger) *Importer {
	return &Importer{
		store:   st,
		authSvc: authSvc,
		client:  client,
		admin:   admin,
		logger:  logger,
	}
}

// Run fetches the provider roster and registers each member locally with
// the default password. Members that already exist are skipped.
func (i *Importer) Run(ctx context.Context) {
	if v, err := i.store.GetSetting(ctx, syncSetting); err == nil && v == "off" {
		i.logger.Info("member sync disabled by setting", "setting", syncSetting)
		return
	}

	resp, err := i.client.CompanyMembers(ctx, i.admin, eformsign.Page{Number: 1, Limit: eformsign.FetchLimit})
	if err != nil {
		i.logger.Warn("member sync skipped: roster fetch failed", "error", err)
		return
	}

	members, _ := resp["members"].([]any)
	imported, skipped := 0, 0
	for _, raw := range members {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		loginID, _ := m["id"].(string)
		if loginID == "" {
			continue
		}
		name, _ := m["name"].(string)

		if _, err := i.authSvc.CreateMember(ctx, loginID, defaultPassword, name); err != nil {
			if errors.Is(err, store.ErrDuplicateLoginID) {
				skipped++
				continue
			}
			i.logger.Warn("member sync: create failed", "login_id", loginID, "error", err)
			continue
		}
		imported++
	}

	i.logger.Info("member sync complete", "imported", imported, "skipped", skipped)
}

package pgxcasbin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// rbacModel grants a role access to an object and action, where "*" in a
// policy matches any object or action.
const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`

// NewEnforcer loads the policy from table and keeps it in sync with other
// instances through a watcher on channel. Changes made through the enforcer
// are saved immediately. The caller closes the watcher.
func NewEnforcer(ctx context.Context, pool *pgxpool.Pool, table, channel string) (*casbin.Enforcer, *Watcher, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxcasbin: model: %w", err)
	}

	e, err := casbin.NewEnforcer(m, NewAdapter(pool, table))
	if err != nil {
		return nil, nil, fmt.Errorf("pgxcasbin: enforcer: %w", err)
	}

	w, err := NewWatcher(ctx, pool, channel)
	if err != nil {
		return nil, nil, err
	}
	// SetWatcher installs its own callback, so ours goes in afterwards
	if err := e.SetWatcher(w); err != nil {
		w.Close()
		return nil, nil, fmt.Errorf("pgxcasbin: set watcher: %w", err)
	}
	if err := w.SetUpdateCallback(ReloadOnUpdate(e)); err != nil {
		w.Close()
		return nil, nil, err
	}

	e.EnableAutoSave(true)
	e.EnableAutoNotifyWatcher(true)

	return e, w, nil
}

// ReloadOnUpdate reloads the whole policy of e whenever another instance
// reports a change.
func ReloadOnUpdate(e casbin.IEnforcer) func(string) {
	return func(sender string) {
		if err := e.LoadPolicy(); err != nil {
			slog.Error("failed to reload casbin policy", "sender", sender, "error", err)
			return
		}
		slog.Info("casbin policy reloaded", "sender", sender)
	}
}

package permissions

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dimchansky/utfbom"
	"github.com/pkg/errors"
)

// RoleDefaults maps a role to the permissions it is assumed to have when the
// API cannot be asked. Development use only.
type RoleDefaults map[string][]string

type roleDefaultsFile struct {
	Roles map[string][]string `toml:"roles"`
}

// LoadRoleDefaults reads a TOML file of the form
//
//	[roles]
//	doctor = ["turno.view", "turno.edit"]
//
// A UTF-8 byte order mark at the start of the file is ignored.
func LoadRoleDefaults(path string) (RoleDefaults, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, errors.Wrapf(err, "could not open role defaults %s", path)
	}
	defer f.Close()

	var parsed roleDefaultsFile
	if _, err := toml.DecodeReader(utfbom.SkipOnly(f), &parsed); err != nil {
		return nil, errors.Wrapf(err, "could not parse role defaults %s", path)
	}
	if parsed.Roles == nil {
		return RoleDefaults{}, nil
	}
	return RoleDefaults(parsed.Roles), nil
}

// Snapshot merges the defaults of every role in roles. It reports false when
// none of the roles has defaults.
func (d RoleDefaults) Snapshot(roles []string, now time.Time) (Snapshot, bool) {
	perms := map[string]bool{}
	modules := map[string]bool{}
	found := false
	for _, role := range roles {
		list, ok := d[role]
		if !ok {
			continue
		}
		found = true
		for _, p := range list {
			perms[p] = true
			if i := strings.Index(p, "."); i > 0 {
				modules[p[:i]] = true
			}
		}
	}
	if !found {
		return Snapshot{}, false
	}

	snap := Snapshot{
		Permissions: keys(perms),
		Modules:     keys(modules),
		Roles:       append([]string{}, roles...),
		Timestamp:   now.UTC(),
	}
	return snap, true
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

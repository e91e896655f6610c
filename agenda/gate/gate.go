// Package gate decides whether the current user may reach a command, the way
// route guards and navigation filtering decide it in a browser front-end.
package gate

import (
	"strings"

	customErrors "github.com/Termicotra/agendamiento/agenda/errors"
	"github.com/Termicotra/agendamiento/agenda/permissions"
)

type Decision int

const (
	Allow Decision = iota
	Deny
	// Login means nobody is logged in; the caller should ask for credentials.
	Login
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	case Login:
		return "login"
	}
	return "unknown"
}

// Rule is the requirement attached to a command. The zero Rule only asks for
// an authenticated user.
type Rule struct {
	// Roles is an allow-list; an empty list admits every role.
	Roles           []string
	RequireAllRoles bool

	// Permission checks are tried in this order and only the first one set
	// applies: Module, Permission, Permissions.
	Module      string
	Permission  string
	Permissions []string
	RequireAll  bool
}

// Subject is who is asking.
type Subject struct {
	Authenticated bool
	Roles         []string
	Snapshot      permissions.Snapshot
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func (s Subject) rolesPass(rule Rule) bool {
	if len(rule.Roles) == 0 {
		return true
	}
	if rule.RequireAllRoles {
		for _, r := range rule.Roles {
			if !hasRole(s.Roles, r) {
				return false
			}
		}
		return true
	}
	for _, r := range rule.Roles {
		if hasRole(s.Roles, r) {
			return true
		}
	}
	return false
}

func (s Subject) permissionsPass(rule Rule) bool {
	switch {
	case rule.Module != "":
		return s.Snapshot.HasModuleAccess(rule.Module)
	case rule.Permission != "":
		return s.Snapshot.HasPermission(rule.Permission)
	case len(rule.Permissions) > 0:
		if rule.RequireAll {
			return s.Snapshot.HasAllPermissions(rule.Permissions...)
		}
		return s.Snapshot.HasAnyPermission(rule.Permissions...)
	}
	return true
}

func Evaluate(rule Rule, sub Subject) Decision {
	if !sub.Authenticated {
		return Login
	}
	if !sub.rolesPass(rule) || !sub.permissionsPass(rule) {
		return Deny
	}
	return Allow
}

// Check is Evaluate as an error: nil when allowed, an AccessDeniedError
// otherwise.
func Check(rule Rule, sub Subject) error {
	switch Evaluate(rule, sub) {
	case Login:
		return &customErrors.AccessDeniedError{Login: true}
	case Deny:
		return &customErrors.AccessDeniedError{Required: rule.String()}
	}
	return nil
}

// String describes what rule requires, for messages.
func (r Rule) String() string {
	var parts []string
	if len(r.Roles) > 0 {
		sep := " or "
		if r.RequireAllRoles {
			sep = " and "
		}
		parts = append(parts, "role "+strings.Join(r.Roles, sep))
	}
	switch {
	case r.Module != "":
		parts = append(parts, "module "+r.Module)
	case r.Permission != "":
		parts = append(parts, "permission "+r.Permission)
	case len(r.Permissions) > 0:
		sep := " or "
		if r.RequireAll {
			sep = " and "
		}
		parts = append(parts, "permission "+strings.Join(r.Permissions, sep))
	}
	return strings.Join(parts, "; ")
}

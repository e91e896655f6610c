package permissions

import "time"

// Modules known to the API. They must match the backend's module names.
const (
	Appointments     = "turno"
	Patients         = "paciente"
	Professionals    = "profesional"
	Employees        = "empleado"
	MedicalReports   = "reportemedico"
	ClinicalRecords  = "historialclinico"
	Availability     = "disponibilidad"
	Reminders        = "recordatorioturno"
	Dashboard        = "dashboard"
	Users            = "user"
	Groups           = "group"
	PermissionModule = "permission"
	Settings         = "configuracion"
)

// Actions a permission grants on a module.
const (
	View   = "view"
	Create = "create"
	Edit   = "edit"
	Delete = "delete"
	Export = "export"
	Manage = "manage"
)

// Roles (groups) known to the API.
const (
	RoleAdmin        = "administradores"
	RoleDoctor       = "doctor"
	RoleReceptionist = "recepcionista"
	RolePatient      = "paciente"
	// RolePatients is the group name used by registration approval and the
	// patient-only commands.
	RolePatients = "pacientes"
)

// Build returns the permission string "module.action".
func Build(module, action string) string {
	return module + "." + action
}

// Snapshot is the permission state of a user at Timestamp.
type Snapshot struct {
	Permissions []string  `json:"permissions"`
	Modules     []string  `json:"modules"`
	Roles       []string  `json:"roles"`
	Timestamp   time.Time `json:"timestamp"`
}

// Empty returns a snapshot granting nothing.
func Empty(roles []string) Snapshot {
	if roles == nil {
		roles = []string{}
	}
	return Snapshot{Permissions: []string{}, Modules: []string{}, Roles: roles}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (s Snapshot) HasPermission(permission string) bool {
	if permission == "" {
		return false
	}
	return contains(s.Permissions, permission)
}

// HasAnyPermission is false for an empty list.
func (s Snapshot) HasAnyPermission(permissions ...string) bool {
	for _, p := range permissions {
		if s.HasPermission(p) {
			return true
		}
	}
	return false
}

// HasAllPermissions is false for an empty list.
func (s Snapshot) HasAllPermissions(permissions ...string) bool {
	if len(permissions) == 0 {
		return false
	}
	for _, p := range permissions {
		if !s.HasPermission(p) {
			return false
		}
	}
	return true
}

func (s Snapshot) HasModuleAccess(module string) bool {
	if module == "" {
		return false
	}
	return contains(s.Modules, module)
}

func (s Snapshot) CanPerform(module, action string) bool {
	return s.HasPermission(Build(module, action))
}

func (s Snapshot) HasRole(role string) bool {
	return role != "" && contains(s.Roles, role)
}

package constants

import "time"

// This is set during compilation.
var Version = "latest"

// Storage keys for the persisted session.
const (
	AccessTokenKey  = "jwt"
	RefreshTokenKey = "refresh_token"
	UserKey         = "user"
	UserRolesKey    = "user_roles"
	PermissionsKey  = "user_permissions"
)

// SessionKeys lists everything a logout must remove.
var SessionKeys = []string{AccessTokenKey, RefreshTokenKey, UserKey, UserRolesKey, PermissionsKey}

const (
	DefaultBaseURL        = "http://localhost:8000"
	DefaultAPIPrefix      = "/api"
	DefaultTimeout        = 10 * time.Second
	DefaultPermissionsTTL = 5 * time.Minute
)

// Auth endpoints live outside the API prefix.
const (
	LoginPath          = "/auth/api/login/"
	LogoutPath         = "/auth/api/logout/"
	RefreshTokenPath   = "/auth/api/token/refresh/"
	RegisterPath       = "/auth/api/register/"
	ProfilePath        = "/auth/api/profile/"
	ChangePasswordPath = "/auth/api/change-password/"
	PermissionsPath    = "/auth/api/permissions/"
	RequestsPath       = "/auth/api/solicitudes/"
)

// Resource collections, relative to the API prefix.
const (
	AppointmentsPath    = "/turnos/"
	PatientsPath        = "/pacientes/"
	ProfessionalsPath   = "/profesionales/"
	MedicalReportsPath  = "/reportesMedicos/"
	ClinicalRecordsPath = "/historialesClinicos/"
	EmployeesPath       = "/empleados/"
	AvailabilityPath    = "/disponibilidades/"
)

// Appointment states accepted by the API.
const (
	AppointmentPending   = "Pendiente"
	AppointmentCancelled = "Cancelado"
	AppointmentCompleted = "Completado"
	AppointmentActive    = "Activo"
)

// Registration request states.
const (
	RequestPending  = "pendiente"
	RequestApproved = "aprobada"
	RequestRejected = "rechazada"
)

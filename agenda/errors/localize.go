package errors

import (
	"net/http"
	"sort"
	"strings"
	"unicode"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// User-facing messages. The English text doubles as the catalog key.
const (
	MsgBadRequest      = "Invalid data. Please check the information."
	MsgUnauthorized    = "Invalid credentials. Check your username and password."
	MsgForbidden       = "You do not have permission to perform this action."
	MsgNotFound        = "Resource not found."
	MsgServerError     = "Server error. Please try again later."
	MsgUnavailable     = "Service unavailable. Please try again later."
	MsgRequestFailed   = "Request failed. Please try again."
	MsgNoConnection    = "Could not connect to the server."
	MsgSessionExpired  = "Your session has expired. Please log in again."
	MsgLoginRequired   = "You must log in first."
	MsgAccessDenied    = "Access denied. You do not have the permissions required for this page."
	MsgUnknown         = "Unknown error. Please try again."
	MsgCachedPerms     = "Using cached permissions"
	MsgPermsLoadFailed = "Could not load permissions"
)

// Default language for user-facing text.
var Default = language.Spanish

var spanish = map[string]string{
	MsgBadRequest:      "Datos inválidos. Por favor, verifica la información.",
	MsgUnauthorized:    "Credenciales inválidas. Verifica tu usuario y contraseña.",
	MsgForbidden:       "No tienes permisos para realizar esta acción.",
	MsgNotFound:        "Recurso no encontrado.",
	MsgServerError:     "Error del servidor. Por favor, intenta más tarde.",
	MsgUnavailable:     "Servicio no disponible. Por favor, intenta más tarde.",
	MsgRequestFailed:   "Error en la solicitud. Por favor, intenta nuevamente.",
	MsgNoConnection:    "No se pudo conectar con el servidor.",
	MsgSessionExpired:  "Tu sesión ha expirado. Por favor, inicia sesión nuevamente.",
	MsgLoginRequired:   "Debes iniciar sesión.",
	MsgAccessDenied:    "Acceso denegado. No tienes los permisos necesarios para acceder a esta página.",
	MsgUnknown:         "Error desconocido. Por favor, intenta nuevamente.",
	MsgCachedPerms:     "Usando permisos en caché",
	MsgPermsLoadFailed: "Error al cargar permisos",

	"Username":              "Usuario",
	"Password":              "Contraseña",
	"Identity card":         "Cédula de identidad",
	"First name":            "Nombre",
	"Last name":             "Apellido",
	"Email":                 "Email",
	"Phone":                 "Teléfono",
	"Address":               "Dirección",
	"Date of birth":         "Fecha de nacimiento",
	"Current password":      "Contraseña actual",
	"New password":          "Nueva contraseña",
	"Confirm password":      "Confirmar contraseña",
	"Specialty":             "Especialidad",
	"Professional register": "Registro profesional",
	"Position":              "Cargo",
	"Group/Role":            "Grupo/Rol",
}

var fieldLabels = map[string]string{
	"username":             "Username",
	"password":             "Password",
	"ci":                   "Identity card",
	"nombre":               "First name",
	"apellido":             "Last name",
	"email":                "Email",
	"telefono":             "Phone",
	"direccion":            "Address",
	"fecha_nacimiento":     "Date of birth",
	"old_password":         "Current password",
	"new_password":         "New password",
	"confirm_password":     "Confirm password",
	"especialidad":         "Specialty",
	"registro_profesional": "Professional register",
	"cargo":                "Position",
	"group":                "Group/Role",
}

// Identity fields are shown without their label.
var identityFields = map[string]bool{"ci": true, "cedula": true, "username": true, "password": true}

var statusMessages = map[int]string{
	http.StatusBadRequest:          MsgBadRequest,
	http.StatusUnauthorized:        MsgUnauthorized,
	http.StatusForbidden:           MsgForbidden,
	http.StatusNotFound:            MsgNotFound,
	http.StatusInternalServerError: MsgServerError,
	http.StatusServiceUnavailable:  MsgUnavailable,
}

func init() {
	for key, msg := range spanish {
		if err := message.SetString(language.Spanish, key, msg); err != nil {
			panic(err)
		}
	}
}

// ParseLang reads a language setting such as "es" or "en-US", defaulting to Spanish.
func ParseLang(s string) language.Tag {
	if s == "" {
		return Default
	}
	tag, err := language.Parse(s)
	if err != nil {
		return Default
	}
	return tag
}

// T translates one of the Msg constants.
func T(lang language.Tag, msg string) string {
	return message.NewPrinter(lang).Sprintf(msg)
}

// Localize turns any error produced by the client into text for the user.
func Localize(err error, lang language.Tag) string {
	if err == nil {
		return ""
	}

	var (
		expired *SessionExpiredError
		denied  *AccessDeniedError
		apiErr  *APIError
		connErr *ConnectionError
	)
	switch {
	case pkgerrors.As(err, &expired):
		return T(lang, MsgSessionExpired)
	case pkgerrors.As(err, &denied):
		if denied.Login {
			return T(lang, MsgLoginRequired)
		}
		return T(lang, MsgAccessDenied)
	case pkgerrors.As(err, &apiErr):
		return localizeAPIError(apiErr, lang)
	case pkgerrors.As(err, &connErr):
		return T(lang, MsgNoConnection)
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return T(lang, MsgUnknown)
}

func localizeAPIError(e *APIError, lang language.Tag) string {
	if len(e.Fields) > 0 {
		fields := make([]string, 0, len(e.Fields))
		for f := range e.Fields {
			fields = append(fields, f)
		}
		sort.Strings(fields)

		lines := make([]string, 0, len(fields))
		for _, f := range fields {
			msgs := strings.Join(e.Fields[f], ", ")
			if identityFields[foldField(f)] {
				lines = append(lines, msgs)
				continue
			}
			lines = append(lines, FieldLabel(f, lang)+": "+msgs)
		}
		return strings.Join(lines, "\n")
	}

	if e.Detail != "" {
		return e.Detail
	}
	if e.Message != "" {
		return e.Message
	}

	if msg, ok := statusMessages[e.StatusCode]; ok {
		return T(lang, msg)
	}
	if e.StatusCode >= 500 {
		return T(lang, MsgServerError)
	}
	return T(lang, MsgRequestFailed)
}

// FieldLabel is the display name of an API field.
func FieldLabel(field string, lang language.Tag) string {
	if label, ok := fieldLabels[field]; ok {
		return T(lang, label)
	}
	return cases.Title(lang).String(strings.ReplaceAll(field, "_", " "))
}

// foldField lower-cases and strips accents so "Cédula" matches "cedula".
func foldField(field string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(field))
	if err != nil {
		return strings.ToLower(field)
	}
	return folded
}

package agendacli

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	msgLoggedIn         = "Logged in as %s."
	msgLoggedOut        = "Logged out."
	msgRegistered       = "Registration request sent. An administrator must approve it."
	msgPasswordChanged  = "Password changed."
	msgNoRecords        = "No records."
	msgDeleted          = "Record %s deleted."
	msgSaved            = "Record %s saved."
	msgApproved         = "Request %s approved."
	msgRejected         = "Request %s rejected."
	msgAppointmentState = "Appointment %s is now %s."
	msgPatient          = "Patient: %s"
	msgStale            = "Permissions may be out of date."
	msgNoGroup          = "A group is required: --group"
	msgNeedID           = "An id is required."
	msgBadData          = "Could not read the record data: %s"

	hdrField      = "Field"
	hdrValue      = "Value"
	hdrPermission = "Permission"
	hdrModule     = "Module"
	hdrSection    = "Section"
	hdrCommand    = "Command"
	hdrUser       = "User"
	hdrRoles      = "Roles"
)

var spanish = map[string]string{
	msgLoggedIn:         "Sesión iniciada como %s.",
	msgLoggedOut:        "Sesión cerrada.",
	msgRegistered:       "Solicitud de registro enviada. Un administrador debe aprobarla.",
	msgPasswordChanged:  "Contraseña actualizada.",
	msgNoRecords:        "No hay registros.",
	msgDeleted:          "Registro %s eliminado.",
	msgSaved:            "Registro %s guardado.",
	msgApproved:         "Solicitud %s aprobada.",
	msgRejected:         "Solicitud %s rechazada.",
	msgAppointmentState: "El turno %s ahora está %s.",
	msgPatient:          "Paciente: %s",
	msgStale:            "Los permisos pueden estar desactualizados.",
	msgNoGroup:          "Se requiere un grupo: --group",
	msgNeedID:           "Se requiere un id.",
	msgBadData:          "No se pudieron leer los datos del registro: %s",

	hdrField:      "Campo",
	hdrValue:      "Valor",
	hdrPermission: "Permiso",
	hdrModule:     "Módulo",
	hdrSection:    "Sección",
	hdrCommand:    "Comando",
	hdrUser:       "Usuario",
	hdrRoles:      "Roles",
}

func init() {
	for key, msg := range spanish {
		if err := message.SetString(language.Spanish, key, msg); err != nil {
			panic(err)
		}
	}
}

func tr(lang language.Tag, format string, args ...interface{}) string {
	return message.NewPrinter(lang).Sprintf(format, args...)
}

package gate

import "github.com/Termicotra/agendamiento/agenda/permissions"

// MenuItem is one navigation entry.
type MenuItem struct {
	Label   string
	Command string
	Module  string
}

// DefaultMenu lists the resource sections of the application.
var DefaultMenu = []MenuItem{
	{Label: "Pacientes", Command: "patients", Module: permissions.Patients},
	{Label: "Turnos", Command: "appointments", Module: permissions.Appointments},
	{Label: "Profesionales", Command: "professionals", Module: permissions.Professionals},
	{Label: "Empleados", Command: "employees", Module: permissions.Employees},
	{Label: "Reportes médicos", Command: "reports", Module: permissions.MedicalReports},
	{Label: "Historiales clínicos", Command: "records", Module: permissions.ClinicalRecords},
	{Label: "Disponibilidades", Command: "availability", Module: permissions.Availability},
}

// Menu keeps the items whose module snap grants access to. Items without a
// module are always kept.
func Menu(items []MenuItem, snap permissions.Snapshot) []MenuItem {
	out := make([]MenuItem, 0, len(items))
	for _, item := range items {
		if item.Module == "" || snap.HasModuleAccess(item.Module) {
			out = append(out, item)
		}
	}
	return out
}

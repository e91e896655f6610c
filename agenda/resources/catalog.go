package resources

import (
	"sort"

	"github.com/Termicotra/agendamiento/agenda/client"
	"github.com/Termicotra/agendamiento/agenda/constants"
	"github.com/Termicotra/agendamiento/agenda/permissions"
)

// Catalog holds every collection the application manages.
type Catalog struct {
	Appointments    *Appointments
	Patients        *Resource
	Professionals   *Resource
	Employees       *Resource
	MedicalReports  *Resource
	ClinicalRecords *Resource
	Availability    *Resource
}

func NewCatalog(c *client.Client) *Catalog {
	return &Catalog{
		Appointments:    &Appointments{New(c, "appointments", permissions.Appointments, constants.AppointmentsPath, "id_turno")},
		Patients:        New(c, "patients", permissions.Patients, constants.PatientsPath, "id_paciente"),
		Professionals:   New(c, "professionals", permissions.Professionals, constants.ProfessionalsPath, "id_profesional"),
		Employees:       New(c, "employees", permissions.Employees, constants.EmployeesPath, "id_empleado"),
		MedicalReports:  New(c, "reports", permissions.MedicalReports, constants.MedicalReportsPath, "id_reporte"),
		ClinicalRecords: New(c, "records", permissions.ClinicalRecords, constants.ClinicalRecordsPath, "id_historial"),
		Availability:    New(c, "availability", permissions.Availability, constants.AvailabilityPath, "id_disponibilidad"),
	}
}

// All returns the collections sorted by name.
func (c *Catalog) All() []*Resource {
	all := []*Resource{
		c.Appointments.Resource,
		c.Patients,
		c.Professionals,
		c.Employees,
		c.MedicalReports,
		c.ClinicalRecords,
		c.Availability,
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all
}

func (c *Catalog) ByName(name string) (*Resource, bool) {
	for _, r := range c.All() {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

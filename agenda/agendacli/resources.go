package agendacli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/Termicotra/agendamiento/agenda/client"
	"github.com/Termicotra/agendamiento/agenda/constants"
	"github.com/Termicotra/agendamiento/agenda/gate"
	"github.com/Termicotra/agendamiento/agenda/permissions"
	"github.com/Termicotra/agendamiento/agenda/resources"
)

// resourceCommands builds list/get/create/update/delete for every collection.
// The catalog is only available once Before has run, so commands resolve
// their resource by name at run time.
func resourceCommands(app *cli.App) []cli.Command {
	names := []struct{ name, module, usage string }{
		{"appointments", permissions.Appointments, "Manage appointments"},
		{"patients", permissions.Patients, "Manage patients"},
		{"professionals", permissions.Professionals, "Manage professionals"},
		{"employees", permissions.Employees, "Manage employees"},
		{"reports", permissions.MedicalReports, "Manage medical reports"},
		{"records", permissions.ClinicalRecords, "Manage clinical records"},
		{"availability", permissions.Availability, "Manage professional availability"},
	}

	cmds := make([]cli.Command, 0, len(names))
	for _, n := range names {
		cmd := cli.Command{
			Name:        n.name,
			Category:    "Resources",
			Usage:       n.usage,
			Subcommands: crudCommands(app, n.name, n.module),
		}
		if n.name == "appointments" {
			cmd.Subcommands = append(cmd.Subcommands, appointmentCommands(app)...)
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

func lookup(name string) *resources.Resource {
	r, ok := rt.catalog.ByName(name)
	if !ok {
		panic("unknown resource " + name)
	}
	return r
}

func crudCommands(app *cli.App, name, module string) []cli.Command {
	var patient, professional, data string
	var filters, fields cli.StringSlice

	recordFlags := []cli.Flag{
		cli.StringFlag{Name: "data", Usage: "Record as a JSON object", Destination: &data},
		cli.StringSliceFlag{Name: "set", Usage: "Field as key=value; repeatable", Value: &fields},
	}

	return []cli.Command{
		{
			Name:  "list",
			Usage: "List records",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "patient", Usage: "Only records of this patient id", Destination: &patient},
				cli.StringFlag{Name: "professional", Usage: "Only records of this professional id", Destination: &professional},
				cli.StringSliceFlag{Name: "filter", Usage: "Query filter as key=value; repeatable", Value: &filters},
			},
			Action: gated(gate.Rule{Module: module}, func(c *cli.Context) error {
				r := lookup(name)
				f := resources.Filters{"paciente": patient, "profesional": professional}
				for _, kv := range filters {
					k, v, ok := splitPair(kv)
					if !ok {
						return rt.fail(errors.New(tr(rt.lang, msgBadData, kv)))
					}
					f[k] = v
				}
				list, err := r.List(rt.ctx, f)
				if err != nil {
					return rt.fail(err)
				}
				printRecords(app, list, r.IDField)
				return nil
			}),
		},
		{
			Name:      "get",
			Usage:     "Show one record",
			ArgsUsage: "<id>",
			Action: gated(gate.Rule{Module: module}, func(c *cli.Context) error {
				rec, err := lookup(name).Get(rt.ctx, c.Args().First())
				if err != nil {
					return rt.fail(err)
				}
				renderRecord(app.Writer, rec, tr(rt.lang, hdrField), tr(rt.lang, hdrValue))
				return nil
			}),
		},
		{
			Name:  "create",
			Usage: "Create a record",
			Flags: recordFlags,
			Action: gated(gate.Rule{Permission: permissions.Build(module, permissions.Create)}, func(c *cli.Context) error {
				r := lookup(name)
				rec, err := parseRecord(data, fields)
				if err != nil {
					return rt.fail(errors.New(tr(rt.lang, msgBadData, err.Error())))
				}
				out, err := r.Create(rt.ctx, rec)
				if err != nil {
					return rt.fail(err)
				}
				fmt.Fprintln(app.Writer, success(tr(rt.lang, msgSaved, r.ID(out))))
				return nil
			}),
		},
		{
			Name:      "update",
			Usage:     "Replace a record",
			ArgsUsage: "<id>",
			Flags:     recordFlags,
			Action: gated(gate.Rule{Permission: permissions.Build(module, permissions.Edit)}, func(c *cli.Context) error {
				id := c.Args().First()
				rec, err := parseRecord(data, fields)
				if err != nil {
					return rt.fail(errors.New(tr(rt.lang, msgBadData, err.Error())))
				}
				if _, err := lookup(name).Update(rt.ctx, id, rec); err != nil {
					return rt.fail(err)
				}
				fmt.Fprintln(app.Writer, success(tr(rt.lang, msgSaved, id)))
				return nil
			}),
		},
		{
			Name:      "delete",
			Usage:     "Delete a record",
			ArgsUsage: "<id>",
			Action: gated(gate.Rule{Permission: permissions.Build(module, permissions.Delete)}, func(c *cli.Context) error {
				id := c.Args().First()
				if err := lookup(name).Delete(rt.ctx, id); err != nil {
					return rt.fail(err)
				}
				fmt.Fprintln(app.Writer, success(tr(rt.lang, msgDeleted, id)))
				return nil
			}),
		},
	}
}

func appointmentCommands(app *cli.App) []cli.Command {
	edit := gate.Rule{Permission: permissions.Build(permissions.Appointments, permissions.Edit)}

	transition := func(verb, usage string, rule gate.Rule, state string) cli.Command {
		return cli.Command{
			Name:      verb,
			Usage:     usage,
			ArgsUsage: "<id>",
			Action: gated(rule, func(c *cli.Context) error {
				id := c.Args().First()
				a := rt.catalog.Appointments
				var err error
				switch state {
				case constants.AppointmentCompleted:
					_, err = a.Complete(rt.ctx, id)
				case constants.AppointmentCancelled:
					_, err = a.Cancel(rt.ctx, id)
				case constants.AppointmentActive:
					_, err = a.Activate(rt.ctx, id)
				}
				if err != nil {
					return rt.fail(err)
				}
				fmt.Fprintln(app.Writer, success(tr(rt.lang, msgAppointmentState, id, state)))
				return nil
			}),
		}
	}

	return []cli.Command{
		{
			Name:  "pending",
			Usage: "List appointments waiting for confirmation",
			Action: gated(adminOnly, func(c *cli.Context) error {
				list, err := rt.catalog.Appointments.Pending(rt.ctx)
				if err != nil {
					return rt.fail(err)
				}
				printRecords(app, list, rt.catalog.Appointments.IDField)
				return nil
			}),
		},
		transition("activate", "Confirm a pending appointment", adminOnly, constants.AppointmentActive),
		transition("complete", "Mark an appointment as completed", edit, constants.AppointmentCompleted),
		transition("cancel", "Cancel an appointment", edit, constants.AppointmentCancelled),
	}
}

func printRecords(app *cli.App, list []client.Record, idField string) {
	if len(list) == 0 {
		fmt.Fprintln(app.Writer, tr(rt.lang, msgNoRecords))
		return
	}
	renderRecords(app.Writer, list, idField)
}

func splitPair(kv string) (string, string, bool) {
	i := strings.Index(kv, "=")
	if i <= 0 {
		return "", "", false
	}
	return strings.TrimSpace(kv[:i]), kv[i+1:], true
}

// parseRecord merges a JSON object with key=value pairs. Values that are JSON
// numbers, booleans or null keep their type; anything else is a string.
func parseRecord(data string, fields []string) (client.Record, error) {
	rec := client.Record{}
	if strings.TrimSpace(data) != "" {
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, err
		}
	}
	for _, kv := range fields {
		k, v, ok := splitPair(kv)
		if !ok {
			return nil, errors.Errorf("expected key=value, got %q", kv)
		}
		var typed interface{}
		if err := json.Unmarshal([]byte(v), &typed); err == nil {
			switch typed.(type) {
			case float64, bool, nil:
				rec[k] = typed
				continue
			}
		}
		rec[k] = v
	}
	if len(rec) == 0 {
		return nil, errors.New("no fields given")
	}
	return rec, nil
}

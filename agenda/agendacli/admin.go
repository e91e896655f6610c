package agendacli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/Termicotra/agendamiento/agenda/gate"
	"github.com/Termicotra/agendamiento/agenda/permissions"
	"github.com/Termicotra/agendamiento/agenda/resources"
)

var adminOnly = gate.Rule{Roles: []string{permissions.RoleAdmin}}

func adminCommands(app *cli.App) []cli.Command {
	var status, group string

	return []cli.Command{
		{
			Name:     "requests",
			Category: "Administration",
			Usage:    "Manage registration requests",
			Subcommands: []cli.Command{
				{
					Name:  "list",
					Usage: "List registration requests",
					Flags: []cli.Flag{
						cli.StringFlag{Name: "status", Usage: "pendiente, aprobada or rechazada", Destination: &status},
					},
					Action: gated(adminOnly, func(c *cli.Context) error {
						list, err := rt.service.ListRequests(rt.ctx, status)
						if err != nil {
							return rt.fail(err)
						}
						if len(list) == 0 {
							fmt.Fprintln(app.Writer, tr(rt.lang, msgNoRecords))
							return nil
						}
						renderRecords(app.Writer, list, "id")
						return nil
					}),
				},
				{
					Name:      "approve",
					Usage:     "Approve a registration request into a group",
					ArgsUsage: "<id>",
					Flags: []cli.Flag{
						cli.StringFlag{Name: "group", Usage: "pacientes, profesionales, empleados or administradores", Destination: &group},
					},
					Action: gated(adminOnly, func(c *cli.Context) error {
						id := c.Args().First()
						if id == "" {
							return rt.fail(errors.New(tr(rt.lang, msgNeedID)))
						}
						if group == "" {
							return rt.fail(errors.New(tr(rt.lang, msgNoGroup)))
						}
						if _, err := rt.service.ApproveRequest(rt.ctx, id, group); err != nil {
							return rt.fail(err)
						}
						fmt.Fprintln(app.Writer, success(tr(rt.lang, msgApproved, id)))
						return nil
					}),
				},
				{
					Name:      "reject",
					Usage:     "Reject a registration request",
					ArgsUsage: "<id>",
					Action: gated(adminOnly, func(c *cli.Context) error {
						id := c.Args().First()
						if id == "" {
							return rt.fail(errors.New(tr(rt.lang, msgNeedID)))
						}
						if _, err := rt.service.RejectRequest(rt.ctx, id); err != nil {
							return rt.fail(err)
						}
						fmt.Fprintln(app.Writer, success(tr(rt.lang, msgRejected, id)))
						return nil
					}),
				},
			},
		},
		{
			Name:     "my-history",
			Category: "Patients",
			Usage:    "Show the clinical records of the logged in patient",
			Action: gated(gate.Rule{Roles: []string{permissions.RolePatients}}, func(c *cli.Context) error {
				profile, err := rt.service.Profile(rt.ctx)
				if err != nil {
					return rt.fail(err)
				}
				patient, records, err := rt.catalog.MyHistory(rt.ctx, profile)
				if err != nil {
					return rt.fail(err)
				}
				name := resources.Scalar(patient["nombre"])
				if last := resources.Scalar(patient["apellido"]); last != "" {
					name += " " + last
				}
				fmt.Fprintln(app.Writer, tr(rt.lang, msgPatient, name))
				if len(records) == 0 {
					fmt.Fprintln(app.Writer, tr(rt.lang, msgNoRecords))
					return nil
				}
				renderRecords(app.Writer, records, rt.catalog.ClinicalRecords.IDField)
				return nil
			}),
		},
	}
}

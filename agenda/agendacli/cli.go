package agendacli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/mattn/go-colorable"
	"github.com/pkg/errors"
	"github.com/urfave/cli"
	"golang.org/x/text/language"

	"github.com/Termicotra/agendamiento/agenda/auth"
	"github.com/Termicotra/agendamiento/agenda/client"
	"github.com/Termicotra/agendamiento/agenda/constants"
	customErrors "github.com/Termicotra/agendamiento/agenda/errors"
	"github.com/Termicotra/agendamiento/agenda/gate"
	"github.com/Termicotra/agendamiento/agenda/permissions"
	"github.com/Termicotra/agendamiento/agenda/resources"
	"github.com/Termicotra/agendamiento/agenda/storage"
	"github.com/Termicotra/agendamiento/conf"
	"github.com/Termicotra/agendamiento/log"
)

// App Name and usage.  Edit them here to prevent breaking tests
const Name = "agenda"
const Usage = "Medical appointment scheduling administration client"

// runtime is everything a command needs. It is built by the Before hook and
// torn down by the After hook.
type runtime struct {
	ctx    context.Context
	cancel context.CancelFunc
	lang   language.Tag

	store   storage.Store
	api     *client.Client
	service *auth.Service
	session *auth.Session
	perms   *permissions.Provider
	catalog *resources.Catalog
	unbind  func()
}

var rt *runtime

func GetApp() *cli.App {
	return setUpApp()
}

func setUpApp() *cli.App {
	app := cli.NewApp()
	app.Name = Name
	app.Usage = Usage
	app.Version = constants.Version
	app.Writer = colorable.NewColorableStdout()
	app.ErrWriter = colorable.NewColorableStderr()
	app.Before = func(c *cli.Context) error {
		log.SetupLoggers()
		r, err := start()
		if err != nil {
			return err
		}
		rt = r
		return nil
	}
	app.After = func(c *cli.Context) error {
		if rt == nil {
			return nil
		}
		err := rt.close()
		rt = nil
		return err
	}

	app.Commands = append(sessionCommands(app), adminCommands(app)...)
	app.Commands = append(app.Commands, resourceCommands(app)...)
	return app
}

func sessionFile() string {
	if path := conf.GetEnv("AGENDA_SESSION_FILE"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".agenda", "session.db")
	}
	return filepath.Join(home, ".agenda", "session.db")
}

func start() (*runtime, error) {
	r := &runtime{lang: customErrors.ParseLang(conf.GetEnv("AGENDA_LANG"))}
	r.ctx, r.cancel = signal.NotifyContext(context.Background(), os.Interrupt)

	store, err := storage.OpenBolt(sessionFile())
	if err != nil {
		r.cancel()
		return nil, err
	}
	r.store = store

	r.api = client.New(client.ConfigFromEnv(), store,
		client.WithLogger(log.Request),
		client.WithSessionExpiredHandler(func(cause error) {
			if r.session != nil {
				r.session.HandleExpired(cause)
			}
		}))
	r.service = auth.NewService(r.api)
	r.session = auth.NewSession(r.service)

	ttl := conf.GetEnvDuration("AGENDA_PERMISSIONS_TTL", constants.DefaultPermissionsTTL)
	var opts []permissions.Option
	if path := conf.GetEnv("AGENDA_ROLE_DEFAULTS_FILE"); path != "" {
		defaults, err := permissions.LoadRoleDefaults(path)
		if err != nil {
			log.CLI.WithError(err).Warn("Ignoring role defaults")
		} else {
			opts = append(opts, permissions.WithRoleDefaults(defaults))
		}
	}
	r.perms = permissions.NewProvider(permissions.NewCache(store, r.service, ttl), r.session, opts...)
	r.catalog = resources.NewCatalog(r.api)

	if err := r.session.Check(r.ctx); err != nil {
		log.CLI.WithError(err).Warn("Could not restore session")
	}
	r.unbind = r.perms.Bind(r.ctx, r.session)
	return r, nil
}

func (r *runtime) close() error {
	if r.unbind != nil {
		r.unbind()
	}
	r.cancel()
	return r.store.Close()
}

// localized carries the user facing text of err in the configured language.
type localized struct {
	msg string
	err error
}

func (l *localized) Error() string { return l.msg }
func (l *localized) Unwrap() error { return l.err }

func (r *runtime) fail(err error) error {
	if err == nil {
		return nil
	}
	log.CLI.WithError(err).Info("Command failed")
	return &localized{msg: customErrors.Localize(err, r.lang), err: err}
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	var denied *customErrors.AccessDeniedError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &denied):
		if denied.Login {
			return 3
		}
		return 2
	case customErrors.IsSessionExpired(err):
		return 3
	}
	return 1
}

// subject describes the current user for the gates. Permissions are loaded
// before the session is read, since a failed load can end the session.
func (r *runtime) subject() (gate.Subject, error) {
	snap := permissions.Empty(nil)
	if r.session.Authenticated() {
		st := r.perms.Current(r.ctx)
		if customErrors.IsSessionExpired(st.Err) {
			return gate.Subject{}, st.Err
		}
		snap = st.Snapshot
	}
	return gate.Subject{
		Authenticated: r.session.Authenticated(),
		Roles:         r.session.Roles(),
		Snapshot:      snap,
	}, nil
}

// gated runs action only when rule admits the current user.
func gated(rule gate.Rule, action cli.ActionFunc) cli.ActionFunc {
	return func(c *cli.Context) error {
		sub, err := rt.subject()
		if err != nil {
			return rt.fail(err)
		}
		if err := gate.Check(rule, sub); err != nil {
			return rt.fail(err)
		}
		return action(c)
	}
}

func sessionCommands(app *cli.App) []cli.Command {
	var username, password, ci string
	var oldPassword, newPassword, confirmPassword string
	var refresh bool

	return []cli.Command{
		{
			Name:     "login",
			Category: "Session",
			Usage:    "Log in and store the session",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "username, u", Usage: "Username", Destination: &username},
				cli.StringFlag{Name: "password, p", Usage: "Password", EnvVar: "AGENDA_PASSWORD", Destination: &password},
			},
			Action: func(c *cli.Context) error {
				info, err := rt.session.Login(rt.ctx, username, password)
				if err != nil {
					return rt.fail(err)
				}
				fmt.Fprintln(app.Writer, success(tr(rt.lang, msgLoggedIn, info.Username)))
				return nil
			},
		},
		{
			Name:     "logout",
			Category: "Session",
			Usage:    "Log out and remove the stored session",
			Action: func(c *cli.Context) error {
				err := rt.session.Logout(rt.ctx)
				fmt.Fprintln(app.Writer, tr(rt.lang, msgLoggedOut))
				if err != nil {
					log.CLI.WithError(err).Warn("Server side logout failed")
				}
				return nil
			},
		},
		{
			Name:     "whoami",
			Category: "Session",
			Usage:    "Show the logged in user",
			Action: gated(gate.Rule{}, func(c *cli.Context) error {
				user := rt.session.User()
				renderRecord(app.Writer, client.Record{
					"username": user.Username,
					"user_id":  user.UserID,
					"email":    user.Email,
					"roles":    strings.Join(user.Roles, ", "),
				}, tr(rt.lang, hdrField), tr(rt.lang, hdrValue))
				return nil
			}),
		},
		{
			Name:     "permissions",
			Category: "Session",
			Usage:    "Show the permissions of the logged in user",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "refresh", Usage: "Ask the server instead of using the cache", Destination: &refresh},
			},
			Action: gated(gate.Rule{}, func(c *cli.Context) error {
				st := rt.perms.Current(rt.ctx)
				if refresh {
					st = rt.perms.Refresh(rt.ctx)
				}
				printPermissionWarnings(app, st)
				renderList(app.Writer, tr(rt.lang, hdrPermission), st.Snapshot.Permissions)
				renderList(app.Writer, tr(rt.lang, hdrModule), st.Snapshot.Modules)
				return nil
			}),
		},
		{
			Name:     "menu",
			Category: "Session",
			Usage:    "List the sections available to the logged in user",
			Action: gated(gate.Rule{}, func(c *cli.Context) error {
				items := gate.Menu(gate.DefaultMenu, rt.perms.Current(rt.ctx).Snapshot)
				renderMenu(app.Writer, items, tr(rt.lang, hdrSection), tr(rt.lang, hdrCommand))
				return nil
			}),
		},
		{
			Name:     "register",
			Category: "Session",
			Usage:    "Request a new account",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "username, u", Usage: "Desired username", Destination: &username},
				cli.StringFlag{Name: "password, p", Usage: "Password", EnvVar: "AGENDA_PASSWORD", Destination: &password},
				cli.StringFlag{Name: "ci", Usage: "Identity card number", Destination: &ci},
			},
			Action: func(c *cli.Context) error {
				_, err := rt.service.Register(rt.ctx, auth.Registration{Username: username, Password: password, CI: ci})
				if err != nil {
					return rt.fail(err)
				}
				fmt.Fprintln(app.Writer, success(tr(rt.lang, msgRegistered)))
				return nil
			},
		},
		{
			Name:     "profile",
			Category: "Session",
			Usage:    "Show the profile of the logged in user",
			Action: gated(gate.Rule{}, func(c *cli.Context) error {
				profile, err := rt.service.Profile(rt.ctx)
				if err != nil {
					return rt.fail(err)
				}
				renderRecord(app.Writer, profile, tr(rt.lang, hdrField), tr(rt.lang, hdrValue))
				return nil
			}),
		},
		{
			Name:     "change-password",
			Category: "Session",
			Usage:    "Change the password of the logged in user",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "old", Usage: "Current password", Destination: &oldPassword},
				cli.StringFlag{Name: "new", Usage: "New password", Destination: &newPassword},
				cli.StringFlag{Name: "confirm", Usage: "New password again", Destination: &confirmPassword},
			},
			Action: gated(gate.Rule{}, func(c *cli.Context) error {
				_, err := rt.service.ChangePassword(rt.ctx, auth.PasswordChange{
					OldPassword:     oldPassword,
					NewPassword:     newPassword,
					ConfirmPassword: confirmPassword,
				})
				if err != nil {
					return rt.fail(err)
				}
				fmt.Fprintln(app.Writer, success(tr(rt.lang, msgPasswordChanged)))
				return nil
			}),
		},
	}
}

func printPermissionWarnings(app *cli.App, st permissions.State) {
	switch {
	case st.Err == nil:
		return
	case errors.Is(st.Err, permissions.ErrUsingCache):
		fmt.Fprintln(app.ErrWriter, warn(customErrors.T(rt.lang, customErrors.MsgCachedPerms)))
	default:
		fmt.Fprintln(app.ErrWriter, warn(customErrors.T(rt.lang, customErrors.MsgPermsLoadFailed)))
	}
	if st.Stale {
		fmt.Fprintln(app.ErrWriter, warn(tr(rt.lang, msgStale)))
	}
}

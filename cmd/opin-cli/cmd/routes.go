package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/nfrund/opin/internal/app"
	"github.com/nfrund/opin/internal/authgate"
	"github.com/nfrund/opin/internal/authstate"
	"github.com/nfrund/opin/internal/avatar"
	"github.com/nfrund/opin/internal/captcha"
	"github.com/nfrund/opin/internal/config"
	"github.com/nfrund/opin/internal/memauth"
	"github.com/nfrund/opin/internal/middleware"
	"github.com/nfrund/opin/internal/module"
	"github.com/nfrund/opin/internal/pubsub"
	"github.com/nfrund/opin/internal/registry"
	"github.com/nfrund/opin/internal/server"
	"github.com/nfrund/opin/internal/session"
	"github.com/nfrund/opin/internal/storage"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	routesFormat string
	routesGuard  string
)

// routesCmd represents the routes command
var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List every route and its guard",
	Long: `Builds the server in memory and prints its route table together with the
guard that protects each route. Nothing is listened on and no external
service is contacted.

Examples:
  opin-cli routes                    # table of all routes
  opin-cli routes --guard protected  # only routes that need a session
  opin-cli routes --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		routes, err := loadRoutes()
		if err != nil {
			return err
		}
		routes, err = filterRoutes(routes, routesGuard)
		if err != nil {
			return err
		}
		return printRoutes(cmd.OutOrStdout(), routes, routesFormat)
	},
}

func init() {
	routesCmd.Flags().StringVarP(&routesFormat, "format", "f", "table", "Output format (table, json)")
	routesCmd.Flags().StringVarP(&routesGuard, "guard", "g", "", "Only show routes with this guard (public, protected, guest)")
	rootCmd.AddCommand(routesCmd)
}

// loadRoutes wires a throwaway server against the in-memory provider and
// returns its route table.
func loadRoutes() ([]module.Route, error) {
	const secret = "opin-cli-routes"
	cfg, err := config.FromMap(map[string]string{
		"SESSION_SECRET": secret,
		"AUTH_PROVIDER":  config.ProviderMemory,
	})
	if err != nil {
		return nil, err
	}

	bus := pubsub.NewWatermillBridge()
	defer bus.Close()
	auth := authstate.New(memauth.New(memauth.Options{Secret: secret}), session.NewCookieStore(), bus)
	avatars := storage.NewAferoStore(afero.NewMemMapFs(), "avatars", "/avatars")

	s, err := server.New(server.Dependencies{
		Config:   cfg,
		Auth:     auth,
		Sessions: session.NewCookieBackend(secret, false),
		Verifier: captcha.Off{},
		Avatars:  avatars,
	})
	if err != nil {
		return nil, err
	}
	modules := app.NewModules(app.Dependencies{
		Auth:     auth,
		Avatars:  avatar.NewService(avatars),
		Verifier: s.Verifier,
		Guard:    middleware.RequireAuth(auth),
	})
	if err := s.InitModules(context.Background(), modules, registry.New(cfg)); err != nil {
		return nil, err
	}
	return s.RouteTable(), nil
}

func filterRoutes(routes []module.Route, guard string) ([]module.Route, error) {
	if guard == "" {
		return routes, nil
	}
	var want authgate.Kind
	if guard != "public" {
		k, ok := authgate.ParseKind(guard)
		if !ok {
			return nil, fmt.Errorf("unknown guard %q", guard)
		}
		want = k
	}
	var out []module.Route
	for _, r := range routes {
		if r.Guard == want {
			out = append(out, r)
		}
	}
	return out, nil
}

type routeJSON struct {
	Method  string `json:"method"`
	Path    string `json:"path"`
	Guard   string `json:"guard"`
	Limited bool   `json:"rate_limited"`
}

func printRoutes(w io.Writer, routes []module.Route, format string) error {
	switch format {
	case "json":
		out := make([]routeJSON, 0, len(routes))
		for _, r := range routes {
			out = append(out, routeJSON{Method: r.Method, Path: r.Path, Guard: r.Guard.String(), Limited: r.Limited})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "table", "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "METHOD\tPATH\tGUARD\tLIMITED")
		fmt.Fprintln(tw, "------\t----\t-----\t-------")
		for _, r := range routes {
			limited := ""
			if r.Limited {
				limited = "yes"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Method, r.Path, r.Guard, limited)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

package command

import (
	"context"
	"net/http"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/contacts-go/internal/cli/output"
)

type healthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

func (h healthStatus) Table(bool) *output.Table {
	t := output.NewTable("STATUS", "VERSION", "TIME")
	t.AddRow(h.Status, h.Version, h.Time)
	return t
}

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "Server status commands",
		Subcommands: []*cli.Command{
			{
				Name:   "health",
				Usage:  "Check that the server is up",
				Action: probe("/health"),
			},
			{
				Name:   "ready",
				Usage:  "Check that the server can reach its dependencies",
				Action: probe("/ready"),
			},
		},
	}
}

func probe(path string) cli.ActionFunc {
	return func(c *cli.Context) error {
		s, err := GetSession(c)
		if err != nil {
			return err
		}

		var res healthStatus
		if err := call(func(ctx context.Context) (*http.Response, error) {
			return s.Client.WithToken("").Get(ctx, path, nil)
		}, &res); err != nil {
			return err
		}
		return s.Render(res)
	}
}

package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/contacts-go/internal/cli/config"
	"github.com/yndnr/contacts-go/internal/cli/connection"
	"github.com/yndnr/contacts-go/internal/cli/output"
	"github.com/yndnr/contacts-go/internal/infra/buildinfo"
)

const metaSession = "session"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "contacts-cli",
		Usage:   "Command-line client for the contacts API",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			AuthCommand(),
			UserCommand(),
			ContactCommand(),
			SystemCommand(),
		},
		Before: setup,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI config file (default ~/.contacts/cli.yaml)",
			EnvVars: []string{"CONTACTS_CLI_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "API base URL (e.g., http://localhost:8000)",
			EnvVars: []string{"CONTACTS_SERVER"},
		},
		&cli.StringFlag{
			Name:    "token",
			Aliases: []string{"t"},
			Usage:   "Access token (overrides the stored session)",
			EnvVars: []string{"CONTACTS_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
	}
}

// Session is the per-invocation state shared by commands.
type Session struct {
	Config     *config.CLIConfig
	ConfigPath string
	Client     *connection.HTTPClient
	Format     output.Format
	Wide       bool
	Out        io.Writer
}

func setup(c *cli.Context) error {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	server := cfg.Server
	if c.IsSet("server") {
		server = c.String("server")
	}
	token := cfg.AccessToken
	if c.IsSet("token") {
		token = c.String("token")
	}
	formatName := cfg.Output
	if c.IsSet("output") {
		formatName = c.String("output")
	}
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return err
	}

	if c.App.Metadata == nil {
		c.App.Metadata = map[string]any{}
	}
	c.App.Metadata[metaSession] = &Session{
		Config:     cfg,
		ConfigPath: path,
		Client:     connection.NewHTTPClient(server, token),
		Format:     format,
		Wide:       c.Bool("wide"),
		Out:        c.App.Writer,
	}
	return nil
}

// GetSession retrieves the session prepared by the app's Before hook.
func GetSession(c *cli.Context) (*Session, error) {
	if s, ok := c.App.Metadata[metaSession].(*Session); ok {
		return s, nil
	}
	return nil, errors.New("cli session not initialized")
}

// Render writes data in the selected output format.
func (s *Session) Render(data any) error {
	return output.NewFormatter(s.Format, s.Wide).Format(s.Out, data)
}

// Message prints a status line; in json or yaml mode it is rendered as {"message": ...}.
func (s *Session) Message(msg string) error {
	if s.Format == output.FormatTable {
		_, err := fmt.Fprintln(s.Out, msg)
		return err
	}
	return s.Render(map[string]string{"message": msg})
}

// SaveConfig persists the config, typically after the session tokens changed.
func (s *Session) SaveConfig() error {
	return config.Save(s.Config, s.ConfigPath)
}

// call runs fn with a bounded context and decodes the response into target.
func call(fn func(ctx context.Context) (*http.Response, error), target any) error {
	ctx, cancel := context.WithTimeout(context.Background(), connection.DefaultTimeout)
	defer cancel()

	resp, err := fn(ctx)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return connection.ParseResponse(resp, target)
}

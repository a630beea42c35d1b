package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/contacts-go/internal/cli/output"
	"github.com/yndnr/contacts-go/internal/core/domain"
)

// userView renders a user as a field/value table.
type userView struct {
	*domain.User
}

func (v userView) Table(wide bool) *output.Table {
	t := output.NewTable("FIELD", "VALUE")
	t.AddRow("id", strconv.FormatInt(v.ID, 10))
	t.AddRow("username", v.Username)
	t.AddRow("email", v.Email)
	t.AddRow("confirmed", strconv.FormatBool(v.Confirmed))
	t.AddRow("avatar", v.Avatar)
	if wide {
		t.AddRow("created_at", formatTime(v.CreatedAt))
		t.AddRow("updated_at", formatTime(v.UpdatedAt))
	}
	return t
}

// UserCommand returns the user subcommand group.
func UserCommand() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Show and update the signed-in user",
		Subcommands: []*cli.Command{
			{
				Name:   "me",
				Usage:  "Show the signed-in user",
				Action: userMe,
			},
			{
				Name:      "avatar",
				Usage:     "Upload a new avatar image",
				ArgsUsage: "FILE",
				Action:    userAvatar,
			},
		},
	}
}

func userMe(c *cli.Context) error {
	s, err := GetSession(c)
	if err != nil {
		return err
	}

	var user domain.User
	if err := call(func(ctx context.Context) (*http.Response, error) {
		return s.Client.Get(ctx, "/users/me", nil)
	}, &user); err != nil {
		return err
	}
	return s.Render(userView{&user})
}

func userAvatar(c *cli.Context) error {
	s, err := GetSession(c)
	if err != nil {
		return err
	}
	path := c.Args().First()
	if path == "" {
		return errors.New("avatar file required")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open avatar: %w", err)
	}
	defer f.Close()

	var user domain.User
	if err := call(func(ctx context.Context) (*http.Response, error) {
		return s.Client.Upload(ctx, http.MethodPatch, "/users/avatar", "file", filepath.Base(path), f)
	}, &user); err != nil {
		return err
	}
	return s.Render(userView{&user})
}

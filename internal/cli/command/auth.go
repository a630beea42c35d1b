package command

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/contacts-go/internal/cli/output"
	"github.com/yndnr/contacts-go/internal/core/domain"
)

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type messageBody struct {
	Message string `json:"message"`
}

// AuthCommand returns the auth subcommand group.
func AuthCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Sign up, log in and manage the stored session",
		Subcommands: []*cli.Command{
			{
				Name:  "signup",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Display name", Required: true},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address", Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password", Required: true, EnvVars: []string{"CONTACTS_PASSWORD"}},
				},
				Action: authSignup,
			},
			{
				Name:  "login",
				Usage: "Log in and store the session tokens",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e", "username"}, Usage: "Email address", Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Password", Required: true, EnvVars: []string{"CONTACTS_PASSWORD"}},
				},
				Action: authLogin,
			},
			{
				Name:  "refresh",
				Usage: "Exchange the stored refresh token for a new token pair",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "refresh-token", Usage: "Refresh token (defaults to the stored one)"},
				},
				Action: authRefresh,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session tokens",
				Action: authLogout,
			},
			{
				Name:      "confirm",
				Usage:     "Confirm an email address with the token from the confirmation email",
				ArgsUsage: "TOKEN",
				Action:    authConfirm,
			},
			{
				Name:  "request-email",
				Usage: "Send a new confirmation email",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address", Required: true},
				},
				Action: authRequestEmail,
			},
		},
	}
}

func authSignup(c *cli.Context) error {
	s, err := GetSession(c)
	if err != nil {
		return err
	}

	body := map[string]string{
		"username": c.String("username"),
		"email":    c.String("email"),
		"password": c.String("password"),
	}
	var user domain.User
	if err := call(func(ctx context.Context) (*http.Response, error) {
		return s.Client.Post(ctx, "/auth/signup", body)
	}, &user); err != nil {
		return err
	}
	return s.Render(userView{&user})
}

func authLogin(c *cli.Context) error {
	s, err := GetSession(c)
	if err != nil {
		return err
	}

	form := url.Values{
		"username": {c.String("email")},
		"password": {c.String("password")},
	}
	var pair tokenPair
	if err := call(func(ctx context.Context) (*http.Response, error) {
		return s.Client.PostForm(ctx, "/auth/login", form)
	}, &pair); err != nil {
		return err
	}
	return storeTokens(s, pair, "Logged in")
}

func authRefresh(c *cli.Context) error {
	s, err := GetSession(c)
	if err != nil {
		return err
	}

	refresh := c.String("refresh-token")
	if refresh == "" {
		refresh = s.Config.RefreshToken
	}
	if refresh == "" {
		return errors.New("no refresh token stored; run \"auth login\" first")
	}

	var pair tokenPair
	if err := call(func(ctx context.Context) (*http.Response, error) {
		return s.Client.WithToken(refresh).Get(ctx, "/auth/refresh_token", nil)
	}, &pair); err != nil {
		return err
	}
	return storeTokens(s, pair, "Session refreshed")
}

func storeTokens(s *Session, pair tokenPair, msg string) error {
	s.Config.SetTokens(pair.AccessToken, pair.RefreshToken)
	if err := s.SaveConfig(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	if s.Format != output.FormatTable {
		return s.Render(pair)
	}
	return s.Message(msg)
}

func authLogout(c *cli.Context) error {
	s, err := GetSession(c)
	if err != nil {
		return err
	}
	s.Config.ClearTokens()
	if err := s.SaveConfig(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return s.Message("Logged out")
}

func authConfirm(c *cli.Context) error {
	s, err := GetSession(c)
	if err != nil {
		return err
	}
	token := c.Args().First()
	if token == "" {
		return errors.New("confirmation token required")
	}

	var res messageBody
	if err := call(func(ctx context.Context) (*http.Response, error) {
		return s.Client.Get(ctx, "/auth/confirmed_email/"+url.PathEscape(token), nil)
	}, &res); err != nil {
		return err
	}
	return s.Message(res.Message)
}

func authRequestEmail(c *cli.Context) error {
	s, err := GetSession(c)
	if err != nil {
		return err
	}

	var res messageBody
	if err := call(func(ctx context.Context) (*http.Response, error) {
		return s.Client.Post(ctx, "/auth/request_email", map[string]string{"email": c.String("email")})
	}, &res); err != nil {
		return err
	}
	return s.Message(res.Message)
}

package command

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/contacts-go/internal/cli/output"
	"github.com/yndnr/contacts-go/internal/core/domain"
)

// contactBody is the JSON body of create and update requests.
type contactBody struct {
	Name     string      `json:"name"`
	Surname  string      `json:"surname"`
	Email    string      `json:"email"`
	Phone    string      `json:"phone"`
	Birthday domain.Date `json:"birthday"`
	Note     string      `json:"note"`
}

type contactPage struct {
	Items    contactList `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

func (p contactPage) Table(wide bool) *output.Table {
	return p.Items.Table(wide)
}

type contactList []*domain.Contact

func (l contactList) Table(wide bool) *output.Table {
	headers := []string{"ID", "NAME", "SURNAME", "EMAIL", "PHONE", "BIRTHDAY"}
	if wide {
		headers = append(headers, "NOTE", "UPDATED")
	}
	t := output.NewTable(headers...)
	for _, c := range l {
		row := []string{strconv.FormatInt(c.ID, 10), c.Name, c.Surname, c.Email, c.Phone, formatDate(c.Birthday)}
		if wide {
			row = append(row, c.Note, formatTime(c.UpdatedAt))
		}
		t.AddRow(row...)
	}
	return t
}

type contactView struct {
	*domain.Contact
}

func (v contactView) Table(wide bool) *output.Table {
	t := output.NewTable("FIELD", "VALUE")
	t.AddRow("id", strconv.FormatInt(v.ID, 10))
	t.AddRow("name", v.Name)
	t.AddRow("surname", v.Surname)
	t.AddRow("email", v.Email)
	t.AddRow("phone", v.Phone)
	t.AddRow("birthday", formatDate(v.Birthday))
	t.AddRow("note", v.Note)
	if wide {
		t.AddRow("created_at", formatTime(v.CreatedAt))
		t.AddRow("updated_at", formatTime(v.UpdatedAt))
	}
	return t
}

type birthday struct {
	domain.Contact
	NextBirthday domain.Date `json:"next_birthday"`
	DaysUntil    int         `json:"days_until"`
}

type birthdayList []birthday

func (l birthdayList) Table(bool) *output.Table {
	t := output.NewTable("ID", "NAME", "SURNAME", "BIRTHDAY", "NEXT", "IN DAYS")
	for _, b := range l {
		t.AddRow(strconv.FormatInt(b.ID, 10), b.Name, b.Surname, formatDate(b.Birthday),
			formatDate(b.NextBirthday), strconv.Itoa(b.DaysUntil))
	}
	return t
}

func formatDate(d domain.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

func contactFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "First name", Required: required},
		&cli.StringFlag{Name: "surname", Usage: "Last name"},
		&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address"},
		&cli.StringFlag{Name: "phone", Usage: "Phone number"},
		&cli.StringFlag{Name: "birthday", Aliases: []string{"b"}, Usage: "Birthday (YYYY-MM-DD); empty clears it"},
		&cli.StringFlag{Name: "note", Usage: "Free-form note"},
	}
}

// ContactCommand returns the contact subcommand group.
func ContactCommand() *cli.Command {
	return &cli.Command{
		Name:    "contact",
		Aliases: []string{"contacts", "c"},
		Usage:   "Manage contacts",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List contacts",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Value: 1, Usage: "Page number"},
					&cli.IntFlag{Name: "page-size", Usage: "Page size (server default when 0)"},
				},
				Action: contactListAction,
			},
			{
				Name:      "get",
				Usage:     "Show one contact",
				ArgsUsage: "ID",
				Action:    contactGet,
			},
			{
				Name:   "create",
				Usage:  "Create a contact",
				Flags:  contactFlags(true),
				Action: contactCreate,
			},
			{
				Name:      "update",
				Usage:     "Update a contact; unset flags keep their current value",
				ArgsUsage: "ID",
				Flags:     contactFlags(false),
				Action:    contactUpdate,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a contact",
				ArgsUsage: "ID",
				Action:    contactDelete,
			},
			{
				Name:  "search",
				Usage: "Search contacts by name, surname or email",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Name contains"},
					&cli.StringFlag{Name: "surname", Usage: "Surname contains"},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email contains"},
				},
				Action: contactSearch,
			},
			{
				Name:  "birthdays",
				Usage: "List birthdays in the coming days",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "days", Aliases: []string{"d"}, Usage: "Window in days (server default when 0)"},
				},
				Action: contactBirthdays,
			},
		},
	}
}

func contactID(c *cli.Context) (string, error) {
	raw := c.Args().First()
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return "", fmt.Errorf("contact ID must be a positive integer, got %q", raw)
	}
	return "/contacts/" + strconv.FormatInt(id, 10), nil
}

func contactListAction(c *cli.Context) error {
	s, err := GetSession(c)
	if err != nil {
		return err
	}

	q := url.Values{}
	if p := c.Int("page"); p > 0 {
		q.Set("page", strconv.Itoa(p))
	}
	if ps := c.Int("page-size"); ps > 0 {
		q.Set("page_size", strconv.Itoa(ps))
	}

	var page contactPage
	if err := call(func(ctx context.Context) (*http.Response, error) {
		return s.Client.Get(ctx, "/contacts", q)
	}, &page); err != nil {
		return err
	}
	return s.Render(page)
}

func contactGet(c *cli.Context) error {
	s, err := GetSession(c)
	if err != nil {
		return err
	}
	path, err := contactID(c)
	if err != nil {
		return err
	}

	var contact domain.Contact
	if err := call(func(ctx context.Context) (*http.Response, error) {
		return s.Client.Get(ctx, path, nil)
	}, &contact); err != nil {
		return err
	}
	return s.Render(contactView{&contact})
}

func contactCreate(c *cli.Context) error {
	s, err := GetSession(c)
	if err != nil {
		return err
	}
	var body contactBody
	if err := applyContactFlags(c, &body); err != nil {
		return err
	}

	var contact domain.Contact
	if err := call(func(ctx context.Context) (*http.Response, error) {
		return s.Client.Post(ctx, "/contacts", body)
	}, &contact); err != nil {
		return err
	}
	return s.Render(contactView{&contact})
}

func contactUpdate(c *cli.Context) error {
	s, err := GetSession(c)
	if err != nil {
		return err
	}
	path, err := contactID(c)
	if err != nil {
		return err
	}

	var current domain.Contact
	if err := call(func(ctx context.Context) (*http.Response, error) {
		return s.Client.Get(ctx, path, nil)
	}, &current); err != nil {
		return err
	}

	body := contactBody{
		Name:     current.Name,
		Surname:  current.Surname,
		Email:    current.Email,
		Phone:    current.Phone,
		Birthday: current.Birthday,
		Note:     current.Note,
	}
	if err := applyContactFlags(c, &body); err != nil {
		return err
	}

	var updated domain.Contact
	if err := call(func(ctx context.Context) (*http.Response, error) {
		return s.Client.Put(ctx, path, body)
	}, &updated); err != nil {
		return err
	}
	return s.Render(contactView{&updated})
}

// applyContactFlags overwrites the fields of body whose flags were given.
func applyContactFlags(c *cli.Context, body *contactBody) error {
	for name, dst := range map[string]*string{
		"name":    &body.Name,
		"surname": &body.Surname,
		"email":   &body.Email,
		"phone":   &body.Phone,
		"note":    &body.Note,
	} {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}
	if c.IsSet("birthday") {
		body.Birthday = domain.Date{}
		if raw := c.String("birthday"); raw != "" {
			d, err := domain.ParseDate(raw)
			if err != nil {
				return fmt.Errorf("invalid --birthday: %w", err)
			}
			body.Birthday = d
		}
	}
	return nil
}

func contactDelete(c *cli.Context) error {
	s, err := GetSession(c)
	if err != nil {
		return err
	}
	path, err := contactID(c)
	if err != nil {
		return err
	}

	var deleted domain.Contact
	if err := call(func(ctx context.Context) (*http.Response, error) {
		return s.Client.Delete(ctx, path)
	}, &deleted); err != nil {
		return err
	}
	if s.Format != output.FormatTable {
		return s.Render(deleted)
	}
	return s.Message(fmt.Sprintf("Deleted contact %d (%s %s)", deleted.ID, deleted.Name, deleted.Surname))
}

func contactSearch(c *cli.Context) error {
	s, err := GetSession(c)
	if err != nil {
		return err
	}

	q := url.Values{}
	for _, name := range []string{"name", "surname", "email"} {
		if v := c.String(name); v != "" {
			q.Set(name, v)
		}
	}

	var found contactList
	if err := call(func(ctx context.Context) (*http.Response, error) {
		return s.Client.Get(ctx, "/contacts/search", q)
	}, &found); err != nil {
		return err
	}
	return s.Render(found)
}

func contactBirthdays(c *cli.Context) error {
	s, err := GetSession(c)
	if err != nil {
		return err
	}

	q := url.Values{}
	if d := c.Int("days"); d > 0 {
		q.Set("days", strconv.Itoa(d))
	}

	var list birthdayList
	if err := call(func(ctx context.Context) (*http.Response, error) {
		return s.Client.Get(ctx, "/contacts/birthdays", q)
	}, &list); err != nil {
		return err
	}
	return s.Render(list)
}

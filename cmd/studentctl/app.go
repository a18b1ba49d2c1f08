package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/noah-isme/student-records/internal/client/effects"
	"github.com/noah-isme/student-records/internal/client/state"
)

var errNotLoggedIn = errors.New("not logged in; run `studentctl login` first")

// passwordReader reads a secret without echo when possible.
type passwordReader func(prompt string) (string, error)

type app struct {
	store       *state.Store
	coordinator *effects.Coordinator
	out         io.Writer
	errOut      io.Writer
	passwords   passwordReader
	sessionFile string
}

type command struct {
	name    string
	usage   string
	authed  bool
	handler func(a *app, args []string) error
}

var commands = []command{
	{"login", "login -email EMAIL [-password PASSWORD]", false, (*app).login},
	{"logout", "logout", false, (*app).logout},
	{"register", "register -first NAME -last NAME -email EMAIL [-phone PHONE]", false, (*app).register},
	{"whoami", "whoami", false, (*app).whoami},
	{"list", "list", true, (*app).list},
	{"show", "show ID", true, (*app).show},
	{"create", "create [profile flags]", true, (*app).create},
	{"update", "update ID [profile flags]", true, (*app).update},
	{"delete", "delete ID", true, (*app).delete},
}

func (a *app) run(args []string) int {
	if len(args) == 0 {
		a.usage()
		return 2
	}
	for _, cmd := range commands {
		if cmd.name != args[0] {
			continue
		}
		if cmd.authed && !a.store.Session().IsAuthenticated {
			fmt.Fprintln(a.errOut, "error:", errNotLoggedIn)
			return 1
		}
		if err := cmd.handler(a, args[1:]); err != nil {
			if !errors.Is(err, flag.ErrHelp) {
				fmt.Fprintln(a.errOut, "error:", err)
			}
			return 1
		}
		return 0
	}
	a.usage()
	return 2
}

func (a *app) usage() {
	fmt.Fprintln(a.errOut, "Usage: studentctl <command> [flags]")
	for _, cmd := range commands {
		fmt.Fprintln(a.errOut, "  "+cmd.usage)
	}
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func (a *app) login(args []string) error {
	fs := a.flags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (prompted when omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*email) == "" {
		return errors.New("-email is required")
	}
	if *password == "" {
		p, err := a.passwords("Password: ")
		if err != nil {
			return err
		}
		*password = p
	}

	a.coordinator.Login(strings.TrimSpace(*email), *password)
	a.coordinator.Wait()

	session := a.store.Session()
	if !session.IsAuthenticated {
		return sessionError(session)
	}
	name := *email
	if session.User != nil && session.User.Name != "" {
		name = session.User.Name
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", name)
	return nil
}

func (a *app) logout(_ []string) error {
	a.coordinator.Logout()
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *app) whoami(_ []string) error {
	if !a.store.Session().IsAuthenticated {
		fmt.Fprintln(a.out, "Not logged in")
		return nil
	}
	if a.sessionFile != "" {
		fmt.Fprintf(a.out, "Logged in (session stored in %s)\n", a.sessionFile)
		return nil
	}
	fmt.Fprintln(a.out, "Logged in")
	return nil
}

func (a *app) register(args []string) error {
	fs := a.flags("register")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	email := fs.String("email", "", "email")
	phone := fs.String("phone", "", "phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*email) == "" {
		return errors.New("-email is required")
	}
	password, confirm, err := a.newPassword()
	if err != nil {
		return err
	}
	if len(password) < state.MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", state.MinPasswordLength)
	}
	if password != confirm {
		return errors.New("passwords do not match")
	}

	a.coordinator.Register(state.StudentForm{
		FirstName: *first,
		LastName:  *last,
		Email:     *email,
		Phone:     *phone,
		Password:  password,
	})
	a.coordinator.Wait()

	session := a.store.Session()
	if !session.JustRegistered {
		return sessionError(session)
	}
	a.store.Dispatch(state.ClearJustRegistered())
	fmt.Fprintln(a.out, "Account created. Run `studentctl login` to sign in.")
	return nil
}

func (a *app) list(_ []string) error {
	a.coordinator.FetchAll()
	a.coordinator.Wait()

	students := a.store.Students()
	if students.Error != "" {
		return collectionError(students)
	}
	if len(students.Records) == 0 {
		fmt.Fprintln(a.out, "No students found")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tMAJOR\tYEAR\tGPA\tSTATUS")
	for _, r := range students.Records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\t%s\n", r.ID, r.FullName(), r.Email, r.Major, r.Year, r.GPA, r.Status)
	}
	return tw.Flush()
}

func (a *app) show(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: studentctl show ID")
	}
	rec, err := a.fetch(args[0])
	if err != nil {
		return err
	}
	printRecord(a.out, rec)
	return nil
}

func (a *app) create(args []string) error {
	fs := a.flags("create")
	form := state.StudentForm{Year: state.Freshman, Status: state.Active}
	bindProfileFlags(fs, &form)
	if err := fs.Parse(args); err != nil {
		return err
	}
	password, confirm, err := a.newPassword()
	if err != nil {
		return err
	}
	form.Password, form.ConfirmPassword = password, confirm
	if errs := form.Validate(state.ModeCreate); len(errs) > 0 {
		return fieldErrors("invalid student", errs)
	}

	a.coordinator.Create(form)
	a.coordinator.Wait()

	// A failed profile sync still leaves the account in the collection.
	students := a.store.Students()
	if created := newestRecord(students); created != nil {
		fmt.Fprintf(a.out, "Created student %s\n", created.ID)
	}
	if students.Error != "" {
		return collectionError(students)
	}
	return nil
}

func (a *app) update(args []string) error {
	if len(args) < 1 || strings.HasPrefix(args[0], "-") {
		return errors.New("usage: studentctl update ID [profile flags]")
	}
	id := args[0]
	current, err := a.fetch(id)
	if err != nil {
		return err
	}

	fs := a.flags("update")
	form := state.FormFromRecord(current)
	bindProfileFlags(fs, &form)
	changePassword := fs.Bool("password", false, "prompt for a new password")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	if *changePassword {
		password, confirm, err := a.newPassword()
		if err != nil {
			return err
		}
		form.Password, form.ConfirmPassword = password, confirm
	}
	if errs := form.Validate(state.ModeEdit); len(errs) > 0 {
		return fieldErrors("invalid student", errs)
	}

	a.coordinator.Update(id, form)
	a.coordinator.Wait()

	students := a.store.Students()
	if students.Error != "" {
		return collectionError(students)
	}
	if rec, ok := students.Find(id); ok {
		printRecord(a.out, rec)
	} else if students.Detail != nil {
		printRecord(a.out, *students.Detail)
	}
	return nil
}

func (a *app) delete(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: studentctl delete ID")
	}
	a.coordinator.Delete(args[0])
	a.coordinator.Wait()

	students := a.store.Students()
	if students.Error != "" {
		return collectionError(students)
	}
	fmt.Fprintf(a.out, "Deleted student %s\n", args[0])
	return nil
}

func (a *app) fetch(id string) (state.Record, error) {
	a.coordinator.FetchOne(id)
	a.coordinator.Wait()

	students := a.store.Students()
	if students.Error != "" {
		return state.Record{}, collectionError(students)
	}
	if students.Detail == nil {
		return state.Record{}, fmt.Errorf("student %s not found", id)
	}
	return *students.Detail, nil
}

func (a *app) newPassword() (string, string, error) {
	password, err := a.passwords("Password: ")
	if err != nil {
		return "", "", err
	}
	confirm, err := a.passwords("Confirm password: ")
	if err != nil {
		return "", "", err
	}
	return password, confirm, nil
}

func bindProfileFlags(fs *flag.FlagSet, f *state.StudentForm) {
	fs.StringVar(&f.FirstName, "first", f.FirstName, "first name")
	fs.StringVar(&f.LastName, "last", f.LastName, "last name")
	fs.StringVar(&f.Email, "email", f.Email, "email")
	fs.StringVar(&f.Phone, "phone", f.Phone, "phone number")
	fs.StringVar(&f.DateOfBirth, "dob", f.DateOfBirth, "date of birth (YYYY-MM-DD)")
	fs.StringVar(&f.EnrollmentDate, "enrolled", f.EnrollmentDate, "enrollment date (YYYY-MM-DD)")
	fs.StringVar(&f.Major, "major", f.Major, "major")
	fs.Float64Var(&f.GPA, "gpa", f.GPA, "GPA between 0 and 4")
	fs.Func("year", "Freshman, Sophomore, Junior or Senior", func(v string) error {
		for _, y := range state.Years {
			if strings.EqualFold(v, string(y)) {
				f.Year = y
				return nil
			}
		}
		return fmt.Errorf("unknown year %q", v)
	})
	fs.Func("status", "Active, Inactive, Graduated or Suspended", func(v string) error {
		for _, s := range state.Statuses {
			if strings.EqualFold(v, string(s)) {
				f.Status = s
				return nil
			}
		}
		return fmt.Errorf("unknown status %q", v)
	})
	fs.StringVar(&f.Address.Street, "street", f.Address.Street, "street address")
	fs.StringVar(&f.Address.City, "city", f.Address.City, "city")
	fs.StringVar(&f.Address.State, "state", f.Address.State, "state")
	fs.StringVar(&f.Address.ZipCode, "zip", f.Address.ZipCode, "ZIP code")
}

func printRecord(w io.Writer, r state.Record) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"ID", r.ID},
		{"Name", r.FullName()},
		{"Email", r.Email},
		{"Phone", r.Phone},
		{"Date of birth", r.DateOfBirth},
		{"Enrolled", r.EnrollmentDate},
		{"Major", r.Major},
		{"Year", string(r.Year)},
		{"GPA", fmt.Sprintf("%.2f", r.GPA)},
		{"Status", string(r.Status)},
		{"Address", formatAddress(r.Address)},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1])
	}
	_ = tw.Flush()
}

func formatAddress(a state.Address) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Street, a.City, strings.TrimSpace(a.State + " " + a.ZipCode)} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func newestRecord(s state.CollectionState) *state.Record {
	if len(s.Records) == 0 {
		return nil
	}
	r := s.Records[len(s.Records)-1]
	return &r
}

func sessionError(s state.Session) error {
	if len(s.FieldErrors) > 0 {
		return fieldErrors(s.Error, s.FieldErrors)
	}
	if s.Error == "" {
		return errors.New("request failed")
	}
	return errors.New(s.Error)
}

func collectionError(s state.CollectionState) error {
	if len(s.FieldErrors) > 0 {
		return fieldErrors(s.Error, s.FieldErrors)
	}
	msg := s.Error
	if s.ErrorKind == state.ErrorAuth {
		msg += " (session cleared; log in again)"
	}
	return errors.New(msg)
}

func fieldErrors(message string, fields map[string]string) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(message)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %s", k, fields[k])
	}
	return errors.New(b.String())
}

// terminalPasswords prompts without echo on a TTY and falls back to line input otherwise.
func terminalPasswords(stdin *os.File) passwordReader {
	lines := bufio.NewReader(stdin)
	return func(prompt string) (string, error) {
		fmt.Fprint(os.Stderr, prompt)
		fd := int(stdin.Fd())
		if term.IsTerminal(fd) {
			raw, err := term.ReadPassword(fd)
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return "", fmt.Errorf("read password: %w", err)
			}
			return string(raw), nil
		}
		line, err := lines.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return "", fmt.Errorf("read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
}

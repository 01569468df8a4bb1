// Package shell is the interactive terminal front-end. It reads commands,
// applies them to the flow controller and prints the results.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atinyakov/AgriVision/internal/app"
	"github.com/atinyakov/AgriVision/internal/locale"
	"github.com/atinyakov/AgriVision/internal/models"
	"github.com/atinyakov/AgriVision/internal/service"
)

// Controller defines the app operations the shell drives.
type Controller interface {
	State() app.Session
	SelectLanguage(code locale.Code) error
	RequestOTP(ctx context.Context, mode service.Mode, name, phone string) (service.Challenge, error)
	VerifyOTP(ctx context.Context, code string) (models.UserProfile, error)
	Navigate(to app.View) error
	Back() error
	Home(ctx context.Context) (service.Dashboard, error)
	Analyze(ctx context.Context, image []byte, mimeType string) (models.DiseaseResult, app.Outcome, error)
	Calculate(investment, revenue string) (models.ProfitCalculation, error)
	History(ctx context.Context) ([]models.ScanRecord, error)
	UpdateProfile(ctx context.Context, name *string, lang *locale.Code) (models.UserProfile, error)
	Logout(ctx context.Context) error
}

// Shell runs the read-eval-print loop.
type Shell struct {
	app      Controller
	in       *bufio.Scanner
	out      io.Writer
	readFile func(string) ([]byte, error)
}

// New returns a Shell reading commands from in and writing to out.
func New(c Controller, in io.Reader, out io.Writer) *Shell {
	return &Shell{app: c, in: bufio.NewScanner(in), out: out, readFile: os.ReadFile}
}

var help = map[app.View]string{
	app.ViewLanguage: "lang <code>, languages",
	app.ViewAuth:     "register <phone> <name>, login <phone>, otp <code>",
	app.ViewHome:     "home, go <detect|profit|history|settings>",
	app.ViewDetect:   "scan <image path>, back",
	app.ViewProfit:   "calc <investment> <revenue>, go <home|history>, back",
	app.ViewHistory:  "list, go <home|profit>, back",
	app.ViewSettings: "name <new name>, language <code>, logout, back",
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// Run loops until exit, end of input or ctx is done. A pending read does
// not delay cancellation.
func (s *Shell) Run(ctx context.Context) error {
	s.printf("AgriVision. Type 'help' for commands.\n")
	if s.app.State().View == app.ViewLanguage {
		s.languages()
	}

	done := make(chan struct{})
	defer close(done)
	lines := s.readLines(done)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.printf("agrivision[%s]> ", s.app.State().View)

		var text string
		select {
		case <-ctx.Done():
			s.printf("\n")
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				s.printf("\n")
				return s.in.Err()
			}
			text = l
		}

		args := strings.Fields(text)
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			s.printf("Bye\n")
			return nil
		}
		if err := s.exec(ctx, args[0], args[1:]); err != nil {
			s.printf("error: %v\n", err)
		}
	}
}

// readLines scans input on its own goroutine until end of input or done is
// closed. The channel is closed when scanning stops.
func (s *Shell) readLines(done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for s.in.Scan() {
			select {
			case lines <- s.in.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}

func (s *Shell) exec(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "help":
		s.printf("Commands: %s; state, help, exit\n", help[s.app.State().View])
	case "state":
		st := s.app.State()
		s.printf("view=%s language=%s", st.View, st.Language)
		if st.User != nil {
			s.printf(" user=%s (%s)", st.User.Name, st.User.Phone)
		}
		s.printf("\n")
	case "languages":
		s.languages()
	case "lang":
		if len(args) != 1 {
			return usage("lang <code>")
		}
		code, err := locale.Parse(args[0])
		if err != nil {
			return err
		}
		return s.app.SelectLanguage(code)
	case "register":
		if len(args) < 2 {
			return usage("register <phone> <name>")
		}
		return s.requestOTP(ctx, service.ModeRegister, strings.Join(args[1:], " "), args[0])
	case "login":
		if len(args) != 1 {
			return usage("login <phone>")
		}
		return s.requestOTP(ctx, service.ModeLogin, "", args[0])
	case "otp":
		if len(args) != 1 {
			return usage("otp <code>")
		}
		user, err := s.app.VerifyOTP(ctx, args[0])
		if err != nil {
			return err
		}
		s.printf("Welcome, %s\n", user.Name)
		return s.dashboard(ctx)
	case "go":
		if len(args) != 1 {
			return usage("go <view>")
		}
		v, ok := app.ParseView(args[0])
		if !ok {
			return fmt.Errorf("unknown view %q", args[0])
		}
		if err := s.app.Navigate(v); err != nil {
			return err
		}
		if v == app.ViewHome {
			return s.dashboard(ctx)
		}
	case "back":
		if err := s.app.Back(); err != nil {
			return err
		}
		return s.dashboard(ctx)
	case "home":
		return s.dashboard(ctx)
	case "scan":
		if len(args) != 1 {
			return usage("scan <image path>")
		}
		return s.scan(ctx, args[0])
	case "calc":
		if len(args) != 2 {
			return usage("calc <investment> <revenue>")
		}
		p, err := s.app.Calculate(args[0], args[1])
		if err != nil {
			return err
		}
		s.printf("Profit: %.2f  ROI: %.1f%%  Per acre: %.2f\n", p.EstimatedProfit, p.ROI, p.ProfitPerAcre)
	case "list":
		return s.history(ctx)
	case "name":
		if len(args) == 0 {
			return usage("name <new name>")
		}
		name := strings.Join(args, " ")
		user, err := s.app.UpdateProfile(ctx, &name, nil)
		if err != nil {
			return err
		}
		s.printf("Name set to %s\n", user.Name)
	case "language":
		if len(args) != 1 {
			return usage("language <code>")
		}
		code, err := locale.Parse(args[0])
		if err != nil {
			return err
		}
		if _, err := s.app.UpdateProfile(ctx, nil, &code); err != nil {
			return err
		}
		s.printf("Language set to %s\n", code.Name())
	case "logout":
		if err := s.app.Logout(ctx); err != nil {
			return err
		}
		s.printf("Signed out\n")
		s.languages()
	default:
		s.printf("Unknown command. Type 'help' for a list of commands.\n")
	}
	return nil
}

func usage(u string) error {
	return errors.New("usage: " + u)
}

func (s *Shell) languages() {
	for _, l := range locale.All() {
		s.printf("  %s  %s (%s)\n", l.Code, l.Label, l.Name)
	}
	s.printf("Choose with: lang <code>\n")
}

func (s *Shell) requestOTP(ctx context.Context, mode service.Mode, name, phone string) error {
	ch, err := s.app.RequestOTP(ctx, mode, name, phone)
	if err != nil {
		return err
	}
	s.printf("OTP sent to %s. Your code is %s\n", ch.Phone, ch.Code)
	return nil
}

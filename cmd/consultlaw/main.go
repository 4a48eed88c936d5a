package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/consultlaw/consultlaw-go/config"
	"github.com/consultlaw/consultlaw-go/internal/assistant"
	"github.com/consultlaw/consultlaw-go/internal/booking"
	"github.com/consultlaw/consultlaw-go/internal/directory"
	"github.com/consultlaw/consultlaw-go/internal/inbox"
	"github.com/consultlaw/consultlaw-go/internal/models"
	"github.com/consultlaw/consultlaw-go/internal/profile"
	"github.com/consultlaw/consultlaw-go/internal/session"
	"github.com/consultlaw/consultlaw-go/internal/transport"
	"github.com/consultlaw/consultlaw-go/pkg/credstore"
	"github.com/consultlaw/consultlaw-go/pkg/logger"
	"github.com/consultlaw/consultlaw-go/pkg/metrics"
	"github.com/consultlaw/consultlaw-go/pkg/profiling"
	"github.com/consultlaw/consultlaw-go/pkg/tracing"
)

const version = "1.0.0"

// app bundles the wired SDK components the subcommands dispatch to.
type app struct {
	cfg       *config.Config
	session   *session.Store
	directory *directory.Directory
	assistant *assistant.Assistant
	inbox     *inbox.Inbox
	profile   *profile.Manager
	transport *transport.Client
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.AppEnv,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	tracerShutdown, err := tracing.InitTracer(
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceVersion,
		cfg.Observability.ServiceInstanceID,
		cfg.AppEnv,
		cfg.Observability.ExporterEndpoint,
	)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(shutdownCtx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	stopProfiler, err := profiling.InitProfiler(
		cfg.Profiling,
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceVersion,
		cfg.Observability.ServiceInstanceID,
		cfg.AppEnv,
	)
	if err != nil {
		logger.Warn("Failed to initialize profiler", zap.Error(err))
	} else {
		defer stopProfiler()
	}

	metrics.Init(cfg.Observability.ServiceName)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := wire(cfg)
	if err != nil {
		logger.Fatal("Failed to wire client", zap.Error(err))
	}

	if err := run(ctx, a, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// wire builds the SDK object graph. The session store is both the
// transport's credential source and its 401 handler, which is why the
// transport exposes setters instead of taking them at construction.
func wire(cfg *config.Config) (*app, error) {
	client := transport.New(cfg.API)

	creds, err := credstore.New(cfg.Credentials.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}

	sess := session.New(client, creds)
	client.SetCredentialSource(sess)
	client.SetUnauthorizedHandler(sess.HandleUnauthorized)

	return &app{
		cfg:       cfg,
		session:   sess,
		directory: directory.New(client, cfg.Cache),
		assistant: assistant.New(client),
		inbox:     inbox.New(client),
		profile:   profile.New(client),
		transport: client,
	}, nil
}

func run(ctx context.Context, a *app, command string, args []string) error {
	switch command {
	case "login":
		return cmdLogin(ctx, a, args)
	case "logout":
		return cmdLogout(ctx, a)
	case "register":
		return cmdRegister(ctx, a, args)
	case "me":
		return cmdMe(ctx, a)
	case "professionals":
		return cmdProfessionals(ctx, a)
	case "availability":
		return cmdAvailability(ctx, a, args)
	case "book":
		return cmdBook(ctx, a, args)
	case "bookings":
		return cmdBookings(ctx, a, args)
	case "cancel":
		return cmdCancel(ctx, a, args)
	case "dashboard":
		return cmdDashboard(ctx, a)
	case "triage":
		return cmdTriage(ctx, a, args)
	case "notifications":
		return cmdNotifications(ctx, a)
	case "messages":
		return cmdMessages(ctx, a, args)
	case "profile":
		return cmdProfile(ctx, a, args)
	case "version":
		fmt.Println("consultlaw " + version)
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: consultlaw <command> [flags]

Commands:
  login           -email -password        Sign in and persist the session
  logout                                  Clear the local session
  register        -username -email ...    Create an account
  me                                      Show the authenticated user
  professionals                           List available professionals
  availability    -lawyer <id>            Show a lawyer's weekly slots
  book            -lawyer -date -time     Request a consultation
  bookings        [-filter all|upcoming|past]
  cancel          <booking-id>            Cancel a booking
  dashboard                               Lawyer's incoming bookings
  triage          <description>           Get a routing suggestion
  notifications                           List notifications
  messages        -to <id> [-send <text>] Conversation or send
  profile         [-update|-create flags] Lawyer profile
  version`)
}

// restore loads the persisted session before an authenticated command
func restore(ctx context.Context, a *app) error {
	if err := a.session.Load(ctx); err != nil {
		return err
	}
	if !a.session.IsAuthenticated() {
		return fmt.Errorf("not logged in, run: consultlaw login")
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	identity, err := a.session.Login(ctx, models.LoginInput{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	fmt.Printf("Logged in as %s (%s)\n", identity.FullName(), identity.Role)
	return nil
}

func cmdLogout(_ context.Context, a *app) error {
	a.session.Logout()
	fmt.Println("Logged out")
	return nil
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("username", "", "account username")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	confirm := fs.String("confirm", "", "password confirmation")
	role := fs.String("role", "client", "account role (client or lawyer)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	err := a.session.Register(ctx, models.RegisterInput{
		Username:        *username,
		Email:           *email,
		Password:        *password,
		ConfirmPassword: *confirm,
		Role:            *role,
	})
	if err != nil {
		return err
	}
	fmt.Println("Account created, you can now log in")
	return nil
}

func cmdMe(ctx context.Context, a *app) error {
	if err := restore(ctx, a); err != nil {
		return err
	}
	return printJSON(a.session.Identity())
}

func cmdProfessionals(ctx context.Context, a *app) error {
	listing, err := a.directory.List(ctx)
	if err != nil {
		return err
	}
	for _, p := range listing {
		fmt.Printf("%4d  %-25s %s\n", p.ID, p.FullName(), p.DisplaySpecialty())
	}
	return nil
}

func cmdAvailability(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("availability", flag.ExitOnError)
	lawyer := fs.Int("lawyer", 0, "lawyer id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *lawyer <= 0 {
		return fmt.Errorf("-lawyer is required")
	}

	slots, err := a.directory.Availability(ctx, *lawyer)
	if err != nil {
		return err
	}
	for _, s := range slots {
		fmt.Printf("%-10s %s - %s\n", s.DayOfWeek, s.StartTime, s.EndTime)
	}
	return nil
}

func cmdBook(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("book", flag.ExitOnError)
	lawyer := fs.Int("lawyer", 0, "lawyer id")
	date := fs.String("date", "", "date (YYYY-MM-DD)")
	timeOfDay := fs.String("time", "", "time (HH:MM)")
	message := fs.String("message", "", "consultation message")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := restore(ctx, a); err != nil {
		return err
	}

	wf := booking.NewWorkflow(a.transport)
	wf.Open(*lawyer)
	if err := wf.SetSchedule(*date, *timeOfDay); err != nil {
		return err
	}
	if err := wf.SetMessage(*message); err != nil {
		return err
	}

	created, err := wf.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Booking %d requested for %s %s (%s)\n", created.ID, created.Date, created.Time, created.Status)
	return nil
}

func cmdBookings(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("bookings", flag.ExitOnError)
	filter := fs.String("filter", "all", "all, upcoming or past")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := restore(ctx, a); err != nil {
		return err
	}

	view := newListView(a)
	defer view.Close()
	if err := view.Load(ctx, booking.Filter(*filter)); err != nil {
		return err
	}
	printBookings(view.Bookings())
	return nil
}

func cmdCancel(ctx context.Context, a *app, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: consultlaw cancel <booking-id>")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid booking id %q", args[0])
	}
	if err := restore(ctx, a); err != nil {
		return err
	}

	view := newListView(a)
	defer view.Close()
	if err := view.Load(ctx, booking.FilterAll); err != nil {
		return err
	}
	if err := view.Cancel(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Booking %d cancelled\n", id)
	return nil
}

func cmdDashboard(ctx context.Context, a *app) error {
	if err := restore(ctx, a); err != nil {
		return err
	}
	identity := a.session.Identity()
	if identity == nil || !identity.IsLawyer() {
		return fmt.Errorf("dashboard is only available to lawyer accounts")
	}

	view := booking.NewListView(a.transport, booking.WithSource("/auth/lawyer/dashboard/", false))
	defer view.Close()
	if err := view.Load(ctx, booking.FilterAll); err != nil {
		return err
	}
	printBookings(view.Bookings())
	return nil
}

func cmdTriage(ctx context.Context, a *app, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: consultlaw triage <description>")
	}
	result, err := a.assistant.Triage(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Category: %s\n%s\n", result.Category, result.Suggestion)
	return nil
}

func cmdNotifications(ctx context.Context, a *app) error {
	if err := restore(ctx, a); err != nil {
		return err
	}
	notifications, err := a.inbox.Notifications(ctx)
	if err != nil {
		return err
	}
	for _, n := range notifications {
		marker := " "
		if !n.IsRead {
			marker = "*"
		}
		fmt.Printf("%s %s  %s\n", marker, n.Timestamp, n.Content)
	}
	return nil
}

func cmdMessages(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("messages", flag.ExitOnError)
	to := fs.Int("to", 0, "counterpart user id")
	send := fs.String("send", "", "message to send; omit to show the conversation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *to <= 0 {
		return fmt.Errorf("-to is required")
	}
	if err := restore(ctx, a); err != nil {
		return err
	}

	if *send != "" {
		if _, err := a.inbox.Send(ctx, *to, *send); err != nil {
			return err
		}
		fmt.Println("Sent")
		return nil
	}

	history, err := a.inbox.Conversation(ctx, *to)
	if err != nil {
		return err
	}
	for _, m := range history {
		fmt.Printf("[%s] %d: %s\n", m.Timestamp, m.Sender, m.Content)
	}
	return nil
}

func cmdProfile(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	update := fs.Bool("update", false, "update the existing profile")
	create := fs.Bool("create", false, "create a new profile")
	bio := fs.String("bio", "", "profile bio")
	specialties := fs.String("specialties", "", "comma separated specialties")
	years := fs.Int("years", 0, "years of experience")
	languages := fs.String("languages", "", "spoken languages")
	fee := fs.String("fee", "", "consultation fee")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := restore(ctx, a); err != nil {
		return err
	}

	if *update || *create {
		input := profile.Input{
			Bio:             *bio,
			Specialties:     *specialties,
			ExperienceYears: *years,
			Languages:       *languages,
			Fee:             *fee,
		}
		var (
			result *models.LawyerProfile
			err    error
		)
		if *create {
			result, err = a.profile.Create(ctx, input)
		} else {
			result, err = a.profile.Update(ctx, input)
		}
		if err != nil {
			return err
		}
		return printJSON(result)
	}

	current, err := a.profile.Get(ctx)
	if err != nil {
		return err
	}
	return printJSON(current)
}

func newListView(a *app) *booking.ListView {
	opts := []booking.ListOption{}
	if a.cfg.Cache.ReconcileAfterCancel {
		opts = append(opts, booking.WithCancelReconcile())
	}
	return booking.NewListView(a.transport, opts...)
}

func printBookings(bookings []models.Booking) {
	for _, b := range bookings {
		name := b.LawyerName
		if name == "" {
			name = b.ClientName
		}
		fmt.Printf("%4d  %s %s  %-10s %s\n", b.ID, b.Date, b.Time, b.Status, name)
	}
}

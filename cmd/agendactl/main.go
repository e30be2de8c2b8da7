// Command agendactl is a terminal client for the appointments API. It
// drives the same SDK the web front end uses: log in, browse and publish
// availability, book slots, and triage appointments.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/jpalomar/CitasGo/client"
	"github.com/jpalomar/CitasGo/pkg/logger"
)

const usage = `Usage: agendactl [-api URL] <command> [arguments]

Commands:
  login -email <email> -password <password>
  logout
  whoami
  register -email <email> -password <password> -first-name <name> -last-name <name>
  slots [-all]
  slot-create -date YYYY-MM-DD -start HH:MM -end HH:MM
  slot-delete -id <slot-id>
  book -slot <slot-id> -reason <text> [-yes]
  appointments
  confirm -id <appointment-id>
  reject -id <appointment-id>
  complete -id <appointment-id>
  cancel -id <appointment-id>
`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "agendactl:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	global := flag.NewFlagSet("agendactl", flag.ExitOnError)
	apiURL := global.String("api", envOr("CITAS_API_URL", "http://localhost:8000"), "API base URL")
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return fmt.Errorf("missing command")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolve home directory: %w", err)
	}

	sdk := client.New(client.Config{
		BaseURL:     *apiURL,
		TokenStore:  client.NewFileTokenStore(filepath.Join(home, ".agendactl", "tokens.json")),
		Confirmer:   client.ConfirmerFunc(promptYesNo),
		HTTPTimeout: 15 * time.Second,
		Logger:      logger.New("agendactl", envOr("LOG_LEVEL", "warn")),
	})
	sdk.Session.Restore(ctx)

	command, rest := global.Arg(0), global.Args()[1:]
	switch command {
	case "login":
		return cmdLogin(ctx, sdk, rest)
	case "logout":
		sdk.Logout()
		fmt.Println("Sesión cerrada.")
		return nil
	case "whoami":
		return cmdWhoami(sdk)
	case "register":
		return cmdRegister(ctx, sdk, rest)
	case "slots":
		return cmdSlots(ctx, sdk, rest)
	case "slot-create":
		return cmdSlotCreate(ctx, sdk, rest)
	case "slot-delete":
		return cmdSlotDelete(ctx, sdk, rest)
	case "book":
		return cmdBook(ctx, sdk, rest)
	case "appointments":
		return cmdAppointments(ctx, sdk)
	case "confirm", "reject", "complete", "cancel":
		return cmdTransition(ctx, sdk, command, rest)
	default:
		global.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func cmdLogin(ctx context.Context, sdk *client.Client, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return fmt.Errorf("login requires -email and -password")
	}

	if err := sdk.Login(ctx, *email, *password); err != nil {
		return fmt.Errorf("%s", client.ComposeErrorMessage(err))
	}
	id := sdk.Session.Identity()
	fmt.Printf("Sesión iniciada como %s (%s).\n", id.FullName, id.Role)
	return nil
}

func cmdWhoami(sdk *client.Client) error {
	id := sdk.Session.Identity()
	if id.IsZero() {
		fmt.Println("No has iniciado sesión.")
		return nil
	}
	fmt.Printf("%s <%s> rol=%s verificado=%t\n", id.FullName, id.Email, id.Role, id.EmailVerified)
	return nil
}

func cmdRegister(ctx context.Context, sdk *client.Client, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	first := fs.String("first-name", "", "first name")
	last := fs.String("last-name", "", "last name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	err := sdk.Register(ctx, client.RegisterInput{
		Email:     *email,
		Password:  *password,
		FirstName: *first,
		LastName:  *last,
	})
	if err != nil {
		return fmt.Errorf("%s", client.ComposeErrorMessage(err))
	}
	fmt.Println("Registro exitoso. Revisa tu correo para verificar tu cuenta.")
	return nil
}

func cmdSlots(ctx context.Context, sdk *client.Client, args []string) error {
	fs := flag.NewFlagSet("slots", flag.ExitOnError)
	all := fs.Bool("all", false, "include taken slots (specialists only)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		slots []client.Slot
		err   error
	)
	if *all {
		slots, err = sdk.Availability.ListForSpecialist(ctx)
	} else {
		slots, err = sdk.Availability.ListAvailable(ctx)
	}
	if err != nil {
		return fmt.Errorf("%s", client.ComposeErrorMessage(err))
	}

	agenda := client.GroupByDate(slots)
	if len(agenda.Dates) == 0 {
		fmt.Println("No hay horarios.")
		return nil
	}
	for _, date := range agenda.Dates {
		fmt.Println(date)
		for _, s := range agenda.ByDate[date] {
			state := "disponible"
			if !s.Available {
				state = "ocupado"
			}
			fmt.Printf("  %s  %s-%s  %s  %s\n", s.ID, s.StartTime, s.EndTime, state, s.SpecialistName)
		}
	}
	return nil
}

func cmdSlotCreate(ctx context.Context, sdk *client.Client, args []string) error {
	fs := flag.NewFlagSet("slot-create", flag.ExitOnError)
	date := fs.String("date", "", "slot date (YYYY-MM-DD)")
	start := fs.String("start", "", "start time (HH:MM)")
	end := fs.String("end", "", "end time (HH:MM)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	slot, err := sdk.Authoring.Create(ctx, client.SlotCandidate{
		Date:      *date,
		StartTime: *start,
		EndTime:   *end,
	})
	if err != nil {
		return fmt.Errorf("%s", client.ComposeErrorMessage(err))
	}
	fmt.Printf("Horario creado: %s %s %s-%s\n", slot.ID, slot.Date, slot.StartTime, slot.EndTime)
	return nil
}

func cmdSlotDelete(ctx context.Context, sdk *client.Client, args []string) error {
	fs := flag.NewFlagSet("slot-delete", flag.ExitOnError)
	id := fs.String("id", "", "slot id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("slot-delete requires -id")
	}

	if err := sdk.Authoring.Delete(ctx, *id); err != nil {
		return fmt.Errorf("%s", client.ComposeErrorMessage(err))
	}
	fmt.Println("Horario eliminado.")
	return nil
}

func cmdBook(ctx context.Context, sdk *client.Client, args []string) error {
	fs := flag.NewFlagSet("book", flag.ExitOnError)
	slotID := fs.String("slot", "", "slot id to claim")
	reason := fs.String("reason", "", "consultation reason")
	consent := fs.Bool("yes", false, "accept the privacy notice")
	if err := fs.Parse(args); err != nil {
		return err
	}

	appt, err := sdk.Booking.Book(ctx, *slotID, *reason, *consent)
	if err != nil {
		return fmt.Errorf("%s", client.ComposeErrorMessage(err))
	}
	fmt.Printf("Cita agendada (%s), estado %s.\n", appt.ID, appt.Status)
	return nil
}

func cmdAppointments(ctx context.Context, sdk *client.Client) error {
	appts, err := sdk.Lifecycle.List(ctx)
	if err != nil {
		return fmt.Errorf("%s", client.ComposeErrorMessage(err))
	}

	buckets := client.PartitionAppointments(appts)
	printBucket("PENDIENTES", buckets.Pending)
	printBucket("CONFIRMADAS", buckets.Confirmed)
	printBucket("HISTORIAL", buckets.History)
	return nil
}

func printBucket(title string, appts []client.Appointment) {
	fmt.Println(title)
	if len(appts) == 0 {
		fmt.Println("  (ninguna)")
		return
	}
	for _, a := range appts {
		when := ""
		if a.Slot != nil {
			when = a.Slot.Date + " " + a.Slot.StartTime
		}
		fmt.Printf("  %s  %s  %s  %s\n", a.ID, a.Status, when, a.Reason)
	}
}

func cmdTransition(ctx context.Context, sdk *client.Client, action string, args []string) error {
	fs := flag.NewFlagSet(action, flag.ExitOnError)
	id := fs.String("id", "", "appointment id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("%s requires -id", action)
	}

	appt := client.Appointment{ID: *id}
	var err error
	switch action {
	case "confirm":
		err = sdk.Lifecycle.Confirm(ctx, &appt)
	case "reject":
		err = sdk.Lifecycle.Reject(ctx, &appt)
	case "complete":
		err = sdk.Lifecycle.Complete(ctx, &appt)
	case "cancel":
		err = sdk.Lifecycle.Cancel(ctx, &appt)
	}
	if err != nil {
		return fmt.Errorf("%s", client.ComposeErrorMessage(err))
	}
	fmt.Printf("Cita %s ahora en estado %s.\n", appt.ID, appt.Status)
	return nil
}

// promptYesNo is the blocking confirmation gate for lifecycle actions.
func promptYesNo(prompt string) bool {
	fmt.Printf("%s [s/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "s" || answer == "si" || answer == "sí" || answer == "y" || answer == "yes"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

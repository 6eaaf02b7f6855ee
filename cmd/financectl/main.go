// Command financectl is a small terminal client for the finance API.
//
//	financectl [-api URL] <command> [flags]
//
// Commands: login, logout, me, accounts, tx add, tx list, summary.
// Credentials are kept in a cookie file between invocations.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cassiomorais/finance/internal/infrastructure/observability"
	"github.com/cassiomorais/finance/pkg/client"
)

const usage = `usage: financectl [-api URL] [-session FILE] <command> [flags]

commands:
  login    -email E [-password P]    start a session, prompting for the password
  logout                             end the session
  me                                 show the logged-in user
  accounts                           list accounts
  tx add   -account ID -amount N -type income|expense [-category ID] [-desc TEXT] [-date RFC3339]
  tx list  [-account ID] [-type T] [-limit N]
  summary  [-year Y] [-month M] [-account ID]
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := observability.NewConsoleLogger(envOr("FINANCE_LOG_LEVEL", "warn"), os.Stderr)

	if err := run(ctx, os.Args[1:], log); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, log zerolog.Logger) error {
	global := flag.NewFlagSet("financectl", flag.ContinueOnError)
	global.Usage = func() { fmt.Fprint(global.Output(), usage) }
	apiURL := global.String("api", envOr("FINANCE_API_URL", "http://localhost:8080/api/v1"), "API base URL")
	sessionFile := global.String("session", defaultSessionFile(), "cookie file")
	verbose := global.Bool("v", false, "verbose logging")
	if err := global.Parse(args); err != nil {
		return err
	}
	if *verbose {
		log = log.Level(zerolog.DebugLevel)
	}
	if global.NArg() == 0 {
		global.Usage()
		return flag.ErrHelp
	}

	api, err := client.New(*apiURL)
	if err != nil {
		return err
	}
	store := cookieStore{path: *sessionFile, url: *apiURL}
	if err := store.load(api); err != nil {
		log.Debug().Err(err).Str("file", store.path).Msg("no saved session")
	}

	expired := false
	session := client.NewSession(api,
		client.WithLogger(log),
		client.WithOnLoggedOut(func() { expired = true }),
	)

	cmd, rest := global.Arg(0), global.Args()[1:]
	err = dispatch(ctx, cmd, rest, api, session)
	if expired {
		err = errors.New("session expired, run `financectl login`")
	}

	if serr := store.save(api); serr != nil {
		log.Warn().Err(serr).Msg("failed to save session")
	}
	return err
}

func dispatch(ctx context.Context, cmd string, args []string, api *client.Client, s *client.Session) error {
	switch cmd {
	case "login":
		return cmdLogin(ctx, args, s)
	case "logout":
		s.Logout(ctx)
		fmt.Println("logged out")
		return nil
	case "me":
		return requireSession(ctx, s, func() error {
			u := s.User()
			fmt.Printf("%s <%s> confirmed=%t\n", u.Name, u.Email, u.IsConfirmed)
			return nil
		})
	case "accounts":
		return requireSession(ctx, s, func() error { return cmdAccounts(ctx, api, s) })
	case "tx":
		if len(args) == 0 {
			return fmt.Errorf("tx: expected add or list")
		}
		switch args[0] {
		case "add":
			return requireSession(ctx, s, func() error { return cmdTxAdd(ctx, args[1:], api, s) })
		case "list":
			return requireSession(ctx, s, func() error { return cmdTxList(ctx, args[1:], api, s) })
		default:
			return fmt.Errorf("tx: unknown subcommand %q", args[0])
		}
	case "summary":
		return requireSession(ctx, s, func() error { return cmdSummary(ctx, args, api, s) })
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// requireSession validates the saved cookies before fn runs.
func requireSession(ctx context.Context, s *client.Session, fn func() error) error {
	state, err := s.Check(ctx)
	if err != nil {
		return err
	}
	if state != client.StateAuthenticated {
		return errors.New("not logged in, run `financectl login`")
	}
	return fn()
}

func cmdLogin(ctx context.Context, args []string, s *client.Session) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", os.Getenv("FINANCE_PASSWORD"), "password (or FINANCE_PASSWORD, or prompt)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("login: -email is required")
	}
	if *password == "" {
		p, err := readPassword(os.Stdin, os.Stderr)
		if err != nil {
			return fmt.Errorf("login: read password: %w", err)
		}
		*password = p
	}

	u, err := s.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s\n", u.Email)
	return nil
}

func cmdAccounts(ctx context.Context, api *client.Client, s *client.Session) error {
	var accounts []client.Account
	err := s.Do(ctx, func(ctx context.Context) (err error) {
		accounts, err = api.Accounts(ctx)
		return err
	})
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Println("no accounts")
		return nil
	}
	for _, a := range accounts {
		fmt.Printf("%s  %-20s %-8s %12.2f %s\n", a.ID, a.Name, a.Type, a.Balance, a.Currency)
	}
	return nil
}

func cmdTxAdd(ctx context.Context, args []string, api *client.Client, s *client.Session) error {
	fs := flag.NewFlagSet("tx add", flag.ContinueOnError)
	account := fs.String("account", "", "account id")
	amount := fs.Float64("amount", 0, "amount, positive")
	typ := fs.String("type", "expense", "income or expense")
	category := fs.String("category", "", "category id")
	desc := fs.String("desc", "", "description")
	date := fs.String("date", "", "RFC3339 date, defaults to now")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *account == "" {
		return errors.New("tx add: -account is required")
	}

	in := client.NewTransaction{
		Amount:      *amount,
		Type:        *typ,
		AccountID:   *account,
		Description: *desc,
		Date:        *date,
	}
	if *category != "" {
		in.CategoryID = category
	}

	key := uuid.NewString()
	var tx *client.Transaction
	err := s.Do(ctx, func(ctx context.Context) (err error) {
		tx, err = api.CreateTransaction(ctx, in, key)
		return err
	})
	if err != nil {
		return err
	}
	s.SelectAccount(tx.AccountID)
	fmt.Printf("created %s %s %.2f\n", tx.ID, tx.Type, tx.Amount)
	return nil
}

func cmdTxList(ctx context.Context, args []string, api *client.Client, s *client.Session) error {
	fs := flag.NewFlagSet("tx list", flag.ContinueOnError)
	account := fs.String("account", "", "account id")
	typ := fs.String("type", "", "income or expense")
	limit := fs.Int("limit", 20, "maximum rows")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *account != "" {
		s.SelectAccount(*account)
	}
	selected, _ := s.SelectedAccount()

	var txs []client.Transaction
	err := s.Do(ctx, func(ctx context.Context) (err error) {
		txs, err = api.Transactions(ctx, client.TransactionFilter{AccountID: selected, Type: *typ, Limit: *limit})
		return err
	})
	if err != nil {
		return err
	}
	for _, t := range txs {
		fmt.Printf("%s  %s  %-7s %10.2f  %s\n", t.Date.Format("2006-01-02"), t.ID, t.Type, t.Amount, t.Description)
	}
	return nil
}

func cmdSummary(ctx context.Context, args []string, api *client.Client, s *client.Session) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	year := fs.Int("year", 0, "year, defaults to current")
	month := fs.Int("month", 0, "month 1-12, defaults to current")
	account := fs.String("account", "", "restrict to one account")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *account != "" {
		s.SelectAccount(*account)
	}
	selected, _ := s.SelectedAccount()

	var sum *client.Summary
	err := s.Do(ctx, func(ctx context.Context) (err error) {
		sum, err = api.Summary(ctx, *year, *month, selected)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Printf("%04d-%02d\n", sum.Year, sum.Month)
	fmt.Printf("  balance          %12.2f\n", sum.TotalBalance)
	fmt.Printf("  income           %12.2f  (%+.1f%%)\n", sum.Current.Income, sum.IncomeChange)
	fmt.Printf("  expense          %12.2f  (%+.1f%%)\n", sum.Current.Expense, sum.ExpenseChange)
	fmt.Printf("  net              %12.2f\n", sum.Current.Net)
	fmt.Printf("  daily spend      %12.2f\n", sum.DailySpendRate)
	fmt.Printf("  projected spend  %12.2f\n", sum.ProjectedExpense)
	fmt.Printf("  daily budget     %12.2f  (%d days left)\n", sum.RecommendedDailyBudget, sum.DaysRemaining)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".financectl-session.json"
	}
	return filepath.Join(dir, "financectl", "session.json")
}

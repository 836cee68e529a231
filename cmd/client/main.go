package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/emicollect/client/internal/api"
	"github.com/emicollect/client/internal/cache"
	"github.com/emicollect/client/internal/config"
	"github.com/emicollect/client/internal/dashboard"
	"github.com/emicollect/client/internal/database"
	"github.com/emicollect/client/internal/models"
	"github.com/emicollect/client/internal/payment"
	"github.com/emicollect/client/internal/receipt"
	"github.com/emicollect/client/internal/session"
	"github.com/emicollect/client/internal/storage"
)

// terminalNavigator renders session transitions as terminal messages.
// It stands in for the mobile app's route replacement.
type terminalNavigator struct{}

func (terminalNavigator) ToDashboard() {
	fmt.Println("Signed in. Type 'accounts' to view your loans, 'pay' to make a payment.")
}

func (terminalNavigator) ToLogin() {
	fmt.Println("Signed out. Type 'login' or 'register' to continue.")
}

// terminalConfirmer is the explicit confirmation step before a payment
// leaves the device.
type terminalConfirmer struct {
	in *bufio.Reader
}

func (c *terminalConfirmer) ConfirmPayment(formattedAmount, accountNumber string) bool {
	fmt.Printf("Confirm payment of %s for account %s? [y/N]: ", formattedAmount, accountNumber)
	line, err := c.in.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func main() {
	cfg := config.Load()

	db := database.InitDatabase()
	defer db.Close()

	store, err := storage.New(db)
	if err != nil {
		log.Fatalf("Failed to initialize credential store: %v", err)
	}

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	stdin := bufio.NewReader(os.Stdin)

	client := api.New(cfg.APIBaseURL, cfg.HTTPTimeout)
	manager := session.NewManager(client, store, terminalNavigator{})
	client.SetTokenSource(manager)

	accounts := cache.New(redisClient, cfg.CacheTTL)
	board := dashboard.New(client, accounts)
	flow := payment.NewFlow(client, &terminalConfirmer{in: stdin})

	ctx := context.Background()

	fmt.Println("EMI Collection Client")
	fmt.Printf("Backend: %s\n", cfg.APIBaseURL)

	manager.Restore(ctx)
	if !manager.IsAuthenticated() {
		fmt.Println("Type 'login' or 'register' to continue, 'help' for commands.")
	}

	var lastOverview *dashboard.Overview
	var lastReceipt *models.PaymentReceipt

	for {
		fmt.Print("> ")
		line, err := stdin.ReadString('\n')
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		command, args := fields[0], fields[1:]

		switch command {
		case "help":
			printHelp()

		case "login":
			email := prompt(stdin, "Email: ")
			password := promptPassword(stdin, "Password: ")
			if err := manager.Login(ctx, email, password); err != nil {
				fmt.Println("Login failed:", err)
			}

		case "register":
			name := prompt(stdin, "Username: ")
			email := prompt(stdin, "Email: ")
			password := promptPassword(stdin, "Password: ")
			confirm := promptPassword(stdin, "Confirm password: ")
			if password != confirm {
				fmt.Println("Passwords do not match")
				continue
			}
			if err := manager.Register(ctx, name, email, password); err != nil {
				fmt.Println("Registration failed:", err)
			}

		case "whoami":
			current := manager.Current()
			if current.User == nil {
				fmt.Println("Not signed in")
				continue
			}
			fmt.Printf("%s <%s> (%s)\n", current.User.Username, current.User.Email, current.User.Role)
			if exp, ok := session.Expiry(current.Token); ok {
				fmt.Printf("Session expires %s\n", exp.Format("2006-01-02 15:04:05"))
			}

		case "accounts", "refresh":
			current := manager.Current()
			if current.User == nil {
				fmt.Println("Sign in first")
				continue
			}
			load := board.Overview
			if command == "refresh" {
				load = board.Refresh
			}
			overview, err := load(ctx, current.User.ID)
			if err != nil {
				fmt.Println("Failed to load accounts:", err)
				continue
			}
			lastOverview = overview
			printOverview(overview)

		case "pay":
			if !manager.IsAuthenticated() {
				fmt.Println("Sign in first")
				continue
			}
			lastReceipt = runPayment(ctx, stdin, flow, lastOverview, args)
			if lastReceipt != nil {
				current := manager.Current()
				if current.User != nil {
					accounts.Invalidate(ctx, current.User.ID)
				}
			}

		case "receipt":
			if lastReceipt == nil {
				fmt.Println("No payment receipt to save yet")
				continue
			}
			path := "receipt.png"
			if len(args) > 0 {
				path = args[0]
			}
			if err := receipt.SavePNG(*lastReceipt, path); err != nil {
				fmt.Println("Failed to save receipt:", err)
				continue
			}
			fmt.Println("Receipt saved to", path)

		case "logout":
			manager.Logout()
			lastOverview = nil

		case "quit", "exit":
			return

		default:
			fmt.Printf("Unknown command %q, type 'help'\n", command)
		}
	}
}

// runPayment walks one payment through the flow: resolve, adjust,
// confirm, submit. `pay <n>` pays the n-th loan from the last accounts
// listing (the navigation-supplied path); `pay [account-number]` enters
// manual resolution.
func runPayment(ctx context.Context, stdin *bufio.Reader, flow *payment.Flow, overview *dashboard.Overview, args []string) *models.PaymentReceipt {
	flow.Reset()

	if len(args) > 0 {
		if index, err := strconv.Atoi(args[0]); err == nil && overview != nil {
			if index < 1 || index > len(overview.Loans) {
				fmt.Println("No such loan in the last listing")
				return nil
			}
			loan := overview.Loans[index-1]
			flow.Prefill(models.Account{
				AccountNumber: loan.AccountNumber,
				EMIAmount:     loan.EMIDue,
			})
		} else {
			if !resolveAccount(ctx, flow, args[0]) {
				return nil
			}
		}
	} else {
		input := prompt(stdin, "Account number: ")
		if !resolveAccount(ctx, flow, input) {
			return nil
		}
	}

	if account := flow.Account(); account != nil {
		printAccount(account)
	}

	draft := flow.Draft()
	if amount := prompt(stdin, fmt.Sprintf("Payment amount [%s]: ", draft.Amount)); amount != "" {
		flow.SetAmount(amount)
	}
	if method := prompt(stdin, fmt.Sprintf("Method (online/bank_transfer/cheque) [%s]: ", draft.Method)); method != "" {
		flow.SetMethod(method)
	}
	flow.SetRemarks(prompt(stdin, "Remarks (optional): "))

	paid, err := flow.Submit(ctx)
	if err != nil {
		if err == payment.ErrCancelled {
			fmt.Println("Payment cancelled, draft kept")
		} else {
			fmt.Println("Payment failed:", err)
		}
		return nil
	}

	fmt.Println("Payment successful!")
	fmt.Printf("Transaction ID: %s\nAmount: %s\n", paid.TransactionID, paid.PaymentAmount.FormatINR())
	return paid
}

func resolveAccount(ctx context.Context, flow *payment.Flow, input string) bool {
	account, err := flow.EnterAccountNumber(ctx, input)
	if err != nil {
		fmt.Println(err)
		return false
	}
	if account == nil {
		fmt.Println("Account number must be at least 6 characters")
		return false
	}
	return true
}

func printOverview(overview *dashboard.Overview) {
	if overview.LoanCount == 0 {
		fmt.Println("No loan accounts found")
		return
	}
	for i, loan := range overview.Loans {
		fmt.Printf("%d. %s  EMI due %s  (%d months at %s%%, issued %s)\n",
			i+1, loan.AccountNumber, loan.EMIDue.FormatINR(),
			loan.TenureMonths, loan.InterestRate, loan.IssueDate)
	}
	fmt.Printf("Total EMI due: %s across %d loan(s)\n",
		overview.TotalEMIDue.FormatINR(), overview.LoanCount)
	fmt.Println("Type 'pay <n>' to pay a listed loan, or 'pay <account-number>'.")
}

func printAccount(account *models.Account) {
	if account.CustomerName != "" {
		fmt.Println("Account holder:", account.CustomerName)
	}
	fmt.Println("Monthly EMI:", account.EMIAmount.FormatINR())
	if account.OutstandingAmount > 0 {
		fmt.Println("Outstanding:", account.OutstandingAmount.FormatINR())
	}
	if account.EMIDueDate > 0 {
		fmt.Printf("Due date: %d of every month\n", account.EMIDueDate)
	}
	if account.IsOverdue {
		fmt.Println("Payment is OVERDUE")
	}
}

func printHelp() {
	fmt.Println(`Commands:
  login               sign in with email and password
  register            create a new account
  whoami              show the current session
  accounts            list your loan accounts
  refresh             reload accounts, bypassing the cache
  pay [n|account]     make an EMI payment
  receipt [path]      save the last payment receipt as a QR image
  logout              sign out
  quit                exit`)
}

func prompt(stdin *bufio.Reader, label string) string {
	fmt.Print(label)
	line, err := stdin.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

func promptPassword(stdin *bufio.Reader, label string) string {
	fmt.Print(label)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err == nil {
			return string(raw)
		}
	}
	line, err := stdin.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimRight(line, "\r\n")
}

// Command hospital is a terminal client for the hospital backend. It
// drives the full session stack: login (with MFA), permission lookup,
// inactivity tracking and logout.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/sanlucas/hospital/internal/app"
	"github.com/sanlucas/hospital/pkg/activity"
	"github.com/sanlucas/hospital/pkg/identity"
)

// consoleNotifier prints session notifications to the terminal.
type consoleNotifier struct{}

func (consoleNotifier) Success(msg string) { fmt.Printf("[ok] %s\n", msg) }
func (consoleNotifier) Info(msg string)    { fmt.Printf("[info] %s\n", msg) }
func (consoleNotifier) Warning(msg string) { fmt.Printf("[warn] %s\n", msg) }
func (consoleNotifier) Error(msg string)   { fmt.Printf("[error] %s\n", msg) }

// consoleNavigator stands in for SPA routing.
type consoleNavigator struct{}

func (consoleNavigator) NavigateToLogin() { fmt.Println("[nav] -> login") }

func main() {
	cfg := app.LoadConfig()

	application, err := app.New(cfg, consoleNotifier{}, consoleNavigator{})
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	defer func() {
		if err := application.Stop(); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	ctx := context.Background()
	application.Start(ctx)

	if user := application.Identity.CurrentUser(); user != nil {
		fmt.Printf("resumed session for %s\n", user.DisplayName())
	}

	repl(ctx, application)
}

func repl(ctx context.Context, a *app.App) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println(`commands: login <email> <password>, mfa <email> <password> <code>, whoami, perms, extend, logout, quit`)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		// Any typed command counts as user activity.
		a.Activity.Record(activity.EventKeyPress)

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "login":
			if len(fields) != 3 {
				fmt.Println("usage: login <email> <password>")
				continue
			}
			doLogin(ctx, a, identity.Credentials{Email: fields[1], Password: fields[2]})

		case "mfa":
			if len(fields) != 4 {
				fmt.Println("usage: mfa <email> <password> <code>")
				continue
			}
			result, err := a.Identity.CompleteMFA(ctx, identity.Credentials{Email: fields[1], Password: fields[2]}, fields[3])
			if err != nil {
				fmt.Printf("mfa failed: %v\n", err)
				continue
			}
			reportLogin(result)

		case "whoami":
			user := a.Identity.CurrentUser()
			if user == nil {
				fmt.Println("not logged in")
				continue
			}
			fmt.Printf("%s <%s> (session %s, %s elapsed, expires in %d min)\n",
				user.DisplayName(), user.Email,
				a.Activity.CurrentSession().SessionID,
				a.Activity.SessionDurationFormatted(),
				a.Activity.TimeUntilExpiration())

		case "perms":
			role := a.Permissions.UserRole()
			if role == nil {
				fmt.Println("no permissions loaded")
				continue
			}
			fmt.Printf("role: %s\n", role.Name)
			for _, resource := range a.Permissions.AccessibleResources() {
				fmt.Printf("  %s: %s\n", resource, strings.Join(a.Permissions.ResourceActions(resource), ", "))
			}

		case "extend":
			a.Activity.ExtendSession()

		case "logout":
			a.Activity.Logout(ctx)

		case "quit", "exit":
			return

		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}

func doLogin(ctx context.Context, a *app.App, creds identity.Credentials) {
	result, err := a.Identity.Login(ctx, creds)
	if err != nil {
		fmt.Printf("login failed: %v\n", err)
		return
	}
	reportLogin(result)
}

func reportLogin(result *identity.LoginResult) {
	switch result.Status {
	case identity.StatusAuthenticated:
		fmt.Printf("logged in as %s\n", result.User.DisplayName())
	case identity.StatusMFARequired:
		fmt.Println("MFA code required: re-run with `mfa <email> <password> <code>`")
	case identity.StatusMFAEnrollmentRequired:
		fmt.Println("MFA enrollment required; scan this secret into your authenticator:")
		fmt.Printf("  secret: %s\n  url: %s\n", result.Enrollment.Secret, result.Enrollment.QRCodeURL)
		if len(result.Enrollment.BackupCodes) > 0 {
			fmt.Printf("  backup codes: %s\n", strings.Join(result.Enrollment.BackupCodes, " "))
		}
	}
}

// Package client is the interactive console front end: recent calls,
// dial pad, contacts, history and manual sync.
package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/tracklog/tracklog-client/pkg/calllog"
	"github.com/tracklog/tracklog-client/pkg/config"
	"github.com/tracklog/tracklog-client/pkg/contacts"
	"github.com/tracklog/tracklog-client/pkg/models"
	"github.com/tracklog/tracklog-client/pkg/services"
	"github.com/tracklog/tracklog-client/pkg/tlsync"
)

type TrackLog struct {
	rl  *readline.Instance
	svc *services.Service
	opt *config.Options
}

func NewTrackLog(svc *services.Service, opt *config.Options) *TrackLog {
	rl, err := readline.New("> ")
	if err != nil {
		log.Fatal(err)
	}
	return &TrackLog{rl: rl, svc: svc, opt: opt}
}

func (tl *TrackLog) Close() {
	tl.rl.Close()
}

// Run shows the main menu until the user quits or the context ends.
func (tl *TrackLog) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		count := 0
		if res, err := tl.svc.Reconcile(ctx); err == nil {
			count = res.Count
		}

		fmt.Println()
		fmt.Printf("TrackLog  (unsynced: %d)\n", count)
		fmt.Println("1. Recent calls")
		fmt.Println("2. Dial a number")
		fmt.Println("3. Contacts")
		fmt.Println("4. Sync now")
		fmt.Println("5. History")
		fmt.Println("6. Login")
		fmt.Println("7. Quit")

		tl.rl.SetPrompt("Select an option: ")
		choice, err := tl.rl.Readline()
		if err != nil {
			return
		}

		switch strings.TrimSpace(choice) {
		case "1":
			tl.recentCalls(ctx)
		case "2":
			tl.dialPad(ctx)
		case "3":
			tl.contactBook(ctx)
		case "4":
			tl.syncNow(ctx)
		case "5":
			tl.history(ctx)
		case "6":
			tl.login(ctx)
		case "7":
			return
		default:
			fmt.Println("Unknown option!")
		}
	}
}

func callTypeLabel(t models.CallType) string {
	switch t {
	case models.CallIncoming:
		return color.GreenString(string(t))
	case models.CallMissed:
		return color.RedString(string(t))
	case models.CallOutgoing:
		return color.YellowString(string(t))
	}
	return string(t)
}

// sameDay reports whether both instants fall on the same calendar day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (tl *TrackLog) recentCalls(ctx context.Context) {
	entries, err := tl.svc.RecentCalls(ctx)
	if err != nil {
		fmt.Println(color.RedString("Failed to load call list: %v", err))
		return
	}

	tl.rl.SetPrompt("Show today only? (y/N): ")
	answer, _ := tl.rl.Readline()
	if strings.EqualFold(strings.TrimSpace(answer), "y") {
		now := time.Now()
		var today []models.DeviceLogEntry
		for _, e := range entries {
			if sameDay(e.DateTime, now) {
				today = append(today, e)
			}
		}
		entries = today
	}
	if len(entries) == 0 {
		fmt.Println("No calls to show.")
		return
	}

	// Entries still waiting for upload get a * marker.
	pending := make(map[string]bool)
	if res, err := tl.svc.Reconcile(ctx); err == nil {
		for _, item := range res.Batch {
			pending[item.LocalDBID] = true
		}
	}

	for i, e := range entries {
		marker := " "
		if pending[e.LocalID] {
			marker = "*"
		}
		fmt.Printf("%2d.%s %-8s %-15s %-20s %s\n", i+1, marker,
			callTypeLabel(e.Type), e.PhoneNumber, e.DisplayName(),
			e.DateTime.Format(models.DeviceTimeLayout))
	}

	tl.rl.SetPrompt("Entry number to confirm for sync (empty to go back): ")
	line, _ := tl.rl.Readline()
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(entries) {
		fmt.Println("Invalid entry number!")
		return
	}

	if err := tl.svc.ConfirmCall(ctx, entries[n-1]); err != nil {
		fmt.Println(color.RedString("Confirm failed: %v", err))
		return
	}
	fmt.Println(color.GreenString("Call confirmed for sync."))
}

func (tl *TrackLog) dialPad(ctx context.Context) {
	var number string
	for {
		tl.rl.SetPrompt("Enter phone number (empty to go back): ")
		number, _ = tl.rl.Readline()
		number = strings.TrimSpace(number)
		if number == "" {
			return
		}
		if calllog.ValidNumber(number) {
			break
		}
		fmt.Println("Phone number can only contain digits, * # and a leading +!")
	}

	tl.placeCall(ctx, number)
}

func (tl *TrackLog) placeCall(ctx context.Context, number string) {
	if err := tl.svc.PlaceCall(ctx, number); err != nil {
		fmt.Println(color.RedString("Call failed: %v", err))
		return
	}
	fmt.Println(color.GreenString("Calling %s...", number))
}

func (tl *TrackLog) contactBook(ctx context.Context) {
	book, err := contacts.LoadFile(tl.opt.ContactsPath)
	if err != nil {
		fmt.Println(color.RedString("Failed to load contacts: %v", err))
		return
	}
	if len(book) == 0 {
		fmt.Println("No contacts found.")
		return
	}

	tl.rl.SetPrompt("Search (empty for all): ")
	query, _ := tl.rl.Readline()
	found := contacts.Search(book, strings.TrimSpace(query))
	if len(found) == 0 {
		fmt.Println("No matching contacts.")
		return
	}

	for i, c := range found {
		fmt.Printf("%2d. %-25s %s\n", i+1, c.DisplayName, c.PhoneNumber)
	}

	tl.rl.SetPrompt("Contact number to call (empty to go back): ")
	line, _ := tl.rl.Readline()
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(found) {
		fmt.Println("Invalid contact number!")
		return
	}

	tl.placeCall(ctx, found[n-1].PhoneNumber)
}

func (tl *TrackLog) syncNow(ctx context.Context) {
	res, err := tl.svc.Sync(ctx)
	switch {
	case errors.Is(err, services.ErrNothingToSync):
		fmt.Println("Nothing to sync.")
		return
	case errors.Is(err, services.ErrSyncInFlight):
		fmt.Println("A sync is already running.")
		return
	case errors.Is(err, services.ErrNotAuthenticated):
		fmt.Println("Please log in first.")
		return
	case errors.Is(err, tlsync.ErrNetworkUnavailable):
		fmt.Println(color.RedString("Network unavailable, will retry later."))
		return
	case err != nil:
		fmt.Println(color.RedString("Sync failed: %v", err))
		return
	}

	if res.FullSuccess() {
		fmt.Println(color.GreenString("Synced %d call(s).", res.Succeeded))
		return
	}
	fmt.Println(color.YellowString("Synced %d of %d call(s); %d will be retried.",
		res.Succeeded, res.Total, res.Failed))
}

func (tl *TrackLog) history(ctx context.Context) {
	from, ok := tl.readDate("From date (DD-MM-YYYY, empty for today): ", time.Now())
	if !ok {
		return
	}
	to, ok := tl.readDate("To date (DD-MM-YYYY, empty for today): ", time.Now())
	if !ok {
		return
	}

	records, err := tl.svc.History(ctx, from, to)
	if err != nil {
		if errors.Is(err, services.ErrNotAuthenticated) {
			fmt.Println("Please log in first.")
			return
		}
		fmt.Println(color.RedString("Failed to fetch history: %v", err))
		return
	}
	if len(records) == 0 {
		fmt.Println("No history for this range.")
		return
	}

	for _, r := range records {
		fmt.Printf("%-8s %-15s %-20s %s  %ds\n",
			callTypeLabel(models.CallType(r.CallType)),
			r.PhoneNumber, r.Name, r.DateTime, r.Duration)
	}
}

func (tl *TrackLog) readDate(prompt string, fallback time.Time) (time.Time, bool) {
	for {
		tl.rl.SetPrompt(prompt)
		line, err := tl.rl.Readline()
		if err != nil {
			return time.Time{}, false
		}
		line = strings.TrimSpace(line)
		if line == "" {
			return fallback, true
		}
		t, err := time.ParseInLocation(models.HistoryDateLayout, line, time.Local)
		if err == nil {
			return t, true
		}
		fmt.Println("Date must be in the format DD-MM-YYYY!")
	}
}

func (tl *TrackLog) login(ctx context.Context) {
	tl.rl.SetPrompt("Enter username: ")
	username, _ := tl.rl.Readline()
	tl.rl.SetPrompt("Enter password: ")
	tl.rl.Config.EnableMask = true
	password, _ := tl.rl.Readline()
	tl.rl.Config.EnableMask = false

	sess, err := tl.svc.Login(ctx, strings.TrimSpace(username), password)
	if err != nil {
		fmt.Println(color.RedString("Login failed: %v", err))
		return
	}
	fmt.Println(color.GreenString("Logged in as %s.", sess.Name))
}

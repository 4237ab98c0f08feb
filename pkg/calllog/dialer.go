package calllog

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
)

// Dialer places a phone call through the platform bridge.
type Dialer interface {
	Dial(ctx context.Context, number string) error
}

var phoneNumberRe = regexp.MustCompile(`^\+?[0-9*#]+$`)

// ValidNumber reports whether number contains only dial pad characters.
func ValidNumber(number string) bool {
	return phoneNumberRe.MatchString(number)
}

// ExecDialer shells out to the configured dial command (for example the
// termux telephony bridge) with the number as its single argument.
type ExecDialer struct {
	command string
}

func NewExecDialer(command string) *ExecDialer {
	return &ExecDialer{command: command}
}

func (d *ExecDialer) Dial(ctx context.Context, number string) error {
	if number == "" {
		return errors.New("no number to dial")
	}
	if !ValidNumber(number) {
		return fmt.Errorf("invalid phone number %q", number)
	}
	if d.command == "" {
		return errors.New("no dial command configured")
	}

	if out, err := exec.CommandContext(ctx, d.command, number).CombinedOutput(); err != nil {
		return fmt.Errorf("dial %s: %w (%s)", number, err, out)
	}
	return nil
}

// NopDialer accepts every valid number without touching the platform.
// Used in tests and when the client runs without a telephony bridge.
type NopDialer struct{}

func (NopDialer) Dial(_ context.Context, number string) error {
	if !ValidNumber(number) {
		return fmt.Errorf("invalid phone number %q", number)
	}
	return nil
}

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/fitbot/internal/keyring"
)

// TokenSetCmd stores the bot token in the OS keyring
type TokenSetCmd struct {
	Token string `arg:"" optional:"" help:"Bot token from BotFather. Prompted for when omitted."`
}

func (cmd *TokenSetCmd) Run(ctx *Context) error {
	token := strings.TrimSpace(cmd.Token)
	if token == "" {
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Telegram bot token").
					Description("Paste the token BotFather gave you.").
					EchoMode(huh.EchoModePassword).
					Validate(func(s string) error { return keyring.ValidateToken(strings.TrimSpace(s)) }).
					Value(&token),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive form error: %w", err)
		}
	}

	if err := keyring.SetToken(token); err != nil {
		return err
	}
	ctx.printf("✓ Token %s stored in OS keyring\n", keyring.Mask(strings.TrimSpace(token)))
	ctx.println("  'fitbot run' will use it when FITBOT_TOKEN is not set")
	return nil
}

// TokenStatusCmd reports keyring availability and whether a token is stored
type TokenStatusCmd struct{}

func (cmd *TokenStatusCmd) Run(ctx *Context) error {
	if ctx.Config.Token != "" {
		ctx.printf("ℹ Using token from environment: %s\n", keyring.Mask(ctx.Config.Token))
	}
	if !keyring.IsAvailable() {
		ctx.println("❌ OS keyring is not available on this system")
		return errors.New("keyring unavailable")
	}
	ctx.println("✓ OS keyring is available")

	token, err := keyring.GetToken()
	switch {
	case err == nil:
		ctx.printf("✓ Token is stored in keyring: %s\n", keyring.Mask(token))
	case errors.Is(err, keyring.ErrNotFound):
		ctx.println("ℹ No token stored in keyring")
	default:
		return err
	}
	return nil
}

type TokenDeleteCmd struct{}

func (cmd *TokenDeleteCmd) Run(ctx *Context) error {
	if err := keyring.DeleteToken(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no token found in keyring")
		}
		return err
	}
	ctx.println("✓ Token deleted from OS keyring")
	return nil
}

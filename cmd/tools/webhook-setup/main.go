// cmd/tools/webhook-setup/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"deal-intake/internal/common/config"
	commonhttp "deal-intake/internal/common/http"
	"deal-intake/internal/telegram"
)

type options struct {
	configPath  string
	token       string
	url         string
	secret      string
	apiBase     string
	dropPending bool
}

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	cmd := os.Args[1]
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	var opts options
	fs.StringVar(&opts.configPath, "config", "", "Config file (default: config.Load())")
	fs.StringVar(&opts.token, "token", "", "Bot token (overrides config)")
	fs.StringVar(&opts.apiBase, "api", "", "Bot API base URL (overrides config)")
	if cmd == "set" {
		fs.StringVar(&opts.url, "url", "", "Public webhook URL (overrides config)")
		fs.StringVar(&opts.secret, "secret", "", "Webhook secret token (overrides config)")
	}
	if cmd == "set" || cmd == "delete" {
		fs.BoolVar(&opts.dropPending, "drop-pending", false, "Drop updates queued while no webhook was set")
	}

	switch cmd {
	case "set", "delete", "info":
		fs.Parse(os.Args[2:])
	default:
		help()
		os.Exit(1)
	}

	tgCfg, err := resolve(opts)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	client := telegram.NewClient(tgCfg.BotToken, tgCfg.APIBaseURL, commonhttp.NewClient(15*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {
	case "set":
		err = setWebhook(ctx, client, tgCfg, opts.dropPending)
	case "delete":
		err = client.DeleteWebhook(ctx, opts.dropPending)
		if err == nil {
			fmt.Println("Webhook deleted.")
		}
	case "info":
		err = printInfo(ctx, client)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// resolve merges flag values over the loaded configuration. A config that fails
// validation is tolerated when the flags supply everything needed.
func resolve(opts options) (config.TelegramConfig, error) {
	var tg config.TelegramConfig
	var cfg *config.Config
	var err error
	if opts.configPath != "" {
		cfg, err = config.LoadFromFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err == nil {
		tg = cfg.Telegram
	} else if opts.token == "" {
		return tg, fmt.Errorf("load config: %w", err)
	}

	if opts.token != "" {
		tg.BotToken = opts.token
	}
	if opts.url != "" {
		tg.WebhookURL = opts.url
	}
	if opts.secret != "" {
		tg.WebhookSecret = opts.secret
	}
	if opts.apiBase != "" {
		tg.APIBaseURL = opts.apiBase
	}
	if err := telegram.ValidateToken(tg.BotToken); err != nil {
		return tg, err
	}
	return tg, nil
}

func setWebhook(ctx context.Context, client *telegram.Client, cfg config.TelegramConfig, dropPending bool) error {
	if cfg.WebhookURL == "" {
		return fmt.Errorf("webhook url is required (-url or telegram.webhook_url)")
	}
	if !strings.HasPrefix(cfg.WebhookURL, "https://") {
		return fmt.Errorf("webhook url must use https: %s", cfg.WebhookURL)
	}
	if err := client.SetWebhook(ctx, cfg.WebhookURL, cfg.WebhookSecret, dropPending); err != nil {
		return err
	}
	fmt.Printf("Webhook set to %s (secret: %t)\n", cfg.WebhookURL, cfg.WebhookSecret != "")
	return nil
}

func printInfo(ctx context.Context, client *telegram.Client) error {
	me, err := client.GetMe(ctx)
	if err != nil {
		return err
	}
	info, err := client.GetWebhookInfo(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Bot:             @%s (id %d)\n", me.Username, me.ID)
	if info.URL == "" {
		fmt.Println("Webhook:         (not set)")
	} else {
		fmt.Printf("Webhook:         %s\n", info.URL)
	}
	fmt.Printf("Pending updates: %d\n", info.PendingUpdateCount)
	if len(info.AllowedUpdates) > 0 {
		fmt.Printf("Allowed updates: %s\n", strings.Join(info.AllowedUpdates, ", "))
	}
	if info.LastErrorMessage != "" {
		fmt.Printf("Last error:      %s (%s)\n", info.LastErrorMessage,
			time.Unix(info.LastErrorDate, 0).Format(time.RFC3339))
	}
	return nil
}

func help() {
	fmt.Print(`
Usage: webhook-setup <command> [flags]

Commands:
  set     Register the webhook URL and secret with Telegram
  delete  Remove the webhook
  info    Show the bot identity and current webhook status

Examples:
  webhook-setup set -url https://deals.example.com/api/telegram -secret s3cret
  webhook-setup delete -drop-pending
  webhook-setup info -config configs/config.yaml

Use 'webhook-setup <command> -h' for more information about a command.
`)
}

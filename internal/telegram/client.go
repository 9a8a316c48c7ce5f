package telegram

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"deal-intake/internal/common/config"
	apperrors "deal-intake/internal/common/errors"
	commonhttp "deal-intake/internal/common/http"
	"deal-intake/internal/models"
)

const DefaultBaseURL = "https://api.telegram.org"

// AllowedUpdates are the update kinds the webhook subscribes to.
var AllowedUpdates = []string{"message", "edited_message", "callback_query"}

var tokenPattern = regexp.MustCompile(`^\d{5,}:[A-Za-z0-9_-]{30,}$`)

// ValidateToken checks the shape of a BotFather token without calling the API.
func ValidateToken(token string) error {
	if token == "" {
		return fmt.Errorf("bot token is empty")
	}
	if !tokenPattern.MatchString(token) {
		return fmt.Errorf("bot token has an unexpected format")
	}
	return nil
}

// Client calls the Bot API at <base>/bot<token>/<method>.
type Client struct {
	token   string
	baseURL string
	http    *commonhttp.Client
}

func NewClient(token, baseURL string, httpClient *commonhttp.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = commonhttp.NewClient(10 * time.Second)
	}
	return &Client{token: token, baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func NewClientFromConfig(cfg config.TelegramConfig) *Client {
	return NewClient(cfg.BotToken, cfg.APIBaseURL, commonhttp.NewClient(config.GetDuration(cfg.Timeout)))
}

func (c *Client) call(ctx context.Context, method string, payload, result interface{}) error {
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	resp, err := c.http.DoJSON(ctx, http.MethodPost, url, nil, payload)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}

	var body apiResponse
	if err := resp.Decode(&body); err != nil {
		return apperrors.NewTelegramAPIError(method, resp.StatusCode, "malformed response")
	}
	if !body.OK {
		status := body.ErrorCode
		if status == 0 {
			status = resp.StatusCode
		}
		return apperrors.NewTelegramAPIError(method, status, body.Description)
	}
	if result != nil && len(body.Result) > 0 {
		r := commonhttp.Response{StatusCode: resp.StatusCode, Body: body.Result}
		if err := r.Decode(result); err != nil {
			return fmt.Errorf("telegram %s: %w", method, err)
		}
	}
	return nil
}

// SendMessage posts text to chatID. markup may be nil.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) (*models.Message, error) {
	var msg models.Message
	err := c.call(ctx, "sendMessage", sendMessageRequest{ChatID: chatID, Text: text, ReplyMarkup: markup}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// Reply posts text as a reply to messageID.
func (c *Client) Reply(ctx context.Context, chatID, messageID int64, text string) (*models.Message, error) {
	var msg models.Message
	err := c.call(ctx, "sendMessage", sendMessageRequest{ChatID: chatID, Text: text, ReplyToMessageID: messageID}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, markup *InlineKeyboardMarkup) error {
	return c.call(ctx, "editMessageText", editMessageTextRequest{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ReplyMarkup: markup,
	}, nil)
}

func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	return c.call(ctx, "deleteMessage", deleteMessageRequest{ChatID: chatID, MessageID: messageID}, nil)
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	return c.call(ctx, "answerCallbackQuery", answerCallbackRequest{CallbackQueryID: callbackID, Text: text}, nil)
}

func (c *Client) SetWebhook(ctx context.Context, url, secret string, dropPending bool) error {
	return c.call(ctx, "setWebhook", setWebhookRequest{
		URL:                url,
		SecretToken:        secret,
		AllowedUpdates:     AllowedUpdates,
		DropPendingUpdates: dropPending,
	}, nil)
}

func (c *Client) DeleteWebhook(ctx context.Context, dropPending bool) error {
	return c.call(ctx, "deleteWebhook", deleteWebhookRequest{DropPendingUpdates: dropPending}, nil)
}

func (c *Client) GetWebhookInfo(ctx context.Context) (*WebhookInfo, error) {
	var info WebhookInfo
	if err := c.call(ctx, "getWebhookInfo", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) GetMe(ctx context.Context) (*Bot, error) {
	var me Bot
	if err := c.call(ctx, "getMe", nil, &me); err != nil {
		return nil, err
	}
	return &me, nil
}

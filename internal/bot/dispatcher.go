package bot

import (
	"context"
	"strings"
	"time"

	"deal-intake/internal/common/config"
	apperrors "deal-intake/internal/common/errors"
	"deal-intake/internal/common/logger"
	"deal-intake/internal/common/metrics"
	"deal-intake/internal/common/observability"
	"deal-intake/internal/models"
	"deal-intake/internal/notify"
	"deal-intake/internal/session"
	"deal-intake/internal/telegram"
	parsedelimited "deal-intake/internal/workers/deals/parse-delimited"
	parsefreetext "deal-intake/internal/workers/deals/parse-freetext"
	routemessage "deal-intake/internal/workers/deals/route-message"
	submitdeals "deal-intake/internal/workers/deals/submit-deals"
)

// Messenger is the part of the Bot API the dispatcher talks to.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) (*models.Message, error)
	EditMessageText(ctx context.Context, chatID, messageID int64, text string, markup *telegram.InlineKeyboardMarkup) error
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
}

type Config struct {
	MaxMessageLength int
	StaleAfter       time.Duration
	WarningPause     time.Duration
	ChunkSize        int
}

func ConfigFromPipeline(p config.PipelineConfig) *Config {
	return &Config{
		MaxMessageLength: p.MaxMessageLength,
		StaleAfter:       p.StaleAfter(),
		WarningPause:     config.GetDuration(p.WarningPause),
		ChunkSize:        p.MessageChunkSize,
	}
}

func defaultConfig() *Config {
	return &Config{
		MaxMessageLength: 10000,
		StaleAfter:       30 * time.Second,
		WarningPause:     3 * time.Second,
		ChunkSize:        telegram.MaxMessageLength,
	}
}

// Deps are the collaborators a Dispatcher needs. Notifier and Observability may be nil.
type Deps struct {
	Messenger     Messenger
	Sessions      session.Store
	Locker        session.Locker
	Router        *routemessage.Handler
	Delimited     *parsedelimited.Handler
	FreeText      *parsefreetext.Handler
	Submitter     *submitdeals.Handler
	Notifier      notify.Notifier
	Observability *observability.Observability
	Logger        logger.Logger
}

// Dispatcher handles one webhook update start to finish.
type Dispatcher struct {
	config *Config
	deps   Deps
	logger logger.Logger
	errors *apperrors.ErrorHandler
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration)
}

func NewDispatcher(cfg *Config, deps Deps) *Dispatcher {
	if cfg == nil {
		cfg = defaultConfig()
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = telegram.MaxMessageLength
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Noop{}
	}
	log := deps.Logger.WithFields(map[string]interface{}{"component": "dispatcher"})
	return &Dispatcher{
		config: cfg,
		deps:   deps,
		logger: log,
		errors: apperrors.NewErrorHandler(log),
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Handle processes one update. Pipeline failures are reported to the user and logged; the
// returned error is reserved for failures the user could not be told about.
func (d *Dispatcher) Handle(ctx context.Context, u *models.Update) error {
	start := d.now()
	chatID := u.ChatID()
	if chatID == 0 {
		d.drop("no_chat")
		return nil
	}
	sid := u.SessionID()
	log := logger.ForSession(d.logger, sid)

	if d.dropIfStale(u.Message, start, log) {
		return nil
	}

	lockStart := time.Now()
	unlock, err := d.deps.Locker.Lock(ctx, sid)
	metrics.SessionLockWait.Observe(time.Since(lockStart).Seconds())
	if err != nil {
		std := d.errors.Handle(sid, err)
		d.send(ctx, chatID, apperrors.UserMessage(std), nil)
		return nil
	}
	metrics.ActiveSessions.Inc()
	defer func() {
		unlock()
		metrics.ActiveSessions.Dec()
	}()
	log.Debug("session lock acquired", map[string]interface{}{"updateKind": u.Kind()})

	// Waiting on the lock can age a message past the cutoff.
	if d.dropIfStale(u.Message, d.now(), log) {
		return nil
	}

	if u.Message != nil {
		if cmd, ok := u.Message.Command(); ok {
			return d.handleCommand(ctx, cmd, u.Message, sid)
		}
	}

	state, err := d.deps.Sessions.Get(ctx, sid)
	if err != nil {
		d.errors.Handle(sid, err)
		return err
	}

	routed, err := d.deps.Router.Execute(ctx, &routemessage.Input{Update: u, State: state})
	if err != nil {
		return err
	}
	decision := routed.Decision

	status := "ok"
	switch decision.Flow {
	case routemessage.FlowSimple:
		err = d.handleSimple(ctx, u, decision, log)
	case routemessage.FlowComplex:
		err = d.handleComplex(ctx, u, decision, state, log)
	default:
		d.handleInvalid(ctx, u, decision)
	}
	if err != nil {
		status = "error"
		std := d.errors.Handle(sid, err)
		if _, sendErr := d.send(ctx, chatID, apperrors.UserMessage(std), nil); sendErr != nil {
			return err
		}
	}

	if saveErr := d.persist(ctx, state); saveErr != nil {
		d.errors.Handle(sid, saveErr)
		return saveErr
	}

	flow := string(decision.Flow)
	d.deps.Observability.RecordUpdateProcessed(ctx, flow, status)
	d.deps.Observability.RecordUpdateDuration(ctx, d.now().Sub(start), flow)
	return nil
}

func (d *Dispatcher) dropIfStale(msg *models.Message, at time.Time, log logger.Logger) bool {
	if msg == nil || d.config.StaleAfter <= 0 || at.Sub(msg.Time()) <= d.config.StaleAfter {
		return false
	}
	d.drop("stale")
	log.Info("dropping stale message", map[string]interface{}{
		"messageId": msg.MessageID,
		"ageMs":     at.Sub(msg.Time()).Milliseconds(),
	})
	return true
}

// persist saves a session with work in progress and forgets an idle one.
func (d *Dispatcher) persist(ctx context.Context, state *models.ConversationState) error {
	if state.Mode() == models.ModeIdle && !state.HasPending() {
		return d.deps.Sessions.Delete(ctx, state.SessionID)
	}
	return d.deps.Sessions.Save(ctx, state)
}

func (d *Dispatcher) drop(reason string) {
	metrics.UpdatesDropped.WithLabelValues(reason).Inc()
	d.deps.Observability.RecordUpdateProcessed(context.Background(), "dropped", reason)
}

func (d *Dispatcher) handleCommand(ctx context.Context, cmd string, msg *models.Message, sid string) error {
	chatID := msg.Chat.ID
	var reply string
	switch cmd {
	case "start":
		reply = msgWelcome
	case "help":
		reply = msgHelp
	case "format", "prompt":
		reply = msgFormatGuide
	case "cancel":
		if err := d.deps.Sessions.Delete(ctx, sid); err != nil {
			d.errors.Handle(sid, err)
			return err
		}
		reply = msgCancelled
	default:
		reply = msgUnknownCommand
	}
	_, err := d.send(ctx, chatID, reply, nil)
	d.deps.Observability.RecordUpdateProcessed(ctx, "command", cmd)
	return err
}

func (d *Dispatcher) handleInvalid(ctx context.Context, u *models.Update, decision routemessage.Decision) {
	if u.Message == nil || decision.Reason != routemessage.ReasonClassified {
		return
	}
	d.send(ctx, u.Message.Chat.ID, msgInvalidFormat, nil)
}

// send posts text, splitting it when it exceeds the chunk size. The first message is returned.
func (d *Dispatcher) send(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) (*models.Message, error) {
	chunks := telegram.SplitMessage(text, d.config.ChunkSize)
	var first *models.Message
	for i, chunk := range chunks {
		var mk *telegram.InlineKeyboardMarkup
		if i == len(chunks)-1 {
			mk = markup
		}
		msg, err := d.deps.Messenger.SendMessage(ctx, chatID, chunk, mk)
		if err != nil {
			d.logger.Error("failed to send message", map[string]interface{}{
				"chatId": chatID,
				"error":  err.Error(),
			})
			return first, err
		}
		if first == nil {
			first = msg
		}
	}
	return first, nil
}

// edit replaces a status message. Edit failures (e.g. unchanged text) are logged only.
func (d *Dispatcher) edit(ctx context.Context, chatID, messageID int64, text string, markup *telegram.InlineKeyboardMarkup) {
	if messageID == 0 {
		d.send(ctx, chatID, text, markup)
		return
	}
	if err := d.deps.Messenger.EditMessageText(ctx, chatID, messageID, text, markup); err != nil {
		d.logger.Warn("failed to edit message", map[string]interface{}{
			"chatId":    chatID,
			"messageId": messageID,
			"error":     err.Error(),
		})
	}
}

// replace puts text into the status message, or posts it as new messages and removes the
// status message when it is too long for one.
func (d *Dispatcher) replace(ctx context.Context, chatID, messageID int64, text string) {
	if len([]rune(text)) <= d.config.ChunkSize {
		d.edit(ctx, chatID, messageID, text, nil)
		return
	}
	if _, err := d.send(ctx, chatID, text, nil); err != nil {
		return
	}
	if messageID != 0 {
		if err := d.deps.Messenger.DeleteMessage(ctx, chatID, messageID); err != nil {
			d.logger.Warn("failed to delete status message", map[string]interface{}{"messageId": messageID, "error": err.Error()})
		}
	}
}

func (d *Dispatcher) answer(ctx context.Context, cb *models.CallbackQuery, text string) {
	if err := d.deps.Messenger.AnswerCallbackQuery(ctx, cb.ID, text); err != nil {
		d.logger.Warn("failed to answer callback", map[string]interface{}{"callbackId": cb.ID, "error": err.Error()})
	}
}

func (d *Dispatcher) notifyFailures(ctx context.Context, sid string, out *submitdeals.Output, total int, failures []string) {
	if len(failures) == 0 {
		return
	}
	report := notify.Report{SessionID: sid, Total: total, Failures: failures}
	if out != nil {
		report.BatchID = out.BatchID
		report.Submitted = out.Submitted
	}
	if err := d.deps.Notifier.NotifyFailures(ctx, report); err != nil {
		d.logger.Warn("failure report not sent", map[string]interface{}{
			"sessionId": sid,
			"errorCode": string(apperrors.CodeOf(err)),
			"error":     err.Error(),
		})
	}
}

func joinBlocks(blocks []string) string {
	return strings.Join(blocks, "\n")
}

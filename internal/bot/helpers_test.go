package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"deal-intake/internal/common/logger"
	"deal-intake/internal/models"
	"deal-intake/internal/notify"
	"deal-intake/internal/session"
	"deal-intake/internal/store"
	"deal-intake/internal/telegram"
	parsedelimited "deal-intake/internal/workers/deals/parse-delimited"
	parsefreetext "deal-intake/internal/workers/deals/parse-freetext"
	routemessage "deal-intake/internal/workers/deals/route-message"
	submitdeals "deal-intake/internal/workers/deals/submit-deals"
	"deal-intake/pkg/registry"
)

const (
	chatID    = int64(501)
	validLine = "TIER1-FTD Company-UK|IE|NL-Native-Facebook|Google-cpa_crg-1200-0.10-&-QuantumAI-&-0.05"
)

// noPriceLine matches the delimited shape but has no CPA for a cpa deal.
const noPriceLine = "TIER1-Acme-DE-de-Facebook-cpa-&-&-&-QuantumAI-&-&"

type outgoing struct {
	id     int64
	text   string
	markup *telegram.InlineKeyboardMarkup
}

type fakeMessenger struct {
	mu      sync.Mutex
	nextID  int64
	sent    []outgoing
	edits   []outgoing
	deleted []int64
	answers []string
}

func (f *fakeMessenger) SendMessage(ctx context.Context, chat int64, text string, markup *telegram.InlineKeyboardMarkup) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.sent = append(f.sent, outgoing{id: f.nextID, text: text, markup: markup})
	return &models.Message{MessageID: f.nextID, Chat: models.Chat{ID: chat}, Text: text}, nil
}

func (f *fakeMessenger) EditMessageText(ctx context.Context, chat, messageID int64, text string, markup *telegram.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, outgoing{id: messageID, text: text, markup: markup})
	return nil
}

func (f *fakeMessenger) DeleteMessage(ctx context.Context, chat, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

func (f *fakeMessenger) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakeMessenger) lastSent() outgoing {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return outgoing{}
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeMessenger) lastEdit() outgoing {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.edits) == 0 {
		return outgoing{}
	}
	return f.edits[len(f.edits)-1]
}

func (f *fakeMessenger) editTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.edits))
	for i, e := range f.edits {
		out[i] = e.text
	}
	return out
}

type fakeRecords struct {
	mu      sync.Mutex
	calls   []models.Attributes
	respond func(n int) (store.Result, error)
}

func (f *fakeRecords) Name() string                  { return "notion" }
func (f *fakeRecords) Ping(ctx context.Context) error { return nil }

func (f *fakeRecords) Submit(ctx context.Context, records []models.Attributes) ([]store.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Result
	for _, r := range records {
		f.calls = append(f.calls, r)
		if f.respond == nil {
			out = append(out, store.Result{OK: true, ExternalID: fmt.Sprintf("page-%d", len(f.calls))})
			continue
		}
		res, err := f.respond(len(f.calls))
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}

type fakeNotifier struct {
	reports []notify.Report
}

func (f *fakeNotifier) NotifyFailures(ctx context.Context, r notify.Report) error {
	f.reports = append(f.reports, r)
	return nil
}

type harness struct {
	d        *Dispatcher
	msgr     *fakeMessenger
	records  *fakeRecords
	sessions *session.MemoryStore
	notifier *fakeNotifier
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.NewTestLogger(t)
	reg, err := registry.LoadRegistry("../../configs/geo-registry.json")
	require.NoError(t, err)

	h := &harness{
		msgr:     &fakeMessenger{nextID: 100},
		records:  &fakeRecords{},
		sessions: session.NewMemoryStore(time.Hour),
		notifier: &fakeNotifier{},
	}
	h.d = NewDispatcher(&Config{
		MaxMessageLength: 10000,
		StaleAfter:       30 * time.Second,
		ChunkSize:        telegram.MaxMessageLength,
	}, Deps{
		Messenger: h.msgr,
		Sessions:  h.sessions,
		Locker:    session.NewMemoryLocker(),
		Router:    routemessage.NewHandler(nil, log),
		Delimited: parsedelimited.NewHandler(nil, log),
		FreeText:  parsefreetext.NewHandlerWithRegistry(nil, log, reg),
		Submitter: submitdeals.NewHandler(&submitdeals.Config{}, h.records, log),
		Notifier:  h.notifier,
		Logger:    log,
	})
	h.d.sleep = func(context.Context, time.Duration) {}
	return h
}

func (h *harness) text(t *testing.T, text string) {
	t.Helper()
	require.NoError(t, h.d.Handle(context.Background(), textUpdate(text, time.Now())))
}

func (h *harness) press(t *testing.T, messageID int64, data string) {
	t.Helper()
	require.NoError(t, h.d.Handle(context.Background(), callbackUpdate(messageID, data)))
}

func (h *harness) state(t *testing.T) *models.ConversationState {
	t.Helper()
	st, err := h.sessions.Get(context.Background(), fmt.Sprint(chatID))
	require.NoError(t, err)
	return st
}

func textUpdate(text string, at time.Time) *models.Update {
	return &models.Update{
		UpdateID: 1,
		Message: &models.Message{
			MessageID: 10,
			Date:      at.Unix(),
			Text:      text,
			Chat:      models.Chat{ID: chatID},
		},
	}
}

func callbackUpdate(messageID int64, data string) *models.Update {
	return &models.Update{
		UpdateID: 2,
		CallbackQuery: &models.CallbackQuery{
			ID:      "cb-1",
			From:    models.User{ID: chatID},
			Data:    data,
			Message: &models.Message{MessageID: messageID, Chat: models.Chat{ID: chatID}},
		},
	}
}

func lines(ls ...string) string {
	return strings.Join(ls, "\n")
}

func buttonData(m *telegram.InlineKeyboardMarkup) []string {
	var out []string
	if m == nil {
		return out
	}
	for _, row := range m.InlineKeyboard {
		for _, b := range row {
			out = append(out, b.CallbackData)
		}
	}
	return out
}

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePricingModel(t *testing.T) {
	tests := []struct {
		token string
		want  PricingModel
		known bool
	}{
		{"cpa", PricingCPA, true},
		{"CPA_CRG", PricingCPACRG, true},
		{" cpl ", PricingCPL, true},
		{"cpa+crg", PricingCPACRG, true},
		{"CPA/CRG", PricingCPACRG, true},
		{"revshare", PricingModel("revshare"), false},
		{"", PricingModel(""), false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got := ParsePricingModel(tt.token)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, got.Known())
		})
	}

	assert.Equal(t, "CPA+CRG", PricingCPACRG.Label())
	assert.Equal(t, "unknown", PricingModel("").Label())
}

func TestKnownRegion(t *testing.T) {
	assert.True(t, KnownRegion("TIER1"))
	assert.True(t, KnownRegion("latam"))
	assert.False(t, KnownRegion("APAC"))
}

func TestDealRecord_Clone(t *testing.T) {
	orig := DealRecord{Partner: "Acme", CPA: Float(1200), Funnels: []string{"A"}, CR: String("8%")}
	cp := orig.Clone()
	*cp.CPA = 1
	cp.Funnels[0] = "B"
	*cp.CR = "x"

	assert.Equal(t, 1200.0, *orig.CPA)
	assert.Equal(t, "A", orig.Funnels[0])
	assert.Equal(t, "8%", *orig.CR)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "&", FormatAmount(nil))
	assert.Equal(t, "1200", FormatAmount(Float(1200)))
	assert.Equal(t, "0.1", FormatAmount(Float(0.10)))
	assert.Equal(t, "13%", FormatPercent(Float(0.13)))
	assert.Equal(t, "-", FormatPercent(nil))
}

func TestAttributes_Accessors(t *testing.T) {
	a := Attributes{
		AttrCompanyName: "Acme",
		AttrCPA:         1200.0,
		AttrCRG:         nil,
		AttrFunnels:     []string{"QuantumAI"},
	}
	assert.Equal(t, "Acme", a.String(AttrCompanyName))
	assert.Equal(t, 1200.0, *a.Amount(AttrCPA))
	assert.Nil(t, a.Amount(AttrCRG))
	assert.Equal(t, []string{"QuantumAI"}, a.Funnels())
}

func TestUpdate_Decode(t *testing.T) {
	raw := `{"update_id":5,"callback_query":{"id":"q1","from":{"id":77},"data":"next_0",
		"message":{"message_id":9,"date":1700000000,"chat":{"id":501},"text":"card",
		"reply_to_message":{"message_id":8,"date":1699999990,"chat":{"id":501},"text":"Partner: Acme"}}}}`

	var u Update
	require.NoError(t, json.Unmarshal([]byte(raw), &u))
	assert.True(t, u.IsCallback())
	assert.Equal(t, int64(501), u.ChatID())
	assert.Equal(t, "501", u.SessionID())
	assert.Equal(t, "callback", u.Kind())
	assert.Equal(t, "Partner: Acme", u.CallbackQuery.Message.ReplyToMessage.Text)
}

func TestUpdate_ChatIDFallbacks(t *testing.T) {
	assert.Equal(t, int64(3), (&Update{CallbackQuery: &CallbackQuery{From: User{ID: 3}}}).ChatID())
	assert.Equal(t, int64(4), (&Update{EditedMessage: &Message{Chat: Chat{ID: 4}}}).ChatID())
	assert.Equal(t, int64(0), (&Update{}).ChatID())
	assert.Equal(t, "other", (&Update{}).Kind())
}

func TestMessage_Command(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"/start", "start", true},
		{"/help@DealParserBot", "help", true},
		{"  /Cancel now", "cancel", true},
		{"TIER1-...", "", false},
		{"/", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := (&Message{Text: tt.text}).Command()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConversationState_Lifecycle(t *testing.T) {
	now := time.Unix(1700000000, 0)
	s := NewConversationState("42", now)
	assert.Equal(t, ModeIdle, s.Mode())
	assert.False(t, s.HasPending())

	s.PendingDeals = []DealRecord{{Partner: "Acme"}}
	s.StartEditing(0, "geo")
	assert.Equal(t, ModeEditing, s.Mode())
	assert.True(t, s.HasPending())

	s.StopEditing()
	assert.Equal(t, ModeIdle, s.Mode())

	s.ReviewMessageID = 9
	s.Reset()
	assert.False(t, s.HasPending())
	assert.Zero(t, s.ReviewMessageID)
	assert.Equal(t, "42", s.SessionID)

	assert.False(t, s.Expired(now.Add(10*time.Minute), 30*time.Minute))
	assert.True(t, s.Expired(now.Add(31*time.Minute), 30*time.Minute))
	assert.False(t, s.Expired(now.Add(time.Hour), 0))

	var nilState *ConversationState
	assert.Equal(t, ModeIdle, nilState.Mode())
}

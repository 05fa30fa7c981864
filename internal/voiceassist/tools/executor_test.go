package tools

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"voicedesk-server/internal/availability"
	"voicedesk-server/internal/observability"
	"voicedesk-server/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBusinessStore struct {
	products      []store.Product
	productsTotal int
	searchErr     error
	lastFilter    store.ProductFilter

	faqs    []store.FAQ
	faqsErr error

	createdLead *store.Lead
	createErr   error

	bookedAppointment *store.Appointment
	bookedLead        *store.Lead
	bookErr           error
}

func (f *fakeBusinessStore) SearchProducts(_ context.Context, _ uuid.UUID, filter store.ProductFilter) ([]store.Product, int, error) {
	f.lastFilter = filter
	return f.products, f.productsTotal, f.searchErr
}

func (f *fakeBusinessStore) GetFAQs(_ context.Context, _ uuid.UUID) ([]store.FAQ, error) {
	return f.faqs, f.faqsErr
}

func (f *fakeBusinessStore) CreateLead(_ context.Context, _ store.Lead) (*store.Lead, error) {
	return f.createdLead, f.createErr
}

func (f *fakeBusinessStore) BookAppointment(_ context.Context, _ store.Lead, _, _ string) (*store.Appointment, *store.Lead, error) {
	return f.bookedAppointment, f.bookedLead, f.bookErr
}

type fakeSlotService struct {
	days     []availability.DaySlots
	listErr  error
	free     bool
	checkErr error
}

func (f *fakeSlotService) ListFreeSlots(_ context.Context, _ uuid.UUID, _, _ string) ([]availability.DaySlots, error) {
	return f.days, f.listErr
}

func (f *fakeSlotService) IsSlotFree(_ context.Context, _ uuid.UUID, _, _ string) (bool, error) {
	return f.free, f.checkErr
}

type fakeMailSender struct {
	sent    int
	subject string
	err     error
}

func (f *fakeMailSender) SendEmail(_ context.Context, _, _, subject, _ string) (string, error) {
	f.sent++
	f.subject = subject
	return "email-id", f.err
}

func newTestExecutor(bs *fakeBusinessStore, slots *fakeSlotService, mail *fakeMailSender) *Executor {
	return NewExecutor(bs, slots, mail, "noreply@example.com", "owner@example.com", observability.NewLogger())
}

func TestExecuteUnknownTool(t *testing.T) {
	e := newTestExecutor(&fakeBusinessStore{}, &fakeSlotService{}, nil)
	res := e.Execute(context.Background(), uuid.New(), Call{Name: "teleport"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "unknown tool")
}

func TestSearchProducts(t *testing.T) {
	bs := &fakeBusinessStore{
		products: []store.Product{{
			Name:       "Walnut Desk",
			PriceCents: 24999,
			Currency:   "USD",
			InStock:    true,
		}},
		productsTotal: 12,
	}
	e := newTestExecutor(bs, &fakeSlotService{}, nil)

	res := e.Execute(context.Background(), uuid.New(), Call{
		Name:      NameCatalogSearch,
		Arguments: `{"query":"desk","max_price":300.50,"page":2}`,
	})

	require.True(t, res.Success)
	assert.Equal(t, int64(30050), bs.lastFilter.MaxPriceCents)
	assert.Equal(t, 5, bs.lastFilter.Limit)
	assert.Equal(t, 5, bs.lastFilter.Offset)

	data := res.Data.(map[string]interface{})
	assert.Equal(t, 12, data["total"])
	assert.Equal(t, 2, data["page"])
	assert.Equal(t, true, data["hasMore"])

	views := data["products"].([]productView)
	require.Len(t, views, 1)
	assert.Equal(t, 249.99, views[0].Price)
}

func TestSearchProductsStoreFailure(t *testing.T) {
	bs := &fakeBusinessStore{searchErr: errors.New("db down")}
	e := newTestExecutor(bs, &fakeSlotService{}, nil)

	res := e.Execute(context.Background(), uuid.New(), Call{
		Name:      NameCatalogSearch,
		Arguments: `{"query":"desk"}`,
	})

	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestSearchKnowledgeBaseRanksByOverlap(t *testing.T) {
	bs := &fakeBusinessStore{faqs: []store.FAQ{
		{Question: "What are your opening hours?", Answer: "We open at 9am on weekdays."},
		{Question: "Do you ship internationally?", Answer: "Yes, shipping takes 5-7 days."},
		{Question: "What payment methods do you accept?", Answer: "Card and bank transfer."},
	}}
	e := newTestExecutor(bs, &fakeSlotService{}, nil)

	res := e.Execute(context.Background(), uuid.New(), Call{
		Name:      NameKnowledgeBase,
		Arguments: `{"query":"what are your opening hours"}`,
	})

	require.True(t, res.Success)
	entries := res.Data.(map[string]interface{})["entries"].([]map[string]string)
	require.NotEmpty(t, entries)
	assert.Equal(t, "What are your opening hours?", entries[0]["question"])
}

func TestSearchKnowledgeBaseNoMatches(t *testing.T) {
	bs := &fakeBusinessStore{faqs: []store.FAQ{
		{Question: "Do you ship internationally?", Answer: "Yes."},
	}}
	e := newTestExecutor(bs, &fakeSlotService{}, nil)

	res := e.Execute(context.Background(), uuid.New(), Call{
		Name:      NameKnowledgeBase,
		Arguments: `{"query":"warranty period"}`,
	})

	require.True(t, res.Success)
	assert.Equal(t, "no knowledge base entries matched", res.Message)
}

func TestSearchKnowledgeBaseRequiresQuery(t *testing.T) {
	e := newTestExecutor(&fakeBusinessStore{}, &fakeSlotService{}, nil)
	res := e.Execute(context.Background(), uuid.New(), Call{
		Name:      NameKnowledgeBase,
		Arguments: `{"query":"  "}`,
	})
	assert.False(t, res.Success)
}

func TestCaptureLeadRequiresContactChannel(t *testing.T) {
	e := newTestExecutor(&fakeBusinessStore{}, &fakeSlotService{}, nil)
	res := e.Execute(context.Background(), uuid.New(), Call{
		Name:      NameLeadCapture,
		Arguments: `{"name":"Sam"}`,
	})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "contact channel")
}

func TestCaptureLeadNotifiesBusiness(t *testing.T) {
	leadID := uuid.New()
	bs := &fakeBusinessStore{createdLead: &store.Lead{
		ID:    leadID,
		Email: sql.NullString{String: "sam@example.com", Valid: true},
	}}
	mail := &fakeMailSender{}
	e := newTestExecutor(bs, &fakeSlotService{}, mail)

	res := e.Execute(context.Background(), uuid.New(), Call{
		Name:      NameLeadCapture,
		Arguments: `{"name":"Sam","email":"sam@example.com"}`,
	})

	require.True(t, res.Success)
	assert.Equal(t, leadID.String(), res.Data.(map[string]interface{})["leadId"])
	assert.Equal(t, 1, mail.sent)
	assert.Equal(t, "New lead captured", mail.subject)
}

func TestCaptureLeadSucceedsWhenNotificationFails(t *testing.T) {
	bs := &fakeBusinessStore{createdLead: &store.Lead{ID: uuid.New()}}
	mail := &fakeMailSender{err: errors.New("mail provider down")}
	e := newTestExecutor(bs, &fakeSlotService{}, mail)

	res := e.Execute(context.Background(), uuid.New(), Call{
		Name:      NameLeadCapture,
		Arguments: `{"phone":"+15551234"}`,
	})

	assert.True(t, res.Success)
}

func TestListSlots(t *testing.T) {
	slots := &fakeSlotService{days: []availability.DaySlots{
		{Date: "2025-06-02", Slots: []string{"09:00", "09:30"}},
	}}
	e := newTestExecutor(&fakeBusinessStore{}, slots, nil)

	res := e.Execute(context.Background(), uuid.New(), Call{
		Name:      NameListSlots,
		Arguments: `{"from_date":"2025-06-02","to_date":"2025-06-06"}`,
	})

	require.True(t, res.Success)
	days := res.Data.(map[string]interface{})["days"].([]availability.DaySlots)
	require.Len(t, days, 1)
	assert.Equal(t, []string{"09:00", "09:30"}, days[0].Slots)
}

func TestBookAppointmentRejectsTakenSlot(t *testing.T) {
	e := newTestExecutor(&fakeBusinessStore{}, &fakeSlotService{free: false}, nil)

	res := e.Execute(context.Background(), uuid.New(), Call{
		Name:      NameBookAppointment,
		Arguments: `{"date":"2025-06-02","time":"09:00","email":"sam@example.com"}`,
	})

	assert.False(t, res.Success)
	assert.Equal(t, "Time slot already booked", res.Error)
}

func TestBookAppointmentRaceReportsTakenSlot(t *testing.T) {
	bs := &fakeBusinessStore{bookErr: store.ErrSlotTaken}
	e := newTestExecutor(bs, &fakeSlotService{free: true}, nil)

	res := e.Execute(context.Background(), uuid.New(), Call{
		Name:      NameBookAppointment,
		Arguments: `{"date":"2025-06-02","time":"09:00","phone":"+15551234"}`,
	})

	assert.False(t, res.Success)
	assert.Equal(t, "Time slot already booked", res.Error)
}

func TestBookAppointmentSuccess(t *testing.T) {
	apptID := uuid.New()
	bs := &fakeBusinessStore{
		bookedAppointment: &store.Appointment{ID: apptID, Date: "2025-06-02", StartTime: "09:00"},
		bookedLead:        &store.Lead{ID: uuid.New()},
	}
	mail := &fakeMailSender{}
	e := newTestExecutor(bs, &fakeSlotService{free: true}, mail)

	res := e.Execute(context.Background(), uuid.New(), Call{
		Name:      NameBookAppointment,
		Arguments: `{"date":"2025-06-02","time":"09:00","name":"Sam","email":"sam@example.com"}`,
	})

	require.True(t, res.Success)
	data := res.Data.(map[string]interface{})
	assert.Equal(t, apptID.String(), data["appointmentId"])
	assert.Equal(t, "2025-06-02", data["date"])
	assert.Equal(t, "09:00", data["time"])
	assert.Equal(t, "New appointment booked", mail.subject)
}

func TestBookAppointmentRequiresContactChannel(t *testing.T) {
	e := newTestExecutor(&fakeBusinessStore{}, &fakeSlotService{free: true}, nil)

	res := e.Execute(context.Background(), uuid.New(), Call{
		Name:      NameBookAppointment,
		Arguments: `{"date":"2025-06-02","time":"09:00"}`,
	})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "contact channel")
}

func TestResultModelPayload(t *testing.T) {
	r := Result{Success: true, Message: "ok"}
	assert.JSONEq(t, `{"success":true,"message":"ok"}`, r.ModelPayload())
}

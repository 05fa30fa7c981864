package tools

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"voicedesk-server/internal/availability"
	"voicedesk-server/internal/observability"
	"voicedesk-server/internal/store"

	"github.com/google/uuid"
)

// BusinessStore is the store surface the executor needs.
type BusinessStore interface {
	SearchProducts(ctx context.Context, tenantID uuid.UUID, filter store.ProductFilter) ([]store.Product, int, error)
	GetFAQs(ctx context.Context, tenantID uuid.UUID) ([]store.FAQ, error)
	CreateLead(ctx context.Context, lead store.Lead) (*store.Lead, error)
	BookAppointment(ctx context.Context, lead store.Lead, date, startTime string) (*store.Appointment, *store.Lead, error)
}

// SlotService exposes the availability computation.
type SlotService interface {
	ListFreeSlots(ctx context.Context, tenantID uuid.UUID, from, to string) ([]availability.DaySlots, error)
	IsSlotFree(ctx context.Context, tenantID uuid.UUID, date, startTime string) (bool, error)
}

// MailSender notifies the business about captured leads.
type MailSender interface {
	SendEmail(ctx context.Context, from, to, subject, htmlContent string) (string, error)
}

// Executor dispatches tool invocations. Failures come back as structured
// Results so the dialogue can recover conversationally; Execute itself only
// errors on unknown tools.
type Executor struct {
	store       BusinessStore
	slots       SlotService
	mail        MailSender
	notifyEmail string // business ops inbox for lead notifications
	sender      string
	logger      *observability.Logger
}

func NewExecutor(store BusinessStore, slots SlotService, mail MailSender, sender, notifyEmail string,
	logger *observability.Logger) *Executor {
	return &Executor{
		store:       store,
		slots:       slots,
		mail:        mail,
		notifyEmail: notifyEmail,
		sender:      sender,
		logger:      logger,
	}
}

// Select implements the per-utterance subset heuristic.
func (e *Executor) Select(utterance string) []string {
	return Select(utterance)
}

func (e *Executor) Execute(ctx context.Context, tenantID uuid.UUID, call Call) Result {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "tool", Value: call.Name},
		observability.Field{Key: "tenant_id", Value: tenantID.String()},
	)

	switch call.Name {
	case NameCatalogSearch:
		return e.searchProducts(ctx, tenantID, call.Arguments)
	case NameKnowledgeBase:
		return e.searchKnowledgeBase(ctx, tenantID, call.Arguments)
	case NameLeadCapture:
		return e.captureLead(ctx, tenantID, call.Arguments)
	case NameListSlots:
		return e.listSlots(ctx, tenantID, call.Arguments)
	case NameBookAppointment:
		return e.bookAppointment(ctx, tenantID, call.Arguments)
	default:
		e.logger.Warn(ctx, fmt.Sprintf("unknown tool requested: %s", call.Name))
		return Result{Success: false, Error: fmt.Sprintf("unknown tool %q", call.Name)}
	}
}

type productView struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	InStock     bool    `json:"inStock"`
}

func (e *Executor) searchProducts(ctx context.Context, tenantID uuid.UUID, args string) Result {
	var params struct {
		Query    string  `json:"query"`
		MaxPrice float64 `json:"max_price"`
		MinPrice float64 `json:"min_price"`
		Page     int     `json:"page"`
	}
	if err := json.Unmarshal([]byte(args), &params); err != nil {
		return Result{Success: false, Error: "invalid search arguments"}
	}

	const pageSize = 5
	page := params.Page
	if page < 1 {
		page = 1
	}
	filter := store.ProductFilter{
		Query:         params.Query,
		MaxPriceCents: int64(math.Round(params.MaxPrice * 100)),
		MinPriceCents: int64(math.Round(params.MinPrice * 100)),
		Limit:         pageSize,
		Offset:        (page - 1) * pageSize,
	}

	products, total, err := e.store.SearchProducts(ctx, tenantID, filter)
	if err != nil {
		e.logger.Error(ctx, "product search failed", err)
		return Result{Success: false, Error: "product search is unavailable right now"}
	}

	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, productView{
			Name:        p.Name,
			Description: p.Description.String,
			Price:       float64(p.PriceCents) / 100,
			Currency:    p.Currency,
			ImageURL:    p.ImageURL.String,
			InStock:     p.InStock,
		})
	}

	return Result{
		Success: true,
		Message: fmt.Sprintf("%d matching products", total),
		Data: map[string]interface{}{
			"products": views,
			"total":    total,
			"page":     page,
			"hasMore":  page*pageSize < total,
		},
	}
}

func (e *Executor) searchKnowledgeBase(ctx context.Context, tenantID uuid.UUID, args string) Result {
	var params struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal([]byte(args), &params); err != nil || strings.TrimSpace(params.Query) == "" {
		return Result{Success: false, Error: "a query is required"}
	}

	faqs, err := e.store.GetFAQs(ctx, tenantID)
	if err != nil {
		e.logger.Error(ctx, "knowledge base lookup failed", err)
		return Result{Success: false, Error: "the knowledge base is unavailable right now"}
	}

	type scored struct {
		faq   store.FAQ
		score int
	}
	queryWords := significantWords(params.Query)
	var matches []scored
	for _, faq := range faqs {
		score := keywordScore(queryWords, faq.Question+" "+faq.Answer)
		if score > 0 {
			matches = append(matches, scored{faq: faq, score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })
	if len(matches) > 3 {
		matches = matches[:3]
	}

	if len(matches) == 0 {
		return Result{Success: true, Message: "no knowledge base entries matched", Data: map[string]interface{}{"entries": []interface{}{}}}
	}

	entries := make([]map[string]string, 0, len(matches))
	for _, m := range matches {
		entries = append(entries, map[string]string{"question": m.faq.Question, "answer": m.faq.Answer})
	}
	return Result{Success: true, Data: map[string]interface{}{"entries": entries}}
}

func significantWords(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	var words []string
	for _, f := range fields {
		if len(f) > 3 {
			words = append(words, f)
		}
	}
	return words
}

func keywordScore(queryWords []string, text string) int {
	lower := strings.ToLower(text)
	score := 0
	for _, w := range queryWords {
		if strings.Contains(lower, w) {
			score++
		}
	}
	return score
}

type leadParams struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Note  string `json:"note"`
}

func (p leadParams) toLead(tenantID uuid.UUID) store.Lead {
	return store.Lead{
		TenantID: tenantID,
		Name:     nullable(p.Name),
		Email:    nullable(p.Email),
		Phone:    nullable(p.Phone),
		Note:     nullable(p.Note),
	}
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: strings.TrimSpace(s) != ""}
}

func (e *Executor) captureLead(ctx context.Context, tenantID uuid.UUID, args string) Result {
	var params leadParams
	if err := json.Unmarshal([]byte(args), &params); err != nil {
		return Result{Success: false, Error: "invalid lead arguments"}
	}
	if strings.TrimSpace(params.Email) == "" && strings.TrimSpace(params.Phone) == "" {
		return Result{Success: false, Error: "at least one contact channel (email or phone) is required"}
	}

	lead, err := e.store.CreateLead(ctx, params.toLead(tenantID))
	if err != nil {
		e.logger.Error(ctx, "lead capture failed", err)
		return Result{Success: false, Error: "could not save the contact details"}
	}

	e.notifyLead(ctx, lead, "New lead captured", "")

	return Result{
		Success: true,
		Message: "contact details recorded",
		Data:    map[string]interface{}{"leadId": lead.ID.String()},
	}
}

func (e *Executor) listSlots(ctx context.Context, tenantID uuid.UUID, args string) Result {
	var params struct {
		FromDate string `json:"from_date"`
		ToDate   string `json:"to_date"`
	}
	if err := json.Unmarshal([]byte(args), &params); err != nil {
		return Result{Success: false, Error: "invalid date range arguments"}
	}

	days, err := e.slots.ListFreeSlots(ctx, tenantID, params.FromDate, params.ToDate)
	if err != nil {
		e.logger.Error(ctx, "slot listing failed", err)
		return Result{Success: false, Error: "could not load availability for that range"}
	}
	return Result{Success: true, Data: map[string]interface{}{"days": days}}
}

func (e *Executor) bookAppointment(ctx context.Context, tenantID uuid.UUID, args string) Result {
	var params struct {
		leadParams
		Date string `json:"date"`
		Time string `json:"time"`
	}
	if err := json.Unmarshal([]byte(args), &params); err != nil {
		return Result{Success: false, Error: "invalid booking arguments"}
	}
	if strings.TrimSpace(params.Email) == "" && strings.TrimSpace(params.Phone) == "" {
		return Result{Success: false, Error: "at least one contact channel (email or phone) is required"}
	}

	free, err := e.slots.IsSlotFree(ctx, tenantID, params.Date, params.Time)
	if err != nil {
		e.logger.Error(ctx, "slot check failed", err)
		return Result{Success: false, Error: "could not verify the slot"}
	}
	if !free {
		return Result{Success: false, Error: "Time slot already booked"}
	}

	appointment, lead, err := e.store.BookAppointment(ctx, params.toLead(tenantID), params.Date, params.Time)
	if err != nil {
		if errors.Is(err, store.ErrSlotTaken) {
			// Lost the race between the check and the insert.
			return Result{Success: false, Error: "Time slot already booked"}
		}
		e.logger.Error(ctx, "booking failed", err)
		return Result{Success: false, Error: "could not book the appointment"}
	}

	e.notifyLead(ctx, lead, "New appointment booked",
		fmt.Sprintf("<p>Booked for %s at %s.</p>", appointment.Date, appointment.StartTime))

	return Result{
		Success: true,
		Message: fmt.Sprintf("appointment booked for %s at %s", appointment.Date, appointment.StartTime),
		Data: map[string]interface{}{
			"appointmentId": appointment.ID.String(),
			"date":          appointment.Date,
			"time":          appointment.StartTime,
		},
	}
}

func (e *Executor) notifyLead(ctx context.Context, lead *store.Lead, subject, extra string) {
	if e.mail == nil || e.notifyEmail == "" {
		return
	}
	body := fmt.Sprintf("<p>Name: %s<br>Email: %s<br>Phone: %s<br>Note: %s</p>%s",
		lead.Name.String, lead.Email.String, lead.Phone.String, lead.Note.String, extra)
	if _, err := e.mail.SendEmail(ctx, e.sender, e.notifyEmail, subject, body); err != nil {
		// Notification failure never fails the tool call.
		e.logger.Error(ctx, "failed to send lead notification", err)
	}
}

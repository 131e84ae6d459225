package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shiva/tripplanner/internal/catalog"
	"github.com/shiva/tripplanner/internal/model"
)

// SystemPrompt frames the external model as a trip planner that only
// emits itinerary JSON.
const SystemPrompt = `You are a vacation planning assistant. Build a day-by-day itinerary that
respects the traveller's budget, trip length and free calendar dates, using only
destinations from the supplied catalog. Respond with a single JSON object with
fields trip_id, destination, start_date, end_date (YYYY-MM-DD), days (each with
date and activities: time_of_day, title, description, cost_estimate,
booking_required) and budget_summary (total_estimated, breakdown with flight,
hotel, activities). Do not include any other text.`

const userInstruction = "Return a valid TripPlan JSON object only (no prose). Input:\n"

// DefaultOllamaTimeout bounds the single chat call per plan request.
const DefaultOllamaTimeout = 30 * time.Second

// MaxResponseBytes caps the chat response body read from Ollama.
const MaxResponseBytes = 4 << 20

// OllamaConfig configures the external-service backend.
type OllamaConfig struct {
	Host       string
	Model      string
	Timeout    time.Duration
	WindowDays int
}

// Ollama delegates plan generation to an Ollama chat endpoint and parses
// the JSON itinerary it returns.
type Ollama struct {
	host       string
	model      string
	windowDays int
	httpClient *http.Client
	maxBody    int64

	Now   func() time.Time
	NewID func() string
}

// NewOllama creates the backend with a bounded HTTP timeout.
func NewOllama(cfg OllamaConfig) *Ollama {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultOllamaTimeout
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = DefaultSearchWindowDays
	}
	return &Ollama{
		host:       strings.TrimRight(cfg.Host, "/"),
		model:      cfg.Model,
		windowDays: cfg.WindowDays,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxBody:    MaxResponseBytes,
		Now:        time.Now,
		NewID:      uuid.NewString,
	}
}

func (o *Ollama) Name() string { return "ollama" }

// ─── Wire types ─────────────────────────────────────────────

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Format   string        `json:"format,omitempty"`
}

type chatResponse struct {
	Message *chatMessage `json:"message"`
}

type planRequirements struct {
	BudgetMax float64 `json:"budget_max"`
	MinDays   int     `json:"min_days"`
	MaxDays   int     `json:"max_days"`
}

type planInput struct {
	Preferences  model.Preferences     `json:"preferences"`
	Catalog      []catalog.Destination `json:"catalog"`
	CalendarFree [][2]string           `json:"calendar_free"`
	Requirements planRequirements      `json:"requirements"`
}

// wirePlan mirrors TripPlan with pointers so missing fields are detectable.
type wirePlan struct {
	TripID        string      `json:"trip_id"`
	Destination   string      `json:"destination"`
	StartDate     *model.Date `json:"start_date"`
	EndDate       *model.Date `json:"end_date"`
	Days          []wireDay   `json:"days"`
	BudgetSummary *wireBudget `json:"budget_summary"`
}

type wireDay struct {
	Date       *model.Date    `json:"date"`
	Activities []wireActivity `json:"activities"`
}

type wireActivity struct {
	TimeOfDay       string   `json:"time_of_day"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	CostEstimate    *float64 `json:"cost_estimate"`
	BookingRequired bool     `json:"booking_required"`
}

type wireBudget struct {
	TotalEstimated float64            `json:"total_estimated"`
	Breakdown      map[string]float64 `json:"breakdown"`
}

// ─── Generate ───────────────────────────────────────────────

// Generate sends one chat request and converts the reply into a TripPlan.
func (o *Ollama) Generate(ctx context.Context, pc *Context) (*model.TripPlan, error) {
	body, err := o.buildRequest(pc)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", ErrGeneration, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrUpstream, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		log.Printf("[planner] ollama request failed: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, o.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("[planner] ollama returned HTTP %d", resp.StatusCode)
		return nil, fmt.Errorf("%w: HTTP %d", ErrUpstream, resp.StatusCode)
	}
	if int64(len(raw)) > o.maxBody {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", ErrMalformedResponse, o.maxBody)
	}

	var chat chatResponse
	if err := json.Unmarshal(raw, &chat); err != nil {
		return nil, fmt.Errorf("%w: decode chat response: %w", ErrMalformedResponse, err)
	}
	if chat.Message == nil {
		return nil, fmt.Errorf("%w: chat response has no message", ErrMalformedResponse)
	}

	var wp wirePlan
	if err := json.Unmarshal([]byte(stripFence(chat.Message.Content)), &wp); err != nil {
		log.Printf("[planner] invalid JSON from model: %.200s", chat.Message.Content)
		return nil, fmt.Errorf("%w: model output is not JSON: %w", ErrMalformedResponse, err)
	}

	plan, err := o.toDomain(wp, pc.UserID, o.maxSpanDays(pc.Preferences))
	if err != nil {
		return nil, err
	}
	log.Printf("[planner] ollama plan %s for user %s to %s", plan.TripID, plan.UserID, plan.Destination)
	return plan, nil
}

func (o *Ollama) buildRequest(pc *Context) ([]byte, error) {
	prefs := pc.Preferences
	input := planInput{
		Preferences:  prefs,
		Catalog:      pc.Catalog.Snapshot(),
		CalendarFree: o.calendarHint(pc),
		Requirements: planRequirements{
			BudgetMax: prefs.BudgetMax,
			MinDays:   prefs.MinDurationDays,
			MaxDays:   prefs.MaxDurationDays,
		},
	}
	block, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	return json.Marshal(chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt},
			{Role: "user", Content: userInstruction + string(block)},
		},
		Stream: false,
		Format: "json",
	})
}

// calendarHint lists free ranges within the requested dates, or the
// search window from today when no dates were given.
func (o *Ollama) calendarHint(pc *Context) [][2]string {
	today := model.DateOf(o.Now())
	start, end := today, today.AddDays(o.windowDays)
	if pc.Preferences.StartDate != nil {
		start = *pc.Preferences.StartDate
	}
	if pc.Preferences.EndDate != nil {
		end = *pc.Preferences.EndDate
	}

	ranges := pc.Calendar.FreeRanges(pc.UserID, start, end)
	hint := make([][2]string, 0, len(ranges))
	for _, r := range ranges {
		hint = append(hint, [2]string{r.Start.String(), r.End.String()})
	}
	return hint
}

// maxSpanDays bounds the trip length accepted from the model: the
// requested maximum duration, widened to a fixed date range when one was
// given, and never beyond the search window.
func (o *Ollama) maxSpanDays(prefs model.Preferences) int {
	limit := o.windowDays
	if prefs.MaxDurationDays > 0 && prefs.MaxDurationDays < limit {
		limit = prefs.MaxDurationDays
	}
	if prefs.HasFixedDates() {
		if n := prefs.StartDate.DaysUntil(*prefs.EndDate) + 1; n > limit {
			limit = n
		}
	}
	return limit
}

func (o *Ollama) toDomain(wp wirePlan, userID string, maxDays int) (*model.TripPlan, error) {
	switch {
	case strings.TrimSpace(wp.Destination) == "":
		return nil, fmt.Errorf("%w: missing destination", ErrMalformedResponse)
	case wp.StartDate == nil || wp.EndDate == nil:
		return nil, fmt.Errorf("%w: missing start_date or end_date", ErrMalformedResponse)
	case wp.EndDate.Before(*wp.StartDate):
		return nil, fmt.Errorf("%w: end_date before start_date", ErrMalformedResponse)
	case wp.StartDate.DaysUntil(*wp.EndDate)+1 > maxDays:
		return nil, fmt.Errorf("%w: trip spans %d days, limit is %d",
			ErrMalformedResponse, wp.StartDate.DaysUntil(*wp.EndDate)+1, maxDays)
	case wp.Days == nil:
		return nil, fmt.Errorf("%w: missing days", ErrMalformedResponse)
	}

	days := make([]model.DayPlan, 0, len(wp.Days))
	for i, wd := range wp.Days {
		if wd.Date == nil {
			return nil, fmt.Errorf("%w: day %d has no date", ErrMalformedResponse, i)
		}
		acts := make([]model.Activity, 0, len(wd.Activities))
		for j, wa := range wd.Activities {
			if wa.CostEstimate == nil || *wa.CostEstimate < 0 {
				return nil, fmt.Errorf("%w: day %d activity %d has no valid cost_estimate", ErrMalformedResponse, i, j)
			}
			acts = append(acts, model.Activity{
				TimeOfDay:       normalizeSlot(wa.TimeOfDay),
				Title:           wa.Title,
				Description:     wa.Description,
				CostEstimate:    *wa.CostEstimate,
				BookingRequired: wa.BookingRequired,
			})
		}
		days = append(days, model.DayPlan{Date: *wd.Date, Activities: acts})
	}

	budget := model.BudgetSummary{Breakdown: map[string]float64{}}
	if wp.BudgetSummary != nil {
		budget.TotalEstimated = wp.BudgetSummary.TotalEstimated
		for k, v := range wp.BudgetSummary.Breakdown {
			budget.Breakdown[k] = v
		}
	}

	tripID := wp.TripID
	if tripID == "" {
		tripID = o.NewID()
	}
	return &model.TripPlan{
		TripID:        tripID,
		UserID:        userID,
		Destination:   wp.Destination,
		StartDate:     *wp.StartDate,
		EndDate:       *wp.EndDate,
		Days:          days,
		BudgetSummary: budget,
	}, nil
}

func normalizeSlot(s string) model.TimeOfDay {
	if s == "" {
		return model.Morning
	}
	return firstSlot(s)
}

// stripFence removes a surrounding ``` or ```json fence some models add
// despite the instruction.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

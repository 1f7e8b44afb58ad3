//go:build unit

package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	domainbooking "fleetbook/internal/domain/booking"
	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/handler/api"
	"fleetbook/internal/pkg/errs"
	"fleetbook/internal/usecase/commands"
	"fleetbook/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type stubBookingCommands struct {
	entity *domainbooking.Booking
	err    error

	lastParams    commands.CheckoutParams
	lastBookingID uuid.UUID
	lastStatus    domainbooking.Status
}

func (s *stubBookingCommands) Checkout(_ context.Context, params commands.CheckoutParams) (*domainbooking.Booking, error) {
	s.lastParams = params
	if s.err != nil {
		return nil, s.err
	}
	return s.entity, nil
}

func (s *stubBookingCommands) ChangeDates(_ context.Context, bookingID uuid.UUID, _, _ time.Time) (*domainbooking.Booking, error) {
	s.lastBookingID = bookingID
	if s.err != nil {
		return nil, s.err
	}
	return s.entity, nil
}

func (s *stubBookingCommands) ChangeStatus(_ context.Context, bookingID uuid.UUID, target domainbooking.Status) (*domainbooking.Booking, error) {
	s.lastBookingID = bookingID
	s.lastStatus = target
	if s.err != nil {
		return nil, s.err
	}
	return s.entity, nil
}

func (s *stubBookingCommands) AddAddOn(_ context.Context, bookingID uuid.UUID, _ uuid.UUID, _ int) (*domainbooking.Booking, error) {
	s.lastBookingID = bookingID
	if s.err != nil {
		return nil, s.err
	}
	return s.entity, nil
}

func (s *stubBookingCommands) RemoveAddOn(_ context.Context, bookingID, _ uuid.UUID) (*domainbooking.Booking, error) {
	s.lastBookingID = bookingID
	if s.err != nil {
		return nil, s.err
	}
	return s.entity, nil
}

type stubBookingQueries struct {
	view *queries.BookingView
	err  error
}

func (s *stubBookingQueries) GetBooking(_ context.Context, _ uuid.UUID) (*queries.BookingView, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.view, nil
}

func (s *stubBookingQueries) GetLedger(_ context.Context, _ uuid.UUID) ([]*queries.LedgerEntryView, error) {
	return nil, nil
}

func stubEntity(s *suite.Suite) *domainbooking.Booking {
	period, err := domainbooking.NewPeriod(
		time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC),
	)
	s.Require().NoError(err)
	contact, err := domainbooking.NewContact("Jordan Reyes", "jordan@example.com", "")
	s.Require().NoError(err)
	notes, err := domainbooking.NewNotes("")
	s.Require().NoError(err)

	pickup := uuid.New()
	entity, err := domainbooking.NewBooking(
		nil, uuid.New(), pickup, pickup,
		period, pricing.AgeBandStandard, pricing.ProtectionNone,
		contact, notes, "",
		&pricing.Breakdown{DailyRateCents: 6000, SubtotalCents: 18750, TaxCents: 2250, TotalCents: 21000, DepositCents: 21000},
	)
	s.Require().NoError(err)
	return entity
}

func stubView(entity *domainbooking.Booking) *queries.BookingView {
	return &queries.BookingView{
		ID:         entity.ID(),
		Reference:  entity.Reference(),
		TotalCents: entity.TotalCents(),
		Status:     entity.Status().String(),
	}
}

type BookingHandlerTestSuite struct {
	suite.Suite
	router  *gin.Engine
	stub    *stubBookingCommands
	queries *stubBookingQueries
}

func (s *BookingHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	entity := stubEntity(&s.Suite)
	s.stub = &stubBookingCommands{entity: entity}
	s.queries = &stubBookingQueries{view: stubView(entity)}

	handler := api.NewBookingHandler(s.stub, s.queries)
	s.router.POST("/bookings", handler.CreateBooking)
	s.router.PATCH("/bookings/:id/status", handler.ChangeStatus)
}

func (s *BookingHandlerTestSuite) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func createBookingBody(clientTotalCents int64) string {
	return `{
		"quote": {
			"vehicleId": "` + uuid.New().String() + `",
			"startAt": "2025-06-02T10:00:00Z",
			"endAt": "2025-06-05T10:00:00Z",
			"driverAgeBand": "standard",
			"pickupLocationId": "` + uuid.New().String() + `"
		},
		"clientTotalCents": ` + jsonInt(clientTotalCents) + `,
		"contact": {"name": "Jordan Reyes", "email": "jordan@example.com"}
	}`
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func (s *BookingHandlerTestSuite) TestCreateBookingSuccess() {
	w := s.do(http.MethodPost, "/bookings", createBookingBody(21000))

	s.Equal(http.StatusCreated, w.Code)
	s.Equal(int64(21000), s.stub.lastParams.ClientTotalCents)
	s.Equal("Jordan Reyes", s.stub.lastParams.ContactName)

	var resp struct {
		Reference  string `json:"reference"`
		TotalCents int64  `json:"totalCents"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal(s.queries.view.Reference, resp.Reference)
	s.Equal(int64(21000), resp.TotalCents)
}

func (s *BookingHandlerTestSuite) TestCreateBookingPriceMismatchCarriesServerTotal() {
	s.stub.err = &commands.PriceMismatchError{ClientTotalCents: 19000, ServerTotalCents: 21000}

	w := s.do(http.MethodPost, "/bookings", createBookingBody(19000))

	s.Equal(http.StatusConflict, w.Code)

	var resp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Detail struct {
			ServerTotalCents int64 `json:"serverTotalCents"`
		} `json:"detail"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("Quoted price no longer valid", resp.Error.Message)
	s.Equal(int64(21000), resp.Detail.ServerTotalCents)
}

func (s *BookingHandlerTestSuite) TestCreateBookingRejectsMalformedBody() {
	w := s.do(http.MethodPost, "/bookings", `{"quote": {}}`)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *BookingHandlerTestSuite) TestChangeStatusPassesTargetThrough() {
	bookingID := s.stub.entity.ID()

	w := s.do(http.MethodPatch, "/bookings/"+bookingID.String()+"/status", `{"status": "confirmed"}`)

	s.Equal(http.StatusOK, w.Code)
	s.Equal(bookingID, s.stub.lastBookingID)
	s.Equal(domainbooking.StatusConfirmed, s.stub.lastStatus)
}

func (s *BookingHandlerTestSuite) TestChangeStatusConflict() {
	s.stub.err = errs.Mark(errs.New("booking lifecycle does not admit completed"), errs.ErrInvalidStateTransition)

	w := s.do(http.MethodPatch, "/bookings/"+uuid.New().String()+"/status", `{"status": "completed"}`)

	s.Equal(http.StatusConflict, w.Code)
}

func (s *BookingHandlerTestSuite) TestChangeStatusRequiresStatus() {
	w := s.do(http.MethodPatch, "/bookings/"+uuid.New().String()+"/status", `{}`)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *BookingHandlerTestSuite) TestChangeStatusRejectsBadID() {
	w := s.do(http.MethodPatch, "/bookings/not-a-uuid/status", `{"status": "confirmed"}`)
	s.Equal(http.StatusBadRequest, w.Code)
}

func TestBookingHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(BookingHandlerTestSuite))
}

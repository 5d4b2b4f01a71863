package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arklim/registration-gate/internal/core/domain"
	"github.com/arklim/registration-gate/internal/repository"
)

type mockPendingRepository struct {
	createErr     error
	createCalls   int
	createdRecord domain.PendingRegistration

	existsResult bool
	existsErr    error
	existsCalls  int
	existsEmail  string
	existsPhone  string

	getByIDResult *domain.PendingRegistration
	getByIDErr    error

	deleteOlderResult int64
	deleteOlderErr    error
	deleteOlderCalls  int
	deleteOlderCutoff time.Time
}

func (m *mockPendingRepository) Create(_ context.Context, pending domain.PendingRegistration) error {
	m.createCalls++
	m.createdRecord = pending
	return m.createErr
}

func (m *mockPendingRepository) GetByID(_ context.Context, _ string) (*domain.PendingRegistration, error) {
	if m.getByIDResult != nil {
		copy := *m.getByIDResult
		return &copy, m.getByIDErr
	}
	return nil, m.getByIDErr
}

func (m *mockPendingRepository) ExistsByContact(_ context.Context, email, phone string) (bool, error) {
	m.existsCalls++
	m.existsEmail = email
	m.existsPhone = phone
	return m.existsResult, m.existsErr
}

func (m *mockPendingRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	m.deleteOlderCalls++
	m.deleteOlderCutoff = cutoff
	return m.deleteOlderResult, m.deleteOlderErr
}

type mockUserRepository struct {
	existsResult bool
	existsErr    error
	existsCalls  int
}

func (m *mockUserRepository) GetByID(context.Context, string) (*domain.User, error) {
	return nil, errors.New("unexpected call: GetByID")
}

func (m *mockUserRepository) ExistsByContact(_ context.Context, _, _ string) (bool, error) {
	m.existsCalls++
	return m.existsResult, m.existsErr
}

type mockApprovalStore struct {
	promoteResult *domain.User
	promoteErr    error
	promoteCalls  int
	promoteID     string
	promoteUserID string
	promoteAt     time.Time

	discardResult *domain.PendingRegistration
	discardErr    error
	discardCalls  int
	discardID     string
}

func (m *mockApprovalStore) Promote(_ context.Context, pendingID, userID string, at time.Time) (*domain.User, error) {
	m.promoteCalls++
	m.promoteID = pendingID
	m.promoteUserID = userID
	m.promoteAt = at
	if m.promoteResult != nil {
		copy := *m.promoteResult
		return &copy, m.promoteErr
	}
	return nil, m.promoteErr
}

func (m *mockApprovalStore) Discard(_ context.Context, pendingID string) (*domain.PendingRegistration, error) {
	m.discardCalls++
	m.discardID = pendingID
	if m.discardResult != nil {
		copy := *m.discardResult
		return &copy, m.discardErr
	}
	return nil, m.discardErr
}

type mockNotifier struct {
	notifyErr    error
	notifyCalls  int
	notifiedWith domain.PendingRegistration

	editErr   error
	editCalls int
}

func (m *mockNotifier) NotifyPending(_ context.Context, pending domain.PendingRegistration) error {
	m.notifyCalls++
	m.notifiedWith = pending
	return m.notifyErr
}

func (m *mockNotifier) EditDecision(_ context.Context, _ int64, _ int, _ string) error {
	m.editCalls++
	return m.editErr
}

type mockMailer struct {
	sendErr   error
	sendCalls int
	sentTo    domain.User
}

func (m *mockMailer) SendConfirmation(_ context.Context, user domain.User) error {
	m.sendCalls++
	m.sentTo = user
	return m.sendErr
}

type mockEventPublisher struct {
	submittedCalls int
	submittedEvent domain.RegistrationSubmittedEvent
	submittedErr   error

	resolvedCalls int
	resolvedEvent domain.RegistrationResolvedEvent
	resolvedErr   error
}

func (m *mockEventPublisher) PublishRegistrationSubmitted(_ context.Context, event domain.RegistrationSubmittedEvent) error {
	m.submittedCalls++
	m.submittedEvent = event
	return m.submittedErr
}

func (m *mockEventPublisher) PublishRegistrationResolved(_ context.Context, event domain.RegistrationResolvedEvent) error {
	m.resolvedCalls++
	m.resolvedEvent = event
	return m.resolvedErr
}

type serviceFixture struct {
	pending   *mockPendingRepository
	users     *mockUserRepository
	approvals *mockApprovalStore
	notifier  *mockNotifier
	mailer    *mockMailer
	events    *mockEventPublisher
	service   *RegistrationService
}

func newServiceFixture(now time.Time) *serviceFixture {
	f := &serviceFixture{
		pending:   &mockPendingRepository{},
		users:     &mockUserRepository{},
		approvals: &mockApprovalStore{},
		notifier:  &mockNotifier{},
		mailer:    &mockMailer{},
		events:    &mockEventPublisher{},
	}
	f.service = NewRegistrationService(f.pending, f.users, f.approvals, f.notifier, f.mailer, f.events).
		WithClock(func() time.Time { return now })
	return f
}

var fixtureNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func TestRegistrationService_Submit_CreatesPendingAndNotifies(t *testing.T) {
	f := newServiceFixture(fixtureNow)

	pending, err := f.service.Submit(context.Background(), "  Ana ", " a@x.com ", " 555 ")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	if pending.ID == "" {
		t.Fatalf("expected a generated pending identifier")
	}
	if pending.Name != "Ana" || pending.Email != "a@x.com" || pending.Phone != "555" {
		t.Fatalf("expected trimmed fields, got %+v", pending)
	}
	if !pending.CreatedAt.Equal(fixtureNow) {
		t.Fatalf("expected created_at %v, got %v", fixtureNow, pending.CreatedAt)
	}

	if f.pending.createCalls != 1 {
		t.Fatalf("expected Create to be called once, got %d", f.pending.createCalls)
	}
	if f.pending.createdRecord.ID != pending.ID {
		t.Fatalf("expected stored record to match returned one")
	}

	if f.notifier.notifyCalls != 1 {
		t.Fatalf("expected NotifyPending to be called once, got %d", f.notifier.notifyCalls)
	}
	if f.notifier.notifiedWith.ID != pending.ID {
		t.Fatalf("expected notifier to receive pending id %s, got %s", pending.ID, f.notifier.notifiedWith.ID)
	}

	if f.events.submittedCalls != 1 {
		t.Fatalf("expected one submitted event, got %d", f.events.submittedCalls)
	}
	if f.events.submittedEvent.PendingID != pending.ID {
		t.Fatalf("expected event pending id %s, got %s", pending.ID, f.events.submittedEvent.PendingID)
	}
}

func TestRegistrationService_Submit_MissingFields(t *testing.T) {
	cases := []struct {
		name string
		in   [3]string
	}{
		{"empty name", [3]string{"", "a@x.com", "555"}},
		{"empty email", [3]string{"Ana", "", "555"}},
		{"empty phone", [3]string{"Ana", "a@x.com", ""}},
		{"whitespace only", [3]string{"   ", "a@x.com", "555"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newServiceFixture(fixtureNow)

			_, err := f.service.Submit(context.Background(), tc.in[0], tc.in[1], tc.in[2])
			if !errors.Is(err, ErrMissingField) {
				t.Fatalf("expected ErrMissingField, got %v", err)
			}
			if f.pending.createCalls != 0 {
				t.Fatalf("expected no pending write, got %d", f.pending.createCalls)
			}
			if f.users.existsCalls != 0 {
				t.Fatalf("expected validation to fail before any store probe")
			}
		})
	}
}

func TestRegistrationService_Submit_AlreadyRegistered(t *testing.T) {
	f := newServiceFixture(fixtureNow)
	f.users.existsResult = true

	_, err := f.service.Submit(context.Background(), "Ana", "a@x.com", "555")
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
	if f.pending.createCalls != 0 {
		t.Fatalf("expected no pending write, got %d", f.pending.createCalls)
	}
	if f.notifier.notifyCalls != 0 {
		t.Fatalf("expected no notification, got %d", f.notifier.notifyCalls)
	}
}

func TestRegistrationService_Submit_AlreadyPending(t *testing.T) {
	f := newServiceFixture(fixtureNow)
	f.pending.existsResult = true

	_, err := f.service.Submit(context.Background(), "Ana", "a@x.com", "999")
	if !errors.Is(err, ErrAlreadyPending) {
		t.Fatalf("expected ErrAlreadyPending, got %v", err)
	}
	if f.pending.createCalls != 0 {
		t.Fatalf("expected no pending write, got %d", f.pending.createCalls)
	}
}

func TestRegistrationService_Submit_NotifyFailureAbortsButKeepsRecord(t *testing.T) {
	f := newServiceFixture(fixtureNow)
	f.notifier.notifyErr = errors.New("telegram down")

	_, err := f.service.Submit(context.Background(), "Ana", "a@x.com", "555")
	if err == nil {
		t.Fatalf("expected error when notification fails")
	}

	// The orphaned record is left for the reaper, not rolled back.
	if f.pending.createCalls != 1 {
		t.Fatalf("expected pending record to be written, got %d calls", f.pending.createCalls)
	}
	if f.events.submittedCalls != 0 {
		t.Fatalf("expected no submitted event after notify failure, got %d", f.events.submittedCalls)
	}
}

func TestRegistrationService_Submit_EventFailureDoesNotBlock(t *testing.T) {
	f := newServiceFixture(fixtureNow)
	f.events.submittedErr = errors.New("kafka down")

	if _, err := f.service.Submit(context.Background(), "Ana", "a@x.com", "555"); err != nil {
		t.Fatalf("expected submission to succeed despite event failure, got %v", err)
	}
	if f.events.submittedCalls != 1 {
		t.Fatalf("expected publisher to be invoked even on failure")
	}
}

func TestRegistrationService_Resolve_ApproveSuccess(t *testing.T) {
	f := newServiceFixture(fixtureNow)
	f.approvals.promoteResult = &domain.User{
		ID:        "user-1",
		Name:      "Ana",
		Email:     "a@x.com",
		Phone:     "555",
		CreatedAt: fixtureNow,
	}

	resolution, err := f.service.Resolve(context.Background(), "pending-1", domain.DecisionApprove)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if f.approvals.promoteCalls != 1 {
		t.Fatalf("expected Promote to be called once, got %d", f.approvals.promoteCalls)
	}
	if f.approvals.promoteID != "pending-1" {
		t.Fatalf("expected promote id pending-1, got %s", f.approvals.promoteID)
	}
	if f.approvals.promoteUserID == "" {
		t.Fatalf("expected a generated user identifier")
	}
	if !f.approvals.promoteAt.Equal(fixtureNow) {
		t.Fatalf("expected promote time %v, got %v", fixtureNow, f.approvals.promoteAt)
	}

	if resolution.Decision != domain.DecisionApprove {
		t.Fatalf("expected approve resolution, got %s", resolution.Decision)
	}
	if resolution.User == nil || resolution.User.ID != "user-1" {
		t.Fatalf("expected resolution to carry the confirmed user")
	}
	if resolution.Name != "Ana" || resolution.Email != "a@x.com" || resolution.Phone != "555" {
		t.Fatalf("expected contact details on resolution, got %+v", resolution)
	}

	if f.mailer.sendCalls != 1 {
		t.Fatalf("expected confirmation email to be sent once, got %d", f.mailer.sendCalls)
	}
	if f.mailer.sentTo.Email != "a@x.com" {
		t.Fatalf("expected confirmation sent to a@x.com, got %s", f.mailer.sentTo.Email)
	}

	if f.events.resolvedCalls != 1 {
		t.Fatalf("expected one resolved event, got %d", f.events.resolvedCalls)
	}
	if f.events.resolvedEvent.Decision != domain.DecisionApprove {
		t.Fatalf("expected resolved event decision approve, got %s", f.events.resolvedEvent.Decision)
	}
	if f.events.resolvedEvent.UserID != "user-1" {
		t.Fatalf("expected resolved event user id user-1, got %s", f.events.resolvedEvent.UserID)
	}
}

func TestRegistrationService_Resolve_ApproveNotFound(t *testing.T) {
	f := newServiceFixture(fixtureNow)
	f.approvals.promoteErr = repository.ErrNotFound

	_, err := f.service.Resolve(context.Background(), "gone", domain.DecisionApprove)
	if !errors.Is(err, ErrPendingNotFound) {
		t.Fatalf("expected ErrPendingNotFound, got %v", err)
	}
	if f.mailer.sendCalls != 0 {
		t.Fatalf("expected no confirmation email, got %d", f.mailer.sendCalls)
	}
	if f.events.resolvedCalls != 0 {
		t.Fatalf("expected no resolved event, got %d", f.events.resolvedCalls)
	}
}

func TestRegistrationService_Resolve_EmptyIdentifier(t *testing.T) {
	f := newServiceFixture(fixtureNow)

	_, err := f.service.Resolve(context.Background(), "  ", domain.DecisionApprove)
	if !errors.Is(err, ErrPendingNotFound) {
		t.Fatalf("expected ErrPendingNotFound, got %v", err)
	}
	if f.approvals.promoteCalls != 0 {
		t.Fatalf("expected no store access for an empty identifier")
	}
}

func TestRegistrationService_Resolve_ApproveMailerFailure(t *testing.T) {
	f := newServiceFixture(fixtureNow)
	f.approvals.promoteResult = &domain.User{ID: "user-1", Name: "Ana", Email: "a@x.com", Phone: "555"}
	f.mailer.sendErr = errors.New("smtp down")

	resolution, err := f.service.Resolve(context.Background(), "pending-1", domain.DecisionApprove)
	if !errors.Is(err, ErrConfirmationEmail) {
		t.Fatalf("expected ErrConfirmationEmail, got %v", err)
	}

	// The user exists at this point; the resolution must still describe it so
	// the webhook path can reflect the decision.
	if resolution.User == nil || resolution.User.ID != "user-1" {
		t.Fatalf("expected resolution to carry the confirmed user despite mail failure")
	}
	if resolution.Decision != domain.DecisionApprove {
		t.Fatalf("expected approve resolution, got %s", resolution.Decision)
	}
	if f.events.resolvedCalls != 1 {
		t.Fatalf("expected resolved event before the email attempt, got %d", f.events.resolvedCalls)
	}
}

func TestRegistrationService_Resolve_RejectSuccess(t *testing.T) {
	f := newServiceFixture(fixtureNow)
	f.approvals.discardResult = &domain.PendingRegistration{
		ID:    "pending-1",
		Name:  "Ana",
		Email: "a@x.com",
		Phone: "555",
	}

	resolution, err := f.service.Resolve(context.Background(), "pending-1", domain.DecisionReject)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}

	if f.approvals.discardCalls != 1 {
		t.Fatalf("expected Discard to be called once, got %d", f.approvals.discardCalls)
	}
	if resolution.Decision != domain.DecisionReject {
		t.Fatalf("expected reject resolution, got %s", resolution.Decision)
	}
	if resolution.User != nil {
		t.Fatalf("expected no user on a rejection")
	}
	if resolution.Name != "Ana" || resolution.Email != "a@x.com" || resolution.Phone != "555" {
		t.Fatalf("expected contact details from the discarded record, got %+v", resolution)
	}

	if f.mailer.sendCalls != 0 {
		t.Fatalf("expected no confirmation email on rejection, got %d", f.mailer.sendCalls)
	}
	if f.events.resolvedCalls != 1 {
		t.Fatalf("expected one resolved event, got %d", f.events.resolvedCalls)
	}
	if f.events.resolvedEvent.UserID != "" {
		t.Fatalf("expected empty user id on rejection event, got %s", f.events.resolvedEvent.UserID)
	}
}

func TestRegistrationService_Resolve_RejectNotFound(t *testing.T) {
	f := newServiceFixture(fixtureNow)
	f.approvals.discardErr = repository.ErrNotFound

	_, err := f.service.Resolve(context.Background(), "gone", domain.DecisionReject)
	if !errors.Is(err, ErrPendingNotFound) {
		t.Fatalf("expected ErrPendingNotFound, got %v", err)
	}
}

func TestRegistrationService_Resolve_UnknownDecision(t *testing.T) {
	f := newServiceFixture(fixtureNow)

	_, err := f.service.Resolve(context.Background(), "pending-1", domain.Decision("defer"))
	if err == nil {
		t.Fatalf("expected error for unknown decision")
	}
	if f.approvals.promoteCalls != 0 || f.approvals.discardCalls != 0 {
		t.Fatalf("expected no store access for unknown decision")
	}
}

package services

import (
	"context"
	"errors"
	"testing"

	"qamqorBack/internal/models"
)

type stubCustomers struct {
	ids map[int64]string
}

func (s *stubCustomers) GetCustomerID(ctx context.Context, userID int64) (string, error) {
	id, ok := s.ids[userID]
	if !ok {
		return "", models.ErrNoRecord
	}
	return id, nil
}

func (s *stubCustomers) SaveCustomerID(ctx context.Context, userID int64, customerID string) error {
	if s.ids == nil {
		s.ids = map[int64]string{}
	}
	s.ids[userID] = customerID
	return nil
}

type stubUsers struct{}

func (stubUsers) GetByID(ctx context.Context, id int64) (models.User, error) {
	return models.User{ID: id, Name: "Aruzhan", Email: "aruzhan@example.com"}, nil
}

func newDonationService(f *engineFixture) *DonationService {
	return &DonationService{
		Gateway:   f.gateway,
		Donations: f.donation,
		Events:    f.events,
		Customers: &stubCustomers{},
		Users:     stubUsers{},
		FlatFee:   50,
	}
}

func TestCreateOneOffIntentStoresNetAmount(t *testing.T) {
	f := newEngineFixture(7)
	f.gateway.createdCustomer = "cus_1"
	f.gateway.ephemeralKey = "ek_1"
	svc := newDonationService(f)

	orgID := int64(7)
	res, err := svc.CreateOneOffIntent(context.Background(), 42, 1000, &orgID, nil)
	if err != nil {
		t.Fatalf("CreateOneOffIntent: %v", err)
	}
	if res.PaymentIntentID == "" || res.ClientSecret == "" || res.CustomerID != "cus_1" {
		t.Errorf("incomplete result: %+v", res)
	}

	d := f.donation.byID[res.DonationID]
	if d.Amount != 950 {
		t.Errorf("stored amount %d, want net 950", d.Amount)
	}
	if d.Status != models.StatusPending {
		t.Errorf("status %q, want pending", d.Status)
	}
	if d.PaymentIntentID == nil || *d.PaymentIntentID != res.PaymentIntentID {
		t.Error("donation not anchored to the payment intent")
	}
}

func TestCreateOneOffIntentRejectsBothTargets(t *testing.T) {
	f := newEngineFixture(7)
	svc := newDonationService(f)

	orgID, eventID := int64(7), int64(5)
	_, err := svc.CreateOneOffIntent(context.Background(), 42, 1000, &orgID, &eventID)
	if !errors.Is(err, models.ErrBothTargets) {
		t.Errorf("err = %v, want ErrBothTargets", err)
	}
	if len(f.donation.byID) != 0 {
		t.Error("nothing should be stored on a rejected request")
	}
}

func TestCreateOneOffIntentRejectsAmountBelowFee(t *testing.T) {
	f := newEngineFixture(7)
	svc := newDonationService(f)

	orgID := int64(7)
	for _, amount := range []int64{0, 30, 50} {
		_, err := svc.CreateOneOffIntent(context.Background(), 42, amount, &orgID, nil)
		if !errors.Is(err, models.ErrAmountTooSmall) {
			t.Errorf("amount %d: err = %v, want ErrAmountTooSmall", amount, err)
		}
	}
}

func TestCreateOneOffIntentRejectsReachedGoal(t *testing.T) {
	f := newEngineFixture()
	f.events.events[5] = models.Event{ID: 5, OrganizationID: 3, FundraisingGoal: 1000, FundRaised: 1000, GoalReached: true}
	svc := newDonationService(f)

	eventID := int64(5)
	_, err := svc.CreateOneOffIntent(context.Background(), 42, 1000, nil, &eventID)
	if !errors.Is(err, models.ErrGoalReached) {
		t.Errorf("err = %v, want ErrGoalReached", err)
	}
}

func TestCreateOneOffIntentAllowsUnattributed(t *testing.T) {
	f := newEngineFixture()
	f.gateway.createdCustomer = "cus_1"
	svc := newDonationService(f)

	res, err := svc.CreateOneOffIntent(context.Background(), 42, 500, nil, nil)
	if err != nil {
		t.Fatalf("CreateOneOffIntent: %v", err)
	}
	d := f.donation.byID[res.DonationID]
	if d.OrganizationID != nil || d.EventID != nil {
		t.Errorf("unattributed donation carries a target: %+v", d)
	}
}

func TestEnsureCustomerReusesSavedID(t *testing.T) {
	f := newEngineFixture()
	f.gateway.createdCustomer = "cus_new"
	customers := &stubCustomers{ids: map[int64]string{42: "cus_saved"}}
	svc := newDonationService(f)
	svc.Customers = customers

	res, err := svc.CreateOneOffIntent(context.Background(), 42, 500, nil, nil)
	if err != nil {
		t.Fatalf("CreateOneOffIntent: %v", err)
	}
	if res.CustomerID != "cus_saved" {
		t.Errorf("customer %q, want the saved cus_saved", res.CustomerID)
	}
}

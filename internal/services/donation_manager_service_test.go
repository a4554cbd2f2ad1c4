package services

import (
	"context"
	"errors"
	"testing"

	"qamqorBack/internal/models"
)

func newManagerService(f *engineFixture) *DonationManagerService {
	return &DonationManagerService{
		Gateway:          f.gateway,
		Managers:         f.managers,
		Organizations:    f.orgs,
		Donations:        f.donation,
		Rewards:          f.rewards,
		Customers:        &stubCustomers{},
		Users:            stubUsers{},
		FlatFee:          50,
		AllowedIntervals: []string{"day", "week", "month", "year"},
	}
}

func TestFollowCreatesManagerLazily(t *testing.T) {
	f := newEngineFixture(1)
	svc := newManagerService(f)

	if err := svc.Follow(context.Background(), 42, 1); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	mgr, err := f.managers.GetByUser(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetByUser: %v", err)
	}
	if len(mgr.Organizations) != 1 || mgr.Organizations[0] != 1 {
		t.Errorf("organizations = %v, want [1]", mgr.Organizations)
	}
}

func TestFollowEnforcesCap(t *testing.T) {
	f := newEngineFixture(1, 2, 3, 4, 5, 6)
	svc := newManagerService(f)

	for id := int64(1); id <= models.MaxFollowedOrganizations; id++ {
		if err := svc.Follow(context.Background(), 42, id); err != nil {
			t.Fatalf("Follow(%d): %v", id, err)
		}
	}
	err := svc.Follow(context.Background(), 42, 6)
	if !errors.Is(err, models.ErrOrganizationLimit) {
		t.Errorf("err = %v, want ErrOrganizationLimit", err)
	}
}

func TestFollowRejectsDuplicateAndUnknown(t *testing.T) {
	f := newEngineFixture(1)
	svc := newManagerService(f)

	if err := svc.Follow(context.Background(), 42, 1); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if err := svc.Follow(context.Background(), 42, 1); !errors.Is(err, models.ErrAlreadyFollowed) {
		t.Errorf("duplicate follow: err = %v, want ErrAlreadyFollowed", err)
	}
	if err := svc.Follow(context.Background(), 42, 99); !errors.Is(err, models.ErrNoRecord) {
		t.Errorf("unknown organization: err = %v, want ErrNoRecord", err)
	}
}

func TestUnfollowThenFollowAgain(t *testing.T) {
	f := newEngineFixture(1, 2)
	svc := newManagerService(f)

	for _, id := range []int64{1, 2} {
		if err := svc.Follow(context.Background(), 42, id); err != nil {
			t.Fatalf("Follow(%d): %v", id, err)
		}
	}
	if err := svc.Unfollow(context.Background(), 42, 1); err != nil {
		t.Fatalf("Unfollow: %v", err)
	}
	if err := svc.Unfollow(context.Background(), 42, 1); !errors.Is(err, models.ErrNotFollowed) {
		t.Errorf("double unfollow: err = %v, want ErrNotFollowed", err)
	}
	if err := svc.Follow(context.Background(), 42, 1); err != nil {
		t.Fatalf("refollow: %v", err)
	}
}

func TestSwapKeepsPosition(t *testing.T) {
	f := newEngineFixture(1, 2, 3)
	svc := newManagerService(f)

	for _, id := range []int64{1, 2} {
		if err := svc.Follow(context.Background(), 42, id); err != nil {
			t.Fatalf("Follow(%d): %v", id, err)
		}
	}
	if err := svc.Swap(context.Background(), 42, 1, 3); err != nil {
		t.Fatalf("Swap: %v", err)
	}
	mgr, _ := f.managers.GetByUser(context.Background(), 42)
	if len(mgr.Organizations) != 2 || mgr.Organizations[0] != 3 || mgr.Organizations[1] != 2 {
		t.Errorf("organizations = %v, want [3 2]", mgr.Organizations)
	}

	if err := svc.Swap(context.Background(), 42, 1, 2); !errors.Is(err, models.ErrNotFollowed) {
		t.Errorf("swap of unfollowed: err = %v, want ErrNotFollowed", err)
	}
	if err := svc.Swap(context.Background(), 42, 3, 2); !errors.Is(err, models.ErrAlreadyFollowed) {
		t.Errorf("swap onto followed: err = %v, want ErrAlreadyFollowed", err)
	}
}

func TestCreateRecurring(t *testing.T) {
	f := newEngineFixture(1, 2)
	f.gateway.createdCustomer = "cus_1"
	f.gateway.priceID = "price_1"
	f.gateway.newSubscription = GatewaySubscription{ID: "sub_1", Status: "incomplete", ClientSecret: "cs_sub"}
	svc := newManagerService(f)

	for _, id := range []int64{1, 2} {
		if err := svc.Follow(context.Background(), 42, id); err != nil {
			t.Fatalf("Follow(%d): %v", id, err)
		}
	}
	res, err := svc.CreateRecurring(context.Background(), 42, 1050, "month")
	if err != nil {
		t.Fatalf("CreateRecurring: %v", err)
	}
	if res.ClientSecret != "cs_sub" {
		t.Errorf("client secret %q, want cs_sub", res.ClientSecret)
	}

	mgr, _ := f.managers.GetByUser(context.Background(), 42)
	if mgr.SubscriptionID == nil || *mgr.SubscriptionID != "sub_1" {
		t.Fatal("subscription not linked to the manager")
	}
	if mgr.Amount != 1000 {
		t.Errorf("manager amount %d, want net 1000", mgr.Amount)
	}
	if mgr.Interval != "month" || !mgr.Active {
		t.Errorf("manager state: %+v", mgr)
	}
}

func TestCreateRecurringValidation(t *testing.T) {
	f := newEngineFixture(1)
	svc := newManagerService(f)

	if _, err := svc.CreateRecurring(context.Background(), 42, 1000, "fortnight"); !errors.Is(err, models.ErrBadInterval) {
		t.Errorf("bad interval: err = %v, want ErrBadInterval", err)
	}
	if _, err := svc.CreateRecurring(context.Background(), 42, 50, "month"); !errors.Is(err, models.ErrAmountTooSmall) {
		t.Errorf("amount at fee: err = %v, want ErrAmountTooSmall", err)
	}
	if _, err := svc.CreateRecurring(context.Background(), 42, 1000, "month"); !errors.Is(err, models.ErrNoFollowedOrganizations) {
		t.Errorf("no organizations: err = %v, want ErrNoFollowedOrganizations", err)
	}

	if err := svc.Follow(context.Background(), 42, 1); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	f.gateway.newSubscription = GatewaySubscription{ID: "sub_1"}
	if _, err := svc.CreateRecurring(context.Background(), 42, 1000, "month"); err != nil {
		t.Fatalf("CreateRecurring: %v", err)
	}
	if _, err := svc.CreateRecurring(context.Background(), 42, 1000, "month"); !errors.Is(err, models.ErrSubscriptionExists) {
		t.Errorf("second subscription: err = %v, want ErrSubscriptionExists", err)
	}
}

func TestUpdateRecurringPlanChange(t *testing.T) {
	f := newEngineFixture(1)
	f.gateway.priceID = "price_2"
	f.gateway.newSubscription = GatewaySubscription{ID: "sub_1"}
	svc := newManagerService(f)

	if err := svc.Follow(context.Background(), 42, 1); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if _, err := svc.CreateRecurring(context.Background(), 42, 1050, "month"); err != nil {
		t.Fatalf("CreateRecurring: %v", err)
	}

	newAmount := int64(2050)
	newInterval := "week"
	err := svc.UpdateRecurring(context.Background(), 42, RecurringChanges{Amount: &newAmount, Interval: &newInterval})
	if err != nil {
		t.Fatalf("UpdateRecurring: %v", err)
	}

	if len(f.gateway.swappedPrices) != 1 || f.gateway.swappedPrices[0] != "price_2" {
		t.Errorf("swapped prices = %v, want [price_2]", f.gateway.swappedPrices)
	}
	mgr, _ := f.managers.GetByUser(context.Background(), 42)
	if mgr.Amount != 2000 || mgr.Interval != "week" {
		t.Errorf("manager after update: amount %d interval %q", mgr.Amount, mgr.Interval)
	}
}

func TestUpdateRecurringFreezeAndResume(t *testing.T) {
	f := newEngineFixture(1)
	f.gateway.newSubscription = GatewaySubscription{ID: "sub_1"}
	svc := newManagerService(f)

	if err := svc.Follow(context.Background(), 42, 1); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	if _, err := svc.CreateRecurring(context.Background(), 42, 1050, "month"); err != nil {
		t.Fatalf("CreateRecurring: %v", err)
	}
	subID := "sub_1"
	f.donation.Create(context.Background(), models.Donation{
		UserID:         42,
		Amount:         1000,
		Status:         models.StatusSuccess,
		DonationStatus: models.DonationOpen,
		SubscriptionID: &subID,
	})

	freeze := true
	if err := svc.UpdateRecurring(context.Background(), 42, RecurringChanges{FreezeDonation: &freeze}); err != nil {
		t.Fatalf("freeze: %v", err)
	}
	mgr, _ := f.managers.GetByUser(context.Background(), 42)
	if mgr.Active {
		t.Error("manager still active after freeze")
	}
	for _, d := range f.donation.byID {
		if d.DonationStatus != models.DonationFrozen {
			t.Errorf("donation %d state %q, want frozen", d.ID, d.DonationStatus)
		}
	}

	freeze = false
	if err := svc.UpdateRecurring(context.Background(), 42, RecurringChanges{FreezeDonation: &freeze}); err != nil {
		t.Fatalf("resume: %v", err)
	}
	mgr, _ = f.managers.GetByUser(context.Background(), 42)
	if !mgr.Active {
		t.Error("manager not active after resume")
	}
	if got := f.gateway.pausedStates; len(got) != 2 || !got[0] || got[1] {
		t.Errorf("pause calls = %v, want [true false]", got)
	}
}

func TestUpdateRecurringWithoutSubscription(t *testing.T) {
	f := newEngineFixture(1)
	svc := newManagerService(f)
	f.managers.byUser[42] = models.DonationManager{UserID: 42}

	amount := int64(1000)
	err := svc.UpdateRecurring(context.Background(), 42, RecurringChanges{Amount: &amount})
	if !errors.Is(err, models.ErrNoSubscription) {
		t.Errorf("err = %v, want ErrNoSubscription", err)
	}
}

func TestOverviewListsRecurringDonations(t *testing.T) {
	f := newEngineFixture(1)
	svc := newManagerService(f)

	subID, otherSub := "sub_1", "sub_other"
	f.managers.byUser[42] = models.DonationManager{UserID: 42, SubscriptionID: &subID, Active: true}
	orgID := int64(1)
	f.donation.Create(context.Background(), models.Donation{
		UserID:         42,
		Amount:         500,
		Status:         models.StatusSuccess,
		OrganizationID: &orgID,
		SubscriptionID: &subID,
	})
	f.donation.Create(context.Background(), models.Donation{
		UserID:         7,
		Amount:         300,
		Status:         models.StatusSuccess,
		OrganizationID: &orgID,
		SubscriptionID: &otherSub,
	})

	overview, err := svc.Overview(context.Background(), 42)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if len(overview.Donations) != 1 {
		t.Fatalf("donations = %d, want 1", len(overview.Donations))
	}
	if overview.Donations[0].Amount != 500 {
		t.Errorf("donation amount %d, want 500", overview.Donations[0].Amount)
	}
}

func TestOverviewIncludesRewardPoints(t *testing.T) {
	f := newEngineFixture(1)
	svc := newManagerService(f)
	f.rewards.Increment(context.Background(), 42)
	f.rewards.Increment(context.Background(), 42)

	overview, err := svc.Overview(context.Background(), 42)
	if err != nil {
		t.Fatalf("Overview: %v", err)
	}
	if overview.RewardPoints != 2 {
		t.Errorf("reward points %d, want 2", overview.RewardPoints)
	}
	if overview.Manager.UserID != 42 {
		t.Errorf("manager user %d, want 42", overview.Manager.UserID)
	}
}

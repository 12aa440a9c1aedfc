package acquisition

import (
	"context"
	"errors"
	"testing"

	"packvault/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type fakeAcqStore struct {
	rows      map[string]*models.ModpackAcquisition // key userID|modpackID
	createErr error
	findErr   error
}

func newFakeAcqStore() *fakeAcqStore {
	return &fakeAcqStore{rows: make(map[string]*models.ModpackAcquisition)}
}

func (f *fakeAcqStore) Find(ctx context.Context, userID, modpackID string) (*models.ModpackAcquisition, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if row, ok := f.rows[userID+"|"+modpackID]; ok {
		return row, nil
	}
	return nil, ErrNotFound
}

func (f *fakeAcqStore) Create(ctx context.Context, acq *models.ModpackAcquisition) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.rows[acq.UserID+"|"+acq.ModpackID] = acq
	return nil
}

type fakeTwitch struct {
	subscribed bool
	err        error
	calls      int
}

func (f *fakeTwitch) CanUserAccessModpack(ctx context.Context, twitchUserID string, channelIDs []string) (bool, error) {
	f.calls++
	return f.subscribed, f.err
}

type fakeLinks struct {
	twitchIDs map[string]string
	calls     int
}

func (f *fakeLinks) TwitchUserID(ctx context.Context, userID string) (string, error) {
	f.calls++
	if id, ok := f.twitchIDs[userID]; ok {
		return id, nil
	}
	return "", ErrNotFound
}

type fakePayments struct {
	ref   string
	err   error
	calls int
}

func (f *fakePayments) StartPayment(ctx context.Context, userID string, modpack *models.Modpack) (string, error) {
	f.calls++
	return f.ref, f.err
}

type gateFixture struct {
	store    *fakeAcqStore
	twitch   *fakeTwitch
	links    *fakeLinks
	payments *fakePayments
	gate     *Gate
}

func newGateFixture() *gateFixture {
	f := &gateFixture{
		store:    newFakeAcqStore(),
		twitch:   &fakeTwitch{},
		links:    &fakeLinks{twitchIDs: make(map[string]string)},
		payments: &fakePayments{ref: "pay_123"},
	}
	f.gate = NewGate(f.store, f.twitch, f.links, f.payments)
	return f
}

func testUser(id string) *models.User {
	user := &models.User{}
	user.ID = id
	return user
}

func testModpack(id string, method models.AcquisitionMethod) *models.Modpack {
	pack := &models.Modpack{AcquisitionMethod: method}
	pack.ID = id
	return pack
}

func TestAcquireFree(t *testing.T) {
	f := newGateFixture()
	user := testUser("user-1")
	pack := testModpack("pack-1", models.AcquisitionMethodFree)

	acq, denial, err := f.gate.Acquire(context.Background(), user, pack, "")
	require.NoError(t, err)
	require.Nil(t, denial)
	require.NotNil(t, acq)
	assert.Equal(t, models.AcquisitionStatusActive, acq.Status)
	assert.Equal(t, models.AcquisitionMethodFree, acq.Method)
}

func TestAcquireIsIdempotent(t *testing.T) {
	f := newGateFixture()
	user := testUser("user-1")
	pack := testModpack("pack-1", models.AcquisitionMethodFree)

	first, _, err := f.gate.Acquire(context.Background(), user, pack, "")
	require.NoError(t, err)
	second, denial, err := f.gate.Acquire(context.Background(), user, pack, "")
	require.NoError(t, err)
	require.Nil(t, denial)
	assert.Same(t, first, second, "re-acquire returns the existing row")
	assert.Len(t, f.store.rows, 1)
}

func TestAcquireAnonymousDenied(t *testing.T) {
	f := newGateFixture()
	pack := testModpack("pack-1", models.AcquisitionMethodFree)

	acq, denial, err := f.gate.Acquire(context.Background(), nil, pack, "")
	require.NoError(t, err)
	assert.Nil(t, acq)
	require.NotNil(t, denial)
	assert.Equal(t, ReasonAuthRequired, denial.Reason)
}

func TestAcquireSuspendedAndRevoked(t *testing.T) {
	for status, reason := range map[models.AcquisitionStatus]string{
		models.AcquisitionStatusSuspended: ReasonSuspended,
		models.AcquisitionStatusRevoked:   ReasonRevoked,
	} {
		f := newGateFixture()
		user := testUser("user-1")
		pack := testModpack("pack-1", models.AcquisitionMethodFree)
		f.store.rows["user-1|pack-1"] = &models.ModpackAcquisition{
			UserID: "user-1", ModpackID: "pack-1", Status: status,
		}

		acq, denial, err := f.gate.Acquire(context.Background(), user, pack, "")
		require.NoError(t, err)
		assert.Nil(t, acq)
		require.NotNil(t, denial)
		assert.Equal(t, reason, denial.Reason)
	}
}

func TestAcquirePassword(t *testing.T) {
	f := newGateFixture()
	user := testUser("user-1")
	pack := testModpack("pack-1", models.AcquisitionMethodPassword)
	pack.Password = "hunter2"

	_, denial, err := f.gate.Acquire(context.Background(), user, pack, "wrong")
	require.NoError(t, err)
	require.NotNil(t, denial)
	assert.Equal(t, ReasonWrongPassword, denial.Reason)

	acq, denial, err := f.gate.Acquire(context.Background(), user, pack, "hunter2")
	require.NoError(t, err)
	assert.Nil(t, denial)
	require.NotNil(t, acq)
	assert.Equal(t, models.AcquisitionMethodPassword, acq.Method)
}

func TestAcquireEmptyStoredPasswordAlwaysDenies(t *testing.T) {
	f := newGateFixture()
	user := testUser("user-1")
	pack := testModpack("pack-1", models.AcquisitionMethodPassword)

	// Misconfigured pack: password gating with no password set.
	_, denial, err := f.gate.Acquire(context.Background(), user, pack, "")
	require.NoError(t, err)
	require.NotNil(t, denial)
	assert.Equal(t, ReasonWrongPassword, denial.Reason)
}

func TestAcquireTwitchNotLinked(t *testing.T) {
	f := newGateFixture()
	user := testUser("user-1")
	pack := testModpack("pack-1", models.AcquisitionMethodTwitchSub)
	pack.TwitchCreatorIDs = datatypes.JSON(`["chan-1","chan-2"]`)

	acq, denial, err := f.gate.Acquire(context.Background(), user, pack, "")
	require.NoError(t, err)
	assert.Nil(t, acq)
	require.NotNil(t, denial)
	assert.Equal(t, ReasonTwitchNotLinked, denial.Reason)
	assert.Equal(t, []string{"chan-1", "chan-2"}, denial.RequiredChannels)
	assert.Zero(t, f.twitch.calls, "no subscription check without a linked account")
}

func TestAcquireTwitchNotSubscribed(t *testing.T) {
	f := newGateFixture()
	f.links.twitchIDs["user-1"] = "tw-99"
	user := testUser("user-1")
	pack := testModpack("pack-1", models.AcquisitionMethodTwitchSub)
	pack.TwitchCreatorIDs = datatypes.JSON(`["chan-1"]`)

	_, denial, err := f.gate.Acquire(context.Background(), user, pack, "")
	require.NoError(t, err)
	require.NotNil(t, denial)
	assert.Equal(t, ReasonNotSubscribed, denial.Reason)
	assert.Equal(t, []string{"chan-1"}, denial.RequiredChannels)
}

func TestAcquireTwitchSubscribed(t *testing.T) {
	f := newGateFixture()
	f.links.twitchIDs["user-1"] = "tw-99"
	f.twitch.subscribed = true
	user := testUser("user-1")
	pack := testModpack("pack-1", models.AcquisitionMethodTwitchSub)
	pack.TwitchCreatorIDs = datatypes.JSON(`["chan-1"]`)

	acq, denial, err := f.gate.Acquire(context.Background(), user, pack, "")
	require.NoError(t, err)
	assert.Nil(t, denial)
	require.NotNil(t, acq)
	assert.Equal(t, models.AcquisitionMethodTwitchSub, acq.Method)
}

func TestAcquireTwitchUpstreamFailure(t *testing.T) {
	f := newGateFixture()
	f.links.twitchIDs["user-1"] = "tw-99"
	f.twitch.err = errors.New("503 from helix")
	user := testUser("user-1")
	pack := testModpack("pack-1", models.AcquisitionMethodTwitchSub)

	acq, denial, err := f.gate.Acquire(context.Background(), user, pack, "")
	assert.Nil(t, acq)
	assert.Nil(t, denial)
	require.Error(t, err)
	assert.True(t, IsUpstream(err), "API failures surface as upstream errors, not denials")
}

func TestAcquirePaidOpensPayment(t *testing.T) {
	f := newGateFixture()
	f.payments.ref = "pay_abc"
	user := testUser("user-1")
	pack := testModpack("pack-1", models.AcquisitionMethodPaid)
	pack.PriceCents = 499

	acq, denial, err := f.gate.Acquire(context.Background(), user, pack, "")
	require.NoError(t, err)
	assert.Nil(t, acq, "paid packs grant only on webhook confirmation")
	require.NotNil(t, denial)
	assert.Equal(t, ReasonPaymentPending, denial.Reason)
	assert.Equal(t, "pay_abc", denial.PaymentRef)
	assert.Equal(t, 1, f.payments.calls)
	assert.Empty(t, f.store.rows)
}

func TestAcquirePaidProviderFailure(t *testing.T) {
	f := newGateFixture()
	f.payments.err = errors.New("provider down")
	user := testUser("user-1")
	pack := testModpack("pack-1", models.AcquisitionMethodPaid)

	_, denial, err := f.gate.Acquire(context.Background(), user, pack, "")
	assert.Nil(t, denial)
	require.Error(t, err)
	assert.True(t, IsUpstream(err))
}

// racingStore misses the first Find, rejects Create with a unique
// violation, then serves the concurrent winner's row.
type racingStore struct {
	winner *models.ModpackAcquisition
	finds  int
}

func (r *racingStore) Find(ctx context.Context, userID, modpackID string) (*models.ModpackAcquisition, error) {
	r.finds++
	if r.finds == 1 {
		return nil, ErrNotFound
	}
	return r.winner, nil
}

func (r *racingStore) Create(ctx context.Context, acq *models.ModpackAcquisition) error {
	return errors.New("duplicate key value violates unique constraint")
}

func TestAcquireCreateRaceFallsBackToWinner(t *testing.T) {
	winner := &models.ModpackAcquisition{
		UserID: "user-1", ModpackID: "pack-1", Status: models.AcquisitionStatusActive,
	}
	store := &racingStore{winner: winner}
	gate := NewGate(store, &fakeTwitch{}, &fakeLinks{twitchIDs: map[string]string{}}, &fakePayments{})

	acq, denial, err := gate.Acquire(context.Background(), testUser("user-1"), testModpack("pack-1", models.AcquisitionMethodFree), "")
	require.NoError(t, err)
	assert.Nil(t, denial)
	assert.Same(t, winner, acq)
}

func TestCanUserAcquireAnonymous(t *testing.T) {
	f := newGateFixture()

	// Free packs are open to everyone.
	decision, err := f.gate.CanUserAcquire(context.Background(), nil, testModpack("pack-1", models.AcquisitionMethodFree))
	require.NoError(t, err)
	assert.True(t, decision.CanAccess)
	assert.Equal(t, ReasonFree, decision.Reason)

	// Gated packs ask anonymous callers to sign in, without touching
	// Twitch or the payment provider.
	for _, method := range []models.AcquisitionMethod{
		models.AcquisitionMethodPaid,
		models.AcquisitionMethodPassword,
		models.AcquisitionMethodTwitchSub,
	} {
		decision, err := f.gate.CanUserAcquire(context.Background(), nil, testModpack("pack-2", method))
		require.NoError(t, err)
		assert.False(t, decision.CanAccess)
		assert.Equal(t, ReasonAuthRequired, decision.Reason)
	}
	assert.Zero(t, f.twitch.calls)
	assert.Zero(t, f.links.calls)
	assert.Zero(t, f.payments.calls)
}

func TestCanUserAcquireExistingRowWins(t *testing.T) {
	f := newGateFixture()
	user := testUser("user-1")
	pack := testModpack("pack-1", models.AcquisitionMethodPaid)
	f.store.rows["user-1|pack-1"] = &models.ModpackAcquisition{
		UserID: "user-1", ModpackID: "pack-1", Status: models.AcquisitionStatusActive,
	}

	decision, err := f.gate.CanUserAcquire(context.Background(), user, pack)
	require.NoError(t, err)
	assert.True(t, decision.CanAccess)
	assert.Equal(t, ReasonGranted, decision.Reason)
	assert.Zero(t, f.payments.calls, "owned packs never re-check the gate")
}

func TestCanUserAcquireSuspended(t *testing.T) {
	f := newGateFixture()
	user := testUser("user-1")
	pack := testModpack("pack-1", models.AcquisitionMethodFree)
	f.store.rows["user-1|pack-1"] = &models.ModpackAcquisition{
		UserID: "user-1", ModpackID: "pack-1", Status: models.AcquisitionStatusSuspended,
	}

	decision, err := f.gate.CanUserAcquire(context.Background(), user, pack)
	require.NoError(t, err)
	assert.False(t, decision.CanAccess, "suspension beats the free method")
	assert.Equal(t, ReasonSuspended, decision.Reason)
}

func TestCanUserAcquirePaid(t *testing.T) {
	f := newGateFixture()
	user := testUser("user-1")
	pack := testModpack("pack-1", models.AcquisitionMethodPaid)

	decision, err := f.gate.CanUserAcquire(context.Background(), user, pack)
	require.NoError(t, err)
	assert.False(t, decision.CanAccess)
	assert.Equal(t, ReasonPaymentRequired, decision.Reason)
	assert.Zero(t, f.payments.calls, "read-only checks never open payments")
}

func TestCanUserAcquireTwitch(t *testing.T) {
	f := newGateFixture()
	f.links.twitchIDs["user-1"] = "tw-99"
	f.twitch.subscribed = true
	user := testUser("user-1")
	pack := testModpack("pack-1", models.AcquisitionMethodTwitchSub)
	pack.TwitchCreatorIDs = datatypes.JSON(`["chan-1"]`)

	decision, err := f.gate.CanUserAcquire(context.Background(), user, pack)
	require.NoError(t, err)
	assert.True(t, decision.CanAccess)
	assert.Equal(t, ReasonSubscribed, decision.Reason)
}

func TestEffectiveMethodDefaultsToFree(t *testing.T) {
	f := newGateFixture()
	user := testUser("user-1")
	pack := testModpack("pack-1", "")

	acq, denial, err := f.gate.Acquire(context.Background(), user, pack, "")
	require.NoError(t, err)
	assert.Nil(t, denial)
	require.NotNil(t, acq)
	assert.Equal(t, models.AcquisitionMethodFree, acq.Method)
}

package passwordreset

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/municipal-dp/digital-profile/internal/apperror"
	"github.com/municipal-dp/digital-profile/internal/auth"
	"github.com/municipal-dp/digital-profile/internal/config"
	"github.com/municipal-dp/digital-profile/internal/db/dbtest"
	"github.com/municipal-dp/digital-profile/internal/db/models"
	"github.com/municipal-dp/digital-profile/internal/token"
)

const (
	email       = "officer@example.com"
	oldPassword = "the old password"
	newPassword = "the new password"
)

// recorder is a Notifier remembering the last code per email.
type recorder struct {
	mu    sync.Mutex
	codes map[string]string
}

func (r *recorder) SendResetCode(_ context.Context, _ models.OtpChannel, email, code string, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.codes == nil {
		r.codes = map[string]string{}
	}

	r.codes[email] = code

	return nil
}

func (r *recorder) last(email string) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.codes[email]
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type fixture struct {
	db    *gorm.DB
	users *auth.UserStore
	flow  *Flow
	rec   *recorder
	clock *clock
}

func setup(t *testing.T) *fixture {
	t.Helper()

	ctx := context.Background()
	gdb := dbtest.New(t)
	users := auth.NewUserStore(gdb)

	_, err := users.Register(ctx, auth.RegisterInput{Email: email, Password: oldPassword, FullName: "Officer"})
	require.NoError(t, err)

	rec := &recorder{}
	clk := &clock{now: time.Now()}

	flow, err := New(gdb, models.OtpChannelStaff, users,
		config.PasswordReset{OtpTTL: 10 * time.Minute, Digits: 6},
		WithNotifier(rec), WithClock(clk.Now),
	)
	require.NoError(t, err)

	return &fixture{db: gdb, users: users, flow: flow, rec: rec, clock: clk}
}

func resetInput(code string) ResetInput {
	return ResetInput{Email: email, Code: code, NewPassword: newPassword, ConfirmPassword: newPassword}
}

func (f *fixture) passwordIs(t *testing.T, password string) bool {
	t.Helper()

	u, err := f.users.GetByEmail(context.Background(), email)
	require.NoError(t, err)

	return models.VerifyPassword(password, u.Password)
}

func TestNewValidatesConfig(t *testing.T) {
	gdb := dbtest.New(t)
	users := auth.NewUserStore(gdb)

	_, err := New(gdb, models.OtpChannelStaff, users, config.PasswordReset{OtpTTL: 0, Digits: 6})
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(gdb, models.OtpChannelStaff, users, config.PasswordReset{OtpTTL: time.Minute, Digits: 7})
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(nil, models.OtpChannelStaff, users, config.PasswordReset{OtpTTL: time.Minute})
	require.ErrorIs(t, err, ErrInvalidConfig)

	f, err := New(gdb, models.OtpChannelCitizen, users, config.PasswordReset{OtpTTL: time.Minute, Digits: 8})
	require.NoError(t, err)
	assert.Equal(t, models.OtpChannelCitizen, f.Channel())
}

func TestRequestUnknownEmail(t *testing.T) {
	f := setup(t)

	err := f.flow.Request(context.Background(), RequestInput{Email: "nobody@example.com"})
	require.ErrorIs(t, err, apperror.ErrUserNotFound)

	err = f.flow.Request(context.Background(), RequestInput{Email: "not-an-email"})
	require.ErrorIs(t, err, apperror.ErrValidation)
}

func TestResetWithLatestCode(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	require.NoError(t, f.flow.Request(ctx, RequestInput{Email: "Officer@Example.com"}))

	code := f.rec.last(email)
	assert.Len(t, code, 6)

	require.NoError(t, f.flow.Reset(ctx, resetInput(code)))
	assert.True(t, f.passwordIs(t, newPassword))

	// single use
	err := f.flow.Reset(ctx, resetInput(code))
	require.ErrorIs(t, err, apperror.ErrInvalidOtp)
}

func TestCodesAreStoredHashed(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	require.NoError(t, f.flow.Request(ctx, RequestInput{Email: email}))

	code := f.rec.last(email)

	var row models.PasswordResetOtp
	require.NoError(t, f.db.Where("email = ?", email).First(&row).Error)
	assert.NotEqual(t, code, row.CodeHash)
	assert.Equal(t, token.Hash(code), row.CodeHash)

	// the stored value itself is not accepted as a code
	err := f.flow.Reset(ctx, resetInput(row.CodeHash))
	require.ErrorIs(t, err, apperror.ErrValidation)

	require.NoError(t, f.flow.Reset(ctx, resetInput(code)))
}

func TestResetRejectsWrongCode(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	err := f.flow.Reset(ctx, resetInput("123456"))
	require.ErrorIs(t, err, apperror.ErrInvalidOtp)

	require.NoError(t, f.flow.Request(ctx, RequestInput{Email: email}))

	wrong := "000000"
	if f.rec.last(email) == wrong {
		wrong = "111111"
	}

	err = f.flow.Reset(ctx, resetInput(wrong))
	require.ErrorIs(t, err, apperror.ErrInvalidOtp)
	assert.True(t, f.passwordIs(t, oldPassword))
}

func TestNewerCodeSupersedesOlder(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	require.NoError(t, f.flow.Request(ctx, RequestInput{Email: email}))
	first := f.rec.last(email)

	second := first
	for second == first {
		require.NoError(t, f.flow.Request(ctx, RequestInput{Email: email}))
		second = f.rec.last(email)
	}

	err := f.flow.Reset(ctx, resetInput(first))
	require.ErrorIs(t, err, apperror.ErrInvalidOtp)

	require.NoError(t, f.flow.Reset(ctx, resetInput(second)))

	var unused int64
	require.NoError(t, f.db.Model(&models.PasswordResetOtp{}).Where("is_used = ?", false).Count(&unused).Error)
	assert.Zero(t, unused)
}

func TestExpiredCodeIsRejected(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	require.NoError(t, f.flow.Request(ctx, RequestInput{Email: email}))
	f.clock.Advance(10*time.Minute + time.Second)

	err := f.flow.Reset(ctx, resetInput(f.rec.last(email)))
	require.ErrorIs(t, err, apperror.ErrInvalidOtp)
	assert.True(t, f.passwordIs(t, oldPassword))
}

func TestResetRequiresMatchingConfirmation(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	require.NoError(t, f.flow.Request(ctx, RequestInput{Email: email}))

	in := resetInput(f.rec.last(email))
	in.ConfirmPassword = "something else"

	err := f.flow.Reset(ctx, in)
	require.ErrorIs(t, err, apperror.ErrValidation)

	fields, ok := apperror.From(err).Details["fields"].(map[string]string)
	require.True(t, ok)
	assert.Contains(t, fields, "confirmPassword")

	// the code survives a rejected body
	require.NoError(t, f.flow.Reset(ctx, resetInput(f.rec.last(email))))
}

func TestConcurrentResetsConsumeOnce(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	require.NoError(t, f.flow.Request(ctx, RequestInput{Email: email}))
	code := f.rec.last(email)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
	)

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			err := f.flow.Reset(ctx, resetInput(code))
			if err == nil {
				succeeded.Add(1)
				return
			}

			assert.ErrorIs(t, err, apperror.ErrInvalidOtp)
		}()
	}

	wg.Wait()
	assert.Equal(t, int32(1), succeeded.Load())
}

// failingTarget accepts every email but can not store passwords.
type failingTarget struct{}

var errStore = errors.New("store unavailable")

func (failingTarget) Exists(context.Context, string) (bool, error) { return true, nil }

func (failingTarget) SetPasswordTx(*gorm.DB, string, string) error { return errStore }

func TestFailedPasswordUpdateKeepsCode(t *testing.T) {
	ctx := context.Background()
	gdb := dbtest.New(t)
	rec := &recorder{}

	flow, err := New(gdb, models.OtpChannelStaff, failingTarget{},
		config.PasswordReset{OtpTTL: time.Minute, Digits: 6}, WithNotifier(rec))
	require.NoError(t, err)

	require.NoError(t, flow.Request(ctx, RequestInput{Email: email}))

	err = flow.Reset(ctx, resetInput(rec.last(email)))
	require.ErrorIs(t, err, errStore)

	var row models.PasswordResetOtp
	require.NoError(t, gdb.First(&row).Error)
	assert.False(t, row.IsUsed)
}

func TestChannelsAreSeparate(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	citizens := auth.NewCitizenStore(f.db)
	_, err := citizens.Register(ctx, auth.CitizenRegisterInput{Email: email, Password: oldPassword, FullName: "Resident"})
	require.NoError(t, err)

	citizenFlow, err := New(f.db, models.OtpChannelCitizen, citizens,
		config.PasswordReset{OtpTTL: time.Minute, Digits: 6}, WithNotifier(f.rec))
	require.NoError(t, err)

	require.NoError(t, f.flow.Request(ctx, RequestInput{Email: email}))
	staffCode := f.rec.last(email)

	err = citizenFlow.Reset(ctx, resetInput(staffCode))
	require.ErrorIs(t, err, apperror.ErrInvalidOtp)

	require.NoError(t, f.flow.Reset(ctx, resetInput(staffCode)))
}

func TestPurge(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	require.NoError(t, f.flow.Request(ctx, RequestInput{Email: email}))
	require.NoError(t, f.flow.Request(ctx, RequestInput{Email: email}))

	n, err := f.flow.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	f.clock.Advance(time.Hour)

	n, err = f.flow.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

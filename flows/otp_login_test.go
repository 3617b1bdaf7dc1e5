package flows_test

import (
	"context"
	"testing"
	"time"

	"github.com/octabyte/taskdesk/api"
	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/flows"
	"github.com/stretchr/testify/suite"
)

type OTPLoginTestSuite struct {
	suite.Suite
	env  *env
	flow *flows.OTPLogin
}

func (s *OTPLoginTestSuite) SetupTest() {
	s.env = newEnv(s.T())
	s.flow = flows.NewOTPLogin(s.env.client, s.env.store, s.env.deps())
}

func (s *OTPLoginTestSuite) TearDownTest() {
	s.flow.Close()
}

func (s *OTPLoginTestSuite) request() {
	s.Require().NoError(s.flow.RequestOTP(context.Background(), testEmail))
	s.Require().Equal(enums.OTPLoginStepAwaitingOTP, s.flow.State().Step)
}

func (s *OTPLoginTestSuite) TestInvalidEmailStaysLocal() {
	s.Error(s.flow.RequestOTP(context.Background(), "not-an-email"))

	state := s.flow.State()
	s.Equal(enums.OTPLoginStepEnteringEmail, state.Step)
	s.Equal(flows.MsgInvalidEmail, state.Error)
	s.Equal(0, s.env.fake.Calls(api.PathLoginOTPRequest))
}

func (s *OTPLoginTestSuite) TestUnknownEmail() {
	s.Error(s.flow.RequestOTP(context.Background(), "ghost@example.com"))

	state := s.flow.State()
	s.Equal(enums.OTPLoginStepEnteringEmail, state.Step)
	s.Equal("No account found with this email address.", state.Error)
}

func (s *OTPLoginTestSuite) TestRequestStartsCountdown() {
	s.request()

	state := s.flow.State()
	s.Equal(testEmail, state.Email)
	s.Equal(60, state.SecondsLeft)
	s.Equal(0, state.Focus)
	s.False(state.CanResend())

	s.env.clock.Add(10 * time.Second)
	s.Equal(50, s.flow.State().SecondsLeft)
}

func (s *OTPLoginTestSuite) TestPasteFillsDigitsAndVerifiesOnce() {
	s.request()

	s.Require().NoError(s.flow.Paste(context.Background(), "123456"))

	state := s.flow.State()
	s.Equal([flows.OTPLength]string{"1", "2", "3", "4", "5", "6"}, state.Digits)
	s.Equal(enums.OTPLoginStepCompleted, state.Step)
	s.Equal(1, s.env.fake.Calls(api.PathLoginOTPVerify))

	sess, err := s.env.store.Session(context.Background())
	s.Require().NoError(err)
	s.NotEmpty(sess.Access)
	s.NotEmpty(sess.Refresh)
	s.Require().NotNil(sess.User)
	s.Equal(testEmail, sess.User.Email)
	s.True(sess.TabScoped)

	s.Equal(flows.MsgLoginSuccessful, s.env.latestMessage())
	s.env.clock.Add(1500 * time.Millisecond)
	s.Equal([]enums.Route{enums.RouteDashboard}, s.env.nav.visited())
}

func (s *OTPLoginTestSuite) TestPasteIgnoresAnythingButSixDigits() {
	s.request()

	s.NoError(s.flow.Paste(context.Background(), "12345a"))
	s.NoError(s.flow.Paste(context.Background(), "1234567"))
	s.Equal([flows.OTPLength]string{}, s.flow.State().Digits)
	s.Equal(0, s.env.fake.Calls(api.PathLoginOTPVerify))
}

func (s *OTPLoginTestSuite) TestDigitEntryMovesFocus() {
	ctx := context.Background()
	s.request()

	s.NoError(s.flow.EnterDigit(ctx, 0, "1"))
	s.Equal(1, s.flow.State().Focus)

	s.NoError(s.flow.EnterDigit(ctx, 1, "x"))
	state := s.flow.State()
	s.Empty(state.Digits[1])
	s.Equal(1, state.Focus)

	s.flow.Backspace(1)
	s.Equal(0, s.flow.State().Focus)

	s.flow.Backspace(0)
	state = s.flow.State()
	s.Empty(state.Digits[0])
	s.Equal(0, state.Focus)
}

func (s *OTPLoginTestSuite) TestLastDigitSubmits() {
	ctx := context.Background()
	s.request()

	for i, d := range testOTP[:flows.OTPLength-1] {
		s.Require().NoError(s.flow.EnterDigit(ctx, i, string(d)))
	}
	s.Equal(0, s.env.fake.Calls(api.PathLoginOTPVerify))

	s.Require().NoError(s.flow.EnterDigit(ctx, flows.OTPLength-1, testOTP[flows.OTPLength-1:]))
	s.Equal(1, s.env.fake.Calls(api.PathLoginOTPVerify))
	s.Equal(enums.OTPLoginStepCompleted, s.flow.State().Step)
}

func (s *OTPLoginTestSuite) TestWrongCodeKeepsDigits() {
	s.request()

	s.Error(s.flow.Paste(context.Background(), "654321"))

	state := s.flow.State()
	s.Equal(enums.OTPLoginStepAwaitingOTP, state.Step)
	s.Equal("Invalid OTP. Please check and try again.", state.Error)
	s.Equal("654321", state.Code())
	s.False(s.env.store.HasAccess(context.Background()))
}

func (s *OTPLoginTestSuite) TestIncompleteCodeStaysLocal() {
	ctx := context.Background()
	s.request()
	s.Require().NoError(s.flow.EnterDigit(ctx, 0, "1"))

	s.Error(s.flow.Verify(ctx))
	s.Equal(flows.MsgInvalidOTPLength, s.flow.State().Error)
	s.Equal(0, s.env.fake.Calls(api.PathLoginOTPVerify))
}

func (s *OTPLoginTestSuite) TestExpiryUnlocksResend() {
	ctx := context.Background()
	s.request()

	s.ErrorIs(s.flow.Resend(ctx), flows.ErrResendUnavailable)

	s.env.clock.Add(60 * time.Second)
	state := s.flow.State()
	s.True(state.Expired)
	s.Equal(flows.MsgLoginOTPExpired, state.Error)
	s.Equal(0, state.SecondsLeft)
	s.True(state.CanResend())

	s.Require().NoError(s.flow.EnterDigit(ctx, 0, "9"))
	s.Require().NoError(s.flow.Resend(ctx))

	state = s.flow.State()
	s.Equal([flows.OTPLength]string{}, state.Digits)
	s.Equal(60, state.SecondsLeft)
	s.False(state.Expired)
	s.Empty(state.Error)
	s.Equal(1, s.env.fake.Calls(api.PathLoginOTPResend))
}

func (s *OTPLoginTestSuite) TestRememberMeKeepsSessionPersistent() {
	s.flow.SetRememberMe(true)
	s.request()

	s.Require().NoError(s.flow.Paste(context.Background(), testOTP))
	sess, err := s.env.store.Session(context.Background())
	s.Require().NoError(err)
	s.False(sess.TabScoped)
}

func (s *OTPLoginTestSuite) TestChangeEmailStopsCountdown() {
	s.request()

	s.Require().NoError(s.flow.ChangeEmail())
	state := s.flow.State()
	s.Equal(enums.OTPLoginStepEnteringEmail, state.Step)
	s.Equal(testEmail, state.Email)

	s.env.clock.Add(2 * time.Minute)
	state = s.flow.State()
	s.False(state.Expired)
	s.Empty(state.Error)
}

func TestOTPLoginTestSuite(t *testing.T) {
	suite.Run(t, new(OTPLoginTestSuite))
}

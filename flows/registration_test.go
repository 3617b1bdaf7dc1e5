package flows_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/octabyte/taskdesk/api"
	"github.com/octabyte/taskdesk/enums"
	"github.com/octabyte/taskdesk/flows"
	"github.com/octabyte/taskdesk/models"
	"github.com/stretchr/testify/suite"
)

const newEmail = "grace@example.com"

type RegistrationTestSuite struct {
	suite.Suite
	env  *env
	flow *flows.Registration
}

func (s *RegistrationTestSuite) SetupTest() {
	s.env = newEnv(s.T())
	s.flow = flows.NewRegistration(s.env.client, s.env.deps())
}

func (s *RegistrationTestSuite) TearDownTest() {
	s.flow.Close()
}

func (s *RegistrationTestSuite) profile() models.RegistrationRequest {
	return models.RegistrationRequest{
		Email:           newEmail,
		FullName:        "Grace Hopper",
		Password:        "Cobol#1959",
		ConfirmPassword: "Cobol#1959",
	}
}

func (s *RegistrationTestSuite) submitProfile() {
	s.Require().NoError(s.flow.SubmitProfile(context.Background(), s.profile()))
	s.Require().Equal(enums.RegistrationStepAwaitingOTP, s.flow.State().Step)
}

func (s *RegistrationTestSuite) TestInvalidProfileStaysLocal() {
	req := s.profile()
	req.Password = "weakpass"
	req.ConfirmPassword = "weakpass"

	s.Error(s.flow.SubmitProfile(context.Background(), req))

	state := s.flow.State()
	s.Equal(enums.RegistrationStepCollectingProfile, state.Step)
	s.NotEmpty(state.Error)
	s.Equal(0, s.env.fake.Calls(api.PathRegisterInitiate))
}

func (s *RegistrationTestSuite) TestExistingAccountRejected() {
	req := s.profile()
	req.Email = testEmail

	s.Error(s.flow.SubmitProfile(context.Background(), req))
	state := s.flow.State()
	s.Equal(enums.RegistrationStepCollectingProfile, state.Step)
	s.Contains(state.Error, "already exists")
}

func (s *RegistrationTestSuite) TestProfileStartsBothTimers() {
	s.submitProfile()

	state := s.flow.State()
	s.Equal(newEmail, state.Email)
	s.Equal(60, state.ExpiresIn)
	s.True(state.ResendDisabled)
	s.Equal(60, state.ResendIn)
	s.False(state.OTPExpired)

	s.env.clock.Add(30 * time.Second)
	state = s.flow.State()
	s.Equal(30, state.ExpiresIn)
	s.Equal(30, state.ResendIn)
}

func (s *RegistrationTestSuite) TestExpiredOTPRejectedLocally() {
	s.submitProfile()
	s.env.clock.Add(60 * time.Second)

	state := s.flow.State()
	s.True(state.OTPExpired)
	s.Equal(flows.MsgRegistrationOTPExpired, state.Error)
	s.False(state.ResendDisabled)

	s.ErrorIs(s.flow.SubmitOTP(context.Background(), testOTP), flows.ErrOTPExpired)
	s.Equal(flows.MsgRequestNewOTP, s.flow.State().Error)
	s.Equal(0, s.env.fake.Calls(api.PathRegisterVerify))
}

func (s *RegistrationTestSuite) TestResendWaitsForCooldown() {
	ctx := context.Background()
	s.submitProfile()

	s.ErrorIs(s.flow.Resend(ctx), flows.ErrResendUnavailable)
	s.Equal(0, s.env.fake.Calls(api.PathRegisterResend))

	s.env.clock.Add(60 * time.Second)
	s.Require().NoError(s.flow.Resend(ctx))

	state := s.flow.State()
	s.Equal(enums.RegistrationStepAwaitingOTP, state.Step)
	s.False(state.OTPExpired)
	s.Empty(state.Error)
	s.Equal(60, state.ExpiresIn)
	s.True(state.ResendDisabled)
	s.Equal(1, s.env.fake.Calls(api.PathRegisterResend))

	s.Require().NoError(s.flow.SubmitOTP(ctx, testOTP))
}

func (s *RegistrationTestSuite) TestVerifyCompletesAndReturnsToLogin() {
	s.submitProfile()

	s.Require().NoError(s.flow.SubmitOTP(context.Background(), testOTP))
	s.Equal(enums.RegistrationStepCompleted, s.flow.State().Step)
	s.Equal(flows.MsgRegistrationComplete, s.env.latestMessage())
	s.True(s.env.fake.HasUser(newEmail))
	s.Empty(s.env.nav.visited())

	s.env.clock.Add(1500 * time.Millisecond)
	s.Equal([]enums.Route{enums.RouteLogin}, s.env.nav.visited())

	s.env.clock.Add(time.Minute)
	s.False(s.flow.State().OTPExpired)
}

func (s *RegistrationTestSuite) TestWrongOTPKeepsStep() {
	s.submitProfile()

	s.Error(s.flow.SubmitOTP(context.Background(), "000000"))
	state := s.flow.State()
	s.Equal(enums.RegistrationStepAwaitingOTP, state.Step)
	s.Equal("Invalid OTP. Please check and try again.", state.Error)
	s.False(state.OTPExpired)
}

func (s *RegistrationTestSuite) TestMalformedOTPStaysLocal() {
	s.submitProfile()

	s.Error(s.flow.SubmitOTP(context.Background(), "12ab"))
	s.NotEmpty(s.flow.State().Error)
	s.Equal(0, s.env.fake.Calls(api.PathRegisterVerify))
}

func (s *RegistrationTestSuite) TestServerReportedExpiry() {
	s.submitProfile()
	s.env.fake.FailNext(api.PathRegisterVerify, http.StatusBadRequest,
		map[string]string{"error": "OTP expired or not found. Please request a new one."})

	s.Error(s.flow.SubmitOTP(context.Background(), testOTP))
	state := s.flow.State()
	s.True(state.OTPExpired)
	s.Equal("OTP expired or not found. Please request a new one.", state.Error)
}

func (s *RegistrationTestSuite) TestSessionExpiryResetsToProfile() {
	s.submitProfile()
	s.env.clock.Add(60 * time.Second)
	s.env.fake.ExpireRegistration(newEmail)

	s.Error(s.flow.Resend(context.Background()))
	state := s.flow.State()
	s.Equal(flows.MsgSessionExpired, state.Error)
	s.Equal(enums.RegistrationStepAwaitingOTP, state.Step)

	s.env.clock.Add(2 * time.Second)
	state = s.flow.State()
	s.Equal(enums.RegistrationStepCollectingProfile, state.Step)
	s.Equal(flows.MsgSessionExpired, state.Error)
}

func (s *RegistrationTestSuite) TestBackDiscardsTimers() {
	s.submitProfile()

	s.Require().NoError(s.flow.Back())
	state := s.flow.State()
	s.Equal(enums.RegistrationStepCollectingProfile, state.Step)
	s.Empty(state.Error)

	s.env.clock.Add(2 * time.Minute)
	state = s.flow.State()
	s.False(state.OTPExpired)
	s.Empty(state.Error)
}

func (s *RegistrationTestSuite) TestCloseSilencesTimers() {
	s.submitProfile()
	var changes int
	s.flow.OnChange(func(flows.RegistrationState) { changes++ })

	s.flow.Close()
	s.env.clock.Add(2 * time.Minute)

	s.Zero(changes)
	s.False(s.flow.State().OTPExpired)
}

func (s *RegistrationTestSuite) TestDuplicateSubmitRejected() {
	s.submitProfile()
	s.env.fake.Delay(api.PathRegisterVerify, 200*time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- s.flow.SubmitOTP(context.Background(), testOTP) }()
	s.Require().Eventually(func() bool { return s.flow.State().Loading }, time.Second, time.Millisecond)

	s.ErrorIs(s.flow.SubmitOTP(context.Background(), testOTP), flows.ErrBusy)
	s.NoError(<-done)
	s.Equal(1, s.env.fake.Calls(api.PathRegisterVerify))
}

func TestRegistrationTestSuite(t *testing.T) {
	suite.Run(t, new(RegistrationTestSuite))
}

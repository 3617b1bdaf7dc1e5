package flows_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/octabyte/taskdesk/api"
	"github.com/octabyte/taskdesk/flows"
	"github.com/octabyte/taskdesk/models"
	"github.com/stretchr/testify/suite"
)

type ProfileTestSuite struct {
	suite.Suite
	env  *env
	flow *flows.Profile
}

func (s *ProfileTestSuite) SetupTest() {
	s.env = newEnv(s.T())
	s.Require().NoError(s.env.store.Set(context.Background(), s.env.fake.IssueTokens(testEmail)))
	s.flow = flows.NewProfile(s.env.client, s.env.store, s.env.deps())
}

func (s *ProfileTestSuite) TestLoadCachesUser() {
	var seen []models.User
	s.flow.OnUser(func(u models.User) { seen = append(seen, u) })

	user, err := s.flow.Load(context.Background())
	s.Require().NoError(err)
	s.Equal(testName, user.FullName)
	s.Equal([]models.User{*user}, seen)

	cached, err := s.env.store.User(context.Background())
	s.Require().NoError(err)
	s.Equal(user, cached)
}

func (s *ProfileTestSuite) TestLoadFailureNotifies() {
	s.env.fake.FailNext(api.PathProfile, http.StatusInternalServerError, nil)

	_, err := s.flow.Load(context.Background())
	s.Error(err)
	s.Equal(flows.MsgProfileLoadFailed, s.env.latestMessage())
	s.Nil(s.flow.State().User)
}

func (s *ProfileTestSuite) TestUpdateName() {
	user, err := s.flow.UpdateName(context.Background(), "  Ada King ")
	s.Require().NoError(err)
	s.Equal("Ada King", user.FullName)
	s.Equal(flows.MsgProfileUpdated, s.env.latestMessage())
	s.Equal("Ada King", s.flow.State().User.FullName)
}

func (s *ProfileTestSuite) TestPasswordMismatchStaysLocal() {
	err := s.flow.ChangePassword(context.Background(), models.PasswordChange{
		CurrentPassword: testPassword,
		NewPassword:     "Newer#Pass1",
		ConfirmPassword: "Other#Pass1",
	})

	s.ErrorIs(err, flows.ErrPasswordMismatch)
	s.Equal(map[string]string{"confirm_password": flows.MsgPasswordsDoNotMatch}, s.flow.State().PasswordErrors)
	s.Equal(0, s.env.fake.Calls(api.PathChangePassword))
}

func (s *ProfileTestSuite) TestWrongCurrentPassword() {
	err := s.flow.ChangePassword(context.Background(), models.PasswordChange{
		CurrentPassword: "nope",
		NewPassword:     "Newer#Pass1",
		ConfirmPassword: "Newer#Pass1",
	})

	s.Error(err)
	s.Equal("Current password is incorrect.", s.flow.State().PasswordErrors["current_password"])
	s.Equal(flows.MsgPasswordChangeFailed, s.env.latestMessage())
}

func (s *ProfileTestSuite) TestChangePassword() {
	ctx := context.Background()
	s.Require().NoError(s.flow.ChangePassword(ctx, models.PasswordChange{
		CurrentPassword: testPassword,
		NewPassword:     "Newer#Pass1",
		ConfirmPassword: "Newer#Pass1",
	}))
	s.Empty(s.flow.State().PasswordErrors)
	s.Equal(flows.MsgPasswordChanged, s.env.latestMessage())

	_, err := s.env.client.LoginWithPassword(ctx, testEmail, "Newer#Pass1")
	s.NoError(err)
}

func TestProfileTestSuite(t *testing.T) {
	suite.Run(t, new(ProfileTestSuite))
}

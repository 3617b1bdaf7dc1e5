package fakeapi

import (
	"time"

	"github.com/octabyte/taskdesk/models"
)

// AddUser registers an account directly, skipping the OTP round trip.
func (s *Server) AddUser(email, fullName, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[email] = newAccount(models.User{Email: email, FullName: fullName}, password)
}

func (s *Server) HasUser(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[email]
	return ok
}

// Calls returns how often route (e.g. "/users/token/refresh/") was hit.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// LastOTP returns the most recent code "emailed" to email.
func (s *Server) LastOTP(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOTP[email]
}

// ExpireAccessTokens invalidates every access token issued so far.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessGen++
}

// RevokeRefreshTokens invalidates every refresh token issued so far.
func (s *Server) RevokeRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshGen++
}

// ExpireRegistration drops the pending registration data for email.
func (s *Server) ExpireRegistration(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.registrations, email)
}

// FailNext queues a canned response for the next call to route. A nil body sends no content.
func (s *Server) FailNext(route string, status int, body interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], injectedFailure{status: status, body: body})
}

// Delay holds every call to route for d of wall time before handling it.
func (s *Server) Delay(route string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays[route] = d
}

package domainerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite tests the domain error primitives.
//
// Justification: these primitives sit at every boundary between the API
// client and the workflow engine. Invariants like "wrapped domain errors
// preserve the original code" and "errors.Is matches by code" must hold.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorInterface() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeNotFound, Message: "cause not found"}
		s.Equal("cause not found", err.Error())
	})

	s.Run("returns code when message is empty", func() {
		err := &Error{Code: CodePaymentUnverified}
		s.Equal("payment_unverified", err.Error())
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("wraps plain errors with the given code", func() {
		inner := errors.New("connection refused")
		err := Wrap(inner, CodeInternal, "initiate call failed")
		s.True(HasCode(err, CodeInternal))
		s.True(errors.Is(err, inner))
	})

	s.Run("preserves the inner domain code", func() {
		inner := New(CodePaymentCancelled, "cancelled")
		err := Wrap(inner, CodeInternal, "workflow step failed")
		s.True(HasCode(err, CodePaymentCancelled))
	})
}

func (s *DomainErrorsSuite) TestIsMatching() {
	s.Run("matches by code only", func() {
		err1 := &Error{Code: CodeValidation, Message: "amount must be positive"}
		err2 := &Error{Code: CodeValidation, Message: "email is required"}
		s.True(errors.Is(err1, err2))
	})

	s.Run("does not match different codes", func() {
		s.False(errors.Is(New(CodePaymentCancelled, ""), New(CodePaymentUnverified, "")))
	})

	s.Run("does not match non-domain errors", func() {
		s.False(errors.Is(New(CodeNotFound, "x"), errors.New("x")))
	})
}

func (s *DomainErrorsSuite) TestMessage() {
	s.Run("returns the domain message", func() {
		err := New(CodeInitiationRejected, "cause is not accepting donations")
		s.Equal("cause is not accepting donations", Message(err, "fallback"))
	})

	s.Run("falls back for plain errors", func() {
		s.Equal("fallback", Message(errors.New("boom"), "fallback"))
	})

	s.Run("falls back for empty domain message", func() {
		s.Equal("fallback", Message(&Error{Code: CodeInternal}, "fallback"))
	})
}

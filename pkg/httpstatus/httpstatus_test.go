package httpstatus

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "seva/pkg/domain-errors"
)

type HTTPStatusSuite struct {
	suite.Suite
}

func TestHTTPStatusSuite(t *testing.T) {
	suite.Run(t, new(HTTPStatusSuite))
}

func (s *HTTPStatusSuite) TestToCode() {
	cases := []struct {
		status int
		code   dErrors.Code
	}{
		{http.StatusUnauthorized, dErrors.CodeUnauthorized},
		{http.StatusForbidden, dErrors.CodeForbidden},
		{http.StatusNotFound, dErrors.CodeNotFound},
		{http.StatusConflict, dErrors.CodeConflict},
		{http.StatusUnprocessableEntity, dErrors.CodeValidation},
		{http.StatusRequestTimeout, dErrors.CodeTimeout},
		{http.StatusGatewayTimeout, dErrors.CodeTimeout},
		{http.StatusBadRequest, dErrors.CodeBadRequest},
		{http.StatusTeapot, dErrors.CodeBadRequest},
		{http.StatusInternalServerError, dErrors.CodeInternal},
		{http.StatusBadGateway, dErrors.CodeInternal},
	}
	for _, tc := range cases {
		s.Equal(tc.code, ToCode(tc.status), "status %d", tc.status)
	}
}

package http

import (
	"net/http"

	"github.com/redbrickhq/gatehouse/pkg/httpx"
)

// responseCode pairs an HTTP status with the stable machine-readable
// code and human message carried in the response envelope.
type responseCode struct {
	Status  int
	Code    string
	Message string
}

func (c responseCode) write(w http.ResponseWriter, body any) {
	httpx.WriteEnvelope(w, c.Status, c.Code, c.Message, body)
}

var (
	codeCreatedUser    = responseCode{http.StatusCreated, "CREATED_USER", "user created"}
	codeLoginSuccess   = responseCode{http.StatusOK, "LOGIN_SUCCESS", "login successful"}
	codeReissueSuccess = responseCode{http.StatusOK, "REISSUE_SUCCESS", "token reissued"}
	codeReadIsLogin    = responseCode{http.StatusOK, "READ_IS_LOGIN", "authentication state"}
	codeSignupComplete = responseCode{http.StatusOK, "SIGNUP_COMPLETE", "signup completed"}
	codeUpdatePassword = responseCode{http.StatusOK, "UPDATE_PASSWORD", "password updated"}
	codeOAuthLogin     = responseCode{http.StatusOK, "OAUTH_LOGIN_SUCCESS", "social login successful"}
	codeHealthy        = responseCode{http.StatusOK, "HEALTHY", "service healthy"}

	codeBadRequest     = responseCode{http.StatusBadRequest, "BAD_REQUEST", "malformed request"}
	codeLoginFailed    = responseCode{http.StatusUnauthorized, "LOGIN_FAILED", "invalid email or password"}
	codeNotFoundUser   = responseCode{http.StatusNotFound, "NOT_FOUND_USER", "user not found"}
	codeNotFoundRoute  = responseCode{http.StatusNotFound, "NOT_FOUND", "resource not found"}
	codeDuplicateUser  = responseCode{http.StatusConflict, "DUPLICATE_USER", "email already in use"}
	codeRefreshInvalid = responseCode{http.StatusUnauthorized, "INVALID_REFRESH_TOKEN", "refresh token rejected"}
	codeRoleIneligible = responseCode{http.StatusForbidden, httpx.CodeRoleNotEligible, "role not eligible for this operation"}
	codeOAuthFailed    = responseCode{http.StatusUnauthorized, "OAUTH_LOGIN_FAILED", "social login failed"}
	codeUnhealthy      = responseCode{http.StatusServiceUnavailable, "UNHEALTHY", "service not ready"}
	codeInternalError  = responseCode{http.StatusInternalServerError, httpx.CodeInternalError, "internal server error"}
)

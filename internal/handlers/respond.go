package handlers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/valyala/fasthttp"

	"bank-office/internal/models"
	"bank-office/internal/repository"
	"bank-office/internal/utils"
)

func writeJSON(ctx *fasthttp.RequestCtx, status int, body interface{}) {
	ctx.SetStatusCode(status)
	ctx.SetContentType("application/json")
	json.NewEncoder(ctx).Encode(body)
}

func writeError(ctx *fasthttp.RequestCtx, path string, start time.Time, err error) {
	status := statusForError(err)
	writeJSON(ctx, status, map[string]string{"error": err.Error()})
	utils.LogResponse(path, status, time.Since(start))
}

func writeBadRequest(ctx *fasthttp.RequestCtx, path string, start time.Time, message string) {
	writeJSON(ctx, fasthttp.StatusBadRequest, map[string]string{"error": message})
	utils.LogResponse(path, fasthttp.StatusBadRequest, time.Since(start))
}

// statusForError maps the error taxonomy onto HTTP statuses. Business rule
// violations are client errors; anything unrecognized is a 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrWrongPIN),
		errors.Is(err, models.ErrUnauthorizedAccess):
		return fasthttp.StatusForbidden

	case errors.Is(err, models.ErrAlreadyHasAccount),
		errors.Is(err, models.ErrDuplicateLoan),
		errors.Is(err, repository.ErrUserExists),
		errors.Is(err, repository.ErrConflict):
		return fasthttp.StatusConflict

	case errors.Is(err, repository.ErrAccountNotFound),
		errors.Is(err, repository.ErrDestinationNotFound),
		errors.Is(err, repository.ErrLoanNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrPlanNotFound),
		errors.Is(err, repository.ErrGoalNotFound):
		return fasthttp.StatusNotFound

	case errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrSameAccount),
		errors.Is(err, models.ErrDailyLimitExceeded),
		errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrBelowMinimumBalance),
		errors.Is(err, models.ErrAccountNotApproved),
		errors.Is(err, models.ErrBelowMinimumAge),
		errors.Is(err, models.ErrInvalidPIN),
		errors.Is(err, models.ErrNoAccount),
		errors.Is(err, models.ErrNoApprovedLoan),
		errors.Is(err, models.ErrRepaymentExceedsBalance),
		errors.Is(err, models.ErrLoanAmountTooHigh),
		errors.Is(err, models.ErrInvalidLoanProduct),
		errors.Is(err, models.ErrInvalidTransition):
		return fasthttp.StatusBadRequest

	default:
		return fasthttp.StatusInternalServerError
	}
}

// authedUser pulls the user id the middleware stored; a miss means the route
// was wired without RequireAuth.
func authedUser(ctx *fasthttp.RequestCtx, path string, start time.Time) (string, bool) {
	userID, ok := ctx.UserValue("user_id").(string)
	if !ok {
		utils.LogError("Handlers", "missing user_id in request context", nil)
		writeJSON(ctx, fasthttp.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		utils.LogResponse(path, fasthttp.StatusUnauthorized, time.Since(start))
		return "", false
	}
	return userID, true
}

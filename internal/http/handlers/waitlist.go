package handlers

import (
	"time"

	"github.com/valyala/fasthttp"

	"leadsite/internal/config"
	dbpkg "leadsite/internal/db"
	"leadsite/internal/validate"
)

const formWaitlist = "waitlist"

type waitlistRequest struct {
	Email    string `json:"email" validate:"required,address,max=320"`
	FullName string `json:"full_name" validate:"max=255"`
	Company  string `json:"company" validate:"max=255"`
	Phone    string `json:"phone" validate:"max=64"`
	Message  string `json:"message"`
}

func (r *waitlistRequest) normalize() {
	r.Email = validate.NormalizeEmail(r.Email)
	r.FullName = validate.Trim(r.FullName)
	r.Company = validate.Trim(r.Company)
	r.Phone = validate.Trim(r.Phone)
	r.Message = validate.Trim(r.Message)
}

// JoinWaitlist adds an early-access request. The datastore enforces one
// entry per email; a repeat is a 409.
func JoinWaitlist(gw dbpkg.Gateway, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req waitlistRequest
		if !decodeBody(ctx, &req) {
			return
		}
		req.normalize()
		if err := validate.Struct(&req); err != nil {
			validationFailed(ctx, formWaitlist, err)
			return
		}

		row := &dbpkg.WaitlistEntry{
			Email:    req.Email,
			FullName: optional(req.FullName),
			Company:  optional(req.Company),
			Phone:    optional(req.Phone),
			Message:  optional(req.Message),
		}

		start := time.Now()
		err := gw.Insert(ctx, row)
		observePersist(formWaitlist, start)
		if err != nil {
			if dbpkg.IsConflict(err) {
				submissionsTotal.WithLabelValues(formWaitlist, outcomeConflict).Inc()
				errResponse(ctx, fasthttp.StatusConflict, "Email already registered for waitlist")
				return
			}
			persistFailure(err, "waitlist insertion failed")
			submissionsTotal.WithLabelValues(formWaitlist, outcomeError).Inc()
			errResponse(ctx, fasthttp.StatusInternalServerError, "Failed to join waitlist")
			return
		}

		recordEvent(ctx, gw, cfg, "waitlist_signup", map[string]any{
			"email":       req.Email,
			"has_company": req.Company != "",
			"has_phone":   req.Phone != "",
			"has_message": req.Message != "",
		})

		submissionsTotal.WithLabelValues(formWaitlist, outcomeCreated).Inc()
		jsonResponse(ctx, fasthttp.StatusCreated, map[string]any{
			"message": "Successfully joined waitlist!",
			"data":    map[string]any{"id": row.ID, "email": row.Email},
		})
	}
}

// ListWaitlist returns every waitlist entry, newest first.
func ListWaitlist(gw dbpkg.Gateway) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}

		rows := []dbpkg.WaitlistEntry{}
		if err := gw.Select(ctx, &rows, dbpkg.Query{OrderBy: dbpkg.NewestFirst}); err != nil {
			persistFailure(err, "waitlist fetch failed")
			errResponse(ctx, fasthttp.StatusInternalServerError, "Failed to fetch waitlist entries")
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{"data": rows})
	}
}

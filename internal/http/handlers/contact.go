package handlers

import (
	"time"
	"unicode/utf8"

	"github.com/valyala/fasthttp"

	"leadsite/internal/config"
	dbpkg "leadsite/internal/db"
	"leadsite/internal/validate"
)

const formContact = "contact"

type contactRequest struct {
	FullName string `json:"full_name" validate:"required,max=255" label:"name"`
	Email    string `json:"email" validate:"required,address,max=320"`
	Company  string `json:"company" validate:"max=255"`
	Phone    string `json:"phone" validate:"max=64"`
	Subject  string `json:"subject" validate:"max=255"`
	Message  string `json:"message" validate:"required"`
}

func (r *contactRequest) normalize() {
	r.FullName = validate.Trim(r.FullName)
	r.Email = validate.NormalizeEmail(r.Email)
	r.Company = validate.Trim(r.Company)
	r.Phone = validate.Trim(r.Phone)
	r.Subject = validate.Trim(r.Subject)
	r.Message = validate.Trim(r.Message)
}

// CreateContact stores a contact form submission.
func CreateContact(gw dbpkg.Gateway, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req contactRequest
		if !decodeBody(ctx, &req) {
			return
		}
		req.normalize()
		if err := validate.Struct(&req); err != nil {
			validationFailed(ctx, formContact, err)
			return
		}

		row := &dbpkg.ContactSubmission{
			FullName: req.FullName,
			Email:    req.Email,
			Company:  optional(req.Company),
			Phone:    optional(req.Phone),
			Subject:  optional(req.Subject),
			Message:  req.Message,
		}

		start := time.Now()
		err := gw.Insert(ctx, row)
		observePersist(formContact, start)
		if err != nil {
			persistFailure(err, "contact submission failed")
			submissionsTotal.WithLabelValues(formContact, outcomeError).Inc()
			errResponse(ctx, fasthttp.StatusInternalServerError, "Failed to submit contact form")
			return
		}

		recordEvent(ctx, gw, cfg, "contact_form_submission", map[string]any{
			"has_company":    req.Company != "",
			"has_phone":      req.Phone != "",
			"has_subject":    req.Subject != "",
			"message_length": utf8.RuneCountInString(req.Message),
		})

		submissionsTotal.WithLabelValues(formContact, outcomeCreated).Inc()
		jsonResponse(ctx, fasthttp.StatusCreated, map[string]any{
			"message": "Contact form submitted successfully!",
			"data":    map[string]any{"id": row.ID},
		})
	}
}

// ListContacts returns every contact submission, newest first.
func ListContacts(gw dbpkg.Gateway) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if _, ok := MustUser(ctx); !ok {
			return
		}

		rows := []dbpkg.ContactSubmission{}
		if err := gw.Select(ctx, &rows, dbpkg.Query{OrderBy: dbpkg.NewestFirst}); err != nil {
			persistFailure(err, "contact submissions fetch failed")
			errResponse(ctx, fasthttp.StatusInternalServerError, "Failed to fetch contact submissions")
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{"data": rows})
	}
}

package handlers

import (
	"time"

	"github.com/valyala/fasthttp"

	"leadsite/internal/config"
	dbpkg "leadsite/internal/db"
	"leadsite/internal/validate"
)

const (
	formNewsletter  = "newsletter"
	formUnsubscribe = "newsletter_unsubscribe"
)

type subscribeRequest struct {
	Email    string `json:"email" validate:"required,address,max=320"`
	FullName string `json:"full_name" validate:"max=255"`
	Source   string `json:"source" validate:"max=64"`
}

// Subscribe adds an address to the newsletter. A second signup with the
// same address is a 409.
func Subscribe(gw dbpkg.Gateway, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req subscribeRequest
		if !decodeBody(ctx, &req) {
			return
		}
		req.Email = validate.NormalizeEmail(req.Email)
		req.FullName = validate.Trim(req.FullName)
		req.Source = validate.Trim(req.Source)
		if req.Source == "" {
			req.Source = dbpkg.DefaultSource
		}
		if err := validate.Struct(&req); err != nil {
			validationFailed(ctx, formNewsletter, err)
			return
		}

		row := &dbpkg.NewsletterSubscriber{
			Email:    req.Email,
			FullName: optional(req.FullName),
			Source:   req.Source,
			Status:   dbpkg.StatusSubscribed,
		}

		start := time.Now()
		err := gw.Insert(ctx, row)
		observePersist(formNewsletter, start)
		if err != nil {
			if dbpkg.IsConflict(err) {
				submissionsTotal.WithLabelValues(formNewsletter, outcomeConflict).Inc()
				errResponse(ctx, fasthttp.StatusConflict, "Email already subscribed to newsletter")
				return
			}
			persistFailure(err, "newsletter subscription failed")
			submissionsTotal.WithLabelValues(formNewsletter, outcomeError).Inc()
			errResponse(ctx, fasthttp.StatusInternalServerError, "Failed to subscribe to newsletter")
			return
		}

		recordEvent(ctx, gw, cfg, "newsletter_signup", map[string]any{
			"email":    req.Email,
			"source":   req.Source,
			"has_name": req.FullName != "",
		})

		submissionsTotal.WithLabelValues(formNewsletter, outcomeCreated).Inc()
		jsonResponse(ctx, fasthttp.StatusCreated, map[string]any{
			"message": "Successfully subscribed to newsletter!",
			"data":    map[string]any{"id": row.ID, "email": row.Email},
		})
	}
}

// Unsubscribe marks ?email= as unsubscribed. The row is kept, and an
// address that was never subscribed still gets a 200.
func Unsubscribe(gw dbpkg.Gateway, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		email := validate.NormalizeEmail(string(ctx.QueryArgs().Peek("email")))
		if err := validate.RequireFields(
			map[string]string{"email": email},
			validate.Field{Name: "email", Label: "email"},
		); err != nil {
			validationFailed(ctx, formUnsubscribe, err)
			return
		}

		start := time.Now()
		_, err := gw.Update(ctx, &dbpkg.NewsletterSubscriber{},
			map[string]any{"status": dbpkg.StatusUnsubscribed},
			dbpkg.Filter{"email": email},
		)
		observePersist(formUnsubscribe, start)
		if err != nil {
			persistFailure(err, "newsletter unsubscribe failed")
			submissionsTotal.WithLabelValues(formUnsubscribe, outcomeError).Inc()
			errResponse(ctx, fasthttp.StatusInternalServerError, "Failed to unsubscribe")
			return
		}

		recordEvent(ctx, gw, cfg, "newsletter_unsubscribe", map[string]any{"email": email})

		submissionsTotal.WithLabelValues(formUnsubscribe, outcomeOK).Inc()
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{"message": "Successfully unsubscribed from newsletter"})
	}
}

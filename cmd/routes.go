package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
)

func (app *application) JWTMiddlewareWithRole(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return app.JWTMiddleware(next, requiredRole)
	}
}

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders)
	authMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole("user"))
	adminAuthMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole("admin"))

	mux := pat.New()

	// Payment gateway webhooks; authenticated by signature, not by JWT.
	mux.Post("/webhook/payments", standardMiddleware.ThenFunc(app.webhookHandler.Receive))

	// One-off donations
	mux.Post("/donation/intent", authMiddleware.ThenFunc(app.donationHandler.CreateIntent))
	mux.Get("/donation/history", authMiddleware.ThenFunc(app.donationHandler.History))

	// Donation manager and recurring plans
	mux.Get("/donation/manager", authMiddleware.ThenFunc(app.managerHandler.GetManager))
	mux.Post("/donation/manager/organization/:organization_id", authMiddleware.ThenFunc(app.managerHandler.Follow))
	mux.Del("/donation/manager/organization/:organization_id", authMiddleware.ThenFunc(app.managerHandler.Unfollow))
	mux.Put("/donation/manager/organization", authMiddleware.ThenFunc(app.managerHandler.Swap))
	mux.Post("/donation/subscription", authMiddleware.ThenFunc(app.managerHandler.CreateRecurring))
	mux.Put("/donation/subscription", authMiddleware.ThenFunc(app.managerHandler.UpdateRecurring))

	// Push tokens
	mux.Post("/notify_token", authMiddleware.ThenFunc(app.notificationHandler.CreateToken))
	mux.Del("/notify_token/:token", authMiddleware.ThenFunc(app.notificationHandler.DeleteToken))

	// Admin
	mux.Get("/organization/:organization_id/donations", adminAuthMiddleware.ThenFunc(app.donationHandler.ListByOrganization))

	return mux
}

package invoices

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes registers the invoice endpoints on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)

	r.Route("/{invoiceNumber}", func(r chi.Router) {
		r.Get("/", h.Show)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Patch("/payment", h.UpdatePayment)
		r.Get("/pdf", h.DownloadPDF)

		r.Route("/items", func(r chi.Router) {
			r.Get("/", h.ListItems)
			r.Post("/", h.AddItem)
			r.Patch("/bulk", h.BulkReplaceItems)
			r.Get("/{itemID}", h.ShowItem)
			r.Put("/{itemID}", h.UpdateItem)
			r.Delete("/{itemID}", h.DeleteItem)
		})
	})
}

package service

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mmynk/tabsplit/internal/render"
	"github.com/mmynk/tabsplit/internal/sharecodec"
)

const landingText = `tabsplit

Scan a receipt, assign items to people and share each person's part.
Open a share link (/?share=...) to see a breakdown.
`

// ShareViewer serves the read-only view of a shared breakdown at
// GET /?share=<token>. A missing or malformed token falls through to the
// landing text.
func ShareViewer() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		token := r.URL.Query().Get(sharecodec.QueryParam)
		if token == "" {
			fmt.Fprint(w, landingText)
			return
		}
		shared, err := sharecodec.Decode(token)
		if err != nil {
			slog.Warn("Ignoring malformed share token", "error", err, "length", len(token))
			fmt.Fprint(w, landingText)
			return
		}

		render.Shared(w, *shared)
		fmt.Fprintf(w, "\n%s\n", render.ShareTitle(*shared))
	})
}

// Healthz reports that the server is up.
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

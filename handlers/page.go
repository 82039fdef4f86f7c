package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed templates/form.html
var templatesFS embed.FS

// WidgetScriptURL is where the browser loads the upload widget from.
const WidgetScriptURL = "https://widget.cloudinary.com/v2.0/global/all.js"

func formTemplate() *template.Template {
	return template.Must(template.New("").ParseFS(templatesFS, "templates/form.html"))
}

// TurnstileScriptURL loads the Cloudflare Turnstile challenge.
const TurnstileScriptURL = "https://challenges.cloudflare.com/turnstile/v0/api.js"

// Page serves the debtor form. A non-empty turnstileSiteKey renders the bot
// check, whose token the page sends along when it opens the widget.
func Page(turnstileSiteKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "form.html", gin.H{
			"WidgetScript":    WidgetScriptURL,
			"TurnstileScript": TurnstileScriptURL,
			"TurnstileSite":   turnstileSiteKey,
			"APIBase":         "/api/v1",
		})
	}
}

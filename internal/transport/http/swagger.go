package transporthttp

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"

	"happinessdash/docs"
)

const openAPIPath = "/swagger/openapi.yaml"

var swaggerTmpl = template.Must(template.New("swagger").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  <style>body { margin: 0; } #swagger-ui { min-height: 100vh; }</style>
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function () {
      window.ui = SwaggerUIBundle({ url: {{.SpecURL}}, dom_id: "#swagger-ui", deepLinking: true });
    };
  </script>
</body>
</html>`))

type swaggerPage struct {
	Title   string
	SpecURL string
}

// mountDocs registers the OpenAPI document and its Swagger UI page. Nothing
// is mounted when the document is empty.
func mountDocs(r chi.Router) {
	if len(docs.OpenAPISpec) == 0 {
		return
	}

	var page bytes.Buffer
	_ = swaggerTmpl.Execute(&page, swaggerPage{Title: "Happiness Dashboard API", SpecURL: openAPIPath})
	ui := page.Bytes()

	serveUI := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(ui)
	}
	r.Get("/swagger", serveUI)
	r.Get("/swagger/", serveUI)
	r.Get(openAPIPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(docs.OpenAPISpec)
	})
}

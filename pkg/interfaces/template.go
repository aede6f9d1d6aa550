package interfaces

import (
	"io"
)

// TemplateRenderer abstracts the template engine used to produce rendered
// pages. Hosts can plug any engine that resolves templates by name; the
// optional writers receive the rendered output in addition to the returned
// string.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}

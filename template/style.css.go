package template

const (
	StylePath = "style/nav.css"
	StyleCSS  = `BODY {color: white;}`
)

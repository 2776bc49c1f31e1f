package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"
	"strconv"
)

var pageTmpl *template.Template

var funcs = template.FuncMap{
	"mean":  FormatMean,
	"value": FormatValue,
}

// loadTemplatesFromFS parses dir/*.html and dir/partials/*.html from fsys.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.New("").Funcs(funcs).ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	pageTmpl = tmpl
	return nil
}

// LoadTemplates parses the embedded templates. Call it once during startup and
// do not serve requests if it fails.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

func RenderDashboard(w io.Writer, data *DashboardData) error {
	if pageTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	return pageTmpl.ExecuteTemplate(w, "dashboard.html", data)
}

// RenderHourlyPartial executes only the hourly fragment, for HTMX swaps.
func RenderHourlyPartial(w io.Writer, data *HourlyData) error {
	if pageTmpl == nil {
		return errors.New("hourly template not loaded: call views.LoadTemplates during startup")
	}
	return pageTmpl.ExecuteTemplate(w, "partials/hourly.html", data)
}

// FormatMean prints v with two decimals, or "n/a" when it is missing.
func FormatMean(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

// FormatValue prints a raw sensor cell; missing cells are blank.
func FormatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

package site

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// DateLayout is the sv-SE short date format
const DateLayout = "2006-01-02"

var printer = message.NewPrinter(language.Swedish)

// FormatInt formats n with Swedish thousands separators
func FormatInt(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatDate formats t as a sv-SE date
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// PlayerCount is the division card label
func PlayerCount(n int) string {
	return fmt.Sprintf("%d skyttar", n)
}

// InfoLine is the line above the ranking table
func InfoLine(filtered, total int) string {
	if filtered == total {
		return fmt.Sprintf("Visar %d skyttar", total)
	}
	return fmt.Sprintf("Visar %d av %d skyttar", filtered, total)
}

// OneDecimal rounds for display only
func OneDecimal(f float64) string {
	return strconv.FormatFloat(f, 'f', 1, 64)
}

// Percentage is the percentage-of-best label, e.g. "98.3%"
func Percentage(f float64) string {
	return OneDecimal(f) + "%"
}

// MuSigma renders "mu ± sigma"
func MuSigma(mu, sigma float64) string {
	return OneDecimal(mu) + " ± " + OneDecimal(sigma)
}

// RankClass highlights the podium
func RankClass(rank int) string {
	switch rank {
	case 1, 2, 3:
		return "rank-" + strconv.Itoa(rank)
	}
	return ""
}

// BarWidth is the inline style of the percentage bar; the value is not rounded
func BarWidth(pct float64) template.CSS {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return template.CSS("width: " + strconv.FormatFloat(pct, 'f', -1, 64) + "%")
}

// Renderer executes the embedded page templates
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("site").Funcs(template.FuncMap{
		"oneDecimal": OneDecimal,
		"percentage": Percentage,
		"muSigma":    MuSigma,
		"rankClass":  RankClass,
		"barWidth":   BarWidth,
	}).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

type rankingView struct {
	*RankingPage
	ErrorTitle   string
	ErrorMessage string
	BackLink     string
}

func newRankingView(p *RankingPage) rankingView {
	return rankingView{
		RankingPage:  p,
		ErrorTitle:   LoadErrorTitle,
		ErrorMessage: LoadErrorMessage,
		BackLink:     BackLinkText,
	}
}

// Overview renders the overview page
func (r *Renderer) Overview(w io.Writer, page *OverviewPage) error {
	return r.tmpl.ExecuteTemplate(w, "overview", struct {
		*OverviewPage
		SiteName string
	}{page, SiteName})
}

// Ranking renders the full ranking page, or its error panel
func (r *Renderer) Ranking(w io.Writer, page *RankingPage) error {
	return r.tmpl.ExecuteTemplate(w, "ranking", newRankingView(page))
}

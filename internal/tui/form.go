package tui

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"webmon/internal/api"
	"webmon/internal/errors"
	"webmon/internal/locale"
)

// MinCheckInterval is the shortest check interval the form accepts, in
// seconds.
const MinCheckInterval = 60

const (
	fieldName = iota
	fieldURL
	fieldInterval
	fieldKeywords
	fieldCount
)

// websiteForm holds the inputs of the add and edit dialogs.
type websiteForm struct {
	inputs [fieldCount]textinput.Model
	focus  int
}

func newWebsiteForm(w *api.Website) websiteForm {
	var f websiteForm
	placeholders := [fieldCount]string{"Name", "https://", "300", "keyword, keyword"}
	for i := range f.inputs {
		f.inputs[i] = textinput.New()
		f.inputs[i].Placeholder = placeholders[i]
		f.inputs[i].CharLimit = 500
	}
	f.inputs[fieldInterval].SetValue("300")
	if w != nil {
		f.inputs[fieldName].SetValue(w.Name)
		f.inputs[fieldURL].SetValue(w.URL)
		f.inputs[fieldInterval].SetValue(strconv.Itoa(w.CheckInterval))
		f.inputs[fieldKeywords].SetValue(strings.Join(w.KeywordTexts(), ", "))
	}
	f.inputs[fieldName].Focus()
	return f
}

// next moves focus to the following field, wrapping around.
func (f *websiteForm) next(step int) {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + step + fieldCount) % fieldCount
	f.inputs[f.focus].Focus()
}

func (f *websiteForm) last() bool {
	return f.focus == fieldCount-1
}

func (f *websiteForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// input validates the fields and builds the request body.
func (f *websiteForm) input(loc *locale.Locale) (api.WebsiteInput, error) {
	name := strings.TrimSpace(f.inputs[fieldName].Value())
	rawURL := strings.TrimSpace(f.inputs[fieldURL].Value())
	if name == "" || rawURL == "" {
		return api.WebsiteInput{}, errors.ValidationError("tui", loc.T(locale.NameURLRequired))
	}
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return api.WebsiteInput{}, errors.ValidationError("tui", loc.T(locale.InvalidURL))
	}
	interval, err := strconv.Atoi(strings.TrimSpace(f.inputs[fieldInterval].Value()))
	if err != nil || interval < MinCheckInterval {
		return api.WebsiteInput{}, errors.ValidationError("tui", loc.T(locale.InvalidInterval, MinCheckInterval))
	}
	keywords := []string{}
	for _, k := range strings.Split(f.inputs[fieldKeywords].Value(), ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return api.WebsiteInput{Name: name, URL: rawURL, CheckInterval: interval, Keywords: keywords}, nil
}

func (f *websiteForm) view(title string) string {
	labels := [fieldCount]string{"Name:     ", "URL:      ", "Interval: ", "Keywords: "}
	var b strings.Builder
	b.WriteString(title + "\n")
	for i, in := range f.inputs {
		b.WriteString(labels[i] + in.View() + "\n")
	}
	b.WriteString("Press Tab to switch, Enter to confirm, Esc to cancel")
	return b.String()
}

package search

import (
	"io"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/bioscience-explorer/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names and structure follow the CSL-JSON/CSL-YAML schema
// so that output is consumable by Pandoc and reference managers.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title"`
	Author         []CSLName `yaml:"author,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Abstract       string    `yaml:"abstract,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
	URL            string    `yaml:"URL,omitempty"`
	Keyword        string    `yaml:"keyword,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// FormatCSL writes publications as a CSL-YAML list to w.
func FormatCSL(pubs []types.Publication, w io.Writer) error {
	items := make([]CSLItem, len(pubs))
	for i, p := range pubs {
		items[i] = toCSLItem(p)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

// toCSLItem converts a Publication to a CSLItem.
func toCSLItem(p types.Publication) CSLItem {
	item := CSLItem{
		ID:             p.ID,
		Type:           "article-journal",
		Title:          p.Title,
		ContainerTitle: p.Journal,
		Abstract:       p.Abstract,
		DOI:            p.DOI,
		URL:            p.URL,
		Keyword:        strings.Join(p.Keywords, ", "),
	}

	for _, a := range splitAuthors(p.Authors) {
		item.Author = append(item.Author, parseAuthorName(a))
	}

	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if d, err := time.Parse(layout, p.PublicationDate); err == nil {
			item.Issued = &CSLDate{
				DateParts: [][]int{{d.Year(), int(d.Month()), d.Day()}},
			}
			break
		}
	}

	return item
}

// splitAuthors splits an author list of the form "Smith, J.A., Lee, H.J."
// into "Smith, J.A." and "Lee, H.J.". Lists without initials stay whole.
func splitAuthors(authors string) []string {
	authors = strings.TrimSpace(authors)
	if authors == "" {
		return nil
	}
	parts := strings.Split(authors, "., ")
	for i := 0; i < len(parts)-1; i++ {
		parts[i] += "."
	}
	return parts
}

// parseAuthorName splits "Family, Given" into CSL parts. Names without a
// comma (including group authors) use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.Index(name, ", ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Family: name[:idx],
		Given:  name[idx+2:],
	}
}

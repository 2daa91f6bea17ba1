// Package classify decides what a rendered feed element is: a date header,
// a search or viewed-page entry, a watched item or something unknown.
package classify

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/watchharvest/watchharvest/internal/date"
	"github.com/watchharvest/watchharvest/internal/types"
	"golang.org/x/net/html"
)

// Kind is the closed set of element categories.
type Kind int

const (
	Unrecognized Kind = iota
	Header
	SearchActivity
	ViewedLog
	Content
)

func (k Kind) String() string {
	switch k {
	case Header:
		return "header"
	case SearchActivity:
		return "search-activity"
	case ViewedLog:
		return "viewed-log"
	case Content:
		return "content"
	default:
		return "unrecognized"
	}
}

// ContentCandidate holds what could be extracted from a watched-item element.
// Any field except Channel may be empty; see Missing.
type ContentCandidate struct {
	ID           string
	Title        string
	TitleURL     string
	RawTimeLabel string
	Channel      *types.Subtitle
}

// Key identifies the activity across scans: the content id, or the title URL
// for elements without one.
func (c *ContentCandidate) Key() string {
	if c.ID != "" {
		return c.ID
	}
	return c.TitleURL
}

// Missing returns the names of the required fields that are empty.
func (c *ContentCandidate) Missing() []string {
	missing := []string{}
	if c.Key() == "" {
		missing = append(missing, "id")
	}
	if c.Title == "" {
		missing = append(missing, "title")
	}
	if c.TitleURL == "" {
		missing = append(missing, "titleUrl")
	}
	if c.RawTimeLabel == "" {
		missing = append(missing, "time")
	}
	return missing
}

// Classification is the result of classifying one element. Text is the
// header text for headers and the primary text otherwise. Content is only
// set for Kind Content.
type Classification struct {
	Kind    Kind
	Text    string
	Content *ContentCandidate
}

// Selectors configures where the classifier finds things inside an element.
type Selectors struct {
	Header        string `yaml:"header" env:"SELECTOR_HEADER" env-default:"div.MCZgpb > h2.rp10kf"`
	PrimaryText   string `yaml:"primary_text" env:"SELECTOR_PRIMARY_TEXT" env-default:"div.QTGV3c"`
	ContentID     string `yaml:"content_id" env:"SELECTOR_CONTENT_ID" env-default:"c-data"`
	ContentIDAttr string `yaml:"content_id_attr" env:"SELECTOR_CONTENT_ID_ATTR" env-default:"id"`
	TitleLink     string `yaml:"title_link" env:"SELECTOR_TITLE_LINK" env-default:"a.l8sGWb"`
	TimeLabel     string `yaml:"time_label" env:"SELECTOR_TIME_LABEL" env-default:"div.H3Q9vf.XTnvW"`
	TimeSeparator string `yaml:"time_separator" env:"SELECTOR_TIME_SEPARATOR" env-default:"•"`
	Channel       string `yaml:"channel" env:"SELECTOR_CHANNEL" env-default:"div.SiEggd a"`
	SearchPrefix  string `yaml:"search_prefix" env:"SELECTOR_SEARCH_PREFIX" env-default:"搜尋「"`
	ViewedPrefix  string `yaml:"viewed_prefix" env:"SELECTOR_VIEWED_PREFIX" env-default:"已查看「"`
	BaseURL       string `yaml:"base_url" env:"SELECTOR_BASE_URL" env-default:"https://www.youtube.com/"`
}

// HTMLClassifier classifies elements by parsing their outer html.
type HTMLClassifier struct {
	selectors Selectors
	baseURL   *url.URL
}

// NewHTMLClassifier returns a classifier using the given selectors.
func NewHTMLClassifier(s Selectors) (*HTMLClassifier, error) {
	if s.PrimaryText == "" || s.TitleLink == "" || s.TimeLabel == "" {
		return nil, errors.New("the primary_text, title_link and time_label selectors are required")
	}
	if s.ContentIDAttr == "" {
		s.ContentIDAttr = "id"
	}
	c := &HTMLClassifier{selectors: s}
	if s.BaseURL != "" {
		u, err := url.Parse(s.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base url %s: %w", s.BaseURL, err)
		}
		c.baseURL = u
	}
	return c, nil
}

// Classify parses el and returns its category. An error is only returned if
// the html cannot be parsed at all.
func (c *HTMLClassifier) Classify(el types.Element) (Classification, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(el.HTML))
	if err != nil {
		return Classification{}, fmt.Errorf("failed to parse element html: %w", err)
	}
	s := doc.Selection

	if text, ok := c.HeaderText(s); ok {
		return Classification{Kind: Header, Text: text}, nil
	}

	primary, ok := c.PrimaryText(s)
	if !ok {
		return Classification{Kind: Unrecognized}, nil
	}
	if c.selectors.SearchPrefix != "" && strings.HasPrefix(primary, c.selectors.SearchPrefix) {
		return Classification{Kind: SearchActivity, Text: primary}, nil
	}
	if c.selectors.ViewedPrefix != "" && strings.HasPrefix(primary, c.selectors.ViewedPrefix) {
		return Classification{Kind: ViewedLog, Text: primary}, nil
	}

	candidate, ok := c.ContentCandidate(s)
	if !ok {
		return Classification{Kind: Unrecognized, Text: primary}, nil
	}
	return Classification{Kind: Content, Text: primary, Content: candidate}, nil
}

// HeaderText returns the NFKC normalized text of the last header inside s.
// The boolean is true whenever a header node exists, even if its text is
// empty.
func (c *HTMLClassifier) HeaderText(s *goquery.Selection) (string, bool) {
	if c.selectors.Header == "" {
		return "", false
	}
	headers := s.Find(c.selectors.Header)
	if headers.Length() == 0 {
		return "", false
	}
	return date.Clean(nodeText(headers.Last())), true
}

// PrimaryText returns the NFKC normalized text of the element's main
// description.
func (c *HTMLClassifier) PrimaryText(s *goquery.Selection) (string, bool) {
	primary := s.Find(c.selectors.PrimaryText).First()
	if primary.Length() == 0 {
		return "", false
	}
	return date.Clean(nodeText(primary)), true
}

// ContentCandidate extracts a watched item. The boolean is false if the
// element has neither a content id nor a title link.
func (c *HTMLClassifier) ContentCandidate(s *goquery.Selection) (*ContentCandidate, bool) {
	cand := &ContentCandidate{}
	if c.selectors.ContentID != "" {
		cand.ID = strings.TrimSpace(s.Find(c.selectors.ContentID).First().AttrOr(c.selectors.ContentIDAttr, ""))
	}

	link := s.Find(c.selectors.PrimaryText).First().Find(c.selectors.TitleLink).First()
	if link.Length() > 0 {
		cand.Title = nodeText(link)
		cand.TitleURL = c.resolve(link.AttrOr("href", ""))
	}

	if cand.ID == "" && link.Length() == 0 {
		return nil, false
	}

	if label := s.Find(c.selectors.TimeLabel).First(); label.Length() > 0 {
		cand.RawTimeLabel = c.timeLabel(nodeText(label))
	}

	if c.selectors.Channel != "" {
		if ch := s.Find(c.selectors.Channel).First(); ch.Length() > 0 {
			cand.Channel = &types.Subtitle{
				Name: nodeText(ch),
				URL:  c.resolve(ch.AttrOr("href", "")),
			}
		}
	}
	return cand, true
}

// timeLabel keeps the part of the metadata line in front of the separator,
// e.g. "下午3:45 • 詳細資料" becomes "下午3:45".
func (c *HTMLClassifier) timeLabel(text string) string {
	if c.selectors.TimeSeparator != "" {
		text, _, _ = strings.Cut(text, c.selectors.TimeSeparator)
	}
	return strings.TrimSpace(text)
}

func (c *HTMLClassifier) resolve(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || c.baseURL == nil {
		return href
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	return c.baseURL.ResolveReference(u).String()
}

// nodeText returns the visible text of the selection with whitespace
// collapsed.
func nodeText(s *goquery.Selection) string {
	var b strings.Builder
	for _, n := range s.Nodes {
		collectText(n, &b)
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func collectText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "template":
			return
		case "br":
			b.WriteString(" ")
			return
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, b)
	}
	if n.Type == html.ElementNode && (n.Data == "div" || n.Data == "p" || n.Data == "li") {
		b.WriteString(" ")
	}
}

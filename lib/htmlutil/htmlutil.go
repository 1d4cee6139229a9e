package htmlutil

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func Parse(content string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(bytes.NewBufferString(content))
}

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// LabeledCellText finds the first table cell under sel whose text contains
// label and returns its full text. Label ordering and position vary per
// registry section, so cells are matched by content, never by index.
func LabeledCellText(sel *goquery.Selection, label string) (string, bool) {
	var out string
	found := false
	sel.Find("td").EachWithBreak(func(_ int, td *goquery.Selection) bool {
		text := td.Text()
		if strings.Contains(text, label) {
			out = strings.TrimSpace(text)
			found = true
			return false
		}
		return true
	})
	return out, found
}

// names of hidden form fields that carry document reference tokens,
// matched by substring when a section's row schema is unknown
var tokenFieldNames = []string{"token", "file", "doc", "valor"}

type TokenInput struct {
	Name   string
	Value  string
	Action string
}

// HiddenTokenInputs scans forms under sel for hidden inputs whose name
// suggests a document token. Inputs with empty values are skipped.
func HiddenTokenInputs(sel *goquery.Selection) []TokenInput {
	var tokens []TokenInput
	sel.Find("form").Each(func(_ int, form *goquery.Selection) {
		action := form.AttrOr("action", "")
		form.Find("input[type=hidden]").Each(func(_ int, input *goquery.Selection) {
			name := input.AttrOr("name", "")
			value := input.AttrOr("value", "")
			if value == "" {
				return
			}
			lower := strings.ToLower(name)
			for _, candidate := range tokenFieldNames {
				if strings.Contains(lower, candidate) {
					tokens = append(tokens, TokenInput{
						Name:   name,
						Value:  value,
						Action: action,
					})
					return
				}
			}
		})
	})
	return tokens
}

// FormTokenValue returns the value of input `inputName` inside the row's
// form named `formName`, for sections whose schema is known.
func FormTokenValue(row *goquery.Selection, formName, inputName string) (TokenInput, bool) {
	form := row.Find("form[name='" + formName + "']")
	if form.Length() == 0 {
		return TokenInput{}, false
	}
	value := form.Find("input[name='" + inputName + "']").AttrOr("value", "")
	if value == "" {
		return TokenInput{}, false
	}
	return TokenInput{
		Name:   inputName,
		Value:  value,
		Action: form.AttrOr("action", ""),
	}, true
}

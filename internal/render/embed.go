package render

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// EmbedChart replaces every cid:statusChart image source with an inline PNG
// data URL so the page renders in a browser without a mail client.
// Returns the document unchanged when it has no chart reference.
func EmbedChart(html []byte, png []byte) ([]byte, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse report html: %w", err)
	}

	imgs := doc.Find(fmt.Sprintf(`img[src="cid:%s"]`, ChartCID))
	if imgs.Length() == 0 {
		return html, nil
	}

	if len(png) == 0 {
		imgs.SetAttr("alt", "Chart unavailable")
		imgs.RemoveAttr("src")
	} else {
		imgs.SetAttr("src", "data:image/png;base64,"+base64.StdEncoding.EncodeToString(png))
	}

	out, err := goquery.OuterHtml(doc.Selection)
	if err != nil {
		return nil, fmt.Errorf("serialise report html: %w", err)
	}
	return []byte(out), nil
}

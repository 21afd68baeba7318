package search

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/wudi/annokit/geo"
)

// ParseTextLayerHTML builds a native layer from text-layer markup: one span
// per text fragment, absolutely positioned with left/top/width/height pixel
// styles. Spans without positioning styles are kept with a zero rectangle so
// their text still participates in matching; measurement skips them.
func ParseTextLayerHTML(r io.Reader, pageSize geo.Size) (*NativeLayer, error) {
	if pageSize.IsEmpty() {
		return nil, fmt.Errorf("search: page size required to normalize text layer")
	}
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("search: parse text layer: %w", err)
	}
	layer := &NativeLayer{}
	collectSpans(doc, pageSize, layer)
	return layer, nil
}

func collectSpans(n *html.Node, pageSize geo.Size, layer *NativeLayer) {
	if n.Type == html.ElementNode && n.Data == "span" {
		text := nodeText(n)
		if text != "" {
			layer.Spans = append(layer.Spans, Span{
				Text: text,
				Rect: styleRect(n, pageSize),
			})
		}
		return // text layer spans do not nest
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectSpans(c, pageSize, layer)
	}
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}

func styleRect(n *html.Node, pageSize geo.Size) geo.Rect {
	style := ""
	for _, a := range n.Attr {
		if a.Key == "style" {
			style = a.Val
			break
		}
	}
	props := parseStyle(style)
	return geo.Rect{
		X:      props["left"] / pageSize.Width,
		Y:      props["top"] / pageSize.Height,
		Width:  props["width"] / pageSize.Width,
		Height: props["height"] / pageSize.Height,
	}
}

// parseStyle extracts pixel-valued properties from an inline style string.
func parseStyle(style string) map[string]float64 {
	props := map[string]float64{}
	for _, decl := range strings.Split(style, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		if !strings.HasSuffix(value, "px") {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSuffix(value, "px"), 64)
		if err != nil {
			continue
		}
		props[strings.TrimSpace(name)] = v
	}
	return props
}

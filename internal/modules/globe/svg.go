package globe

import (
	"bytes"
	"html"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	oceanFill       = "#1e4d6b"
	graticuleStroke = "rgba(255,255,255,0.25)"
	borderStroke    = "#ffffff"
)

// SVG renders the frame as a standalone SVG document.
func (f *Frame) SVG() []byte {
	var b bytes.Buffer

	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="`)
	b.WriteString(num(f.Width))
	b.WriteString(`" height="`)
	b.WriteString(num(f.Height))
	b.WriteString(`" viewBox="0 0 `)
	b.WriteString(num(f.Width))
	b.WriteByte(' ')
	b.WriteString(num(f.Height))
	b.WriteString("\">\n")

	b.WriteString(`<path class="ocean" fill="` + oceanFill + `" d="` + f.Sphere + "\"/>\n")
	b.WriteString(`<path class="graticule" fill="none" stroke="` + graticuleStroke + `" stroke-width="0.5" d="` + f.Graticule + "\"/>\n")

	b.WriteString(`<g class="countries" stroke="` + borderStroke + "\" stroke-width=\"0.5\">\n")
	for _, s := range f.Shapes {
		if s.Path == "" {
			continue
		}
		b.WriteString(`<path class="country" data-key="`)
		b.WriteString(html.EscapeString(s.Key))
		if s.CountryID != "" {
			b.WriteString(`" data-country-id="`)
			b.WriteString(html.EscapeString(s.CountryID))
		}
		b.WriteString(`" fill="`)
		b.WriteString(s.Fill)
		b.WriteString(`" d="`)
		b.WriteString(s.Path)
		b.WriteString("\"><title>")
		b.WriteString(html.EscapeString(s.Name))
		b.WriteString("</title></path>\n")
	}
	b.WriteString("</g>\n")

	b.WriteString(`<g class="labels" text-anchor="middle" font-size="9px" font-weight="bold" fill="white" stroke="black" stroke-width="0.3px" paint-order="stroke" pointer-events="none">` + "\n")
	for _, l := range f.Labels {
		b.WriteString(`<text x="`)
		b.WriteString(num(l.X))
		b.WriteString(`" y="`)
		b.WriteString(num(l.Y))
		b.WriteString(`">`)
		b.WriteString(html.EscapeString(l.Text))
		b.WriteString("</text>\n")
	}
	b.WriteString("</g>\n</svg>\n")

	return b.Bytes()
}

// Msgpack encodes the frame as MessagePack using the json field names.
func (f *Frame) Msgpack() ([]byte, error) {
	return msgpack.Marshal(f)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

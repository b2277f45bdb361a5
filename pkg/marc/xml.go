package marc

import (
	"encoding/xml"
	"io"

	"github.com/agentstation/authmatch/pkg/constants"
	"github.com/agentstation/authmatch/pkg/errors"
)

// ErrNoDataField is returned by FindDataField when the document holds no
// datafield with the requested tag.
var ErrNoDataField = errors.New("no matching datafield")

// DataField is a MARC/XML datafield element.
type DataField struct {
	Tag       string     `xml:"tag,attr"`
	Ind1      string     `xml:"ind1,attr"`
	Ind2      string     `xml:"ind2,attr"`
	Subfields []Subfield `xml:"subfield"`
}

// Subfield is a MARC/XML subfield element.
type Subfield struct {
	Code  string `xml:"code,attr"`
	Value string `xml:",chardata"`
}

// FindDataField streams a MARC/XML document and decodes the first
// datafield whose tag attribute equals tag. Records wrapped in another
// envelope (an Atom feed from WorldCat, a MARC collection) are searched
// as well. Elements outside the MARC21 slim namespace are ignored unless
// they carry no namespace at all.
func FindDataField(r io.Reader, tag string) (*DataField, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, ErrNoDataField
		}
		if err != nil {
			return nil, errors.WrapParse("xml", "", err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "datafield" || !marcSpace(start.Name.Space) {
			continue
		}
		if attr(start, "tag") != tag {
			continue
		}

		var df DataField
		if err := dec.DecodeElement(&df, &start); err != nil {
			return nil, errors.WrapParse("xml", "", err)
		}
		return &df, nil
	}
}

// ParseDataField returns the allowed subfields of df in document order.
func ParseDataField(df *DataField, allow AllowList) Subfields {
	result := Subfields{}
	if df == nil {
		return result
	}
	for _, sf := range df.Subfields {
		if allow.Allows(sf.Code) {
			result.Add(sf.Code, sf.Value)
		}
	}
	return result
}

func marcSpace(space string) bool {
	return space == "" || space == constants.MARCXMLNamespace
}

func attr(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

package testgen

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const (
	documentHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	documentFooter = `<w:sectPr/></w:body></w:document>`
)

// BuildDocx returns a minimal Word document with one paragraph per entry.
func BuildDocx(paragraphs []string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	parts := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"[Content_Types].xml", writeString(contentTypesXML)},
		{"_rels/.rels", writeString(relsXML)},
		{"word/document.xml", func(w io.Writer) error { return writeDocument(w, paragraphs) }},
	}
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, err
		}
		if err := p.write(w); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	log.Debugf("built docx with %d paragraphs, %s", len(paragraphs), humanize.Bytes(uint64(buf.Len())))
	return buf.Bytes(), nil
}

func writeString(s string) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, s)
		return err
	}
}

func writeDocument(w io.Writer, paragraphs []string) error {
	if _, err := io.WriteString(w, documentHeader); err != nil {
		return err
	}
	for _, p := range paragraphs {
		if _, err := io.WriteString(w, `<w:p><w:r><w:t xml:space="preserve">`); err != nil {
			return err
		}
		// line breaks inside a paragraph become soft breaks
		for i, line := range strings.Split(p, "\n") {
			if i > 0 {
				if _, err := io.WriteString(w, `</w:t><w:br/><w:t xml:space="preserve">`); err != nil {
					return err
				}
			}
			if err := xml.EscapeText(w, []byte(line)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</w:t></w:r></w:p>`); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, documentFooter)
	return err
}

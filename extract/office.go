package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"sort"
	"strconv"
	"strings"
)

// paragraph collects the character data of every t element beneath a
// paragraph, in document order. Elements are matched by local name, so the
// same type serves WordprocessingML (w:p, w:t) and DrawingML (a:p, a:t).
// Runs wrapped in hyperlinks, smart tags, insertions or content controls are
// included; deleted text (w:delText) and field codes are not.
type paragraph struct {
	content string
}

func (p *paragraph) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var (
		b      strings.Builder
		depth  int
		inText int
	)
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			depth++
			if el.Name.Local == "t" {
				inText++
			}
		case xml.EndElement:
			if depth == 0 {
				p.content = b.String()
				return nil
			}
			depth--
			if el.Name.Local == "t" && inText > 0 {
				inText--
			}
		case xml.CharData:
			if inText > 0 {
				b.Write(el)
			}
		}
	}
}

func (p paragraph) text() string {
	return p.content
}

func joinParagraphs(paras []paragraph) string {
	lines := make([]string, len(paras))
	for i, p := range paras {
		lines[i] = p.text()
	}
	return strings.Join(lines, "\n")
}

// documentXML represents the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

// slideXML represents the structure of ppt/slides/slideN.xml.
type slideXML struct {
	Shapes []struct {
		TextBody *struct {
			Paragraphs []paragraph `xml:"p"`
		} `xml:"txBody"`
	} `xml:"cSld>spTree>sp"`
}

// presentationXML lists slides in presentation order.
type presentationXML struct {
	Slides []struct {
		RelID string `xml:"http://schemas.openxmlformats.org/officeDocument/2006/relationships id,attr"`
	} `xml:"sldIdLst>sldId"`
}

type relationshipsXML struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

func openArchive(data []byte) (*zip.Reader, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	return reader, nil
}

func readPart(reader *zip.Reader, name string) ([]byte, error) {
	for _, file := range reader.File {
		if file.Name != name {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptArchive, name, err)
		}
		defer rc.Close()

		content, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptArchive, name, err)
		}
		return content, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrMissingPart, name)
}

// docxText returns the body paragraphs of a DOCX joined with newlines.
func docxText(data []byte) (string, error) {
	reader, err := openArchive(data)
	if err != nil {
		return "", err
	}
	content, err := readPart(reader, "word/document.xml")
	if err != nil {
		return "", err
	}

	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return "", fmt.Errorf("%w: word/document.xml: %v", ErrCorruptArchive, err)
	}
	return strings.TrimSpace(joinParagraphs(doc.Body.Paragraphs)), nil
}

// pptxText returns the text of every shape on every slide, one shape per
// line, in presentation order.
func pptxText(data []byte) (string, error) {
	reader, err := openArchive(data)
	if err != nil {
		return "", err
	}

	slides := slideOrder(reader)
	if len(slides) == 0 {
		return "", nil
	}

	var shapes []string
	for _, name := range slides {
		content, err := readPart(reader, name)
		if err != nil {
			return "", err
		}
		var slide slideXML
		if err := xml.Unmarshal(content, &slide); err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrCorruptArchive, name, err)
		}
		for _, shape := range slide.Shapes {
			if shape.TextBody == nil {
				continue
			}
			shapes = append(shapes, joinParagraphs(shape.TextBody.Paragraphs))
		}
	}
	return strings.TrimSpace(strings.Join(shapes, "\n")), nil
}

// slideOrder resolves slide part names from presentation.xml and its
// relationships. Archives without that metadata fall back to numeric
// order of ppt/slides/slideN.xml.
func slideOrder(reader *zip.Reader) []string {
	if ordered := slidesFromPresentation(reader); len(ordered) > 0 {
		return ordered
	}

	var slides []string
	for _, file := range reader.File {
		if slideNumber(file.Name) > 0 {
			slides = append(slides, file.Name)
		}
	}
	sort.Slice(slides, func(i, j int) bool {
		return slideNumber(slides[i]) < slideNumber(slides[j])
	})
	return slides
}

func slidesFromPresentation(reader *zip.Reader) []string {
	presContent, err := readPart(reader, "ppt/presentation.xml")
	if err != nil {
		return nil
	}
	relsContent, err := readPart(reader, "ppt/_rels/presentation.xml.rels")
	if err != nil {
		return nil
	}

	var pres presentationXML
	if err := xml.Unmarshal(presContent, &pres); err != nil {
		return nil
	}
	var rels relationshipsXML
	if err := xml.Unmarshal(relsContent, &rels); err != nil {
		return nil
	}

	targets := make(map[string]string, len(rels.Relationships))
	for _, rel := range rels.Relationships {
		targets[rel.ID] = rel.Target
	}

	var slides []string
	for _, s := range pres.Slides {
		target, ok := targets[s.RelID]
		if !ok {
			continue
		}
		if strings.HasPrefix(target, "/") {
			slides = append(slides, path.Clean(strings.TrimPrefix(target, "/")))
			continue
		}
		slides = append(slides, path.Clean(path.Join("ppt", target)))
	}
	return slides
}

// slideNumber parses N from "ppt/slides/slideN.xml", returning 0 otherwise.
func slideNumber(name string) int {
	if !strings.HasPrefix(name, "ppt/slides/slide") || !strings.HasSuffix(name, ".xml") {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml"))
	if err != nil {
		return 0
	}
	return n
}

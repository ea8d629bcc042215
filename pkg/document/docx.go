// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"unicode"

	"gitlab.com/tozd/go/errors"
)

// MainPart is the WordprocessingML part holding the document body.
const MainPart = "word/document.xml"

var ErrMissingPart = errors.Base("missing " + MainPart)

func init() {
	Register(&Docx{})
}

// 📄 Docx handles Office Open XML word processing documents.
//
// Decoding keeps the original archive. Encoding copies every zip entry
// verbatim except the main part, in which only the character data of changed
// <w:t> elements is replaced.
type Docx struct{}

// 🔍 CanLoad accepts .docx files, skipping Office lock files
func (d *Docx) CanLoad(filename string) bool {
	if strings.HasPrefix(filename, "~$") {
		return false
	}
	return strings.HasSuffix(strings.ToLower(filename), ".docx")
}

// 📝 Decode parses the main part into paragraphs and tables
func (d *Docx) Decode(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Errorf("opening archive: %w", err)
	}

	var part []byte
	for _, f := range zr.File {
		if f.Name != MainPart {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Errorf("opening %s: %w", MainPart, err)
		}
		part, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, errors.Errorf("reading %s: %w", MainPart, err)
		}
		break
	}
	if part == nil {
		return nil, ErrMissingPart
	}

	doc, spans, err := parseMainPart(part)
	if err != nil {
		return nil, errors.Errorf("parsing %s: %w", MainPart, err)
	}
	doc.codec = &docxCodec{archive: zr, part: part, spans: spans}
	return doc, nil
}

// textSpan locates one <w:t> element in the main part
type textSpan struct {
	tagStart    int64 // offset of "<w:t"
	tagEnd      int64 // offset just after the start tag
	contentEnd  int64 // offset of "</w:t>"
	selfClosing bool
}

type docxCodec struct {
	archive *zip.Reader
	part    []byte
	spans   []textSpan
}

// parseMainPart walks the raw token stream so byte offsets of every text
// element are known; nothing else in the part is interpreted.
func parseMainPart(part []byte) (*Document, []textSpan, error) {
	doc := &Document{}
	var (
		spans   []textSpan
		paras   []*Paragraph
		tables  []*Table
		cells   []*Cell
		open    []string // tracked elements still open, innermost last
		current *Run
		span    textSpan
		text    strings.Builder
	)

	closeTag := func(name string, off int64) error {
		if len(open) == 0 || open[len(open)-1] != name {
			return errors.Errorf("unexpected </w:%s> at offset %d", name, off)
		}
		open = open[:len(open)-1]
		return nil
	}

	dec := xml.NewDecoder(bytes.NewReader(part))
	for {
		off := dec.InputOffset()
		tok, err := dec.RawToken()
		if err == io.EOF {
			if len(open) > 0 {
				return nil, nil, errors.New("unexpected end of document")
			}
			break
		}
		if err != nil {
			return nil, nil, errors.Errorf("reading token at offset %d: %w", off, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != "w" {
				continue
			}
			switch t.Name.Local {
			case "p":
				p := &Paragraph{}
				if len(cells) > 0 {
					c := cells[len(cells)-1]
					c.Paragraphs = append(c.Paragraphs, p)
				} else {
					doc.Paragraphs = append(doc.Paragraphs, p)
				}
				paras = append(paras, p)
				open = append(open, "p")
			case "tbl":
				tbl := &Table{}
				doc.Tables = append(doc.Tables, tbl)
				tables = append(tables, tbl)
				open = append(open, "tbl")
			case "tr":
				if len(tables) > 0 {
					tbl := tables[len(tables)-1]
					tbl.Rows = append(tbl.Rows, &Row{})
				}
			case "tc":
				c := &Cell{}
				if len(tables) > 0 {
					tbl := tables[len(tables)-1]
					if len(tbl.Rows) == 0 {
						tbl.Rows = append(tbl.Rows, &Row{})
					}
					row := tbl.Rows[len(tbl.Rows)-1]
					row.Cells = append(row.Cells, c)
				}
				cells = append(cells, c)
				open = append(open, "tc")
			case "t":
				if len(paras) == 0 {
					continue
				}
				end := dec.InputOffset()
				current = &Run{ref: len(spans)}
				span = textSpan{
					tagStart:    off,
					tagEnd:      end,
					selfClosing: bytes.HasSuffix(part[off:end], []byte("/>")),
				}
				text.Reset()
				open = append(open, "t")
			}

		case xml.CharData:
			if current != nil {
				text.Write(t)
			}

		case xml.EndElement:
			if t.Name.Space != "w" {
				continue
			}
			switch t.Name.Local {
			case "p":
				if err := closeTag("p", off); err != nil {
					return nil, nil, err
				}
				paras = paras[:len(paras)-1]
			case "tbl":
				if err := closeTag("tbl", off); err != nil {
					return nil, nil, err
				}
				tables = tables[:len(tables)-1]
			case "tc":
				if err := closeTag("tc", off); err != nil {
					return nil, nil, err
				}
				cells = cells[:len(cells)-1]
			case "t":
				if current == nil {
					continue
				}
				if err := closeTag("t", off); err != nil {
					return nil, nil, err
				}
				span.contentEnd = off
				if span.selfClosing {
					span.contentEnd = span.tagEnd
				}
				current.Text = text.String()
				current.original = current.Text
				p := paras[len(paras)-1]
				p.Runs = append(p.Runs, current)
				spans = append(spans, span)
				current = nil
			}
		}
	}

	return doc, spans, nil
}

func (c *docxCodec) encode(doc *Document, w io.Writer) error {
	part, err := c.rewritePart(doc)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for _, f := range c.archive.File {
		if f.Name != MainPart {
			if err := zw.Copy(f); err != nil {
				return errors.Errorf("copying %s: %w", f.Name, err)
			}
			continue
		}
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   f.Method,
			Modified: f.Modified,
		})
		if err != nil {
			return errors.Errorf("creating %s: %w", f.Name, err)
		}
		if _, err := fw.Write(part); err != nil {
			return errors.Errorf("writing %s: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return errors.Errorf("closing archive: %w", err)
	}
	return nil
}

// rewritePart splices changed run text into a copy of the original part
func (c *docxCodec) rewritePart(doc *Document) ([]byte, error) {
	changed := make(map[int]string)
	doc.Walk(func(_ Location, p *Paragraph) {
		for _, r := range p.Runs {
			if r.Modified() {
				changed[r.ref] = r.Text
			}
		}
	})
	if len(changed) == 0 {
		return c.part, nil
	}

	var out bytes.Buffer
	out.Grow(len(c.part))
	var last int64
	for i, s := range c.spans {
		newText, ok := changed[i]
		if !ok {
			continue
		}
		if s.selfClosing {
			return nil, errors.Errorf("cannot write text into empty element at offset %d", s.tagStart)
		}
		startTag := c.part[s.tagStart:s.tagEnd]
		out.Write(c.part[last:s.tagStart])
		if needsPreserve(newText) && !bytes.Contains(startTag, []byte("xml:space")) {
			out.WriteString(`<w:t xml:space="preserve"`)
			out.Write(startTag[len("<w:t"):])
		} else {
			out.Write(startTag)
		}
		if err := xml.EscapeText(&out, []byte(newText)); err != nil {
			return nil, errors.Errorf("escaping text: %w", err)
		}
		last = s.contentEnd
	}
	out.Write(c.part[last:])
	return out.Bytes(), nil
}

func needsPreserve(s string) bool {
	if s == "" {
		return false
	}
	first := []rune(s)[0]
	last := []rune(s)[len([]rune(s))-1]
	return unicode.IsSpace(first) || unicode.IsSpace(last)
}

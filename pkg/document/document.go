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

// Package document models a rich-text document as paragraphs of runs plus
// tables of cells, and loads/saves it through a registered format.
package document

import (
	"fmt"
	"io"
	"strings"

	"gitlab.com/tozd/go/errors"
)

// 📝 Run is the smallest span of text sharing one formatting definition.
// Only Text may be changed; formatting stays with the source format.
type Run struct {
	Text string

	original string
	ref      int
}

// 🔄 Modified reports whether the text differs from what was loaded
func (r *Run) Modified() bool {
	return r.Text != r.original
}

// 📄 Paragraph is an ordered list of runs
type Paragraph struct {
	Runs []*Run
}

// Text joins the text of every run.
func (p *Paragraph) Text() string {
	var b strings.Builder
	for _, r := range p.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

type Cell struct {
	Paragraphs []*Paragraph
}

type Row struct {
	Cells []*Cell
}

type Table struct {
	Rows []*Row
}

// 📍 Location addresses a paragraph. Table is -1 for body paragraphs.
type Location struct {
	Table     int
	Row       int
	Cell      int
	Paragraph int
}

func (l Location) String() string {
	if l.Table < 0 {
		return fmt.Sprintf("paragraph %d", l.Paragraph+1)
	}
	return fmt.Sprintf("table %d row %d cell %d paragraph %d", l.Table+1, l.Row+1, l.Cell+1, l.Paragraph+1)
}

// encoder writes a document back in the format it was loaded from
type encoder interface {
	encode(doc *Document, w io.Writer) error
}

// 📚 Document is a loaded, mutable rich-text tree
type Document struct {
	Paragraphs []*Paragraph
	Tables     []*Table

	codec encoder
}

// 🚶 Walk visits body paragraphs first, then every table row, cell and
// paragraph in document order.
func (d *Document) Walk(fn func(loc Location, p *Paragraph)) {
	for i, p := range d.Paragraphs {
		fn(Location{Table: -1, Row: -1, Cell: -1, Paragraph: i}, p)
	}
	for ti, t := range d.Tables {
		for ri, r := range t.Rows {
			for ci, c := range r.Cells {
				for pi, p := range c.Paragraphs {
					fn(Location{Table: ti, Row: ri, Cell: ci, Paragraph: pi}, p)
				}
			}
		}
	}
}

// Modified reports whether any run changed since load.
func (d *Document) Modified() bool {
	modified := false
	d.Walk(func(_ Location, p *Paragraph) {
		for _, r := range p.Runs {
			if r.Modified() {
				modified = true
			}
		}
	})
	return modified
}

// 💾 Save serializes the document in its source format
func (d *Document) Save(w io.Writer) error {
	if d.codec == nil {
		return errors.New("document has no format to save with")
	}
	if err := d.codec.encode(d, w); err != nil {
		return errors.Errorf("encoding document: %w", err)
	}
	return nil
}

// 🏭 New builds an in-memory document. Saving it writes plain text, one
// paragraph per line, body first then table cells.
func New(paragraphs []*Paragraph, tables ...*Table) *Document {
	doc := &Document{Paragraphs: paragraphs, Tables: tables, codec: plainText{}}
	doc.Walk(func(_ Location, p *Paragraph) {
		for _, r := range p.Runs {
			r.original = r.Text
		}
	})
	return doc
}

// NewParagraph builds a paragraph with one run per argument.
func NewParagraph(runs ...string) *Paragraph {
	p := &Paragraph{}
	for _, text := range runs {
		p.Runs = append(p.Runs, &Run{Text: text, original: text})
	}
	return p
}

// NewTable builds a table of single-paragraph cells, one run per cell.
func NewTable(rows ...[]string) *Table {
	t := &Table{}
	for _, cells := range rows {
		row := &Row{}
		for _, text := range cells {
			row.Cells = append(row.Cells, &Cell{Paragraphs: []*Paragraph{NewParagraph(text)}})
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

type plainText struct{}

func (plainText) encode(doc *Document, w io.Writer) error {
	var err error
	doc.Walk(func(_ Location, p *Paragraph) {
		if err != nil {
			return
		}
		_, err = io.WriteString(w, p.Text()+"\n")
	})
	return err
}

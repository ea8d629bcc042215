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
	"bytes"
	"os"
	"path/filepath"

	"gitlab.com/tozd/go/errors"
)

var ErrUnsupportedFormat = errors.Base("unsupported document format")

// 🔌 Format decodes one kind of rich-text file
type Format interface {
	// 🔍 CanLoad checks if this format handles the given file name
	CanLoad(filename string) bool

	// 📝 Decode builds a document from the file bytes
	Decode(data []byte) (*Document, error)
}

var (
	// 🗺️ formats is a list of available formats
	formats []Format
)

// 📝 Register registers a format
func Register(f Format) {
	formats = append(formats, f)
}

// 🎯 FormatFor returns a format that can handle the given file
func FormatFor(filename string) Format {
	for _, f := range formats {
		if f.CanLoad(filename) {
			return f
		}
	}
	return nil
}

// 📂 Load reads and decodes the document at path
func Load(path string) (*Document, error) {
	f := FormatFor(filepath.Base(path))
	if f == nil {
		return nil, errors.Errorf("%s: %w", filepath.Base(path), ErrUnsupportedFormat)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading document: %w", err)
	}

	doc, err := f.Decode(data)
	if err != nil {
		return nil, errors.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return doc, nil
}

// 💾 SaveFile writes the document to path through a temp file and rename,
// replacing any existing file.
func SaveFile(doc *Document, path string) error {
	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".docmigrate-*")
	if err != nil {
		return errors.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.Errorf("renaming temp file: %w", err)
	}
	return nil
}

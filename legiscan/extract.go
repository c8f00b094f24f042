// Copyright 2025 Poiesic Systems
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

package legiscan

import (
	"bytes"
	"fmt"
	"mime"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TextExtractor converts a raw bill document into plain text based on
// its declared MIME type.
type TextExtractor interface {
	Extract(mimeType string, doc []byte) (string, error)
}

// DefaultExtractor handles HTML and plain-text documents. Binary formats
// such as PDF return ErrUnsupportedMIME.
type DefaultExtractor struct{}

// Extract implements TextExtractor.
func (DefaultExtractor) Extract(mimeType string, doc []byte) (string, error) {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(mimeType))
	}

	switch {
	case mediaType == "text/html" || mediaType == "application/xhtml+xml":
		return htmlToText(doc)
	case strings.HasPrefix(mediaType, "text/"):
		return string(doc), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedMIME, mimeType)
	}
}

func htmlToText(doc []byte) (string, error) {
	parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return "", fmt.Errorf("legiscan: parsing html document: %w", err)
	}
	parsed.Find("script, style").Remove()

	var lines []string
	for _, line := range strings.Split(parsed.Text(), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

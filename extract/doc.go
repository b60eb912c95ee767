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


// Package extract turns uploaded document bytes into plain text.
//
// Extractor dispatches on core.Format:
//
//   - PDF: the native text layer is read with pdftotext. If the result is
//     shorter than MinTextLength or its alphanumeric density is below
//     MinDensity, every page is rasterized and passed through OCR.
//   - DOCX: paragraphs of word/document.xml joined with newlines.
//   - PPTX: text shapes of every slide, in presentation order.
//   - Text: UTF-8 with invalid sequences replaced by U+FFFD.
//   - Image: OCR, or empty text when the image policy is "skip".
//   - Anything else: empty text and no error.
//
// External programs (pdftotext, pdftoppm, tesseract) run through a
// CommandRunner so tests can substitute canned output. Textract provides a
// managed OCR alternative to Tesseract.
//
// Failures are returned as *core.ExtractionError and match core.ErrExtraction.
package extract

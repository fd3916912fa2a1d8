package resume

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"prepcoach/internal/errors"
	"prepcoach/internal/utils"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Document is a resume file read from disk and checked before upload
type Document struct {
	Path    string
	Name    string
	Size    int64
	Content []byte
}

// FileRules restrict which files may be uploaded
type FileRules struct {
	MaxSize           int64
	AllowedExtensions []string
}

// LoadDocument reads a resume from disk. The file must exist, match the
// allowed extensions, fit within the size limit and contain readable text.
func LoadDocument(path string, rules FileRules) (*Document, error) {
	if err := utils.ValidateInputFile(path); err != nil {
		return nil, err
	}
	if !utils.HasAllowedExtension(path, rules.AllowedExtensions) {
		return nil, errors.NewValidationError(errors.ErrCodeUnsupportedFile,
			fmt.Sprintf("%s is not a supported resume format (allowed: %s)",
				filepath.Base(path), strings.Join(rules.AllowedExtensions, ", ")), nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "cannot inspect resume file", err)
	}
	if rules.MaxSize > 0 && info.Size() > rules.MaxSize {
		return nil, errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("%s is %s; the limit is %s", filepath.Base(path),
				utils.FormatFileSize(info.Size()), utils.FormatFileSize(rules.MaxSize)), nil)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("cannot read file: %s", path), err)
	}
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, errors.NewValidationError(errors.ErrCodeEmptyDocument,
			fmt.Sprintf("%s is empty", filepath.Base(path)), nil)
	}
	if _, err := ExtractText(path, content); err != nil {
		return nil, err
	}

	return &Document{
		Path:    path,
		Name:    filepath.Base(path),
		Size:    info.Size(),
		Content: content,
	}, nil
}

// ExtractText returns the plain text of a resume, chosen by file extension
func ExtractText(name string, data []byte) (string, error) {
	ext := utils.GetFileExtension(name)
	switch {
	case ext == ".pdf":
		return extractPDFText(data)
	case ext == ".docx":
		return extractDocxText(data)
	case utils.IsTextFile(name):
		return string(data), nil
	default:
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedFile,
			fmt.Sprintf("cannot read text from %s files", ext), nil)
	}
}

func extractPDFText(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			text, err = "", unreadable("PDF", fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", unreadable("PDF", err)
	}
	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", unreadable("PDF", err)
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String()), nil
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>|<w:br/>|<w:tab/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
)

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", unreadable("DOCX", err)
	}
	defer func() { _ = doc.Close() }()

	content := docxParagraphEnd.ReplaceAllString(doc.Editable().GetContent(), "\n")
	content = html.UnescapeString(xmlTag.ReplaceAllString(content, ""))

	var lines []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func unreadable(kind string, cause error) error {
	return errors.NewValidationError(errors.ErrCodeUnsupportedFile,
		fmt.Sprintf("the file is not a readable %s document", kind), cause)
}

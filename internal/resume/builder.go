package resume

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"prepcoach/internal/errors"
	"prepcoach/internal/types"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// NewDraft starts an empty resume draft
func NewDraft(now time.Time) *types.ResumeDraft {
	return &types.ResumeDraft{
		ID:        uuid.NewString(),
		CreatedAt: now.UTC(),
	}
}

// ValidateDraft checks the fields every resume needs
func ValidateDraft(d *types.ResumeDraft) error {
	if d == nil {
		return errors.NewValidationError(errors.ErrCodeMissingField, "the resume draft is empty", nil)
	}
	if strings.TrimSpace(d.Name) == "" {
		return errors.NewValidationError(errors.ErrCodeMissingField, "a name is required", nil)
	}
	if err := ValidateEmail(d.Email); err != nil {
		return err
	}
	for i, exp := range d.Experience {
		if strings.TrimSpace(exp.Title) == "" || strings.TrimSpace(exp.Company) == "" {
			return errors.NewValidationError(errors.ErrCodeMissingField,
				fmt.Sprintf("experience entry %d needs a title and a company", i+1), nil)
		}
	}
	return nil
}

// ValidateEmail performs the light check the backend also applies
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("%q is not a valid email address", email), nil)
	}
	return nil
}

// SplitList turns comma or newline separated input into a clean list
func SplitList(input string) []string {
	fields := strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == '\n' || r == ';' })
	seen := make(map[string]bool, len(fields))
	var out []string
	for _, field := range fields {
		field = strings.TrimSpace(field)
		key := strings.ToLower(field)
		if field == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, field)
	}
	return out
}

// RenderMarkdown renders a draft as a markdown resume
func RenderMarkdown(d *types.ResumeDraft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", d.Name)
	if d.Headline != "" {
		fmt.Fprintf(&b, "**%s**\n\n", d.Headline)
	}

	contact := []string{d.Email}
	if d.Phone != "" {
		contact = append(contact, d.Phone)
	}
	fmt.Fprintf(&b, "%s\n\n", strings.Join(contact, " | "))

	if d.Summary != "" {
		fmt.Fprintf(&b, "## Summary\n\n%s\n\n", d.Summary)
	}
	if len(d.Skills) > 0 {
		fmt.Fprintf(&b, "## Skills\n\n%s\n\n", strings.Join(d.Skills, ", "))
	}
	if len(d.Experience) > 0 {
		b.WriteString("## Experience\n\n")
		for _, exp := range d.Experience {
			fmt.Fprintf(&b, "### %s, %s\n\n", exp.Title, exp.Company)
			if exp.Period != "" {
				fmt.Fprintf(&b, "*%s*\n\n", exp.Period)
			}
			for _, line := range SplitLines(exp.Details) {
				fmt.Fprintf(&b, "- %s\n", line)
			}
			if exp.Details != "" {
				b.WriteString("\n")
			}
		}
	}
	if len(d.Education) > 0 {
		b.WriteString("## Education\n\n")
		for _, edu := range d.Education {
			line := fmt.Sprintf("- **%s**, %s", edu.Degree, edu.Institution)
			if edu.Year != "" {
				line += fmt.Sprintf(" (%s)", edu.Year)
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// SplitLines returns the non-blank lines of s
func SplitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*"))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// SaveDraft writes a draft as YAML so it can be edited and rebuilt later
func SaveDraft(path string, d *types.ResumeDraft) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return errors.NewInternalError("DRAFT_ENCODE_FAILED", "cannot encode resume draft", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED", fmt.Sprintf("Cannot write file: %s", path), err)
	}
	return nil
}

// LoadDraft reads a YAML draft written by SaveDraft
func LoadDraft(path string) (*types.ResumeDraft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound, fmt.Sprintf("File not found: %s", path), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, fmt.Sprintf("Cannot read file: %s", path), err)
	}
	var d types.ResumeDraft
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("%s is not a valid resume draft", path), err)
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return &d, nil
}

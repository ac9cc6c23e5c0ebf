package core

import (
	"github.com/JonMunkholm/ofertas/internal/tabular"
)

// FilePreview is what the user sees right after uploading: the header and
// first rows of the first sheet of the first file. Columns is the list the
// price column is chosen from.
type FilePreview struct {
	File   string                `json:"file"`
	Format string                `json:"format"`
	Sheet  *tabular.SheetPreview `json:"sheet,omitempty"`
	Error  string                `json:"error,omitempty"`
}

// Columns returns the preview header, or nil if the file had no rows or
// failed to decode.
func (p *FilePreview) Columns() []string {
	if p == nil || p.Sheet == nil {
		return nil
	}
	return p.Sheet.Columns
}

// PreviewFile decodes f and previews its first sheet. A decode failure is
// recorded in the preview rather than returned, so a broken first file does
// not block the upload of the others.
func PreviewFile(f UploadedFile, limit int) *FilePreview {
	opts := tabular.Options{FileName: f.Name}
	p := &FilePreview{
		File:   f.Name,
		Format: tabular.DetectFormat(f.Name, f.Data).String(),
	}

	sp, err := tabular.Preview(f.Data, opts, limit)
	if err != nil {
		p.Error = err.Error()
		return p
	}
	p.Sheet = sp
	return p
}

package api

import "time"

// FileInfo links uploaded files to an entry field.
type FileInfo struct {
	Ref    string `json:"ref" validate:"required"`   // content type uid, e.g. api::article.article
	RefId  string `json:"refId" validate:"required"` // entry id
	Field  string `json:"field" validate:"required"`
	Source string `json:"source,omitempty"` // plugin name, e.g. users-permissions
	Path   string `json:"path,omitempty"`   // folder for providers that support it
}

// FileInfoUpdate patches the metadata of an uploaded file.
type FileInfoUpdate struct {
	FileId          int64   `json:"-" validate:"required"`
	Name            *string `json:"name,omitempty"`
	Caption         *string `json:"caption,omitempty"`
	AlternativeText *string `json:"alternativeText,omitempty"`
}

// UploadedFile is a file object from the upload plugin.
type UploadedFile struct {
	Id              int64                 `json:"id" validate:"required"`
	Name            string                `json:"name"`
	AlternativeText *string               `json:"alternativeText"`
	Caption         *string               `json:"caption"`
	Width           *int                  `json:"width"`
	Height          *int                  `json:"height"`
	Formats         map[string]FileFormat `json:"formats,omitempty"`
	Hash            string                `json:"hash"`
	Ext             string                `json:"ext"`
	Mime            string                `json:"mime"`
	Size            float64               `json:"size"` // kilobytes
	Url             string                `json:"url"`
	PreviewUrl      *string               `json:"previewUrl"`
	Provider        string                `json:"provider"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

type FileFormat struct {
	Name   string  `json:"name"`
	Hash   string  `json:"hash"`
	Ext    string  `json:"ext"`
	Mime   string  `json:"mime"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Size   float64 `json:"size"`
	Url    string  `json:"url"`
}
